package parser

// Literal marker lines of the Mach-1 text export.
const (
	TagSinusoid         = "<Sinusoid>"
	TagStressRelaxation = "<Stress Relaxation>"
	TagEndData          = "<END DATA>"
	TagDivider          = "<divider>"
)

// MultiAxisColumns is the width of a raw numeric row recorded with the multi-axis
// load cell: time, Z, X, Y, Fx, Fy, Fz, Tx, Ty, Tz.
const MultiAxisColumns = 10

// Raw column indices of the multi-axis layout.
const (
	ColTime = iota
	ColPositionZ
	ColPositionX
	ColPositionY
	ColForceX
	ColForceY
	ColForceZ
	ColTorqueX
	ColTorqueY
	ColTorqueZ
)

// Output column indices of a step / sinusoid table.
const (
	StepColPosition = iota
	StepColForce
	StepColTime
	StepColumns
)

// Table is a numeric table: one row per sample point, fixed width.
type Table [][]float64

// Rows returns the number of rows.
func (t Table) Rows() int { return len(t) }

// Cols returns the row width, or 0 for an empty table.
func (t Table) Cols() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// Column copies column j out of the table.
func (t Table) Column(j int) []float64 {
	col := make([]float64, len(t))
	for i, row := range t {
		col[i] = row[j]
	}
	return col
}

// Line is one trimmed input line together with its 1-based position in the file.
type Line struct {
	Number int
	Text   string
}

// Tags configures a section scan. Divider is optional.
type Tags struct {
	Start   string
	End     string
	Divider string
}

// Section is one start-tag..end-tag occurrence. Lines[0] is the start tag line
// itself; the end tag is not included.
type Section struct {
	Tag   string
	Start int // line number of the start tag
	Lines []Line
}

// Projection selects and reorders raw columns into an output table.
type Projection struct {
	// RawColumns is the exact column count every raw numeric row must have.
	RawColumns int
	// Columns holds the source column index for each output column.
	Columns []int
	// Absolute marks output columns stored as magnitudes (forces).
	Absolute []bool
}

// Format bundles the constants of one tagged-section export kind.
type Format struct {
	Name string
	Tags Tags
	// HeaderLines is the number of leading section lines (start tag included)
	// that are metadata and dropped before numeric parsing.
	HeaderLines int
	// FrequencyLine is the section line index holding "label\tvalue" for the
	// loading frequency, or -1 when the format carries none.
	FrequencyLine int
	// Step is the projection used for per-frequency / per-step tables.
	Step Projection
	// Bulk, when set, is the projection of the combined table.
	Bulk *Projection
}

// StepProjection maps a multi-axis row to (Z position, |Fz|, time).
var StepProjection = Projection{
	RawColumns: MultiAxisColumns,
	Columns:    []int{ColPositionZ, ColForceZ, ColTime},
	Absolute:   []bool{false, true, false},
}

// BulkProjection keeps the 10-column layout in order with Fx, Fy, Fz stored as
// magnitudes.
var BulkProjection = Projection{
	RawColumns: MultiAxisColumns,
	Columns:    []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
	Absolute:   []bool{false, false, false, false, true, true, true, false, false, false},
}

// SinusoidFormat describes <Sinusoid> sections: 7 header lines, the frequency on
// the 4th line.
var SinusoidFormat = Format{
	Name:          "sinusoid",
	Tags:          Tags{Start: TagSinusoid, End: TagEndData},
	HeaderLines:   7,
	FrequencyLine: 3,
	Step:          StepProjection,
}

// StressRelaxationFormat describes <Stress Relaxation> sections: 12 header lines,
// steps separated by <divider>.
var StressRelaxationFormat = Format{
	Name:          "stress-relaxation",
	Tags:          Tags{Start: TagStressRelaxation, End: TagEndData, Divider: TagDivider},
	HeaderLines:   12,
	FrequencyLine: -1,
	Step:          StepProjection,
	Bulk:          &BulkProjection,
}

// SinusoidTable is the table extracted for one loading frequency.
type SinusoidTable struct {
	Index     int // 1-based occurrence of the section in the file
	Frequency string
	Table     Table
}

// RelaxationSection holds the per-step tables and the combined table of one
// <Stress Relaxation> section.
type RelaxationSection struct {
	Index int
	Steps []Table
	Bulk  Table
}

// RelaxationResult is everything extracted from a stress-relaxation export.
type RelaxationResult struct {
	Sections []RelaxationSection
}
