package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/user/cartilage_analyzer_go/internal/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS processing_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	entry_id    TEXT NOT NULL UNIQUE,
	run_id      TEXT NOT NULL,
	stage       TEXT NOT NULL,
	source      TEXT NOT NULL,
	digest      TEXT,
	status      TEXT NOT NULL,
	error_kind  TEXT,
	error_code  TEXT,
	message     TEXT,
	outputs     INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_processing_log_run ON processing_log(run_id);

CREATE TABLE IF NOT EXISTS sample_moduli (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	entry_id          TEXT NOT NULL,
	run_id            TEXT NOT NULL,
	sample            TEXT NOT NULL,
	kind              TEXT NOT NULL,
	poisson           REAL NOT NULL,
	steps             INTEGER NOT NULL,
	fitted_modulus    REAL NOT NULL,
	corrected_fitted  REAL NOT NULL,
	created_at        TEXT NOT NULL,
	FOREIGN KEY (entry_id) REFERENCES processing_log(entry_id)
);
`

// Stage names recorded in the ledger.
const (
	StageSinusoid   = "extract-sinusoid"
	StageRelaxation = "extract-relaxation"
	StageBuildInput = "build-input"
	StageEstimate   = "estimate"
	StageProcess    = "process"
)

// Entry statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Entry is one processed file or sample.
type Entry struct {
	ID        string
	RunID     string
	Stage     string
	Source    string
	Digest    string
	Status    string
	ErrorKind string
	ErrorCode string
	Message   string
	Outputs   int
	CreatedAt time.Time
}

// ModuliRecord is the sample-wide result of one modulus kind.
type ModuliRecord struct {
	EntryID         string
	RunID           string
	Sample          string
	Kind            string
	Poisson         float64
	Steps           int
	FittedModulus   float64
	CorrectedFitted float64
}

// Store manages the processing ledger in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database and runs migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends an entry, assigning its ID and timestamp when unset.
func (s *Store) Record(e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = StatusOK
	}

	_, err := s.db.Exec(
		`INSERT INTO processing_log (entry_id, run_id, stage, source, digest, status, error_kind, error_code, message, outputs, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RunID, e.Stage, e.Source,
		nullIfEmpty(e.Digest), e.Status,
		nullIfEmpty(e.ErrorKind), nullIfEmpty(e.ErrorCode), nullIfEmpty(e.Message),
		e.Outputs, e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("record entry: %w", err)
	}
	return e, nil
}

// RecordModuli stores the sample-wide fitted moduli of an estimate entry.
func (s *Store) RecordModuli(entry Entry, sample string, res *analysis.Result) error {
	if res == nil {
		return fmt.Errorf("record moduli: no result")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, ct := range []*analysis.CorrectionTable{res.Equilibrium, res.Instantaneous} {
		if ct == nil || ct.Steps() == 0 {
			continue
		}
		_, err := tx.Exec(
			`INSERT INTO sample_moduli (entry_id, run_id, sample, kind, poisson, steps, fitted_modulus, corrected_fitted, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.RunID, sample, ct.Kind.String(), ct.Poisson, ct.Steps(),
			ct.FittedModulus[0], ct.CorrectedFitted[0], now,
		)
		if err != nil {
			return fmt.Errorf("insert moduli: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListRun returns the entries of a run in insertion order.
func (s *Store) ListRun(runID string) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT entry_id, run_id, stage, source, digest, status, error_kind, error_code, message, outputs, created_at
		 FROM processing_log WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                           Entry
			digest, kind, code, message sql.NullString
			created                     string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Stage, &e.Source, &digest, &e.Status,
			&kind, &code, &message, &e.Outputs, &created); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Digest, e.ErrorKind, e.ErrorCode, e.Message = digest.String, kind.String, code.String, message.String
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListModuli returns the moduli recorded in a run.
func (s *Store) ListModuli(runID string) ([]ModuliRecord, error) {
	rows, err := s.db.Query(
		`SELECT entry_id, run_id, sample, kind, poisson, steps, fitted_modulus, corrected_fitted
		 FROM sample_moduli WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list moduli: %w", err)
	}
	defer rows.Close()

	var out []ModuliRecord
	for rows.Next() {
		var m ModuliRecord
		if err := rows.Scan(&m.EntryID, &m.RunID, &m.Sample, &m.Kind, &m.Poisson, &m.Steps,
			&m.FittedModulus, &m.CorrectedFitted); err != nil {
			return nil, fmt.Errorf("scan moduli: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
