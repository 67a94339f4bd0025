package analysis

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/user/cartilage_analyzer_go/internal/errors"
)

var validate = validator.New()

// Indenter carries the indentation geometry and material parameters of a run.
type Indenter struct {
	Radius               float64 `validate:"gt=0"`      // mm
	PoissonEquilibrium   float64 `validate:"gte=0,lt=1"`
	PoissonInstantaneous float64 `validate:"gte=0,lt=1"`
}

// SampleSpec carries the user-declared sample geometry and strain protocol.
type SampleSpec struct {
	Thickness float64   `validate:"gt=0"` // mm
	Strains   []float64 `validate:"min=1,dive,gt=0,lt=1"`
}

// Validate checks the indenter parameters.
func (i Indenter) Validate() error {
	return structErrors(validate.Struct(i))
}

// Validate checks the sample parameters and that one strain is declared per
// step file. It needs no file contents, so callers run it before reading any.
func (s SampleSpec) Validate(stepFiles int) error {
	if err := structErrors(validate.Struct(s)); err != nil {
		return err
	}
	return CheckStepCount(s.Strains, stepFiles)
}

// CheckStepCount rejects a strain list whose length differs from the number of
// step tables.
func CheckStepCount(strains []float64, steps int) error {
	if len(strains) != steps {
		return apperrors.NewConfig("Strains", apperrors.CodeStrainCountMismatch,
			fmt.Sprintf("%d strains declared for %d step files", len(strains), steps))
	}
	return nil
}

// structErrors converts validator output into configuration errors, one per field.
func structErrors(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewConfig("", apperrors.CodeInvalidParameter, err.Error())
	}
	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperrors.NewConfig(fe.Field(), apperrors.CodeInvalidParameter,
			fmt.Sprintf("value %v violates %s", fe.Value(), constraint(fe))))
	}
	return errors.Join(out...)
}

func constraint(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
