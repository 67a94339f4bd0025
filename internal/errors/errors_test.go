package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "format with line",
			err:  NewFormat("S1.txt", 42, CodeTruncatedSection, "section <Sinusoid> has no <END DATA>"),
			want: "format error in S1.txt:42: section <Sinusoid> has no <END DATA>",
		},
		{
			name: "numeric with step and quantity",
			err:  NewNumeric(2, "cumulative strain", CodeDivideByZero, "strain is zero"),
			want: "numeric error (step 2, cumulative strain): strain is zero",
		},
		{
			name: "config with field",
			err:  NewConfig("Strains", CodeStrainCountMismatch, "3 strains for 2 step files"),
			want: "configuration error [Strains]: 3 strains for 2 step files",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_KindAndCode(t *testing.T) {
	cause := fmt.Errorf("strconv: bad float")
	base := NewFormat("", 7, CodeNonNumeric, "token \"x\" is not a number").Wrap(cause)
	wrapped := fmt.Errorf("extract: %w", base.WithFile("a.txt"))

	assert.True(t, IsKind(wrapped, KindFormat))
	assert.False(t, IsKind(wrapped, KindNumeric))
	assert.Equal(t, CodeNonNumeric, CodeOf(wrapped))
	assert.True(t, errors.Is(wrapped, &Error{Code: CodeNonNumeric}))
	assert.False(t, errors.Is(wrapped, &Error{Code: CodeMalformedRow}))
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "a.txt:7")

	// WithFile must not mutate the original.
	assert.Equal(t, "", base.File)
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, "", CodeOf(errors.New("plain")))
	assert.False(t, IsKind(nil, KindConfig))
}
