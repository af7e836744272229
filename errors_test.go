package coffea

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Is(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		msg      string
	}{
		{"duplicate", &DuplicateNameError{Kind: "weight", Name: "pileup"}, ErrDuplicateName, `weight "pileup" already exists`},
		{"variation", &UnknownVariationError{Variation: "puUp"}, ErrUnknownVariation, "puUp"},
		{"selection", &UnknownSelectionError{Name: "twoMuons"}, ErrUnknownSelection, "twoMuons"},
		{"length", &LengthMismatchError{Name: "sf", Expected: 10, Actual: 9}, ErrLengthMismatch, "sf"},
		{"types", NewIncompatibleTypesError(1, "x", nil), ErrIncompatibleTypes, "cannot combine int with string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("chunk DY:f[0:10]: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Contains(t, tt.err.Error(), tt.msg)

			for _, other := range []error{ErrDuplicateName, ErrUnknownVariation, ErrUnknownSelection, ErrLengthMismatch, ErrIncompatibleTypes} {
				if other != tt.sentinel {
					assert.NotErrorIs(t, tt.err, other)
				}
			}
		})
	}
}

func TestIncompatibleTypesError_Cause(t *testing.T) {
	cause := errors.New("length 2 vs 3")
	err := NewIncompatibleTypesError([]float64{}, []float64{}, cause)
	err.Path = "DY/bins"

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrIncompatibleTypes)
	assert.Equal(t, "cannot combine []float64 with []float64 at DY/bins: length 2 vs 3", err.Error())

	var ite *IncompatibleTypesError
	assert.True(t, errors.As(fmt.Errorf("merge: %w", err), &ite))
	assert.Equal(t, "DY/bins", ite.Path)
}
