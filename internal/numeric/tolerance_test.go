package numeric

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSum(t *testing.T) {
	tests := []struct {
		name    string
		vals    []float64
		target  float64
		wantErr bool
	}{
		{name: "empty", vals: nil, target: 42, wantErr: false},
		{name: "exact zero", vals: []float64{-0.45, 0.5, -0.05}, target: 0, wantErr: false},
		{name: "exact target", vals: []float64{1, 2, 3}, target: 6, wantErr: false},
		{name: "all zero", vals: []float64{0, 0, 0}, target: 0, wantErr: false},
		{name: "drift", vals: []float64{1, 1, 1}, target: 2, wantErr: true},
		{name: "nonzero with zero values", vals: []float64{0, 0}, target: 1e-300, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSum(tt.vals, tt.target)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckSum_ToleranceScalesWithMagnitude(t *testing.T) {
	// Absolute drift of ~1e-4 is within tolerance around 1e12.
	big := 1e12
	assert.NoError(t, CheckSum([]float64{big, -big}, big*Epsilon/2))

	// The same absolute drift around small values is out of tolerance.
	assert.Error(t, CheckSum([]float64{1, -1}, big*Epsilon/2))
}

func TestCheckSum_UsesMagnitudeOfNegatives(t *testing.T) {
	// A signed max would be -3 here and make the tolerance negative.
	assert.NoError(t, CheckSum([]float64{-3, -4}, -7))
}

func TestCheckSum_ErrorDetails(t *testing.T) {
	vals := []float64{1, 2, -4}
	err := CheckSum(vals, 0)
	require.Error(t, err)

	var tolErr *ToleranceError
	require.True(t, errors.As(err, &tolErr))
	assert.Equal(t, -1.0, tolErr.Sum)
	assert.Equal(t, 4.0, tolErr.Max)
	assert.Equal(t, 1.0, tolErr.Diff)
	assert.Contains(t, err.Error(), "sum=-1")

	vals[0] = 100
	assert.Equal(t, 1.0, tolErr.Values[0], "error keeps its own copy")
}

func TestMustSum(t *testing.T) {
	assert.NotPanics(t, func() { MustSum([]float64{0.1, 0.2}, 0.30000000000000004) })
	assert.Panics(t, func() { MustSum([]float64{1}, 2) })
}

func TestWithinRel(t *testing.T) {
	assert.True(t, WithinRel(1000, 1000.0000001, 1e-9))
	assert.False(t, WithinRel(1000, 1001, 1e-9))
	assert.True(t, WithinRel(0, 1e-10, 1e-9), "scale floors at 1")
}
