package peaks

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hump(center int, width float64) []float64 {
	h := make([]float64, 180)
	for i := range h {
		d := float64(i - center)
		h[i] = math.Exp(-0.5 * (d / width) * (d / width))
		if h[i] < 1e-6 {
			h[i] = 0
		}
	}
	return h
}

func TestFindSingleHump(t *testing.T) {
	found := Find(hump(90, 8), 30, 150, DefaultWindow, DefaultTopK)
	require.Len(t, found, 1)
	assert.Equal(t, 90, found[0].Bin)
	assert.Greater(t, found[0].Value, 0.0)
}

func TestFindEmptyInputs(t *testing.T) {
	h := hump(90, 5)
	tests := []struct {
		name       string
		hist       []float64
		start, end int
	}{
		{"empty histogram", nil, 0, 10},
		{"start equals end", h, 50, 50},
		{"start after end", h, 100, 50},
		{"negative start", h, -1, 50},
		{"end out of bounds", h, 0, 181},
		{"single bin", h, 90, 91},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Find(tt.hist, tt.start, tt.end, DefaultWindow, DefaultTopK))
		})
	}
}

func TestFindOrdersAndTruncates(t *testing.T) {
	h := make([]float64, 180)
	h[40] = 0.2
	h[70] = 0.5
	h[100] = 0.1
	h[130] = 0.3

	found := Find(h, 0, 180, 1, 3)
	require.Len(t, found, 3)
	assert.Equal(t, []Peak{{70, 0.5}, {130, 0.3}, {40, 0.2}}, found)

	all := Find(h, 0, 180, 1, 0)
	assert.Len(t, all, 4)
}

func TestFindTiesPreferLowerBin(t *testing.T) {
	h := make([]float64, 180)
	h[120] = 0.4
	h[60] = 0.4
	h[90] = 0.4

	found := Find(h, 0, 180, 1, 0)
	require.Len(t, found, 3)
	assert.Equal(t, 60, found[0].Bin)
	assert.Equal(t, 90, found[1].Bin)
	assert.Equal(t, 120, found[2].Bin)
}

func TestFindEndpointsUseInteriorNeighborOnly(t *testing.T) {
	h := make([]float64, 180)
	// Descending from the left edge of the range, ascending into the right.
	h[30], h[31], h[32] = 0.5, 0.3, 0.1
	h[147], h[148], h[149] = 0.1, 0.2, 0.6
	// Values just outside the range are larger but must not be compared.
	h[29] = 0.9
	h[150] = 0.9

	found := Find(h, 30, 150, 1, 0)
	require.Len(t, found, 2)
	assert.Equal(t, 149, found[0].Bin)
	assert.Equal(t, 30, found[1].Bin)
}

func TestSmoothWrapsAroundFullCircle(t *testing.T) {
	h := make([]float64, 180)
	h[179] = 5
	h[0] = 5

	s := Smooth(h, 0, 3, 5)
	require.Len(t, s, 3)
	// Bin 0 sees 178, 179, 0, 1, 2.
	assert.InDelta(t, 2.0, s[0], 1e-12)
	// Bin 1 sees 179, 0, 1, 2, 3.
	assert.InDelta(t, 2.0, s[1], 1e-12)
	// Bin 2 sees 0..4.
	assert.InDelta(t, 1.0, s[2], 1e-12)
}

func TestSmoothWindowEdgeCases(t *testing.T) {
	h := []float64{1, 2, 3, 4}

	assert.Equal(t, []float64{2, 3}, Smooth(h, 1, 3, 1))
	assert.Equal(t, []float64{2, 3}, Smooth(h, 1, 3, 0))

	// Even windows widen to the next odd width.
	assert.Equal(t, Smooth(h, 0, 4, 3), Smooth(h, 0, 4, 2))
}

func TestSmoothDoesNotModifyInput(t *testing.T) {
	h := hump(60, 4)
	orig := append([]float64(nil), h...)
	Find(h, 0, 180, 5, 3)
	assert.Equal(t, orig, h)
}
