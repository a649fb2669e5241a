package floatutils

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r1"
)

func TestArgmaxFirstOccurrence(t *testing.T) {
	tests := []struct {
		values []float64
		want   int
	}{
		{[]float64{0, 0, 0}, 0},
		{[]float64{1, 3, 3, 2}, 1},
		{[]float64{-1, -2, -0.5}, 2},
	}
	for _, test := range tests {
		if got := Argmax(test.values); got != test.want {
			t.Errorf("argmax(%v) \n\twant(%v) \n\thave(%v)", test.values,
				test.want, got)
		}
	}
}

func TestClipInterval(t *testing.T) {
	i := r1.Interval{Min: -8, Max: 8}
	tests := map[float64]float64{
		100:         8,
		-9:          -8,
		0.5:         0.5,
		math.Inf(1): 8,
	}
	for value, want := range tests {
		if got := ClipInterval(value, i); got != want {
			t.Errorf("clip(%v) \n\twant(%v) \n\thave(%v)", value, want, got)
		}
	}
}
