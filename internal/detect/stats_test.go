package detect

import (
	"math"
	"testing"
)

func TestStats(t *testing.T) {
	testCases := []struct {
		name   string
		fn     func([]float64) float64
		values []float64
		want   float64
	}{
		{"median odd", median, []float64{3, 1, 2}, 2},
		{"median even", median, []float64{4, 1, 3, 2}, 2.5},
		{"median empty", median, nil, 0},
		{"mean", mean, []float64{1, 2, 3, 6}, 3},
		{"stddev population", stddev, []float64{2, 4, 4, 4, 5, 5, 7, 9}, 2},
		{"stddev single", stddev, []float64{7}, 0},
		{"mad ignores outlier", mad, []float64{1, 2, 3, 4, 100}, 1},
		{"mad empty", mad, nil, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.fn(tc.values); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestMedian_DoesNotReorderInput(t *testing.T) {
	in := []float64{3, 1, 2}
	median(in)

	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Errorf("Expected input untouched, got %v", in)
	}
}

func TestClamp01(t *testing.T) {
	for in, want := range map[float64]float64{-0.5: 0, 0.4: 0.4, 1.7: 1} {
		if got := clamp01(in); got != want {
			t.Errorf("clamp01(%v): expected %v, got %v", in, want, got)
		}
	}
}
