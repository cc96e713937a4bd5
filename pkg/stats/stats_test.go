package stats

import (
	"errors"
	"math"
	"testing"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"single", []float64{4}, 4},
		{"one two three", []float64{1, 2, 3}, 2},
		{"symmetric", []float64{-1, 1, -1, 1}, 0},
		{"offset", []float64{1e9 + 1, 1e9 + 2, 1e9 + 3}, 1e9 + 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Mean(tt.in)
			if err != nil {
				t.Fatalf("Mean(%v) error: %v", tt.in, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Mean(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMeanEmpty(t *testing.T) {
	for _, in := range [][]float64{nil, {}} {
		if _, err := Mean(in); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Mean(%v) error = %v, want ErrEmptyInput", in, err)
		}
	}
}

func TestMeanDeterministic(t *testing.T) {
	in := []float64{0.3, -2.7, 11.25, 8, -0.001}
	first, _ := Mean(in)
	second, _ := Mean(in)
	if first != second {
		t.Errorf("repeated Mean differs: %v != %v", first, second)
	}
}
