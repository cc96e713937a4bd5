package stats_test

import (
	"fmt"

	"github.com/siqueiraa/FrameFlow/pkg/stats"
)

func ExampleMean() {
	m, _ := stats.Mean([]float64{1, 2, 3})
	fmt.Printf("mean=%.1f\n", m)

	_, err := stats.Mean(nil)
	fmt.Println(err)

	// Output:
	// mean=2.0
	// mean of empty input is undefined
}
