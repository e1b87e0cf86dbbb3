package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Property 9: the largest-window selection.
func TestFindLargestWindowInThreshold(t *testing.T) {
	cases := []struct {
		name      string
		values    []float64
		threshold float64
		left      int
		right     int
	}{
		{
			name:      "example from the reference batcher",
			values:    []float64{0.0, 0.05, 0.1, 0.4, 0.5},
			threshold: 0.2,
			left:      0,
			right:     2,
		},
		{
			name:      "whole series fits",
			values:    []float64{1.0, 1.01, 1.02},
			threshold: 1.0,
			left:      0,
			right:     2,
		},
		{
			name:      "no two values fit together",
			values:    []float64{0, 10, 20},
			threshold: 1.0,
			left:      0,
			right:     0,
		},
		{
			name:      "tie keeps first maximal window",
			values:    []float64{0, 1, 10, 11, 20},
			threshold: 2.0,
			left:      0,
			right:     1,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			left, right := FindLargestWindowInThreshold(c.values, c.threshold)
			assert.Equal(t, c.left, left, "left bound")
			assert.Equal(t, c.right, right, "right bound")
		})
	}
}

func TestFindLargestWindowInThresholdEmptyInput(t *testing.T) {
	left, right := FindLargestWindowInThreshold(nil, 1.0)
	assert.Equal(t, 0, left)
	assert.Equal(t, 0, right)
}
