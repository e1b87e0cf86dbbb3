package batch

// FindLargestWindowInThreshold returns the widest contiguous index
// range [left, right] of a timestamp series sorted ascending such that
// values[right]-values[left] stays strictly below threshold. Ties keep
// the first (lowest-index) maximal window encountered. Returns (0, 0)
// for an empty input.
func FindLargestWindowInThreshold(values []float64, threshold float64) (left, right int) {
	if len(values) == 0 {
		return 0, 0
	}

	l := 0
	maxLeft, maxRight := 0, 0

	for r := 0; r < len(values); r++ {
		for values[r]-values[l] >= threshold {
			l++
		}
		if r-l > maxRight-maxLeft {
			maxLeft = l
			maxRight = r
		}
	}

	return maxLeft, maxRight
}
