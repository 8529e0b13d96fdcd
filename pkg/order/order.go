// Package order computes frequency-weighted insertion orders that keep
// a ternary search tree balanced.
//
// Inserting keys in sorted order degrades a TST into a linked list. The
// median-split order inserts, within every contiguous sorted sub-range,
// the key closest to holding half the probability mass on each side, so
// frequent keys end up near the root and weighted lookup depth stays
// close to optimal.
package order

import "sort"

// MedianSplit returns the keys of frequencies in balance-optimizing
// insertion order. The result is a fresh slice; callers re-iterate it
// freely. Zero-total tables fall back to plain sorted order.
func MedianSplit(frequencies map[string]int) []string {
	if len(frequencies) == 0 {
		return nil
	}

	keys := make([]string, 0, len(frequencies))
	for key := range frequencies {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var total float64
	for _, key := range keys {
		total += float64(frequencies[key])
	}
	if total == 0 {
		return keys
	}

	cumulative := make([]float64, len(keys))
	running := 0.0
	for i, key := range keys {
		running += float64(frequencies[key]) / total
		cumulative[i] = running
	}

	ordered := make([]string, 0, len(keys))
	for _, idx := range recursiveMedian(cumulative) {
		ordered = append(ordered, keys[idx])
	}
	return ordered
}

// medianElement returns the index whose cumulative probability is
// closest to the midpoint of the sub-range, ties broken to the left.
func medianElement(cumulative []float64) int {
	mid := (cumulative[0] + cumulative[len(cumulative)-1]) / 2
	idx := sort.SearchFloat64s(cumulative, mid)
	if idx == 0 {
		return 0
	}
	if idx == len(cumulative) {
		idx--
	}
	if cumulative[idx]-mid >= mid-cumulative[idx-1] {
		return idx - 1
	}
	return idx
}

// recursiveMedian yields indices into cumulative: the median element
// first, then the medians of the left and right remainders, and so on.
// Sub-ranges keep their original cumulative values; the midpoint
// arithmetic only ever looks at a range's first and last entries, so no
// renormalization is needed.
func recursiveMedian(cumulative []float64) []int {
	switch len(cumulative) {
	case 0:
		return nil
	case 1:
		return []int{0}
	case 2:
		return []int{0, 1}
	case 3:
		return []int{1, 0, 2}
	}

	median := medianElement(cumulative)
	indices := make([]int, 0, len(cumulative))
	indices = append(indices, median)
	indices = append(indices, recursiveMedian(cumulative[:median])...)
	for _, idx := range recursiveMedian(cumulative[median+1:]) {
		indices = append(indices, median+idx+1)
	}
	return indices
}
