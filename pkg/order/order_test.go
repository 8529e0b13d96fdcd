package order

import (
	"fmt"
	"testing"

	"github.com/gramserve/gramserve/pkg/tst"
)

func TestMedianSplitSmallTables(t *testing.T) {
	cases := []struct {
		name        string
		frequencies map[string]int
		want        []string
	}{
		{"single", map[string]int{"a": 3}, []string{"a"}},
		{"pair", map[string]int{"a": 1, "b": 1}, []string{"a", "b"}},
		{"triple", map[string]int{"a": 1, "b": 1, "c": 1}, []string{"b", "a", "c"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MedianSplit(tc.frequencies)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}

	if got := MedianSplit(nil); got != nil {
		t.Errorf("empty table yielded %v", got)
	}
}

func TestMedianSplitIsPermutation(t *testing.T) {
	frequencies := map[string]int{}
	for i := range 40 {
		frequencies[fmt.Sprintf("key%02d", i)] = i*i + 1
	}

	got := MedianSplit(frequencies)
	if len(got) != len(frequencies) {
		t.Fatalf("yielded %d keys, want %d", len(got), len(frequencies))
	}
	seen := map[string]bool{}
	for _, key := range got {
		if seen[key] {
			t.Fatalf("key %q yielded twice", key)
		}
		seen[key] = true
		if _, ok := frequencies[key]; !ok {
			t.Fatalf("unknown key %q yielded", key)
		}
	}
}

func TestMedianElementPicksProbabilityMidpoint(t *testing.T) {
	// Midpoint is 0.525; index 3 (0.20) is nearer to it than index 4 (1.0).
	cumulative := []float64{0.05, 0.10, 0.15, 0.20, 1.0}
	if got := medianElement(cumulative); got != 3 {
		t.Errorf("medianElement = %d, want 3", got)
	}

	// Ties break toward the earlier index.
	cumulative = []float64{0.25, 0.5, 0.75, 1.0}
	if got := medianElement(cumulative); got != 1 {
		t.Errorf("medianElement tie = %d, want 1", got)
	}
}

// weightedDepth is the frequency-weighted average lookup depth over all keys.
func weightedDepth(t *testing.T, tree *tst.Tree, frequencies map[string]int) float64 {
	t.Helper()
	var sum, mass float64
	for key, freq := range frequencies {
		depth, found := tree.Depth(key)
		if !found {
			t.Fatalf("key %q missing from tree", key)
		}
		sum += float64(depth) * float64(freq)
		mass += float64(freq)
	}
	return sum / mass
}

func TestMedianSplitBeatsSortedInsertion(t *testing.T) {
	// Heavily skewed distribution with the mass on lexicographically
	// late keys, the worst case for sorted insertion.
	frequencies := map[string]int{}
	keys := make([]string, 0, 32)
	for i := range 32 {
		key := fmt.Sprintf("key%02d", i)
		keys = append(keys, key)
		frequencies[key] = 1 << (i / 2)
	}

	sorted := tst.New('#')
	for _, key := range keys {
		sorted.Add(key, frequencies[key], false)
	}

	balanced := tst.New('#')
	for _, key := range MedianSplit(frequencies) {
		balanced.Add(key, frequencies[key], false)
	}

	sortedDepth := weightedDepth(t, sorted, frequencies)
	balancedDepth := weightedDepth(t, balanced, frequencies)
	if balancedDepth >= sortedDepth {
		t.Errorf("median-split depth %.2f not strictly better than sorted %.2f on a skewed table", balancedDepth, sortedDepth)
	}
}
