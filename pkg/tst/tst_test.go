package tst

import (
	"errors"
	"fmt"
	"testing"
)

func collect(t *testing.T, tree *Tree, prefix string) map[string]int {
	t.Helper()
	got := make(map[string]int)
	err := tree.Walk(prefix, func(key string, count int) error {
		if _, seen := got[key]; seen {
			t.Errorf("key %q reported twice", key)
		}
		got[key] = count
		return nil
	})
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	return got
}

func TestFrequencyAccumulates(t *testing.T) {
	tree := New('#')
	tree.Insert("banana")
	tree.Insert("banana")
	tree.Insert("band")

	if got := tree.Frequency("banana"); got != 2 {
		t.Errorf("frequency(banana) = %d, want 2", got)
	}
	if got := tree.Frequency("band"); got != 1 {
		t.Errorf("frequency(band) = %d, want 1", got)
	}
	if got := tree.Frequency("ban"); got != 0 {
		t.Errorf("frequency(ban) = %d, want 0 (no subsequence boundary)", got)
	}
	if got := tree.Frequency("unseen"); got != 0 {
		t.Errorf("frequency(unseen) = %d, want 0", got)
	}
	// The empty key reports the total insert weight.
	if got := tree.Frequency(""); got != 3 {
		t.Errorf("frequency(\"\") = %d, want 3", got)
	}
}

func TestSubsequenceCounting(t *testing.T) {
	tree := New('#')
	tree.Insert("my#shiny#trigram")
	tree.Insert("my#shiny#trigram")
	tree.Insert("my#old#bigram")

	cases := []struct {
		key  string
		want int
	}{
		{"my#shiny#trigram", 2},
		{"my#shiny", 2},
		{"my#old#bigram", 1},
		{"my#old", 1},
		{"my", 3},
		{"my#", 0},
		{"m", 0},
	}
	for _, tc := range cases {
		if got := tree.Frequency(tc.key); got != tc.want {
			t.Errorf("frequency(%q) = %d, want %d", tc.key, got, tc.want)
		}
	}

	// Every stored prefix carries at least the full key's count.
	if tree.Frequency("my#shiny") < tree.Frequency("my#shiny#trigram") {
		t.Error("subsequence prefix count below full key count")
	}
}

func TestWeightedAdd(t *testing.T) {
	tree := New('#')
	tree.Add("a#b", 5, true)
	tree.Add("a#b", 2, true)

	if got := tree.Frequency("a#b"); got != 7 {
		t.Errorf("frequency(a#b) = %d, want 7", got)
	}
	if got := tree.Frequency("a"); got != 7 {
		t.Errorf("frequency(a) = %d, want 7", got)
	}
	if got := tree.Total(); got != 7 {
		t.Errorf("total = %d, want 7", got)
	}
}

func TestAddWithoutSubsequences(t *testing.T) {
	tree := New('#')
	tree.Add("a#b#c", 4, false)

	if got := tree.Frequency("a#b#c"); got != 4 {
		t.Errorf("frequency(a#b#c) = %d, want 4", got)
	}
	if got := tree.Frequency("a#b"); got != 0 {
		t.Errorf("frequency(a#b) = %d, want 0 when subsequences are off", got)
	}
	if got := tree.Frequency("a"); got != 0 {
		t.Errorf("frequency(a) = %d, want 0 when subsequences are off", got)
	}
}

func TestWalkEnumeratesEveryKeyOnce(t *testing.T) {
	tree := New('#')
	inserted := map[string]int{}
	keys := []string{"cat", "car", "cart", "dog", "a#b", "a#b#c", "b"}
	for i, key := range keys {
		weight := i + 1
		tree.Add(key, weight, false)
		inserted[key] += weight
	}
	// Duplicate insert must merge, not duplicate.
	tree.Add("cat", 10, false)
	inserted["cat"] += 10

	got := collect(t, tree, "")
	if len(got) != len(inserted) {
		t.Fatalf("walk found %d keys, want %d", len(got), len(inserted))
	}
	for key, want := range inserted {
		if got[key] != want {
			t.Errorf("walk count for %q = %d, want %d", key, got[key], want)
		}
	}
}

func TestWalkPrefix(t *testing.T) {
	tree := New('#')
	for _, key := range []string{"car", "cart", "carton", "care", "dog"} {
		tree.Insert(key)
	}

	got := collect(t, tree, "car")
	want := map[string]int{"cart": 1, "carton": 1, "care": 1}
	if len(got) != len(want) {
		t.Fatalf("walk(car) found %v, want %v", got, want)
	}
	for key := range want {
		if got[key] != 1 {
			t.Errorf("walk(car) missing %q", key)
		}
	}
	if _, ok := got["car"]; ok {
		t.Error("walk(car) must not report the prefix itself")
	}

	if got := collect(t, tree, "zebra"); len(got) != 0 {
		t.Errorf("walk(zebra) = %v, want empty", got)
	}
}

func TestWalkStopsEarly(t *testing.T) {
	tree := New('#')
	for i := range 50 {
		tree.Insert(fmt.Sprintf("key%02d", i))
	}

	visited := 0
	err := tree.Walk("", func(string, int) error {
		visited++
		if visited == 3 {
			return ErrStop
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ErrStop must not escape Walk: %v", err)
	}
	if visited != 3 {
		t.Errorf("visited %d keys after stop, want 3", visited)
	}

	sentinel := errors.New("boom")
	err = tree.Walk("", func(string, int) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Errorf("visitor error not passed through: %v", err)
	}
}

func TestContains(t *testing.T) {
	tree := New('#')
	tree.Insert("a#b")

	for key, want := range map[string]bool{"a#b": true, "a": true, "b": false, "a#": false} {
		if got := tree.Contains(key); got != want {
			t.Errorf("contains(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestDepthBoundedByKeyLength(t *testing.T) {
	tree := New('#')
	tree.Insert("abc")
	depth, found := tree.Depth("abc")
	if !found {
		t.Fatal("abc not found")
	}
	if depth != 3 {
		t.Errorf("depth(abc) = %d, want 3 in a single-key tree", depth)
	}
	if _, found := tree.Depth("zzz"); found {
		t.Error("depth reported a hit for an unseen key")
	}
}

func BenchmarkInsert(b *testing.B) {
	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = fmt.Sprintf("tok%03d#tok%03d#tok%03d", i%97, i%53, i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree := New('#')
		for _, key := range keys {
			tree.Insert(key)
		}
	}
}
