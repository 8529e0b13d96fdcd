// Package tst implements a ternary search tree that stores occurrence
// counts for n-gram keys and their subsequences.
//
// Keys are separator-joined token strings such as "my#shiny#trigram".
// Besides the count at the terminal node, every insert can also bump the
// count at each node followed by the separator, so that "my#shiny" and
// "my" carry the counts of all keys they prefix. This is what makes
// conditional probabilities a pair of lookups instead of a subtree sum.
package tst

import "errors"

// ErrStop terminates a Walk early. Walk returns nil when the visitor
// returns ErrStop, any other error is passed through.
var ErrStop = errors.New("tst: stop walk")

// WalkFunc is invoked for every stored key reachable from a walk prefix.
type WalkFunc func(key string, count int) error

type node struct {
	char  rune
	count int

	lo, eq, hi *node
}

// Tree is a ternary search tree keyed by rune sequences.
//
// The separator is opaque to the tree except as the value that marks
// subsequence boundaries during inserts. Not safe for concurrent
// mutation; intended for a single-writer training phase followed by
// read-only queries.
type Tree struct {
	root      *node
	separator rune
	total     int
}

// New returns an empty tree using separator for subsequence boundaries.
func New(separator rune) *Tree {
	return &Tree{separator: separator}
}

// Separator returns the configured boundary rune.
func (t *Tree) Separator() rune { return t.separator }

// Total returns the accumulated insert weight, which is also the
// frequency of the empty key.
func (t *Tree) Total() int { return t.total }

// Insert adds one occurrence of key, counting subsequences.
func (t *Tree) Insert(key string) {
	t.Add(key, 1, true)
}

// Add increases the count of key by weight. When subsequences is true,
// every node whose following key rune is the separator is increased by
// weight as well; pass false when loading externally precomputed counts
// whose subsequence totals are loaded separately.
func (t *Tree) Add(key string, weight int, subsequences bool) {
	t.root = t.insert([]rune(key), t.root, weight, subsequences)
	t.total += weight
}

// insert recursion depth is bounded by the key length, not tree size.
func (t *Tree) insert(key []rune, n *node, weight int, subsequences bool) *node {
	if len(key) == 0 {
		return n
	}
	char := key[0]
	if n == nil {
		n = &node{char: char}
	}
	switch {
	case char == n.char:
		if len(key) == 1 {
			n.count += weight
			return n
		}
		if subsequences && key[1] == t.separator {
			n.count += weight
		}
		n.eq = t.insert(key[1:], n.eq, weight, subsequences)
	case char < n.char:
		n.lo = t.insert(key, n.lo, weight, subsequences)
	default:
		n.hi = t.insert(key, n.hi, weight, subsequences)
	}
	return n
}

// Frequency returns the stored count of key. The empty key denotes the
// total insert weight; unseen keys report 0.
func (t *Tree) Frequency(key string) int {
	if key == "" {
		return t.total
	}
	n := t.search([]rune(key))
	if n == nil {
		return 0
	}
	return n.count
}

// Contains reports whether key was stored with a positive count.
func (t *Tree) Contains(key string) bool {
	return t.Frequency(key) > 0
}

// Depth returns the number of nodes touched while looking up key and
// whether the key is stored. Exposed for measuring tree balance.
func (t *Tree) Depth(key string) (int, bool) {
	runes := []rune(key)
	n := t.root
	depth := 0
	for n != nil && len(runes) > 0 {
		depth++
		switch {
		case runes[0] == n.char:
			if len(runes) == 1 {
				return depth, n.count > 0
			}
			runes = runes[1:]
			n = n.eq
		case runes[0] < n.char:
			n = n.lo
		default:
			n = n.hi
		}
	}
	return depth, false
}

func (t *Tree) search(key []rune) *node {
	n := t.root
	for n != nil {
		switch {
		case key[0] == n.char:
			if len(key) == 1 {
				return n
			}
			key = key[1:]
			n = n.eq
		case key[0] < n.char:
			n = n.lo
		default:
			n = n.hi
		}
	}
	return nil
}

type frame struct {
	n      *node
	prefix string
}

// Walk enumerates every count-bearing key that extends prefix, each
// exactly once with its count. A stored key equal to prefix itself is
// not reported. The visitor sees a node's own completion before the
// keys below its eq child, followed by the lo and hi subtrees.
//
// Traversal uses an explicit stack: full enumerations over a large
// vocabulary reach depths proportional to the stored node count, which
// must not land on the call stack.
func (t *Tree) Walk(prefix string, fn WalkFunc) error {
	start := t.root
	if prefix != "" {
		n := t.search([]rune(prefix))
		if n == nil {
			return nil
		}
		start = n.eq
	}
	if start == nil {
		return nil
	}

	stack := []frame{{start, prefix}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		key := f.prefix + string(f.n.char)
		if f.n.count > 0 {
			if err := fn(key, f.n.count); err != nil {
				if err == ErrStop {
					return nil
				}
				return err
			}
		}
		// LIFO: eq pushed last so it is visited right after the node.
		if f.n.hi != nil {
			stack = append(stack, frame{f.n.hi, f.prefix})
		}
		if f.n.lo != nil {
			stack = append(stack, frame{f.n.lo, f.prefix})
		}
		if f.n.eq != nil {
			stack = append(stack, frame{f.n.eq, key})
		}
	}
	return nil
}
