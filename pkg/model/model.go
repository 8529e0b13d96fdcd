// Package model implements an n-gram (Markov) language model on top of
// a ternary search tree count store.
//
// Training slides a bounded window over a token stream, cuts the stream
// at boundary tokens, filters against a vocabulary and stores every
// resulting n-gram with its subsequence counts. Queries turn the stored
// counts into frequencies and conditional probabilities.
package model

import (
	"fmt"
	"iter"
	"strings"

	"github.com/gramserve/gramserve/pkg/tst"
)

// Defaults applied by New when the corresponding option is zero.
const (
	DefaultBoundary  = "</s>"
	DefaultSeparator = '#'
)

// progressInterval is how many consumed tokens pass between Progress
// callbacks during training.
const progressInterval = 10000

// Options configures a Model. The zero value is usable: boundary and
// separator fall back to the defaults and all three predicates to
// Universe.
type Options struct {
	// Boundary is the token marking a hard break (sentence or document
	// end); no n-gram is formed across it.
	Boundary string
	// Separator joins the tokens of an n-gram into a single tree key.
	Separator rune
	// Vocabulary restricts which tokens may appear in an n-gram; an
	// out-of-vocabulary token truncates the n-gram before it.
	Vocabulary Set
	// Targets restricts which final tokens TargetProbabilities reports.
	Targets Set
	// MustContain drops training events (and filters completions) that
	// carry none of its members. Restricting an already-trained model
	// this way only prunes stored keys, it does not recompute counts.
	MustContain Set
	// Progress, when set, is called between training steps with the
	// number of tokens consumed so far.
	Progress func(consumed int)
}

// KeyCount pairs an n-gram key with its externally computed frequency.
type KeyCount struct {
	Key   string
	Count int
}

// Model tracks n-gram frequencies and answers probability queries.
// Configuration is fixed at construction; Train may be called any
// number of times and counts accumulate.
type Model struct {
	n           int
	counts      *tst.Tree
	boundary    string
	separator   string
	vocabulary  Set
	targets     Set
	mustContain Set
	progress    func(int)
}

// New returns a model tracking n-grams of up to n tokens.
func New(n int, opts Options) (*Model, error) {
	if n < 1 {
		return nil, fmt.Errorf("model: n must be at least 1, got %d", n)
	}
	boundary := opts.Boundary
	if boundary == "" {
		boundary = DefaultBoundary
	}
	separator := opts.Separator
	if separator == 0 {
		separator = DefaultSeparator
	}
	vocabulary := opts.Vocabulary
	if vocabulary == nil {
		vocabulary = Universe{}
	}
	targets := opts.Targets
	if targets == nil {
		targets = Universe{}
	}
	mustContain := opts.MustContain
	if mustContain == nil {
		mustContain = Universe{}
	}
	return &Model{
		n:           n,
		counts:      tst.New(separator),
		boundary:    boundary,
		separator:   string(separator),
		vocabulary:  vocabulary,
		targets:     targets,
		mustContain: mustContain,
		progress:    opts.Progress,
	}, nil
}

// N returns the maximum n-gram length.
func (m *Model) N() int { return m.n }

// Boundary returns the configured boundary token.
func (m *Model) Boundary() string { return m.boundary }

// Separator returns the key separator as a string.
func (m *Model) Separator() string { return m.separator }

// Total returns the accumulated event weight, the frequency of the
// empty key.
func (m *Model) Total() int { return m.counts.Total() }

// Train consumes tokens in a single forward pass, holding at most n of
// them at a time, and stores every resulting n-gram. A sequence
// [A B C D E] with n = 3 produces the events A·B·C, B·C·D, C·D·E, D·E
// and E, each once.
func (m *Model) Train(tokens iter.Seq[string]) {
	window := make([]string, 0, m.n)
	consumed := 0
	for token := range tokens {
		consumed++
		if m.progress != nil && consumed%progressInterval == 0 {
			m.progress(consumed)
		}

		if token == m.boundary {
			// Train the shorter n-grams cut off by the boundary.
			m.flush(window)
			window = window[:0]
			continue
		}

		if len(window) == m.n {
			copy(window, window[1:])
			window = window[:m.n-1]
		}
		window = append(window, token)

		if len(window) == m.n {
			if !m.vocabulary.Contains(token) {
				// No n-gram may end on an out-of-vocabulary token.
				m.trainGram(window[:m.n-1])
				continue
			}
			m.trainGram(window)
		}
	}
	m.flush(window)
	if m.progress != nil {
		m.progress(consumed)
	}
}

// flush trains on the trailing suffixes of the window. The full-length
// suffix is skipped when the window is at capacity: it was already
// trained at the moment it filled.
func (m *Model) flush(window []string) {
	limit := len(window)
	if limit == m.n {
		limit = m.n - 1
	}
	for length := 1; length <= limit; length++ {
		m.trainGram(window[len(window)-length:])
	}
}

// trainGram truncates gram at the first out-of-vocabulary token, drops
// events that satisfy no must-contain member (which also discards
// events truncated to nothing) and stores the rest.
func (m *Model) trainGram(gram []string) {
	for idx, token := range gram {
		if !m.vocabulary.Contains(token) {
			gram = gram[:idx]
			break
		}
	}
	if !containsAny(gram, m.mustContain) {
		return
	}
	m.counts.Insert(strings.Join(gram, m.separator))
}

func containsAny(gram []string, set Set) bool {
	for _, token := range gram {
		if set.Contains(token) {
			return true
		}
	}
	return false
}

// Frequency returns the stored count of the given token sequence.
func (m *Model) Frequency(tokens []string) int {
	return m.counts.Frequency(strings.Join(tokens, m.separator))
}

// Contains reports whether the separator-joined key is stored.
func (m *Model) Contains(key string) bool {
	return m.counts.Contains(key)
}

// Probability returns the conditional probability of the final token of
// the sequence given the up-to-n-token window preceding it. An empty
// sequence has no final token and reports 0.
func (m *Model) Probability(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	gram := tokens
	if len(gram) > m.n {
		gram = gram[len(gram)-m.n:]
	}
	return m.probability(gram)
}

// Probabilities returns one conditional probability per token: the
// window grows a token at a time, capped at n.
func (m *Model) Probabilities(tokens []string) []float64 {
	probabilities := make([]float64, 0, len(tokens))
	window := make([]string, 0, m.n)
	for _, token := range tokens {
		if len(window) == m.n {
			copy(window, window[1:])
			window = window[:m.n-1]
		}
		window = append(window, token)
		probabilities = append(probabilities, m.probability(window))
	}
	return probabilities
}

// probability is frequency(gram) / frequency(history). A zero numerator
// short-circuits: subsequence counting guarantees the denominator is
// positive whenever the numerator is.
func (m *Model) probability(gram []string) float64 {
	frequency := m.Frequency(gram)
	if frequency == 0 {
		return 0
	}
	total := m.Frequency(gram[:len(gram)-1])
	return float64(frequency) / float64(total)
}

// Completions walks every stored key extending prefix, filtered by the
// must-contain predicate. The visitor contract matches tst.Walk,
// including early termination via tst.ErrStop.
func (m *Model) Completions(prefix string, fn tst.WalkFunc) error {
	return m.counts.Walk(prefix, func(key string, count int) error {
		if !containsAny(strings.Split(key, m.separator), m.mustContain) {
			return nil
		}
		return fn(key, count)
	})
}

// TargetFunc receives one stored n-gram with its frequency and
// conditional probability.
type TargetFunc func(gram []string, frequency int, probability float64) error

// TargetProbabilities enumerates every stored n-gram whose token count
// is in sizes (nil means exactly n) and whose final token satisfies the
// targets predicate. Returning tst.ErrStop from fn stops enumeration.
func (m *Model) TargetProbabilities(sizes []int, fn TargetFunc) error {
	if len(sizes) == 0 {
		sizes = []int{m.n}
	}
	wanted := make(map[int]bool, len(sizes))
	for _, size := range sizes {
		wanted[size] = true
	}

	return m.Completions("", func(key string, frequency int) error {
		gram := strings.Split(key, m.separator)
		if !wanted[len(gram)] {
			return nil
		}
		if !m.targets.Contains(gram[len(gram)-1]) {
			return nil
		}
		return fn(gram, frequency, m.probability(gram))
	})
}

// Insert adds frequency to the count of an already-joined key,
// bypassing windowing and filtering. Subsequence counting is optional
// so externally precomputed per-length counts are not double counted.
func (m *Model) Insert(key string, frequency int, subsequences bool) {
	m.counts.Add(key, frequency, subsequences)
}

// InsertTokens is Insert for an unjoined token sequence.
func (m *Model) InsertTokens(tokens []string, frequency int, subsequences bool) {
	m.Insert(strings.Join(tokens, m.separator), frequency, subsequences)
}

// InsertSequence bulk-loads (key, frequency) pairs.
func (m *Model) InsertSequence(pairs []KeyCount, subsequences bool) {
	for _, pair := range pairs {
		m.Insert(pair.Key, pair.Count, subsequences)
	}
}
