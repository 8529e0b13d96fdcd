package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Membership is the minimal set capability the vocabulary helpers rely
// on. TrieSet satisfies it, as does any model predicate.
type Membership interface {
	Contains(item string) bool
}

// TrieSet is a radix-trie backed membership set for large vocabularies,
// where token sets share long common prefixes and a map would pay full
// key storage per entry.
type TrieSet struct {
	trie *patricia.Trie
	size int
}

// NewTrieSet builds a TrieSet from the given items.
func NewTrieSet(items ...string) *TrieSet {
	s := &TrieSet{trie: patricia.NewTrie()}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts item into the set.
func (s *TrieSet) Add(item string) {
	if s.trie.Insert(patricia.Prefix(item), struct{}{}) {
		s.size++
	}
}

// Contains reports whether item is in the set.
func (s *TrieSet) Contains(item string) bool {
	return s.trie.Get(patricia.Prefix(item)) != nil
}

// Len returns the number of items in the set.
func (s *TrieSet) Len() int { return s.size }

// Items visits every stored item in lexicographic order.
func (s *TrieSet) Items(fn func(item string) error) error {
	return s.trie.Visit(func(prefix patricia.Prefix, _ patricia.Item) error {
		return fn(string(prefix))
	})
}

// ReadVocabulary reads a one-token-per-line vocabulary. Empty lines are
// skipped.
func ReadVocabulary(r io.Reader) (*TrieSet, error) {
	set := NewTrieSet()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		token := strings.TrimSpace(scanner.Text())
		if token == "" {
			continue
		}
		set.Add(token)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("corpus: read vocabulary: %w", err)
	}
	return set, nil
}

// LoadVocabulary reads a vocabulary file from disk.
func LoadVocabulary(path string) (*TrieSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: open vocabulary: %w", err)
	}
	defer file.Close()

	set, err := ReadVocabulary(file)
	if err != nil {
		return nil, err
	}
	log.Debug("vocabulary loaded", "path", path, "tokens", set.Len())
	return set, nil
}

// FilterTaggedVocabulary keeps the tagged entries ("token|tag") whose
// bare token is in vocabulary. Entries come back in input order.
func FilterTaggedVocabulary(tagged []string, vocabulary Membership, split string) []string {
	if split == "" {
		split = "|"
	}
	var kept []string
	for _, entry := range tagged {
		token, _, _ := strings.Cut(entry, split)
		if vocabulary.Contains(token) {
			kept = append(kept, entry)
		}
	}
	return kept
}

// AddMostFrequent grows targets to targetSize by adding the most
// frequent remaining vocabulary tokens. With filterTargets, targets
// absent from vocabulary are dropped first. Frequency ties fill in
// lexicographic order so the result is deterministic.
func AddMostFrequent(targets []string, vocabulary map[string]int, targetSize int, filterTargets bool) ([]string, error) {
	selected := make(map[string]bool, len(targets))
	result := make([]string, 0, targetSize)
	for _, target := range targets {
		if selected[target] {
			continue
		}
		if filterTargets {
			if _, ok := vocabulary[target]; !ok {
				continue
			}
		}
		selected[target] = true
		result = append(result, target)
	}
	if len(result) > targetSize {
		return nil, fmt.Errorf("corpus: %d targets exceed target size %d", len(result), targetSize)
	}

	fill := make([]string, 0, len(vocabulary))
	for token := range vocabulary {
		if !selected[token] {
			fill = append(fill, token)
		}
	}
	sort.Slice(fill, func(i, j int) bool {
		if vocabulary[fill[i]] != vocabulary[fill[j]] {
			return vocabulary[fill[i]] > vocabulary[fill[j]]
		}
		return fill[i] < fill[j]
	})

	missing := targetSize - len(result)
	if missing > len(fill) {
		missing = len(fill)
	}
	return append(result, fill[:missing]...), nil
}
