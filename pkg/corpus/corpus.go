// Package corpus turns tagged corpus files into token streams, units
// and vocabularies for language-model training.
//
// A tagged corpus holds one token per line with tab-separated
// annotation fields, plus single-field meta lines such as </s> or
// </doc> marking sentence and document ends.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
)

// FieldOptions controls line filtering and field extraction.
// Use DefaultFieldOptions as the base; the zero value drops everything.
type FieldOptions struct {
	// Delimiter separates the fields of a token line.
	Delimiter string
	// Lower folds every line to lowercase before any matching.
	Lower bool
	// DropMeta discards single-field lines starting with "<", except
	// those listed in KeepMeta.
	DropMeta bool
	// KeepMeta lists meta lines passed through verbatim (boundaries).
	KeepMeta map[string]bool
	// DropTags discards token lines whose tag field matches.
	DropTags map[string]bool
	// TagField is the index of the tag field.
	TagField int
	// NumFields is the expected field count; other lines are skipped
	// with a logged warning.
	NumFields int
	// ReturnField is the field yielded by ExtractFields.
	ReturnField int
}

// DefaultFieldOptions matches the common five-field tagged format:
// token, lemma, tag, and two annotation fields.
func DefaultFieldOptions() FieldOptions {
	return FieldOptions{
		Delimiter:   "\t",
		Lower:       true,
		DropMeta:    true,
		KeepMeta:    map[string]bool{"</s>": true},
		DropTags:    map[string]bool{"zz": true, "sy": true},
		TagField:    2,
		NumFields:   5,
		ReturnField: 0,
	}
}

// ExtractFields yields one field per surviving corpus line, in a single
// forward pass over r. Meta lines in KeepMeta are yielded whole so a
// boundary-aware consumer can see them.
func ExtractFields(r io.Reader, opts FieldOptions) iter.Seq[string] {
	return func(yield func(string) bool) {
		for fields := range extract(r, opts) {
			var out string
			if len(fields) == 1 {
				out = fields[0] // meta line
			} else {
				out = fields[opts.ReturnField]
			}
			if !yield(out) {
				return
			}
		}
	}
}

// ExtractFieldLists yields the requested fields of each surviving line.
// Meta lines arrive as single-element lists.
func ExtractFieldLists(r io.Reader, opts FieldOptions, returnFields []int) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		for fields := range extract(r, opts) {
			if len(fields) == 1 {
				if !yield(fields) {
					return
				}
				continue
			}
			out := make([]string, len(returnFields))
			for i, idx := range returnFields {
				out[i] = fields[idx]
			}
			if !yield(out) {
				return
			}
		}
	}
}

// extract performs the shared line filtering. Meta lines come out as
// single-element slices, token lines as their full field split.
func extract(r io.Reader, opts FieldOptions) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		scanner := bufio.NewScanner(r)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := scanner.Text()
			if opts.Lower {
				line = strings.ToLower(line)
			}
			if line == "" {
				continue
			}
			if opts.KeepMeta[line] {
				if !yield([]string{line}) {
					return
				}
				continue
			}

			fields := strings.Split(line, opts.Delimiter)

			// Heuristic: a single field starting with < is a meta tag.
			if len(fields) == 1 && strings.HasPrefix(line, "<") {
				if !opts.DropMeta && !yield(fields) {
					return
				}
				continue
			}
			if len(fields) != opts.NumFields {
				log.Warnf("corpus line %d: %d fields, expected %d", lineNo, len(fields), opts.NumFields)
				continue
			}
			if opts.DropTags[fields[opts.TagField]] {
				continue
			}
			if !yield(fields) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			log.Errorf("corpus scan failed after line %d: %v", lineNo, err)
		}
	}
}

// SplitSeq splits a token stream into units on a boundary value,
// dropping empty units, similar to strings.Split over a sequence.
func SplitSeq(tokens iter.Seq[string], boundary string) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		var current []string
		for token := range tokens {
			if token == boundary {
				if len(current) > 0 {
					if !yield(current) {
						return
					}
					current = nil
				}
				continue
			}
			current = append(current, token)
		}
		if len(current) > 0 {
			yield(current)
		}
	}
}

// ExtractUnits yields units (sentences, documents) of tokens split on
// boundary. The boundary is added to KeepMeta so it survives filtering.
func ExtractUnits(r io.Reader, opts FieldOptions, boundary string) iter.Seq[[]string] {
	if !opts.KeepMeta[boundary] {
		keep := make(map[string]bool, len(opts.KeepMeta)+1)
		for meta := range opts.KeepMeta {
			keep[meta] = true
		}
		keep[boundary] = true
		opts.KeepMeta = keep
	}
	return SplitSeq(ExtractFields(r, opts), boundary)
}

// ReplaceDisallowed replaces every token containing a rune outside
// symbols with replacement.
func ReplaceDisallowed(tokens []string, symbols, replacement string) ([]string, error) {
	disallowed, err := regexp.Compile("[^" + regexp.QuoteMeta(symbols) + "]")
	if err != nil {
		return nil, fmt.Errorf("corpus: bad symbol set: %w", err)
	}
	replaced := make([]string, len(tokens))
	for i, token := range tokens {
		if disallowed.MatchString(token) {
			replaced[i] = replacement
		} else {
			replaced[i] = token
		}
	}
	return replaced, nil
}

// MergeOptions configures MergeCorpus.
type MergeOptions struct {
	Fields FieldOptions
	// TokenField and TagField are the two fields merged per token.
	TokenField int
	TagField   int
	// Boundary separates output sentences.
	Boundary string
	// Symbols are the runes allowed in tokens and tags; offending
	// values are replaced with Replacement.
	Symbols     string
	Replacement string
	// MergeChar joins token and tag, SepChar joins tokens of a line.
	MergeChar string
}

// MergeCorpus rewrites a one-token-per-line tagged corpus into one
// sentence per line with token and tag merged ("token|tag token|tag").
func MergeCorpus(r io.Reader, w io.Writer, opts MergeOptions) error {
	if opts.MergeChar == "" {
		opts.MergeChar = "|"
	}
	if opts.Boundary == "" {
		opts.Boundary = "</s>"
	}
	symbols := opts.Symbols
	if !strings.Contains(symbols, opts.MergeChar) {
		symbols += opts.MergeChar
	}

	fields := opts.Fields
	if !fields.KeepMeta[opts.Boundary] {
		keep := make(map[string]bool, len(fields.KeepMeta)+1)
		for meta := range fields.KeepMeta {
			keep[meta] = true
		}
		keep[opts.Boundary] = true
		fields.KeepMeta = keep
	}

	buffered := bufio.NewWriter(w)
	var sentence []string
	flush := func() error {
		if len(sentence) == 0 {
			return nil
		}
		replaced, err := ReplaceDisallowed(sentence, symbols, opts.Replacement)
		if err != nil {
			return err
		}
		if _, err := buffered.WriteString(strings.Join(replaced, " ") + "\n"); err != nil {
			return fmt.Errorf("corpus: write merged sentence: %w", err)
		}
		sentence = sentence[:0]
		return nil
	}

	for pair := range ExtractFieldLists(r, fields, []int{opts.TokenField, opts.TagField}) {
		if len(pair) == 1 && pair[0] == opts.Boundary {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		sentence = append(sentence, strings.Join(pair, opts.MergeChar))
	}
	if err := flush(); err != nil {
		return err
	}
	return buffered.Flush()
}

// Ngrams yields every contiguous n-gram of tokens joined by sep.
func Ngrams(tokens []string, n int, sep string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := 0; i+n <= len(tokens); i++ {
			if !yield(strings.Join(tokens[i:i+n], sep)) {
				return
			}
		}
	}
}
