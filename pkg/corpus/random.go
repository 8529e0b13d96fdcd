package corpus

import (
	"iter"
	"math/rand/v2"
	"strings"
)

// Alphabets for synthetic corpus generation.
const (
	EnglishLower = "abcdefghijklmnopqrstuvwxyz"
	EnglishUpper = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	English      = EnglishUpper + EnglishLower

	PolishLower = "aąbcćdeęfghijklłmnńoóprsśtuwyzźżqvx"
	PolishUpper = "AĄBCĆDEĘFGHIJKLŁMNŃOÓPRSŚTUWYZŹŻQVX"
	Polish      = PolishUpper + PolishLower
)

// RandomString draws length runes from symbols. A nil rng uses the
// shared source.
func RandomString(rng *rand.Rand, length int, symbols string) string {
	runes := []rune(symbols)
	var b strings.Builder
	b.Grow(length)
	for range length {
		b.WriteRune(runes[intN(rng, len(runes))])
	}
	return b.String()
}

// RandomStrings yields count random strings with lengths in
// [minLen, maxLen).
func RandomStrings(rng *rand.Rand, count int, symbols string, minLen, maxLen int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for range count {
			length := minLen + intN(rng, maxLen-minLen)
			if !yield(RandomString(rng, length, symbols)) {
				return
			}
		}
	}
}

func intN(rng *rand.Rand, n int) int {
	if rng != nil {
		return rng.IntN(n)
	}
	return rand.IntN(n)
}
