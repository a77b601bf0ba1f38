// Package tokenizer provides a deterministic character-level tokenizer used by
// the dummy engine. Token ids are stable across runs and processes.
package tokenizer

import "strings"

// DefaultAlphabet covers lowercase ascii prose.
const DefaultAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789 .,;:!?'\"-()\n"

// EOSTokenID is reserved and never produced by Encode.
const EOSTokenID = 0

// Tokenizer maps runes of a fixed alphabet to ids 1..len(alphabet). Runes not in
// the alphabet encode to UnknownID and decode to the unicode replacement char.
type Tokenizer struct {
	alphabet []rune
	index    map[rune]int
}

// New builds a tokenizer over the given alphabet. An empty alphabet selects
// DefaultAlphabet. Duplicate runes keep their first position.
func New(alphabet string) *Tokenizer {
	if alphabet == "" {
		alphabet = DefaultAlphabet
	}
	t := &Tokenizer{index: make(map[rune]int)}
	for _, r := range alphabet {
		if _, dup := t.index[r]; dup {
			continue
		}
		t.index[r] = len(t.alphabet) + 1
		t.alphabet = append(t.alphabet, r)
	}
	return t
}

func (t *Tokenizer) EOSTokenID() int { return EOSTokenID }

// UnknownID is the id assigned to runes outside the alphabet.
func (t *Tokenizer) UnknownID() int { return len(t.alphabet) + 1 }

// VocabSize counts EOS, the alphabet and the unknown id.
func (t *Tokenizer) VocabSize() int { return len(t.alphabet) + 2 }

// Covers reports whether every rune of s is in the alphabet.
func (t *Tokenizer) Covers(s string) bool {
	for _, r := range s {
		if _, ok := t.index[r]; !ok {
			return false
		}
	}
	return true
}

func (t *Tokenizer) Encode(s string) []int {
	out := make([]int, 0, len(s))
	for _, r := range s {
		id, ok := t.index[r]
		if !ok {
			id = t.UnknownID()
		}
		out = append(out, id)
	}
	return out
}

// Decode is total over ints: EOS is dropped, ids past the unknown id wrap back
// into the alphabet so sampled ids from a larger vocabulary still render.
func (t *Tokenizer) Decode(tokens []int) string {
	var b strings.Builder
	b.Grow(len(tokens))
	n := len(t.alphabet)
	for _, id := range tokens {
		switch {
		case id == EOSTokenID:
		case id < 0, id == t.UnknownID(), n == 0:
			b.WriteRune('�')
		case id <= n:
			b.WriteRune(t.alphabet[id-1])
		default:
			b.WriteRune(t.alphabet[(id-1)%n])
		}
	}
	return b.String()
}
