// Package bpe learns a byte-pair-encoding vocabulary from training text.
//
// Training works on a sequence of interned symbol ids. Every merge iteration
// counts adjacent pairs, picks a winner, and rewrites the sequence in place:
// the left slot of each occurrence receives the merged symbol and the right
// slot becomes a Tombstone. Slots are never removed, so positions stay stable
// for the whole run.
package bpe

import "unicode/utf8"

// Tombstone marks a sequence slot consumed by a merge.
const Tombstone int32 = -1

// Pair identifies two adjacent symbols by their interned ids.
type Pair struct {
	Left  int32
	Right int32
}

// Symbols interns symbol strings so pairs can be keyed by identity
// instead of by concatenated text. Ids are assigned in first-seen order.
type Symbols struct {
	ids   map[string]int32
	texts []string
	runes []int
}

// NewSymbols returns an empty symbol table.
func NewSymbols() *Symbols {
	return &Symbols{ids: make(map[string]int32)}
}

// Intern returns the id of text, assigning the next free id on first use.
func (s *Symbols) Intern(text string) int32 {
	if id, ok := s.ids[text]; ok {
		return id
	}

	id := int32(len(s.texts))
	s.ids[text] = id
	s.texts = append(s.texts, text)
	s.runes = append(s.runes, utf8.RuneCountInString(text))

	return id
}

// Text returns the string interned under id.
func (s *Symbols) Text(id int32) string {
	return s.texts[id]
}

// Len reports the number of interned symbols.
func (s *Symbols) Len() int {
	return len(s.texts)
}

// mergedLen is the rune length of the symbol produced by merging p.
func (s *Symbols) mergedLen(p Pair) int {
	return s.runes[p.Left] + s.runes[p.Right]
}

// nextLive returns the index of the first non-tombstone slot after i, or -1.
func nextLive(seq []int32, i int) int {
	for j := i + 1; j < len(seq); j++ {
		if seq[j] != Tombstone {
			return j
		}
	}

	return -1
}

// firstLive returns the index of the first non-tombstone slot, or -1.
func firstLive(seq []int32) int {
	return nextLive(seq, -1)
}
