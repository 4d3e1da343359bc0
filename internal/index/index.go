// Package index stores a frozen vocabulary as a bidirectional text/id map.
//
// Text lookups walk a character trie whose nodes live in one flat slice and
// refer to each other by position. Id lookups read a dense slice. An Index is
// never modified after construction, so it can be shared by any number of
// concurrent readers.
package index

import (
	"errors"
	"fmt"
	"iter"
)

var (
	// ErrEmptyVocabulary is returned when building from no tokens.
	ErrEmptyVocabulary = errors.New("vocabulary is empty")
	// ErrEmptyToken is returned for a zero-length token.
	ErrEmptyToken = errors.New("token text is empty")
	// ErrDuplicateID reports an id inserted twice. It signals a broken
	// invariant in the caller, not bad user input.
	ErrDuplicateID = errors.New("duplicate token id")
	// ErrDuplicateText is returned when two ids carry the same text.
	ErrDuplicateText = errors.New("duplicate token text")
	// ErrNonContiguous is returned when explicit ids do not cover 0..n-1.
	ErrNonContiguous = errors.New("token ids are not contiguous")
)

const noID int32 = -1

type node struct {
	id       int32
	children map[rune]int32
}

// Entry is one vocabulary token.
type Entry struct {
	ID   int
	Text string
}

// Index maps token text to id and back.
type Index struct {
	nodes    []node
	texts    []string
	filled   []bool
	maxDepth int
}

func newIndex(n int) *Index {
	return &Index{
		nodes:  []node{{id: noID}},
		texts:  make([]string, n),
		filled: make([]bool, n),
	}
}

// Build assigns sequential ids to the distinct strings of vocab in the order
// they first appear.
func Build(vocab []string) (*Index, error) {
	if len(vocab) == 0 {
		return nil, ErrEmptyVocabulary
	}

	distinct := make([]string, 0, len(vocab))
	seen := make(map[string]struct{}, len(vocab))
	for _, s := range vocab {
		if s == "" {
			return nil, ErrEmptyToken
		}

		if _, ok := seen[s]; ok {
			continue
		}

		seen[s] = struct{}{}
		distinct = append(distinct, s)
	}

	idx := newIndex(len(distinct))
	for id, s := range distinct {
		if err := idx.insert(id, s); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

// FromEntries rebuilds an index with the exact ids given. The ids must be
// exactly 0..len(entries)-1 in any order, and texts must be unique.
func FromEntries(entries []Entry) (*Index, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyVocabulary
	}

	idx := newIndex(len(entries))
	for _, e := range entries {
		if e.ID < 0 || e.ID >= len(entries) {
			return nil, fmt.Errorf("%w: id %d outside 0..%d", ErrNonContiguous, e.ID, len(entries)-1)
		}

		if e.Text == "" {
			return nil, fmt.Errorf("%w: id %d", ErrEmptyToken, e.ID)
		}

		if _, ok := idx.Lookup(e.Text); ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateText, e.Text)
		}

		if err := idx.insert(e.ID, e.Text); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

func (x *Index) insert(id int, s string) error {
	if x.filled[id] {
		return fmt.Errorf("%w: %d (%q and %q)", ErrDuplicateID, id, x.texts[id], s)
	}

	cur := int32(0)
	depth := 0
	for _, r := range s {
		next, ok := x.nodes[cur].children[r]
		if !ok {
			next = int32(len(x.nodes))
			x.nodes = append(x.nodes, node{id: noID})
			if x.nodes[cur].children == nil {
				x.nodes[cur].children = make(map[rune]int32)
			}
			x.nodes[cur].children[r] = next
		}

		cur = next
		depth++
	}

	x.nodes[cur].id = int32(id)
	x.texts[id] = s
	x.filled[id] = true
	x.maxDepth = max(x.maxDepth, depth)

	return nil
}

// Lookup returns the id of the token spelled exactly s. A string that is
// only a prefix of longer tokens is not found.
func (x *Index) Lookup(s string) (int, bool) {
	cur := int32(0)
	for _, r := range s {
		next, ok := x.nodes[cur].children[r]
		if !ok {
			return 0, false
		}

		cur = next
	}

	if id := x.nodes[cur].id; id != noID {
		return int(id), true
	}

	return 0, false
}

// LongestMatch returns the longest token that starts at runes[pos], looking
// at most MaxDepth runes ahead. size is the token length in runes.
//
// The result equals trying Lookup on windows of MaxDepth runes down to one
// and keeping the first hit, without re-walking the trie for each window.
func (x *Index) LongestMatch(runes []rune, pos int) (id, size int, ok bool) {
	end := min(len(runes), pos+x.maxDepth)

	cur := int32(0)
	for i := pos; i < end; i++ {
		next, found := x.nodes[cur].children[runes[i]]
		if !found {
			break
		}

		cur = next
		if tid := x.nodes[cur].id; tid != noID {
			id, size, ok = int(tid), i-pos+1, true
		}
	}

	return id, size, ok
}

// Text returns the token text for id.
func (x *Index) Text(id int) (string, bool) {
	if id < 0 || id >= len(x.texts) {
		return "", false
	}

	return x.texts[id], true
}

// Len reports the number of tokens.
func (x *Index) Len() int {
	return len(x.texts)
}

// MaxDepth is the rune length of the longest token.
func (x *Index) MaxDepth() int {
	return x.maxDepth
}

// All yields every token in id order.
func (x *Index) All() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for id, s := range x.texts {
			if !yield(id, s) {
				return
			}
		}
	}
}

// Entries returns every token in id order.
func (x *Index) Entries() []Entry {
	out := make([]Entry, len(x.texts))
	for id, s := range x.texts {
		out[id] = Entry{ID: id, Text: s}
	}

	return out
}
