// Package tokenizer trains a BPE vocabulary and uses it to convert text to
// token ids and back.
//
// Encoding is greedy: at every position the longest vocabulary token that
// matches is emitted. Text containing a character outside the vocabulary
// cannot be encoded. A built tokenizer is immutable and safe for concurrent
// use.
package tokenizer

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/google/uuid"

	"github.com/example/go-bpe-tokenizer/internal/bpe"
	"github.com/example/go-bpe-tokenizer/internal/index"
	"github.com/example/go-bpe-tokenizer/internal/text"
)

var (
	// ErrUnknownText is returned by Encode when no token matches at some position.
	ErrUnknownText = errors.New("text not covered by vocabulary")
	// ErrUnknownID is returned by Decode for an id outside the vocabulary.
	ErrUnknownID = errors.New("unknown token id")
)

// Tokenizer converts between text and token ids.
type Tokenizer interface {
	// Encode tokenizes text and returns token ids.
	Encode(text string) ([]int, error)
	// Decode joins the text of each id.
	Decode(ids []int) (string, error)
}

// EncodeError reports the first position Encode could not match.
type EncodeError struct {
	// Pos is the rune offset in the normalized text.
	Pos  int
	Char rune
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%v: no token matches %q at position %d", ErrUnknownText, e.Char, e.Pos)
}

func (e *EncodeError) Unwrap() error { return ErrUnknownText }

// DecodeError reports the first id Decode could not resolve.
type DecodeError struct {
	// Index is the position of ID in the input slice.
	Index int
	ID    int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: %d at index %d", ErrUnknownID, e.ID, e.Index)
}

func (e *DecodeError) Unwrap() error { return ErrUnknownID }

// BPE is a trained tokenizer.
type BPE struct {
	opts        Options
	idx         *index.Index
	fingerprint uuid.UUID
}

var _ Tokenizer = (*BPE)(nil)

// Create trains a vocabulary on corpus and indexes it.
func Create(corpus string, opts Options) (*BPE, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	res, err := bpe.Build(corpus, bpe.BuildOptions{
		Iterations:    opts.Iterations,
		Normalization: opts.Normalization,
		Defaults:      opts.DefaultVocab,
		Verbose:       opts.Verbose,
		Logger:        opts.logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("build vocabulary: %w", err)
	}

	idx, err := index.Build(res.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("index vocabulary: %w", err)
	}

	return &BPE{opts: opts, idx: idx, fingerprint: uuid.New()}, nil
}

// Encode normalizes s the same way as the training corpus and returns the
// ids of a greedy longest-match segmentation. On failure no ids are returned.
func (t *BPE) Encode(s string) ([]int, error) {
	runes := []rune(text.Apply(t.opts.Normalization, s))

	ids := make([]int, 0, len(runes))
	for pos := 0; pos < len(runes); {
		id, size, ok := t.idx.LongestMatch(runes, pos)
		if !ok {
			return nil, &EncodeError{Pos: pos, Char: runes[pos]}
		}

		ids = append(ids, id)
		pos += size
	}

	return ids, nil
}

// Decode concatenates the text of every id. On failure no text is returned.
func (t *BPE) Decode(ids []int) (string, error) {
	var sb strings.Builder

	for i, id := range ids {
		s, ok := t.idx.Text(id)
		if !ok {
			return "", &DecodeError{Index: i, ID: id}
		}

		sb.WriteString(s)
	}

	return sb.String(), nil
}

// Count reports the vocabulary size. Ids are 0..Count()-1.
func (t *BPE) Count() int {
	return t.idx.Len()
}

// All yields every (id, text) pair in id order.
func (t *BPE) All() iter.Seq2[int, string] {
	return t.idx.All()
}

// Entries returns the whole vocabulary in id order.
func (t *BPE) Entries() []index.Entry {
	return t.idx.Entries()
}

// Lookup returns the id of the token spelled exactly s.
func (t *BPE) Lookup(s string) (int, bool) {
	return t.idx.Lookup(s)
}

// Token returns the text of id.
func (t *BPE) Token(id int) (string, bool) {
	return t.idx.Text(id)
}

// MaxDepth is the rune length of the longest token.
func (t *BPE) MaxDepth() int {
	return t.idx.MaxDepth()
}

// PaddingID returns the id of bpe.PadToken when the Padding set was requested.
func (t *BPE) PaddingID() (int, bool) {
	if !t.opts.DefaultVocab.Has(bpe.DefaultPadding) {
		return 0, false
	}

	return t.idx.Lookup(bpe.PadToken)
}

// Options returns the options the tokenizer was created with.
func (t *BPE) Options() Options {
	return t.opts
}

// Fingerprint identifies this vocabulary. It is assigned at Create and kept
// by Save and Load, so encoders and decoders can check they agree.
func (t *BPE) Fingerprint() uuid.UUID {
	return t.fingerprint
}
