package tokenizer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/example/go-bpe-tokenizer/internal/bpe"
	"github.com/example/go-bpe-tokenizer/internal/index"
	"github.com/example/go-bpe-tokenizer/internal/text"
)

// FormatVersion tags every saved vocabulary file.
const FormatVersion = "bpetok/v1"

// ErrInvalidFile is returned by Load and Unmarshal for malformed or
// inconsistent vocabulary files.
var ErrInvalidFile = errors.New("invalid vocabulary file")

type vocabFile struct {
	Format      string      `yaml:"format"`
	Fingerprint string      `yaml:"fingerprint"`
	Options     fileOptions `yaml:"options"`
	MaxDepth    int         `yaml:"max_depth"`
	Tokens      []fileToken `yaml:"tokens"`
}

type fileOptions struct {
	Iterations    int    `yaml:"iterations"`
	Normalization string `yaml:"normalization"`
	DefaultVocab  string `yaml:"default_vocab"`
}

type fileToken struct {
	ID   int        `yaml:"id"`
	Len  int        `yaml:"len"`
	Text quotedText `yaml:"text"`
}

// quotedText is stored as a Go string literal with every non-ASCII or
// control character escaped, so YAML never sees raw whitespace or NULs.
type quotedText string

func (q quotedText) MarshalYAML() (any, error) {
	return strconv.QuoteToASCII(string(q)), nil
}

func (q *quotedText) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: token text must be a scalar", n.Line)
	}

	s, err := strconv.Unquote(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: token text %s: %w", n.Line, n.Value, err)
	}

	*q = quotedText(s)

	return nil
}

// Marshal writes the options, fingerprint and full vocabulary to w.
func (t *BPE) Marshal(w io.Writer) error {
	doc := vocabFile{
		Format:      FormatVersion,
		Fingerprint: t.fingerprint.String(),
		Options: fileOptions{
			Iterations:    t.opts.Iterations,
			Normalization: t.opts.Normalization.String(),
			DefaultVocab:  t.opts.DefaultVocab.String(),
		},
		MaxDepth: t.idx.MaxDepth(),
		Tokens:   make([]fileToken, 0, t.idx.Len()),
	}

	for id, s := range t.idx.All() {
		doc.Tokens = append(doc.Tokens, fileToken{
			ID:   id,
			Len:  utf8.RuneCountInString(s),
			Text: quotedText(s),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode vocabulary: %w", err)
	}

	return enc.Close()
}

// Save writes the tokenizer to path. The file is written next to path and
// renamed into place, so readers never observe a partial file.
func (t *BPE) Save(path string) error {
	if path == "" {
		return errors.New("vocabulary path must not be empty")
	}

	f, err := os.CreateTemp(filepath.Dir(path), ".vocab-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp vocabulary file: %w", err)
	}

	tmp := f.Name()
	committed := false

	defer func() {
		if !committed {
			_ = os.Remove(tmp) // best-effort temp file cleanup
		}
	}()

	if err := t.Marshal(f); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close vocabulary file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename vocabulary file: %w", err)
	}

	committed = true

	return nil
}

// Unmarshal reads a tokenizer written by Marshal. The restored tokenizer has
// the same ids, texts, MaxDepth, options and fingerprint as the original.
func Unmarshal(r io.Reader) (*BPE, error) {
	var doc vocabFile

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	if doc.Format != FormatVersion {
		return nil, fmt.Errorf("%w: format %q (want %q)", ErrInvalidFile, doc.Format, FormatVersion)
	}

	fingerprint, err := uuid.Parse(doc.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("%w: fingerprint: %w", ErrInvalidFile, err)
	}

	opts, err := doc.Options.decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	entries := make([]index.Entry, len(doc.Tokens))
	for i, tok := range doc.Tokens {
		s := string(tok.Text)
		if n := utf8.RuneCountInString(s); n != tok.Len {
			return nil, fmt.Errorf("%w: token %d has length %d, file says %d", ErrInvalidFile, tok.ID, n, tok.Len)
		}

		entries[i] = index.Entry{ID: tok.ID, Text: s}
	}

	idx, err := index.FromEntries(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	if idx.MaxDepth() != doc.MaxDepth {
		return nil, fmt.Errorf("%w: max_depth %d does not match tokens (%d)", ErrInvalidFile, doc.MaxDepth, idx.MaxDepth())
	}

	return &BPE{opts: opts, idx: idx, fingerprint: fingerprint}, nil
}

// Load reads a tokenizer saved with Save.
func Load(path string) (*BPE, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	t, err := Unmarshal(f)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary %q: %w", path, err)
	}

	return t, nil
}

func (o fileOptions) decode() (Options, error) {
	mode, err := text.ParseMode(o.Normalization)
	if err != nil {
		return Options{}, err
	}

	defaults, err := bpe.ParseDefaultVocab(o.DefaultVocab)
	if err != nil {
		return Options{}, err
	}

	opts := Options{
		Iterations:    o.Iterations,
		Normalization: mode,
		DefaultVocab:  defaults,
	}

	return opts, opts.validate()
}
