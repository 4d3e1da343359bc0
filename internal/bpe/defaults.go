package bpe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/go-bpe-tokenizer/internal/text"
)

// ErrUnknownDefaultVocab is returned by ParseDefaultVocab for unrecognized set names.
var ErrUnknownDefaultVocab = errors.New("unknown default vocabulary set")

// PadToken is the reserved symbol contributed by the Padding set.
const PadToken = "<pad>"

// DefaultVocab selects fixed symbol sets that are added to every learned
// vocabulary. Values combine with bitwise OR.
type DefaultVocab uint8

const (
	DefaultNone  DefaultVocab = 0
	DefaultAlpha DefaultVocab = 1 << (iota - 1)
	DefaultNumeric
	DefaultSpecialChars
	DefaultWhitespace
	DefaultPadding

	DefaultAll = DefaultAlpha | DefaultNumeric | DefaultSpecialChars | DefaultWhitespace | DefaultPadding
)

var defaultVocabNames = []struct {
	flag DefaultVocab
	name string
}{
	{DefaultAlpha, "alpha"},
	{DefaultNumeric, "numeric"},
	{DefaultSpecialChars, "special"},
	{DefaultWhitespace, "whitespace"},
	{DefaultPadding, "padding"},
}

// Has reports whether every set in other is selected in d.
func (d DefaultVocab) Has(other DefaultVocab) bool {
	return d&other == other
}

// String renders d as "|"-separated set names, or "none".
func (d DefaultVocab) String() string {
	if d == DefaultNone {
		return "none"
	}

	var parts []string
	for _, n := range defaultVocabNames {
		if d.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}

	if rest := d &^ DefaultAll; rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint8(rest)))
	}

	return strings.Join(parts, "|")
}

// ParseDefaultVocab parses set names separated by "|" or ",".
// Names are case-insensitive; "none" and the empty string select nothing.
// "special" and "specialchars" are accepted for the punctuation set, "all"
// selects every set.
func ParseDefaultVocab(s string) (DefaultVocab, error) {
	var d DefaultVocab

	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' })
	for _, f := range fields {
		name := strings.ToLower(strings.TrimSpace(f))
		switch name {
		case "", "none":
			continue
		case "all":
			d |= DefaultAll
			continue
		case "specialchars", "special_chars", "punctuation":
			name = "special"
		case "digits":
			name = "numeric"
		}

		found := false
		for _, n := range defaultVocabNames {
			if n.name == name {
				d |= n.flag
				found = true

				break
			}
		}

		if !found {
			return DefaultNone, fmt.Errorf("%w %q (expected alpha|numeric|special|whitespace|padding)", ErrUnknownDefaultVocab, f)
		}
	}

	return d, nil
}

const specialChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Symbols returns the fixed symbols selected by d, in set order. Alpha
// contributes lowercase letters, uppercase letters, or both depending on
// mode, so the added letters survive the same normalization as the input.
func (d DefaultVocab) Symbols(mode text.Mode) []string {
	var out []string

	if d.Has(DefaultAlpha) {
		if mode != text.Uppercase {
			out = appendRange(out, 'a', 'z')
		}

		if mode != text.Lowercase {
			out = appendRange(out, 'A', 'Z')
		}
	}

	if d.Has(DefaultNumeric) {
		out = appendRange(out, '0', '9')
	}

	if d.Has(DefaultSpecialChars) {
		for _, r := range specialChars {
			out = append(out, string(r))
		}
	}

	if d.Has(DefaultWhitespace) {
		out = append(out, " ", "\t", "\n", "\r")
	}

	if d.Has(DefaultPadding) {
		out = append(out, PadToken)
	}

	return out
}

func appendRange(out []string, lo, hi rune) []string {
	for r := lo; r <= hi; r++ {
		out = append(out, string(r))
	}

	return out
}
