package testutil

import (
	"testing"

	"github.com/example/go-bpe-tokenizer/internal/tokenizer"
)

// AssertRoundTrip checks that text encodes without error and decodes back to
// itself, and returns the ids.
func AssertRoundTrip(tb testing.TB, tok tokenizer.Tokenizer, text string) []int {
	tb.Helper()

	ids, err := tok.Encode(text)
	if err != nil {
		tb.Fatalf("Encode(%q): %v", text, err)
	}

	got, err := tok.Decode(ids)
	if err != nil {
		tb.Fatalf("Decode(%v): %v", ids, err)
	}

	if got != text {
		tb.Fatalf("round trip = %q; want %q", got, text)
	}

	return ids
}
