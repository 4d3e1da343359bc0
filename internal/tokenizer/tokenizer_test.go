package tokenizer

import (
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/go-bpe-tokenizer/internal/bpe"
	"github.com/example/go-bpe-tokenizer/internal/text"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustCreate(t *testing.T, corpus string, opts Options) *BPE {
	t.Helper()

	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}

	tok, err := Create(corpus, opts)
	if err != nil {
		t.Fatalf("Create(%q): %v", corpus, err)
	}

	return tok
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreate_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		corpus string
		opts   Options
		want   error
	}{
		{"empty text", "", Options{Iterations: 1}, text.ErrEmptyText},
		{"negative iterations", "abc", Options{Iterations: -1}, bpe.ErrNegativeIterations},
		{"bad normalization", "abc", Options{Normalization: text.Mode(9)}, text.ErrUnknownMode},
		{"bad default vocab", "abc", Options{DefaultVocab: 0x80}, bpe.ErrUnknownDefaultVocab},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Logger = quietLogger()

			tok, err := Create(tt.corpus, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Create err = %v; want %v", err, tt.want)
			}

			if tok != nil {
				t.Error("Create returned a tokenizer alongside an error")
			}
		})
	}
}

func TestCreate_DefaultVocabUnion(t *testing.T) {
	tok := mustCreate(t, "31415926535", Options{
		Iterations:   0,
		DefaultVocab: bpe.DefaultNumeric | bpe.DefaultPadding,
	})

	if tok.Count() != 11 {
		t.Fatalf("Count = %d; want 11", tok.Count())
	}

	for d := '0'; d <= '9'; d++ {
		if _, ok := tok.Lookup(string(d)); !ok {
			t.Errorf("digit %q missing from vocabulary", d)
		}
	}

	pad, ok := tok.PaddingID()
	if !ok {
		t.Fatal("PaddingID not found")
	}

	if s, _ := tok.Token(pad); s != bpe.PadToken {
		t.Errorf("Token(PaddingID) = %q; want %q", s, bpe.PadToken)
	}
}

func TestPaddingID_AbsentWithoutPaddingSet(t *testing.T) {
	tok := mustCreate(t, "<pad>", Options{Iterations: 10})

	if id, ok := tok.PaddingID(); ok {
		t.Errorf("PaddingID = %d, true; want not found", id)
	}
}

// ---------------------------------------------------------------------------
// Encode / Decode
// ---------------------------------------------------------------------------

func TestEncode_GreedyLongestMatch(t *testing.T) {
	// Vocabulary: aa=0 a=1 b=2 d=3 c=4
	tok := mustCreate(t, "aaabdaaabac", Options{Iterations: 1})

	tests := []struct {
		input string
		want  []int
	}{
		{"aaab", []int{0, 1, 2}},
		{"aaaa", []int{0, 0}},
		{"abacad", []int{1, 2, 1, 4, 1, 3}},
		{"", []int{}},
	}

	for _, tt := range tests {
		got, err := tok.Encode(tt.input)
		if err != nil {
			t.Fatalf("Encode(%q): %v", tt.input, err)
		}

		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Encode(%q) mismatch (-want +got):\n%s", tt.input, diff)
		}
	}
}

func TestEncode_FailsOutsideVocabulary(t *testing.T) {
	tok := mustCreate(t, "hello", Options{Iterations: 10, DefaultVocab: bpe.DefaultAlpha})

	ids, err := tok.Encode("hello!")
	if !errors.Is(err, ErrUnknownText) {
		t.Fatalf("Encode err = %v; want ErrUnknownText", err)
	}

	if ids != nil {
		t.Errorf("Encode returned partial ids %v", ids)
	}

	var encErr *EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("Encode err %T is not *EncodeError", err)
	}

	if encErr.Pos != 5 || encErr.Char != '!' {
		t.Errorf("EncodeError = {Pos: %d, Char: %q}; want {5, '!'}", encErr.Pos, encErr.Char)
	}
}

func TestEncode_AppliesNormalization(t *testing.T) {
	tok := mustCreate(t, "Hello hello", Options{Iterations: 10, Normalization: text.Lowercase})

	ids, err := tok.Encode("HELLO")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := tok.Decode(ids)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got != "hello" {
		t.Errorf("Decode(Encode(HELLO)) = %q; want %q", got, "hello")
	}

	// "hello" repeats, so it must have been learned as one token.
	if len(ids) != 1 {
		t.Errorf("Encode(HELLO) = %v; want a single token", ids)
	}
}

func TestDecode_UnknownID(t *testing.T) {
	tok := mustCreate(t, "abc", Options{})

	for _, ids := range [][]int{{0, 1, 3}, {-1}, {0, tok.Count()}} {
		got, err := tok.Decode(ids)
		if !errors.Is(err, ErrUnknownID) {
			t.Errorf("Decode(%v) err = %v; want ErrUnknownID", ids, err)
		}

		if got != "" {
			t.Errorf("Decode(%v) returned partial text %q", ids, got)
		}
	}

	_, err := tok.Decode([]int{2, 99})

	var decErr *DecodeError
	if !errors.As(err, &decErr) || decErr.Index != 1 || decErr.ID != 99 {
		t.Errorf("Decode err = %v; want DecodeError{Index: 1, ID: 99}", err)
	}
}

func TestRoundTrip_LettersAndSpaces(t *testing.T) {
	corpus := "the cat sat on the mat and the dog sat on the log"
	tok := mustCreate(t, corpus, Options{
		Iterations:    200,
		Normalization: text.None,
		DefaultVocab:  bpe.DefaultAlpha | bpe.DefaultWhitespace,
	})

	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ "

	rng := rand.New(rand.NewPCG(1, 2))
	for i := range 200 {
		var sb strings.Builder
		for range rng.IntN(64) {
			sb.WriteByte(alphabet[rng.IntN(len(alphabet))])
		}

		input := sb.String()

		ids, err := tok.Encode(input)
		if err != nil {
			t.Fatalf("case %d: Encode(%q): %v", i, input, err)
		}

		got, err := tok.Decode(ids)
		if err != nil {
			t.Fatalf("case %d: Decode: %v", i, err)
		}

		if got != input {
			t.Fatalf("case %d: round trip = %q; want %q", i, got, input)
		}
	}
}

func TestEnumerationMatchesLookups(t *testing.T) {
	tok := mustCreate(t, "abracadabra abracadabra", Options{Iterations: 20, DefaultVocab: bpe.DefaultPadding})

	n := 0
	for id, s := range tok.All() {
		if got, ok := tok.Lookup(s); !ok || got != id {
			t.Errorf("Lookup(%q) = %d, %v; want %d", s, got, ok, id)
		}

		if got, ok := tok.Token(id); !ok || got != s {
			t.Errorf("Token(%d) = %q, %v; want %q", id, got, ok, s)
		}

		n++
	}

	if n != tok.Count() || len(tok.Entries()) != tok.Count() {
		t.Errorf("enumerated %d, Entries %d; want %d", n, len(tok.Entries()), tok.Count())
	}

	if _, ok := tok.Token(tok.Count()); ok {
		t.Error("Token(Count()) found; want not found")
	}
}
