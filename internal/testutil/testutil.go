// Package testutil provides shared fixtures and skip helpers for tests that
// exercise a trained tokenizer from outside the tokenizer package.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    corpus := testutil.RequireCorpus(t)
//	    ...
//	}
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-bpe-tokenizer/internal/bpe"
	"github.com/example/go-bpe-tokenizer/internal/tokenizer"
)

// CorpusEnv names the environment variable pointing at a real training corpus
// for integration tests.
const CorpusEnv = "BPETOK_TEST_CORPUS"

// FixtureCorpus trains, with one merge and the padding set, into
// aa=0 a=1 b=2 d=3 c=4 <pad>=5.
const FixtureCorpus = "aaabdaaabac"

// QuietLogger returns a logger that discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TrainFixture trains FixtureCorpus with one merge and the padding set.
func TrainFixture(tb testing.TB) *tokenizer.BPE {
	tb.Helper()

	tok, err := tokenizer.Create(FixtureCorpus, tokenizer.Options{
		Iterations:   1,
		DefaultVocab: bpe.DefaultPadding,
		Logger:       QuietLogger(),
	})
	if err != nil {
		tb.Fatalf("train fixture: %v", err)
	}

	return tok
}

// SaveFixture saves tok into a fresh temp dir and returns the file path.
func SaveFixture(tb testing.TB, tok *tokenizer.BPE) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "vocab.yaml")
	if err := tok.Save(path); err != nil {
		tb.Fatalf("save fixture: %v", err)
	}

	return path
}

// RequireCorpus skips the test unless CorpusEnv names a readable file, and
// returns its path.
func RequireCorpus(tb testing.TB) string {
	tb.Helper()

	path := os.Getenv(CorpusEnv)
	if path == "" {
		tb.Skipf("no training corpus configured; set %s to a text file", CorpusEnv)
		return ""
	}

	if _, err := os.Stat(path); err != nil {
		tb.Skipf("training corpus not available at %s=%q: %v", CorpusEnv, path, err)
		return ""
	}

	return path
}
