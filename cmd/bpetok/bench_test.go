package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-bpe-tokenizer/internal/testutil"
	"github.com/example/go-bpe-tokenizer/internal/tokenizer"
)

func TestRunBench_Runs(t *testing.T) {
	tok := testutil.TrainFixture(t)

	results, err := runBench(context.Background(), tok, "aaab", 3)
	if err != nil {
		t.Fatalf("runBench: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("want 3 results, got %d", len(results))
	}

	for i, r := range results {
		if r.Index != i || r.Cold != (i == 0) {
			t.Errorf("result %d: Index=%d Cold=%v", i, r.Index, r.Cold)
		}

		if r.Runes != 4 || r.Tokens != 3 {
			t.Errorf("result %d: Runes=%d Tokens=%d; want 4, 3", i, r.Runes, r.Tokens)
		}
	}
}

func TestRunBench_EncodeFailure(t *testing.T) {
	tok, err := tokenizer.Create("abc", tokenizer.Options{Logger: testutil.QuietLogger()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = runBench(context.Background(), tok, "abz", 2)
	if !errors.Is(err, tokenizer.ErrUnknownText) {
		t.Fatalf("runBench err = %v; want ErrUnknownText", err)
	}
}

func TestRunBench_CancelledContext(t *testing.T) {
	tok, err := tokenizer.Create("abc", tokenizer.Options{Logger: testutil.QuietLogger()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := runBench(ctx, tok, "abc", 2); !errors.Is(err, context.Canceled) {
		t.Fatalf("runBench err = %v; want context.Canceled", err)
	}
}

func TestBenchCmd_TableAndProfile(t *testing.T) {
	vocab := trainFixture(t)
	profile := filepath.Join(t.TempDir(), "cpu.prof")

	out, err := runCLI(t, "", "bench",
		"--paths-vocab-path", vocab,
		"--text", "aaabdaaabac",
		"--runs", "2",
		"--cpuprofile", profile,
	)
	if err != nil {
		t.Fatalf("bench: %v", err)
	}

	if !strings.Contains(out, "Runes/s") || !strings.Contains(out, "11 runes -> 9 tokens") {
		t.Errorf("unexpected bench output:\n%s", out)
	}

	if fi, err := os.Stat(profile); err != nil || fi.Size() == 0 {
		t.Errorf("cpu profile not written: %v", err)
	}
}

func TestBenchCmd_RejectsBadFlags(t *testing.T) {
	vocab := trainFixture(t)

	for _, args := range [][]string{
		{"--runs", "0"},
		{"--format", "xml"},
		{"--text", "aaab", "--min-throughput", "1e18"},
	} {
		full := append([]string{"bench", "--paths-vocab-path", vocab}, args...)
		if _, err := runCLI(t, "", full...); err == nil {
			t.Errorf("bench %v succeeded; want error", args)
		}
	}
}
