package main

import (
	"strings"
	"testing"

	"github.com/example/go-bpe-tokenizer/internal/config"
)

func TestNewRootCmd_HasExpectedSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"train", "encode", "decode", "vocab", "bench", "serve", "health", "doctor"}
	for _, name := range want {
		found := false

		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}

		if !found {
			t.Errorf("expected subcommand %q not found in root", name)
		}
	}
}

func TestNewRootCmd_HasPersistentConfigFlag(t *testing.T) {
	root := NewRootCmd()
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("expected --config persistent flag to be registered")
	}

	if root.PersistentFlags().Lookup("paths-vocab-path") == nil {
		t.Error("expected --paths-vocab-path persistent flag to be registered")
	}
}

func TestSetupLogger_DoesNotPanic(_ *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		setupLogger(level)
	}
}

func TestSetupLogger_InvalidLevelFallsBackToInfo(_ *testing.T) {
	// Should not panic on invalid level.
	setupLogger("not-a-level")
}

func TestRequireConfig_FailsWhenNotInitialized(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	// Zero-value config has empty Paths.VocabPath → requireConfig returns error.
	activeCfg = config.Config{}

	_, err := requireConfig()
	if err == nil {
		t.Fatal("expected error when config is not loaded")
	}
}

func TestRequireConfig_SucceedsWhenLoaded(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.Config{
		Paths: config.PathsConfig{VocabPath: "/some/vocab.yaml"},
	}

	got, err := requireConfig()
	if err != nil {
		t.Fatalf("requireConfig returned unexpected error: %v", err)
	}

	if got.Paths.VocabPath != "/some/vocab.yaml" {
		t.Errorf("unexpected VocabPath: %q", got.Paths.VocabPath)
	}
}

func TestReadInput(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		stdin string
		want  string
	}{
		{"flag wins", "  spaced  ", "ignored", "  spaced  "},
		{"stdin trailing newline", "", "hello\n", "hello"},
		{"stdin crlf", "", "hello\r\n", "hello"},
		{"stdin keeps inner whitespace", "", " a\tb \n\n", " a\tb \n"},
		{"empty stdin", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readInput(tt.text, strings.NewReader(tt.stdin))
			if err != nil {
				t.Fatalf("readInput: %v", err)
			}

			if got != tt.want {
				t.Errorf("readInput = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestParseIDs(t *testing.T) {
	got, err := parseIDs([]string{"0", "12", "3"})
	if err != nil {
		t.Fatalf("parseIDs: %v", err)
	}

	if len(got) != 3 || got[0] != 0 || got[1] != 12 || got[2] != 3 {
		t.Errorf("parseIDs = %v; want [0 12 3]", got)
	}

	if _, err := parseIDs([]string{"1", "x"}); err == nil {
		t.Error("parseIDs accepted a non-numeric id")
	}
}
