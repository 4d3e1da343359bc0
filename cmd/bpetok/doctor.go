package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-bpe-tokenizer/internal/config"
	"github.com/example/go-bpe-tokenizer/internal/doctor"
	"github.com/example/go-bpe-tokenizer/internal/server"
	"github.com/example/go-bpe-tokenizer/internal/tokenizer"
)

func newDoctorCmd() *cobra.Command {
	var skipVocab bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, corpus and saved vocabulary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()

			result := doctor.Run(doctor.Config{
				ValidateTokenizer: func() error {
					_, err := cfg.Tokenizer.Options()
					return err
				},
				ValidateServer: func() error {
					if _, err := server.ParseLogLevel(cfg.LogLevel); err != nil {
						return err
					}
					return cfg.Server.Validate()
				},
				CorpusPath:   corpusToCheck(cfg),
				VocabPath:    cfg.Paths.VocabPath,
				InspectVocab: func(path string) (string, error) { return inspectVocab(cfg, path) },
				SkipVocab:    skipVocab,
			}, w)

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(w, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().BoolVar(&skipVocab, "skip-vocab", false, "Skip the saved vocabulary check")

	return cmd
}

// corpusToCheck returns the corpus path when a corpus file exists or was
// configured away from the default; a missing default corpus is not an error
// once a vocabulary has been trained.
func corpusToCheck(cfg config.Config) string {
	if cfg.Paths.CorpusPath == config.DefaultConfig().Paths.CorpusPath {
		if _, err := os.Stat(cfg.Paths.CorpusPath); errors.Is(err, os.ErrNotExist) {
			return ""
		}
	}
	return cfg.Paths.CorpusPath
}

func inspectVocab(cfg config.Config, path string) (string, error) {
	tok, err := tokenizer.Load(path)
	if err != nil {
		return "", err
	}

	desc := fmt.Sprintf("%d tokens, max depth %d, fingerprint %s", tok.Count(), tok.MaxDepth(), tok.Fingerprint())

	want, err := cfg.Tokenizer.Options()
	if err != nil {
		return desc, nil
	}

	// The saved normalization mode must match the configured one.
	if got := tok.Options().Normalization; got != want.Normalization {
		return "", fmt.Errorf("trained with normalization %s, configured %s", got, want.Normalization)
	}

	return desc, nil
}
