package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-bpe-tokenizer/internal/tokenizer"
)

func newTrainCmd() *cobra.Command {
	var corpus string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Learn a vocabulary from a corpus and save it",
		Long: "Learn a vocabulary from the corpus file (--paths-corpus-path, or --corpus - for stdin)\n" +
			"and write it to --paths-vocab-path.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			opts, err := cfg.Tokenizer.Options()
			if err != nil {
				return err
			}
			opts.Logger = slog.Default()

			path := cfg.Paths.CorpusPath
			if corpus != "" {
				path = corpus
			}

			var data []byte
			if path == "-" {
				data, err = readAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(path)
			}
			if err != nil {
				return fmt.Errorf("read corpus: %w", err)
			}

			tok, err := tokenizer.Create(string(data), opts)
			if err != nil {
				return err
			}

			if err := tok.Save(cfg.Paths.VocabPath); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d tokens (max depth %d, fingerprint %s) to %s\n",
				tok.Count(), tok.MaxDepth(), tok.Fingerprint(), cfg.Paths.VocabPath)
			return err
		},
	}

	cmd.Flags().StringVar(&corpus, "corpus", "", "Corpus file overriding paths.corpus_path ('-' for stdin)")

	return cmd
}
