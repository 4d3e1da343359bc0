package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	var text string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode text into token ids",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			tok, err := loadTokenizer(cfg)
			if err != nil {
				return err
			}

			input, err := readInput(text, cmd.InOrStdin())
			if err != nil {
				return err
			}

			ids, err := tok.Encode(input)
			if err != nil {
				return err
			}

			return writeIDs(cmd.OutOrStdout(), ids, asJSON)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to encode (if empty, read from stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print ids as a JSON array")

	return cmd
}

func writeIDs(w io.Writer, ids []int, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(ids)
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}

	_, err := fmt.Fprintln(w, strings.Join(parts, " "))
	return err
}
