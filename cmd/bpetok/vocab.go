package main

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newVocabCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "List the saved vocabulary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			tok, err := loadTokenizer(cfg)
			if err != nil {
				return err
			}

			var data [][]string
			for id, text := range tok.All() {
				if limit > 0 && id >= limit {
					break
				}
				data = append(data, []string{
					strconv.Itoa(id),
					strconv.Quote(text),
					strconv.Itoa(utf8.RuneCountInString(text)),
				})
			}

			w := cmd.OutOrStdout()

			table := tablewriter.NewWriter(w)
			table.SetHeader([]string{"ID", "TEXT", "LEN"})
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetHeaderLine(false)
			table.SetBorder(false)
			table.SetNoWhiteSpace(true)
			table.SetTablePadding("    ")
			table.AppendBulk(data)
			table.Render()

			_, err = fmt.Fprintf(w, "\n%d tokens, max depth %d, fingerprint %s\n",
				tok.Count(), tok.MaxDepth(), tok.Fingerprint())
			return err
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many tokens (0 for all)")

	return cmd
}
