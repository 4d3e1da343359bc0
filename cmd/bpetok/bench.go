package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/pprof"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/example/go-bpe-tokenizer/internal/bench"
	"github.com/example/go-bpe-tokenizer/internal/tokenizer"
)

func newBenchCmd() *cobra.Command {
	var (
		text          string
		runs          int
		format        string
		minThroughput float64
		cpuprofile    string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark encode latency and throughput",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			tok, err := loadTokenizer(cfg)
			if err != nil {
				return err
			}

			input, err := readInput(text, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if input == "" {
				return fmt.Errorf("either provide --text or pipe text on stdin")
			}

			if cpuprofile != "" {
				f, err := os.Create(cpuprofile)
				if err != nil {
					return fmt.Errorf("create cpuprofile: %w", err)
				}
				defer f.Close()

				if err := pprof.StartCPUProfile(f); err != nil {
					return fmt.Errorf("start cpuprofile: %w", err)
				}
				defer pprof.StopCPUProfile()
			}

			results, err := runBench(cmd.Context(), tok, input, runs)
			if err != nil {
				return err
			}

			durations := make([]time.Duration, len(results))
			for i, r := range results {
				durations[i] = r.Duration
			}
			stats := bench.ComputeStats(durations)

			w := cmd.OutOrStdout()
			switch format {
			case "json":
				bench.FormatJSON(results, stats, w)
			default:
				bench.FormatTable(results, stats, w)
				printCompression(w, results[0])
			}

			return bench.CheckThroughputThreshold(bench.MeanThroughput(results), minThroughput)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to encode for each run (if empty, read from stdin)")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of encode runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&minThroughput, "min-throughput", 0, "Exit non-zero if mean runes/s falls below this value (0 = disabled)")
	cmd.Flags().StringVar(&cpuprofile, "cpuprofile", "", "Write a CPU profile to this file")

	return cmd
}

func runBench(ctx context.Context, tok tokenizer.Tokenizer, input string, runs int) ([]bench.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	runes := utf8.RuneCountInString(input)
	results := make([]bench.RunResult, 0, runs)

	for i := range runs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		var ids []int
		var err error
		pprof.Do(ctx, pprof.Labels("stage", "encode"), func(context.Context) {
			ids, err = tok.Encode(input)
		})
		if err != nil {
			return nil, fmt.Errorf("run %d failed: %w", i+1, err)
		}
		dur := time.Since(start)

		slog.Debug("bench run",
			slog.Int("run", i+1),
			slog.Int("tokens", len(ids)),
			slog.Duration("duration", dur),
		)

		results = append(results, bench.RunResult{
			Index:      i,
			Cold:       i == 0,
			Duration:   dur,
			Runes:      runes,
			Tokens:     len(ids),
			Throughput: bench.CalcThroughput(runes, dur),
		})
	}

	return results, nil
}

func printCompression(w io.Writer, r bench.RunResult) {
	_, _ = fmt.Fprintf(w, "\n%d runes -> %d tokens (%.2f runes/token)\n",
		r.Runes, r.Tokens, bench.Compression(r.Runes, r.Tokens))
}
