package bpe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/emirpasic/gods/v2/sets/linkedhashset"

	"github.com/example/go-bpe-tokenizer/internal/text"
)

// ErrNegativeIterations is returned by Build when the merge budget is negative.
var ErrNegativeIterations = errors.New("iterations must not be negative")

// BuildOptions controls vocabulary training.
type BuildOptions struct {
	// Iterations is the maximum number of merges. Training may stop earlier
	// when no adjacent pair occurs more than once.
	Iterations    int
	Normalization text.Mode
	Defaults      DefaultVocab
	// Verbose raises per-merge diagnostics from Debug to Info.
	Verbose bool
	Logger  *slog.Logger
}

// Merge records one training step.
type Merge struct {
	Left   string
	Right  string
	Merged string
	Count  int
}

// Result is the outcome of a training run.
type Result struct {
	// Vocabulary holds the distinct learned symbols in order of first
	// appearance in the final sequence, followed by the default sets.
	Vocabulary []string
	// Frequencies counts every learned symbol left in the final sequence.
	Frequencies map[string]int
	Merges      []Merge
	// Iterations is the number of merges actually performed.
	Iterations int
	// EarlyStop is set when training ended because no pair repeated.
	EarlyStop bool
	// InputSymbols and OutputSymbols are the live sequence lengths before
	// and after training.
	InputSymbols  int
	OutputSymbols int
}

// Build normalizes input, runs up to opts.Iterations merges, and returns the
// learned vocabulary united with the requested default sets.
func Build(input string, opts BuildOptions) (*Result, error) {
	if opts.Iterations < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeIterations, opts.Iterations)
	}

	if input == "" {
		return nil, text.ErrEmptyText
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	mergeLevel := slog.LevelDebug
	if opts.Verbose {
		mergeLevel = slog.LevelInfo
	}

	normalized := text.Apply(opts.Normalization, input)

	symbols := NewSymbols()
	seq := make([]int32, 0, len(normalized))
	for _, r := range normalized {
		seq = append(seq, symbols.Intern(string(r)))
	}

	res := &Result{InputSymbols: len(seq)}
	live := len(seq)
	start := time.Now()

	for res.Iterations < opts.Iterations {
		counts := CountPairs(seq)

		best, count, ok := SelectPair(counts, symbols)
		if !ok {
			res.EarlyStop = true
			log.Debug("no repeating pair left",
				slog.Int("iteration", res.Iterations),
				slog.Int("best_count", count),
			)

			break
		}

		m := Merge{
			Left:   symbols.Text(best.Left),
			Right:  symbols.Text(best.Right),
			Merged: symbols.Text(best.Left) + symbols.Text(best.Right),
			Count:  count,
		}
		merged := symbols.Intern(m.Merged)
		live -= ApplyMerge(seq, best, merged)

		res.Merges = append(res.Merges, m)
		res.Iterations++

		log.Log(context.Background(), mergeLevel, "merge",
			slog.Int("iteration", res.Iterations),
			slog.String("left", m.Left),
			slog.String("right", m.Right),
			slog.String("merged", m.Merged),
			slog.Int("count", count),
			slog.Int("live_symbols", live),
		)
	}

	vocab := linkedhashset.New[string]()
	res.Frequencies = make(map[string]int)
	for _, id := range seq {
		if id != Tombstone {
			vocab.Add(symbols.Text(id))
			res.Frequencies[symbols.Text(id)]++
		}
	}

	learned := vocab.Size()
	vocab.Add(opts.Defaults.Symbols(opts.Normalization)...)

	res.Vocabulary = vocab.Values()
	res.OutputSymbols = live

	log.Info("vocabulary built",
		slog.Int("merges", res.Iterations),
		slog.Bool("early_stop", res.EarlyStop),
		slog.Int("learned", learned),
		slog.Int("vocabulary", len(res.Vocabulary)),
		slog.Int("input_symbols", res.InputSymbols),
		slog.Int("output_symbols", res.OutputSymbols),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return res, nil
}
