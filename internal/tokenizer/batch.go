package tokenizer

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Encoder is the part of Tokenizer needed by EncodeAll.
type Encoder interface {
	Encode(text string) ([]int, error)
}

// EncodeAll encodes every text using at most workers goroutines
// (GOMAXPROCS when workers <= 0). Results keep the input order. The first
// failure cancels the remaining work and no results are returned.
func EncodeAll(ctx context.Context, enc Encoder, texts []string, workers int) ([][]int, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([][]int, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, s := range texts {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			ids, err := enc.Encode(s)
			if err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}

			out[i] = ids

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// ctx may have been cancelled before any goroutine started.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
