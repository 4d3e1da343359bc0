package tokenizer

import (
	"fmt"
	"log/slog"

	"github.com/example/go-bpe-tokenizer/internal/bpe"
	"github.com/example/go-bpe-tokenizer/internal/text"
)

// Options configures Create.
type Options struct {
	// Iterations is the merge budget; zero keeps single characters only.
	Iterations    int
	Normalization text.Mode
	DefaultVocab  bpe.DefaultVocab
	// Verbose logs every merge at Info level. It has no effect on the result.
	Verbose bool
	// Logger receives training diagnostics. Nil selects slog.Default.
	Logger *slog.Logger
}

// DefaultOptions returns a 1000-merge budget with no normalization and no
// fixed symbol sets.
func DefaultOptions() Options {
	return Options{
		Iterations:    1000,
		Normalization: text.None,
		DefaultVocab:  bpe.DefaultNone,
	}
}

func (o Options) validate() error {
	if o.Iterations < 0 {
		return fmt.Errorf("%w: %d", bpe.ErrNegativeIterations, o.Iterations)
	}

	if !o.Normalization.Valid() {
		return fmt.Errorf("%w: %v", text.ErrUnknownMode, o.Normalization)
	}

	if o.DefaultVocab&^bpe.DefaultAll != 0 {
		return fmt.Errorf("%w: %v", bpe.ErrUnknownDefaultVocab, o.DefaultVocab)
	}

	return nil
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}

	return slog.Default()
}
