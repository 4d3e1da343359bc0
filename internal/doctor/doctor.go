// Package doctor provides preflight checks for bpetok configuration and files.
package doctor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// ValidateTokenizer checks the tokenizer section of the configuration.
	ValidateTokenizer func() error
	// ValidateServer checks the server section of the configuration.
	ValidateServer func() error
	// CorpusPath is the training corpus. Empty skips the check.
	CorpusPath string
	// VocabPath is the saved vocabulary file.
	VocabPath string
	// InspectVocab loads a vocabulary file and returns a one-line summary.
	InspectVocab func(path string) (string, error)
	// SkipVocab skips the vocabulary check, e.g. before the first train.
	SkipVocab bool
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	check := func(name string, fn func() error) {
		if fn == nil {
			fmt.Fprintf(w, "%s %s: skipped\n", PassMark, name)
			return
		}
		if err := fn(); err != nil {
			res.fail(fmt.Sprintf("%s: %v", name, err))
			fmt.Fprintf(w, "%s %s: %v\n", FailMark, name, err)
			return
		}
		fmt.Fprintf(w, "%s %s: ok\n", PassMark, name)
	}

	// ---- configuration ----------------------------------------------------
	check("tokenizer config", cfg.ValidateTokenizer)
	check("server config", cfg.ValidateServer)

	// ---- corpus -----------------------------------------------------------
	if cfg.CorpusPath == "" {
		fmt.Fprintf(w, "%s corpus: skipped\n", PassMark)
	} else if desc, err := checkCorpus(cfg.CorpusPath); err != nil {
		res.fail(fmt.Sprintf("corpus %q: %v", cfg.CorpusPath, err))
		fmt.Fprintf(w, "%s corpus %s: %v\n", FailMark, cfg.CorpusPath, err)
	} else {
		fmt.Fprintf(w, "%s corpus %s: %s\n", PassMark, cfg.CorpusPath, desc)
	}

	// ---- vocabulary -------------------------------------------------------
	switch {
	case cfg.SkipVocab:
		fmt.Fprintf(w, "%s vocabulary: skipped\n", PassMark)
	case cfg.InspectVocab == nil:
		res.fail("vocabulary: no inspector configured")
		fmt.Fprintf(w, "%s vocabulary: no inspector configured\n", FailMark)
	default:
		desc, err := cfg.InspectVocab(cfg.VocabPath)
		if err != nil {
			res.fail(fmt.Sprintf("vocabulary %q: %v", cfg.VocabPath, err))
			fmt.Fprintf(w, "%s vocabulary %s: %v\n", FailMark, cfg.VocabPath, err)
		} else {
			fmt.Fprintf(w, "%s vocabulary %s: %s\n", PassMark, cfg.VocabPath, desc)
		}
	}

	return res
}

var (
	errEmptyCorpus    = errors.New("corpus is empty")
	errInvalidUTF8    = errors.New("corpus is not valid UTF-8")
	errNotRegularFile = errors.New("not a regular file")
)

// checkCorpus reports the size of a readable, non-empty UTF-8 corpus file.
func checkCorpus(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !fi.Mode().IsRegular() {
		return "", errNotRegularFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errEmptyCorpus
	}
	if !utf8.Valid(data) {
		return "", errInvalidUTF8
	}

	return fmt.Sprintf("%d bytes, %d runes", len(data), utf8.RuneCount(data)), nil
}
