package text

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrEmptyText is returned when training text is empty.
var ErrEmptyText = errors.New("text is empty")

// ErrUnknownMode is returned by ParseMode for unrecognized names.
var ErrUnknownMode = errors.New("unknown normalization mode")

// Mode selects the case transform applied to text before training and encoding.
type Mode int

const (
	None Mode = iota
	Lowercase
	Uppercase
)

func (m Mode) String() string {
	switch m {
	case None:
		return "none"
	case Lowercase:
		return "lowercase"
	case Uppercase:
		return "uppercase"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m >= None && m <= Uppercase
}

// ParseMode converts a case-insensitive name to a Mode.
// An empty string selects None.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "lower", "lowercase":
		return Lowercase, nil
	case "upper", "uppercase":
		return Uppercase, nil
	default:
		return None, fmt.Errorf("%w %q (expected none|lowercase|uppercase)", ErrUnknownMode, s)
	}
}

// Apply returns s transformed according to m. Unknown modes leave s unchanged.
//
// A new Caser is created per call; Casers keep state and must not be shared
// between goroutines.
func Apply(m Mode, s string) string {
	switch m {
	case Lowercase:
		return cases.Lower(language.Und).String(s)
	case Uppercase:
		return cases.Upper(language.Und).String(s)
	default:
		return s
	}
}
