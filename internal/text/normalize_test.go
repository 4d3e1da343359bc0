package text

import (
	"errors"
	"testing"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		input string
		want  string
	}{
		{
			name:  "none is passthrough",
			mode:  None,
			input: "Hello World!\n",
			want:  "Hello World!\n",
		},
		{
			name:  "lowercase ascii",
			mode:  Lowercase,
			input: "Hello World",
			want:  "hello world",
		},
		{
			name:  "uppercase ascii",
			mode:  Uppercase,
			input: "Hello World",
			want:  "HELLO WORLD",
		},
		{
			name:  "lowercase keeps digits and punctuation",
			mode:  Lowercase,
			input: "A1-B2?",
			want:  "a1-b2?",
		},
		{
			name:  "uppercase non-ascii",
			mode:  Uppercase,
			input: "grüße",
			want:  "GRÜSSE",
		},
		{
			name:  "whitespace is preserved",
			mode:  Lowercase,
			input: "  A\tB\r\n",
			want:  "  a\tb\r\n",
		},
		{
			name:  "empty input",
			mode:  Uppercase,
			input: "",
			want:  "",
		},
		{
			name:  "unknown mode is passthrough",
			mode:  Mode(42),
			input: "MiXeD",
			want:  "MiXeD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(tt.mode, tt.input)
			if got != tt.want {
				t.Errorf("Apply(%v, %q) = %q; want %q", tt.mode, tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"", None, false},
		{"none", None, false},
		{"NONE", None, false},
		{"lowercase", Lowercase, false},
		{"lower", Lowercase, false},
		{"  Uppercase ", Uppercase, false},
		{"upper", Uppercase, false},
		{"title", None, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownMode) {
					t.Fatalf("ParseMode(%q) error = %v; want ErrUnknownMode", tt.input, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("ParseMode(%q) unexpected error: %v", tt.input, err)
			}

			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v; want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestModeStringRoundTrip(t *testing.T) {
	for _, m := range []Mode{None, Lowercase, Uppercase} {
		got, err := ParseMode(m.String())
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", m.String(), err)
		}

		if got != m {
			t.Errorf("ParseMode(%q) = %v; want %v", m.String(), got, m)
		}
	}

	if Mode(7).Valid() {
		t.Error("Mode(7).Valid() = true; want false")
	}
}
