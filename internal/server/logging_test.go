package server_test

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/example/go-bpe-tokenizer/internal/server"
)

// capturingHandler captures all slog records during a test.
type capturingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (c *capturingHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }
func (c *capturingHandler) Handle(_ context.Context, r slog.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
	return nil
}
func (c *capturingHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return c }
func (c *capturingHandler) WithGroup(name string) slog.Handler       { return c }

// find returns the attributes of the first record with the given message.
func (c *capturingHandler) find(msg string) (map[string]any, slog.Level, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range c.records {
		if r.Message != msg {
			continue
		}

		m := make(map[string]any)
		r.Attrs(func(a slog.Attr) bool {
			m[a.Key] = a.Value.Any()
			return true
		})

		return m, r.Level, true
	}

	return nil, 0, false
}

func TestEncode_LogsEndpointAndCounts(t *testing.T) {
	capture := &capturingHandler{}
	h := server.NewHandler(newTestVocab(t), server.WithLogger(slog.New(capture)))

	rec := do(h, http.MethodPost, "/encode", `{"texts":["aaab","cd"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	attrs, _, ok := capture.find("encode complete")
	if !ok {
		t.Fatal("no \"encode complete\" log record")
	}

	if attrs["endpoint"] != "/encode" {
		t.Errorf("endpoint = %v; want /encode", attrs["endpoint"])
	}

	if attrs["texts"] != int64(2) {
		t.Errorf("texts = %v; want 2", attrs["texts"])
	}

	if attrs["text_len"] != int64(6) {
		t.Errorf("text_len = %v; want 6", attrs["text_len"])
	}

	// aaab -> aa a b, cd -> c d
	if attrs["tokens"] != int64(5) {
		t.Errorf("tokens = %v; want 5", attrs["tokens"])
	}

	if _, ok := attrs["duration_ms"]; !ok {
		t.Error("want duration_ms attribute in log record")
	}
}

func TestEncode_LogsRejection(t *testing.T) {
	capture := &capturingHandler{}
	h := server.NewHandler(newTestVocab(t), server.WithLogger(slog.New(capture)))

	rec := do(h, http.MethodPost, "/encode", `{"text":"abz"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want 422, got %d", rec.Code)
	}

	attrs, level, ok := capture.find("encode rejected")
	if !ok {
		t.Fatal("no \"encode rejected\" log record")
	}

	if level != slog.LevelInfo {
		t.Errorf("level = %v; want INFO", level)
	}

	if _, ok := attrs["error"]; !ok {
		t.Error("want an 'error' attribute on rejection")
	}
}

func TestDecode_LogsTokenCount(t *testing.T) {
	capture := &capturingHandler{}
	h := server.NewHandler(newTestVocab(t), server.WithLogger(slog.New(capture)))

	rec := do(h, http.MethodPost, "/decode", `{"ids":[0,0,2]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	attrs, _, ok := capture.find("decode complete")
	if !ok {
		t.Fatal("no \"decode complete\" log record")
	}

	if attrs["tokens"] != int64(3) {
		t.Errorf("tokens = %v; want 3", attrs["tokens"])
	}

	if attrs["text_len"] != int64(5) {
		t.Errorf("text_len = %v; want 5", attrs["text_len"])
	}
}
