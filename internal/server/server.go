package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/go-bpe-tokenizer/internal/config"
	"github.com/example/go-bpe-tokenizer/internal/tokenizer"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Vocabulary is a trained tokenizer that can also describe its token table.
type Vocabulary interface {
	tokenizer.Tokenizer
	All() iter.Seq2[int, string]
	Count() int
	MaxDepth() int
	PaddingID() (int, bool)
	Fingerprint() uuid.UUID
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	workers        int
	requestTimeout time.Duration
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxTextBytes:   65536,
		workers:        4,
		requestTimeout: 30 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed size of a single text for POST /encode.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithWorkers sets the maximum number of concurrent encode/decode calls.
// Zero disables the limit.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	vocab Vocabulary
	opts  options
	sem   chan struct{} // semaphore for worker pool
	log   *slog.Logger
}

// NewHandler returns an http.Handler that serves /health, /vocab, POST /encode and POST /decode.
func NewHandler(vocab Vocabulary, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		vocab: vocab,
		opts:  opts,
		log:   opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/vocab", h.handleVocab)
	mux.HandleFunc("/encode", h.handleEncode)
	mux.HandleFunc("/decode", h.handleDecode)
	return mux
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

type vocabToken struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

type vocabResponse struct {
	Fingerprint string       `json:"fingerprint"`
	Count       int          `json:"count"`
	MaxDepth    int          `json:"max_depth"`
	PaddingID   *int         `json:"padding_id,omitempty"`
	Tokens      []vocabToken `json:"tokens"`
}

func (h *handler) handleVocab(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := vocabResponse{
		Fingerprint: h.vocab.Fingerprint().String(),
		Count:       h.vocab.Count(),
		MaxDepth:    h.vocab.MaxDepth(),
		Tokens:      make([]vocabToken, 0, h.vocab.Count()),
	}
	if id, ok := h.vocab.PaddingID(); ok {
		resp.PaddingID = &id
	}
	for id, text := range h.vocab.All() {
		resp.Tokens = append(resp.Tokens, vocabToken{ID: id, Text: text})
	}

	writeJSON(w, http.StatusOK, resp)
}

type encodeRequest struct {
	Text  *string  `json:"text"`
	Texts []string `json:"texts"`
}

func (h *handler) handleEncode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req encodeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	switch {
	case req.Text == nil && req.Texts == nil:
		writeError(w, http.StatusBadRequest, "text or texts field is required")
		return
	case req.Text != nil && req.Texts != nil:
		writeError(w, http.StatusBadRequest, "text and texts are mutually exclusive")
		return
	}

	texts := req.Texts
	if req.Text != nil {
		texts = []string{*req.Text}
	}

	textLen := 0
	for _, s := range texts {
		if len(s) > h.opts.maxTextBytes {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
			return
		}
		textLen += len(s)
	}

	ctx, release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	start := time.Now()
	batch, err := tokenizer.EncodeAll(ctx, h.vocab, texts, 0)
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		h.writeFailure(w, r, "encode", err,
			slog.Int("texts", len(texts)),
			slog.Int("text_len", textLen),
			slog.Int64("duration_ms", durationMS),
		)
		return
	}

	tokens := 0
	for _, ids := range batch {
		tokens += len(ids)
	}

	h.log.InfoContext(r.Context(), "encode complete",
		slog.String("endpoint", "/encode"),
		slog.Int("texts", len(texts)),
		slog.Int("text_len", textLen),
		slog.Int("tokens", tokens),
		slog.Int64("duration_ms", durationMS),
	)

	if req.Text != nil {
		// ids is always present for a single text, even when empty.
		writeJSON(w, http.StatusOK, map[string][]int{"ids": batch[0]})
		return
	}

	writeJSON(w, http.StatusOK, map[string][][]int{"batch": batch})
}

type decodeRequest struct {
	IDs []int `json:"ids"`
}

func (h *handler) handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req decodeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.IDs == nil {
		writeError(w, http.StatusBadRequest, "ids field is required")
		return
	}

	ctx, release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	start := time.Now()
	text, err := h.vocab.Decode(req.IDs)
	if err == nil {
		err = ctx.Err()
	}
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		h.writeFailure(w, r, "decode", err,
			slog.Int("tokens", len(req.IDs)),
			slog.Int64("duration_ms", durationMS),
		)
		return
	}

	h.log.InfoContext(r.Context(), "decode complete",
		slog.String("endpoint", "/decode"),
		slog.Int("tokens", len(req.IDs)),
		slog.Int("text_len", len(text)),
		slog.Int64("duration_ms", durationMS),
	)

	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}

	return true
}

// acquire takes a worker slot, honouring cancellation while waiting, and
// returns the request context bounded by the per-request timeout.
func (h *handler) acquire(w http.ResponseWriter, r *http.Request) (context.Context, func(), bool) {
	if h.sem != nil {
		select {
		case h.sem <- struct{}{}:
		case <-r.Context().Done():
			writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
			return nil, nil, false
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)

	return ctx, func() {
		cancel()
		if h.sem != nil {
			<-h.sem
		}
	}, true
}

func (h *handler) writeFailure(w http.ResponseWriter, r *http.Request, op string, err error, attrs ...any) {
	attrs = append(attrs, slog.String("endpoint", "/"+op), slog.String("error", err.Error()))

	switch {
	case errors.Is(err, tokenizer.ErrUnknownText), errors.Is(err, tokenizer.ErrUnknownID):
		h.log.InfoContext(r.Context(), op+" rejected", attrs...)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		h.log.WarnContext(r.Context(), op+" timed out", attrs...)
		writeError(w, http.StatusGatewayTimeout, op+" timed out")
	default:
		h.log.ErrorContext(r.Context(), op+" failed", attrs...)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	vocab           Vocabulary
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// New returns a Server for vocab. A nil vocab is loaded from cfg.Paths.VocabPath on Start.
func New(cfg config.Config, vocab Vocabulary) *Server {
	return &Server{
		cfg:             cfg,
		vocab:           vocab,
		logger:          slog.Default(),
		shutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout) * time.Second,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// WithLogger overrides the logger used for request logs.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	s.logger = l
	return s
}

func (s *Server) Start(ctx context.Context) error {
	if err := s.cfg.Server.Validate(); err != nil {
		return err
	}

	vocab, err := s.runtimeDeps()
	if err != nil {
		return err
	}

	h := NewHandler(vocab,
		WithWorkers(s.cfg.Server.Workers),
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second),
		WithLogger(s.logger),
	)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.logger.Info("listening",
		slog.String("addr", s.cfg.Server.ListenAddr),
		slog.Int("tokens", vocab.Count()),
		slog.String("fingerprint", vocab.Fingerprint().String()),
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}

func (s *Server) runtimeDeps() (Vocabulary, error) {
	if s.vocab != nil {
		return s.vocab, nil
	}

	tok, err := tokenizer.Load(s.cfg.Paths.VocabPath)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}

	return tok, nil
}
