// Package bruteforce recovers the plaintext behind an MD5 digest by trying
// every string over Charset, shortest first, in odometer order.
//
// A search runs on its own goroutine while the caller blocks in StartSearch.
// CancelSearch is fire-and-forget: it flags the active run, and the run notices
// at its next cadence checkpoint (every DefaultCadence attempts unless
// configured otherwise). Every run owns a fresh flag, so a cancel aimed at an
// earlier run never leaks into a later one.
package bruteforce

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

// run is the per-search handle holding the cancellation flag.
type run struct {
	id        string
	cancelled atomic.Bool
}

// Engine runs one search at a time. Starting a search while another is
// active cancels the older one.
//
// Thread Safety: safe for concurrent use.
type Engine struct {
	logger     *slog.Logger
	metrics    *Metrics
	cadence    uint64
	progress   ProgressFunc
	strict     bool
	active     atomic.Pointer[run]
	beforeLoop func() // test hook
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Nil falls back to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records search metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithCadence sets the number of attempts between cancellation checks.
// Zero keeps the default.
func WithCadence(n uint64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.cadence = n
		}
	}
}

// WithProgress installs a hook called at each cadence checkpoint.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

// WithStrictTarget rejects targets that are not 32 lowercase hex characters
// instead of searching to exhaustion.
func WithStrictTarget(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// NewEngine creates an idle engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:  slog.Default(),
		cadence: DefaultCadence,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(slog.String("component", "bruteforce"))
	return e
}

// StartSearch searches for the plaintext of req.TargetDigest and blocks until
// the search finishes, is cancelled, or ctx is done. Cancellation by either
// route yields a not-found Outcome and a nil error; a non-nil error means the
// request was rejected or the search goroutine faulted.
func (e *Engine) StartSearch(ctx context.Context, req Request) (Outcome, error) {
	if err := req.validate(e.strict); err != nil {
		return Outcome{}, err
	}

	r := &run{id: uuid.NewString()}
	if prev := e.active.Swap(r); prev != nil {
		prev.cancelled.Store(true)
		e.logger.Warn("superseding active search",
			slog.String("search_id", prev.id),
			slog.String("by", r.id),
		)
	}
	defer e.active.CompareAndSwap(r, nil)

	logger := e.logger.With(slog.String("search_id", r.id))
	logger.Info("search started",
		slog.Int("max_length", req.MaxLength),
		slog.Uint64("space", SpaceSize(len(Charset), req.MaxLength)),
	)
	if e.metrics != nil {
		e.metrics.Active.Inc()
		defer e.metrics.Active.Dec()
	}

	type reply struct {
		out   Outcome
		cause result
		err   error
	}
	done := make(chan reply, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- reply{err: fmt.Errorf("%w: %v", ErrWorkerFault, p)}
			}
		}()
		if e.beforeLoop != nil {
			e.beforeLoop()
		}
		out, cause := e.search(req, r)
		done <- reply{out: out, cause: cause}
	}()

	var rep reply
	select {
	case rep = <-done:
	case <-ctx.Done():
		r.cancelled.Store(true)
		logger.Debug("context done, cancelling search", slog.Any("reason", context.Cause(ctx)))
		rep = <-done
	}

	if rep.err != nil {
		logger.Error("search failed", slog.Any("error", rep.err))
		return Outcome{}, rep.err
	}

	logger.Info("search finished",
		slog.String("result", rep.cause.String()),
		slog.Uint64("attempts", rep.out.Attempts),
		slog.Duration("elapsed", rep.out.Elapsed),
		slog.Float64("checks_per_second", rep.out.ChecksPerSecond),
	)
	if e.metrics != nil {
		e.metrics.observe(rep.out, rep.cause)
	}
	return rep.out, nil
}

// CancelSearch flags the active search, if any, and returns immediately.
func (e *Engine) CancelSearch() {
	if r := e.active.Load(); r != nil {
		r.cancelled.Store(true)
	}
}

// Running reports whether a search is active.
func (e *Engine) Running() bool {
	return e.active.Load() != nil
}

// ComputeDigest is Digest exposed on the engine for callers holding only an Engine.
func (e *Engine) ComputeDigest(input string) string {
	return Digest(input)
}

var defaultEngine atomic.Pointer[Engine]

func init() {
	defaultEngine.Store(NewEngine())
}

// Default returns the process-wide engine used by StartSearch and CancelSearch.
func Default() *Engine { return defaultEngine.Load() }

// SetDefault replaces the process-wide engine. Nil is ignored.
func SetDefault(e *Engine) {
	if e != nil {
		defaultEngine.Store(e)
	}
}

// StartSearch runs a search on the process-wide engine.
func StartSearch(ctx context.Context, targetHash string, maxLength int) (Outcome, error) {
	return Default().StartSearch(ctx, Request{TargetDigest: targetHash, MaxLength: maxLength})
}

// CancelSearch cancels the search running on the process-wide engine.
func CancelSearch() {
	Default().CancelSearch()
}

// ComputeDigest returns the lowercase hex MD5 of input.
func ComputeDigest(input string) string {
	return Digest(input)
}
