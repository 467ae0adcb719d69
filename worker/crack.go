package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"golang.org/x/time/rate"

	"md5brute/internal/bruteforce"
	"md5brute/internal/config"
	"md5brute/internal/messages"
)

var errControllerGone = errors.New("controller connection closed")

type worker struct {
	conn    io.ReadWriter
	name    string
	search  config.SearchConfig
	logger  *slog.Logger
	metrics *bruteforce.Metrics
}

// crack runs the job on a fresh engine while a second goroutine listens for
// CANCEL on the same connection.
func (w *worker) crack(ctx context.Context, r *bufio.Reader, job *messages.JobMsg) *messages.ResultMsg {
	logger := w.logger.With(slog.String("job_id", job.JobID))

	engine := bruteforce.NewEngine(
		bruteforce.WithLogger(logger),
		bruteforce.WithMetrics(w.metrics),
		bruteforce.WithCadence(w.search.Cadence),
		bruteforce.WithProgress(w.progressReporter(job.JobID, logger)),
	)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	go watchCancel(r, engine, job.JobID, cancel, logger)

	startCompute := time.Now()
	out, err := engine.StartSearch(ctx, bruteforce.Request{
		TargetDigest: job.TargetHash,
		MaxLength:    job.MaxLength,
	})
	computeNs := time.Since(startCompute).Nanoseconds()
	if err != nil {
		return &messages.ResultMsg{
			Type:            messages.RESULT,
			JobID:           job.JobID,
			Status:          messages.StatusError,
			Error:           err.Error(),
			WorkerComputeNs: computeNs,
		}
	}
	res := messages.NewResult(job.JobID, out, computeNs)
	return &res
}

// watchCancel reads control messages until the connection closes. A CANCEL
// for this job flags the engine; cancelling ctx as well covers a CANCEL that
// lands before the search has started. Losing the controller also cancels.
func watchCancel(r *bufio.Reader, engine *bruteforce.Engine, jobID string, cancel context.CancelCauseFunc, logger *slog.Logger) {
	for {
		env, err := messages.Recv(r)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) && !errors.Is(err, io.ErrClosedPipe) {
				logger.Debug("control channel read failed", slog.Any("error", err))
			}
			cancel(errControllerGone)
			return
		}
		if env.Type != messages.CANCEL {
			logger.Warn("ignoring unexpected message", slog.String("type", string(env.Type)))
			continue
		}
		var msg messages.CancelMsg
		if err := env.Decode(&msg); err != nil || msg.JobID != jobID {
			logger.Warn("ignoring CANCEL for another job", slog.String("cancel_job_id", msg.JobID))
			continue
		}
		logger.Info("cancel requested")
		engine.CancelSearch()
		cancel(context.Canceled)
	}
}

// progressReporter forwards engine checkpoints as PROGRESS messages, at most
// once per configured interval.
func (w *worker) progressReporter(jobID string, logger *slog.Logger) bruteforce.ProgressFunc {
	if w.search.ProgressInterval <= 0 {
		return nil
	}
	every := &rate.Sometimes{Interval: w.search.ProgressInterval}
	return func(p bruteforce.Progress) {
		every.Do(func() {
			msg := messages.ProgressMsg{
				Type:            messages.PROGRESS,
				JobID:           jobID,
				Attempts:        p.Attempts,
				Length:          p.Length,
				Current:         p.Current,
				ChecksPerSecond: p.ChecksPerSecond,
			}
			if err := messages.Send(w.conn, msg); err != nil {
				logger.Debug("progress not delivered", slog.Any("error", err))
			}
		})
	}
}
