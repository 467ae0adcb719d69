package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"md5brute/internal/bruteforce"
	"md5brute/internal/config"
	"md5brute/internal/interrupt"
	"md5brute/internal/logging"
	"md5brute/internal/messages"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(2)
	}
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{Level: level, JSON: cfg.Log.JSON, Service: "controller"}), nil
}

func runCrack(cmd *cobra.Command, cfg config.Config, opts options) error {
	startTotal := time.Now()
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	startParse := time.Now()
	target, err := resolveTarget(opts, cfg.Search.Strict, logger)
	if err != nil {
		return err
	}
	parseDur := time.Since(startParse)

	ctx, stop := interrupt.NotifyContext(cmd.Context())
	defer stop()

	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(cfg.Controller.Port)))
	if err != nil {
		return fmt.Errorf("listen failed: %w", err)
	}
	defer ln.Close()
	logger.Info("listening", slog.String("addr", ln.Addr().String()))

	conn, err := accept(ctx, ln)
	if err != nil {
		return fmt.Errorf("accept failed: %w", err)
	}
	defer conn.Close()
	r := bufio.NewReader(conn)

	worker, err := handshake(ctx, conn, r)
	if err != nil {
		return err
	}
	logger.Info("worker registered", slog.String("worker", worker.Worker), slog.String("version", worker.Version))

	job := messages.JobMsg{
		Type:       messages.JOB,
		JobID:      uuid.NewString(),
		TargetHash: target,
		MaxLength:  cfg.Search.MaxLength,
		Charset:    bruteforce.Charset,
	}

	startDispatch := time.Now()
	if err := messages.Send(conn, job); err != nil {
		return fmt.Errorf("send JOB failed: %w", err)
	}
	dispatchDur := time.Since(startDispatch)

	startReturn := time.Now()
	res, err := awaitResult(ctx, conn, r, job, logger)
	if err != nil {
		return err
	}
	returnDur := time.Since(startReturn)

	printReport(cmd.OutOrStdout(), res)
	printTiming(cmd.OutOrStdout(), []timingLine{
		{"controller_parse_ms", parseDur},
		{"job_dispatch_ms", dispatchDur},
		{"worker_compute_ms", time.Duration(res.WorkerComputeNs)},
		{"result_return_ms", returnDur},
		{"total_end_to_end_ms", time.Since(startTotal)},
	})
	if res.Status == messages.StatusError {
		return fmt.Errorf("worker error: %s", res.Error)
	}
	return nil
}

// accept waits for one worker, giving up when ctx is done.
func accept(ctx context.Context, ln net.Listener) (net.Conn, error) {
	type accepted struct {
		conn net.Conn
		err  error
	}
	ch := make(chan accepted, 1)
	go func() {
		conn, err := ln.Accept()
		ch <- accepted{conn, err}
	}()
	select {
	case a := <-ch:
		return a.conn, a.err
	case <-ctx.Done():
		ln.Close()
		return nil, context.Cause(ctx)
	}
}

// handshake expects REGISTER and acknowledges it. A done ctx unblocks the
// read and its cause is returned.
func handshake(ctx context.Context, conn net.Conn, r *bufio.Reader) (messages.RegisterMsg, error) {
	var reg messages.RegisterMsg
	unblock := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	err := messages.Expect(r, messages.REGISTER, &reg)
	if !unblock() {
		return reg, context.Cause(ctx)
	}
	if err != nil {
		_ = messages.Send(conn, messages.AckMsg{Type: messages.ACK, Status: "ERROR", Error: "expected REGISTER"})
		return reg, fmt.Errorf("read REGISTER failed: %w", err)
	}
	if err := messages.Send(conn, messages.AckMsg{Type: messages.ACK, Status: "OK"}); err != nil {
		return reg, fmt.Errorf("send ACK failed: %w", err)
	}
	return reg, nil
}

// awaitResult logs PROGRESS until RESULT arrives. If ctx ends first a CANCEL
// is sent and the worker's partial RESULT is still awaited.
func awaitResult(ctx context.Context, conn io.Writer, r *bufio.Reader, job messages.JobMsg, logger *slog.Logger) (messages.ResultMsg, error) {
	var (
		res       messages.ResultMsg
		delivered bool
	)
	space := bruteforce.SpaceSize(len(job.Charset), job.MaxLength)
	done := make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(done)
		for {
			env, err := messages.Recv(r)
			if err != nil {
				return fmt.Errorf("read RESULT failed: %w", err)
			}
			switch env.Type {
			case messages.PROGRESS:
				var p messages.ProgressMsg
				if err := env.Decode(&p); err != nil {
					return fmt.Errorf("decode PROGRESS: %w", err)
				}
				logger.Info("progress",
					slog.Uint64("attempts", p.Attempts),
					slog.String("percent", fmt.Sprintf("%.2f", percent(p.Attempts, space))),
					slog.Int("length", p.Length),
					slog.String("current", p.Current),
					slog.Float64("checks_per_second", p.ChecksPerSecond),
				)
			case messages.RESULT:
				if err := env.Decode(&res); err != nil {
					return fmt.Errorf("decode RESULT: %w", err)
				}
				if err := messages.Validate(&res); err != nil {
					return err
				}
				if res.JobID != "" && res.JobID != job.JobID {
					return fmt.Errorf("protocol error: RESULT for job %s, expected %s", res.JobID, job.JobID)
				}
				delivered = true
				return nil
			default:
				return fmt.Errorf("protocol error: unexpected %s", env.Type)
			}
		}
	})
	g.Go(func() error {
		select {
		case <-done:
			return nil
		case <-gctx.Done():
		}
		if ctx.Err() == nil {
			return nil
		}
		logger.Warn("interrupted, cancelling job", slog.String("job_id", job.JobID))
		if err := messages.Send(conn, messages.CancelMsg{Type: messages.CANCEL, JobID: job.JobID}); err != nil {
			return fmt.Errorf("send CANCEL failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	if delivered {
		// A CANCEL that could not be written does not void a delivered RESULT.
		return res, nil
	}
	return res, err
}

func percent(attempts, space uint64) float64 {
	if space == 0 {
		return 0
	}
	return 100 * float64(attempts) / float64(space)
}
