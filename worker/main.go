package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

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

func run(ctx context.Context, cfg config.Config) error {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{Level: level, JSON: cfg.Log.JSON, Service: "worker"})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := bruteforce.NewMetrics(reg)
	if cfg.Worker.MetricsAddr != "" {
		srv := serveMetrics(cfg.Worker.MetricsAddr, reg, logger)
		defer srv.Close()
	}

	ctx, stop := interrupt.NotifyContext(ctx)
	defer stop()

	addr := net.JoinHostPort(cfg.Controller.Host, strconv.Itoa(cfg.Controller.Port))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("controller unreachable: %w", err)
	}
	defer conn.Close()
	logger.Info("connected", slog.String("controller", addr))

	w := &worker{
		conn:    conn,
		name:    hostnameOr("worker"),
		search:  cfg.Search,
		logger:  logger,
		metrics: metrics,
	}
	return w.serve(ctx)
}

// serve performs the handshake and runs exactly one job, replying with
// exactly one RESULT unless the connection itself fails.
func (w *worker) serve(ctx context.Context) error {
	r := bufio.NewReader(w.conn)

	// REGISTER
	reg := messages.RegisterMsg{Type: messages.REGISTER, Worker: w.name, Version: messages.Version}
	if err := messages.Send(w.conn, reg); err != nil {
		return fmt.Errorf("send REGISTER failed: %w", err)
	}

	var ack messages.AckMsg
	if err := messages.Expect(r, messages.ACK, &ack); err != nil {
		return fmt.Errorf("read ACK failed: %w", err)
	}
	if ack.Status != "OK" {
		return fmt.Errorf("registration rejected: %s", ack.Error)
	}

	// JOB
	var job messages.JobMsg
	if err := messages.Expect(r, messages.JOB, &job); err != nil {
		err = fmt.Errorf("read JOB failed: %w", err)
		w.sendError(job.JobID, err)
		return err
	}
	if err := validateJob(&job, w.search.Strict); err != nil {
		w.sendError(job.JobID, err)
		return err
	}

	// CRACK, then exactly one RESULT
	res := w.crack(ctx, r, &job)
	if err := messages.Send(w.conn, res); err != nil {
		return fmt.Errorf("send RESULT failed: %w", err)
	}
	return nil
}

func (w *worker) sendError(jobID string, err error) {
	w.logger.Error("job rejected", slog.String("job_id", jobID), slog.Any("error", err))
	_ = messages.Send(w.conn, &messages.ResultMsg{
		Type:   messages.RESULT,
		JobID:  jobID,
		Status: messages.StatusError,
		Error:  err.Error(),
	})
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", slog.Any("error", err))
		}
	}()
	logger.Info("serving metrics", slog.String("addr", addr))
	return srv
}

func hostnameOr(fallback string) string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return fallback
	}
	return h
}
