package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"md5brute/internal/bruteforce"
	"md5brute/internal/config"
	"md5brute/internal/interrupt"
	"md5brute/internal/messages"
)

// runLocal drives the process-wide engine directly. An interrupt is turned
// into CancelSearch and the partial outcome is still reported.
func runLocal(cmd *cobra.Command, cfg config.Config, opts options) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	target, err := resolveTarget(opts, cfg.Search.Strict, logger)
	if err != nil {
		return err
	}

	space := bruteforce.SpaceSize(len(bruteforce.Charset), cfg.Search.MaxLength)
	var progress bruteforce.ProgressFunc
	if cfg.Search.ProgressInterval > 0 {
		every := &rate.Sometimes{Interval: cfg.Search.ProgressInterval}
		progress = func(p bruteforce.Progress) {
			every.Do(func() {
				logger.Info("progress",
					slog.Uint64("attempts", p.Attempts),
					slog.String("percent", fmt.Sprintf("%.2f", percent(p.Attempts, space))),
					slog.String("current", p.Current),
					slog.Float64("checks_per_second", p.ChecksPerSecond),
				)
			})
		}
	}

	bruteforce.SetDefault(bruteforce.NewEngine(
		bruteforce.WithLogger(logger),
		bruteforce.WithCadence(cfg.Search.Cadence),
		bruteforce.WithStrictTarget(cfg.Search.Strict),
		bruteforce.WithProgress(progress),
	))

	sigCtx, stop := interrupt.NotifyContext(cmd.Context())
	defer stop()
	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-sigCtx.Done():
			logger.Warn("interrupted, cancelling search")
			bruteforce.CancelSearch()
		case <-finished:
		}
	}()

	start := time.Now()
	out, err := bruteforce.StartSearch(context.WithoutCancel(cmd.Context()), target, cfg.Search.MaxLength)
	if err != nil {
		return err
	}

	printReport(cmd.OutOrStdout(), messages.NewResult("", out, time.Since(start).Nanoseconds()))
	fmt.Fprintf(cmd.OutOrStdout(), "searched: %d of %d (%.2f%%)\n", out.Attempts, space, percent(out.Attempts, space))
	return nil
}

func runDigest(cmd *cobra.Command, args []string) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), bruteforce.ComputeDigest(args[0]))
	return err
}
