package main

import (
	"fmt"
	"io"
	"time"

	"md5brute/internal/messages"
)

type timingLine struct {
	name string
	d    time.Duration
}

func printReport(w io.Writer, res messages.ResultMsg) {
	fmt.Fprintln(w, "----- FINAL RESULT -----")
	fmt.Fprintf(w, "status: %s\n", res.Status)
	if res.Status == messages.StatusFound {
		fmt.Fprintf(w, "password: %s\n", res.Plaintext)
	}
	if res.Status == messages.StatusError {
		fmt.Fprintf(w, "error: %s\n", res.Error)
		return
	}
	fmt.Fprintf(w, "attempts: %d\n", res.Attempts)
	fmt.Fprintf(w, "time_ms: %.3f\n", res.TimeMs)
	fmt.Fprintf(w, "checks_per_second: %.0f\n", res.ChecksPerSecond)
}

func printTiming(w io.Writer, lines []timingLine) {
	fmt.Fprintln(w, "----- TIMING -----")
	for _, l := range lines {
		fmt.Fprintf(w, "%s: %.3f\n", l.name, float64(l.d.Microseconds())/1000.0)
	}
}
