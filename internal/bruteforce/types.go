package bruteforce

import (
	"errors"
	"time"
)

var (
	// ErrInvalidMaxLength is returned when a request asks for fewer than one position.
	ErrInvalidMaxLength = errors.New("max length must be at least 1")

	// ErrInvalidTarget is returned for targets that can never match. Only
	// enforced by engines created WithStrictTarget(true).
	ErrInvalidTarget = errors.New("invalid target digest")

	// ErrWorkerFault is returned when the search goroutine dies unexpectedly.
	ErrWorkerFault = errors.New("search worker fault")
)

// DefaultCadence is how many attempts pass between cancellation checks.
const DefaultCadence = 10000

// Request is the immutable input of one search.
type Request struct {
	TargetDigest string
	MaxLength    int
}

func (r Request) validate(strict bool) error {
	if r.MaxLength < 1 {
		return ErrInvalidMaxLength
	}
	if strict {
		return ValidateTarget(r.TargetDigest)
	}
	return nil
}

// Outcome is produced exactly once per search. A cancelled search and an
// exhausted one look the same: Found is false and the counters reflect the
// work done so far.
type Outcome struct {
	Found           bool
	Plaintext       string
	Attempts        uint64
	Elapsed         time.Duration
	ChecksPerSecond float64
}

// TimeMs is Elapsed in milliseconds.
func (o Outcome) TimeMs() float64 {
	return float64(o.Elapsed.Microseconds()) / 1000.0
}

func newOutcome(found bool, plaintext string, attempts uint64, elapsed time.Duration) Outcome {
	return Outcome{
		Found:           found,
		Plaintext:       plaintext,
		Attempts:        attempts,
		Elapsed:         elapsed,
		ChecksPerSecond: checksPerSecond(attempts, elapsed),
	}
}

func checksPerSecond(attempts uint64, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(attempts) / secs
}

// Progress is a snapshot handed to a ProgressFunc at cadence checkpoints.
type Progress struct {
	Attempts        uint64
	Length          int
	Current         string
	Elapsed         time.Duration
	ChecksPerSecond float64
}

// ProgressFunc runs on the search goroutine; it must not block for long.
type ProgressFunc func(Progress)

// result is the internal termination cause; it never leaves the package.
type result int

const (
	resultExhausted result = iota
	resultFound
	resultCancelled
)

func (r result) String() string {
	switch r {
	case resultFound:
		return "found"
	case resultCancelled:
		return "cancelled"
	default:
		return "exhausted"
	}
}
