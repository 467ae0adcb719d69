package bruteforce

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// search walks lengths 1..MaxLength and returns on the first matching digest,
// on exhaustion, or at the first cadence checkpoint after the run's flag is set.
func (e *Engine) search(req Request, r *run) (Outcome, result) {
	start := time.Now()
	base := len(Charset)

	var (
		attempts uint64
		sum      [md5.Size]byte
		hexSum   [DigestLen]byte
	)
	// MaxLength may be arbitrarily large; Render grows the buffer as needed.
	candidate := make([]byte, 0, min(req.MaxLength, 64))

	for length := 1; length <= req.MaxLength; length++ {
		for o := NewOdometer(base, length); !o.Exhausted(); o.Next() {
			if attempts%e.cadence == 0 {
				if attempts > 0 && e.progress != nil {
					elapsed := time.Since(start)
					e.progress(Progress{
						Attempts:        attempts,
						Length:          length,
						Current:         string(o.Render(Charset, nil)),
						Elapsed:         elapsed,
						ChecksPerSecond: checksPerSecond(attempts, elapsed),
					})
				}
				if r.cancelled.Load() {
					return newOutcome(false, "", attempts, time.Since(start)), resultCancelled
				}
			}

			candidate = o.Render(Charset, candidate[:0])
			sum = md5.Sum(candidate)
			hex.Encode(hexSum[:], sum[:])
			attempts++

			if string(hexSum[:]) == req.TargetDigest {
				return newOutcome(true, string(candidate), attempts, time.Since(start)), resultFound
			}
		}

		if r.cancelled.Load() {
			return newOutcome(false, "", attempts, time.Since(start)), resultCancelled
		}
	}

	return newOutcome(false, "", attempts, time.Since(start)), resultExhausted
}
