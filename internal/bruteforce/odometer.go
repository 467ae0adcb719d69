package bruteforce

import (
	"iter"
	"math"
)

// Charset is the fixed search alphabet: digits, lowercase, uppercase.
const Charset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Odometer enumerates every length-L tuple of indices in [0, base) in
// lexicographic order, starting at the all-zero tuple. The tuple is mutated in
// place by Next; callers must not keep the slice returned by Digits across calls.
type Odometer struct {
	base   int
	digits []int
	done   bool
}

// NewOdometer returns an odometer positioned at the all-zero tuple.
// A base or length below 1 yields an odometer that is already exhausted.
func NewOdometer(base, length int) *Odometer {
	if base < 1 || length < 1 {
		return &Odometer{base: base, done: true}
	}
	return &Odometer{base: base, digits: make([]int, length)}
}

// Next advances to the following tuple. It returns false once the carry runs
// past the leftmost position, after which the odometer stays exhausted.
func (o *Odometer) Next() bool {
	if o.done {
		return false
	}
	for i := len(o.digits) - 1; i >= 0; i-- {
		o.digits[i]++
		if o.digits[i] < o.base {
			return true
		}
		o.digits[i] = 0
	}
	o.done = true
	return false
}

func (o *Odometer) Exhausted() bool { return o.done }

// Digits is the current tuple, most significant position first.
func (o *Odometer) Digits() []int { return o.digits }

// Len is the number of positions.
func (o *Odometer) Len() int { return len(o.digits) }

// Reset rewinds to the all-zero tuple so one odometer can walk the same
// length again. The search loop builds a fresh odometer per length instead.
func (o *Odometer) Reset() {
	if len(o.digits) == 0 {
		return
	}
	clear(o.digits)
	o.done = false
}

// Render appends the symbols selected by the current tuple to dst.
func (o *Odometer) Render(alphabet string, dst []byte) []byte {
	for _, d := range o.digits {
		dst = append(dst, alphabet[d])
	}
	return dst
}

// Combinations yields every string of the given length over alphabet, in
// odometer order. Each range over the sequence starts from the beginning.
//
// It is the public enumeration API for callers that want candidates without
// hashing them. The search loop drives an Odometer directly so that it can
// render into a reused buffer.
func Combinations(alphabet string, length int) iter.Seq[string] {
	return func(yield func(string) bool) {
		buf := make([]byte, 0, max(length, 0))
		for o := NewOdometer(len(alphabet), length); !o.Exhausted(); o.Next() {
			buf = o.Render(alphabet, buf[:0])
			if !yield(string(buf)) {
				return
			}
		}
	}
}

// SpaceSize is the number of candidates of length 1 through maxLength,
// saturating at math.MaxUint64.
func SpaceSize(base, maxLength int) uint64 {
	if base < 1 || maxLength < 1 {
		return 0
	}
	b := uint64(base)
	var total uint64
	perLength := uint64(1)
	for l := 1; l <= maxLength; l++ {
		if perLength > math.MaxUint64/b {
			return math.MaxUint64
		}
		perLength *= b
		if total > math.MaxUint64-perLength {
			return math.MaxUint64
		}
		total += perLength
	}
	return total
}
