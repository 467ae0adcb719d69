// Package messages is the controller/worker wire protocol: one JSON object
// per line over TCP.
//
//	worker -> REGISTER     controller -> ACK
//	controller -> JOB
//	worker -> PROGRESS*    controller -> CANCEL?
//	worker -> RESULT (exactly one)
package messages

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"md5brute/internal/bruteforce"
)

type Type string

const (
	REGISTER Type = "REGISTER"
	ACK      Type = "ACK"
	JOB      Type = "JOB"
	PROGRESS Type = "PROGRESS"
	CANCEL   Type = "CANCEL"
	RESULT   Type = "RESULT"
)

const Version = "v2"

// Result statuses.
const (
	StatusFound    = "FOUND"
	StatusNotFound = "NOT_FOUND"
	StatusError    = "ERROR"
)

var ErrUnexpectedType = errors.New("unexpected message type")

type RegisterMsg struct {
	Type    Type   `json:"type" validate:"eq=REGISTER"`
	Worker  string `json:"worker" validate:"required"`
	Version string `json:"version" validate:"required"`
}

type AckMsg struct {
	Type   Type   `json:"type" validate:"eq=ACK"`
	Status string `json:"status" validate:"oneof=OK ERROR"`
	Error  string `json:"error,omitempty"`
}

type JobMsg struct {
	Type       Type   `json:"type" validate:"eq=JOB"`
	JobID      string `json:"job_id" validate:"required,uuid4"`
	TargetHash string `json:"target_hash" validate:"required"`
	MaxLength  int    `json:"max_length" validate:"min=1,max=12"`
	Charset    string `json:"charset" validate:"required"`
}

type ProgressMsg struct {
	Type            Type    `json:"type" validate:"eq=PROGRESS"`
	JobID           string  `json:"job_id" validate:"required"`
	Attempts        uint64  `json:"attempts"`
	Length          int     `json:"length"`
	Current         string  `json:"current"`
	ChecksPerSecond float64 `json:"checks_per_second"`
}

type CancelMsg struct {
	Type  Type   `json:"type" validate:"eq=CANCEL"`
	JobID string `json:"job_id" validate:"required"`
}

// ResultMsg carries the search outcome. Found, Plaintext, Attempts, TimeMs and
// ChecksPerSecond are the outcome record; the rest is transport bookkeeping.
type ResultMsg struct {
	Type            Type    `json:"type" validate:"eq=RESULT"`
	JobID           string  `json:"job_id,omitempty"`
	Status          string  `json:"status" validate:"oneof=FOUND NOT_FOUND ERROR"`
	Found           bool    `json:"found"`
	Plaintext       string  `json:"plaintext"`
	Attempts        uint64  `json:"attempts"`
	TimeMs          float64 `json:"time_ms"`
	ChecksPerSecond float64 `json:"checks_per_second"`
	Error           string  `json:"error,omitempty"`
	WorkerComputeNs int64   `json:"worker_compute_ns"`
}

// NewResult converts a finished search into its RESULT message.
func NewResult(jobID string, out bruteforce.Outcome, computeNs int64) ResultMsg {
	status := StatusNotFound
	if out.Found {
		status = StatusFound
	}
	return ResultMsg{
		Type:            RESULT,
		JobID:           jobID,
		Status:          status,
		Found:           out.Found,
		Plaintext:       out.Plaintext,
		Attempts:        out.Attempts,
		TimeMs:          out.TimeMs(),
		ChecksPerSecond: out.ChecksPerSecond,
		WorkerComputeNs: computeNs,
	}
}

var validate = validator.New()

// Validate checks the struct tags of any message type.
func Validate(msg any) error {
	if err := validate.Struct(msg); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	return nil
}

// Send writes v as a single line.
func Send(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// Envelope is a received line whose concrete type is decided by Type.
type Envelope struct {
	Type Type
	raw  []byte
}

// Decode unmarshals the envelope into out.
func (e Envelope) Decode(out any) error {
	return json.Unmarshal(e.raw, out)
}

// Recv reads one line and peeks at its type.
func Recv(r *bufio.Reader) (Envelope, error) {
	line, err := readLine(r)
	if err != nil {
		return Envelope{}, err
	}
	var head struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(line, &head); err != nil {
		return Envelope{}, err
	}
	if head.Type == "" {
		return Envelope{}, fmt.Errorf("message without type")
	}
	return Envelope{Type: head.Type, raw: line}, nil
}

// Expect reads one line, checks its type is want, decodes and validates it.
func Expect(r *bufio.Reader, want Type, out any) error {
	env, err := Recv(r)
	if err != nil {
		return err
	}
	if env.Type != want {
		return fmt.Errorf("%w: expected %s, got %s", ErrUnexpectedType, want, env.Type)
	}
	if err := env.Decode(out); err != nil {
		return err
	}
	return Validate(out)
}

func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, fmt.Errorf("empty message")
	}
	return []byte(line), nil
}
