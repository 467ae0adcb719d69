package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"md5brute/internal/bruteforce"
	"md5brute/internal/messages"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeHashFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hashes")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadTargetHash(t *testing.T) {
	path := writeHashFile(t, `# comment
alice:900150983cd24fb0d6963f7d28e17f72:extra

bob:
alicia:0cc175b9c0f1b6a831c399e269772661
`)

	got, err := loadTargetHash(path, "alice")
	require.NoError(t, err)
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", got)

	got, err = loadTargetHash(path, "alicia")
	require.NoError(t, err)
	assert.Equal(t, "0cc175b9c0f1b6a831c399e269772661", got)

	_, err = loadTargetHash(path, "bob")
	assert.ErrorContains(t, err, "malformed")

	_, err = loadTargetHash(path, "carol")
	assert.ErrorContains(t, err, "not in hash file")

	_, err = loadTargetHash(filepath.Join(t.TempDir(), "missing"), "alice")
	assert.ErrorContains(t, err, "cannot open")
}

func TestResolveTarget(t *testing.T) {
	upper := "900150983CD24FB0D6963F7D28E17F72"

	_, err := resolveTarget(options{hash: upper}, true, quietLogger())
	assert.ErrorIs(t, err, bruteforce.ErrInvalidTarget)

	got, err := resolveTarget(options{hash: upper}, false, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, upper, got)

	path := writeHashFile(t, "alice:"+bruteforce.Digest("abc")+"\n")
	got, err = resolveTarget(options{hashFile: path, username: "alice"}, true, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, bruteforce.Digest("abc"), got)
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, messages.ResultMsg{
		Status:          messages.StatusFound,
		Found:           true,
		Plaintext:       "abc",
		Attempts:        43041,
		TimeMs:          10.5,
		ChecksPerSecond: 4099142.9,
	})
	out := buf.String()
	assert.Contains(t, out, "status: FOUND\n")
	assert.Contains(t, out, "password: abc\n")
	assert.Contains(t, out, "attempts: 43041\n")
	assert.Contains(t, out, "time_ms: 10.500\n")
	assert.Contains(t, out, "checks_per_second: 4099143\n")

	buf.Reset()
	printReport(&buf, messages.ResultMsg{Status: messages.StatusError, Error: "invalid charset"})
	assert.Contains(t, buf.String(), "error: invalid charset\n")
	assert.NotContains(t, buf.String(), "attempts:")

	buf.Reset()
	printTiming(&buf, []timingLine{{"job_dispatch_ms", 1500 * time.Microsecond}})
	assert.Equal(t, "----- TIMING -----\njob_dispatch_ms: 1.500\n", buf.String())
}

func newJob() messages.JobMsg {
	return messages.JobMsg{
		Type:       messages.JOB,
		JobID:      uuid.NewString(),
		TargetHash: bruteforce.Digest("zzzzzz"),
		MaxLength:  6,
		Charset:    bruteforce.Charset,
	}
}

func TestHandshake(t *testing.T) {
	ctrlSide, workerSide := net.Pipe()
	defer ctrlSide.Close()
	defer workerSide.Close()

	go func() {
		_ = messages.Send(workerSide, messages.RegisterMsg{Type: messages.REGISTER, Worker: "w1", Version: messages.Version})
	}()
	ackc := make(chan messages.AckMsg, 1)
	go func() {
		var ack messages.AckMsg
		_ = messages.Expect(bufio.NewReader(workerSide), messages.ACK, &ack)
		ackc <- ack
	}()

	reg, err := handshake(context.Background(), ctrlSide, bufio.NewReader(ctrlSide))
	require.NoError(t, err)
	assert.Equal(t, "w1", reg.Worker)
	assert.Equal(t, "OK", (<-ackc).Status)
}

func TestHandshake_GivesUpOnContext(t *testing.T) {
	ctrlSide, workerSide := net.Pipe()
	defer ctrlSide.Close()
	defer workerSide.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := handshake(ctx, ctrlSide, bufio.NewReader(ctrlSide))
		errc <- err
	}()
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("handshake ignored context cancellation")
	}
}

func TestAwaitResult_ProgressThenResult(t *testing.T) {
	ctrlSide, workerSide := net.Pipe()
	defer ctrlSide.Close()
	defer workerSide.Close()
	job := newJob()

	go func() {
		_ = messages.Send(workerSide, messages.ProgressMsg{Type: messages.PROGRESS, JobID: job.JobID, Attempts: 10000, Length: 3, Current: "2Bi"})
		_ = messages.Send(workerSide, messages.ResultMsg{Type: messages.RESULT, JobID: job.JobID, Status: messages.StatusFound, Found: true, Plaintext: "abc", Attempts: 43041})
	}()

	res, err := awaitResult(context.Background(), ctrlSide, bufio.NewReader(ctrlSide), job, quietLogger())
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "abc", res.Plaintext)
}

func TestAwaitResult_InterruptSendsCancel(t *testing.T) {
	ctrlSide, workerSide := net.Pipe()
	defer ctrlSide.Close()
	defer workerSide.Close()
	job := newJob()

	cancelled := make(chan messages.CancelMsg, 1)
	go func() {
		var c messages.CancelMsg
		if err := messages.Expect(bufio.NewReader(workerSide), messages.CANCEL, &c); err != nil {
			return
		}
		cancelled <- c
		_ = messages.Send(workerSide, messages.ResultMsg{Type: messages.RESULT, JobID: job.JobID, Status: messages.StatusNotFound, Attempts: 20000})
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := awaitResult(ctx, ctrlSide, bufio.NewReader(ctrlSide), job, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, job.JobID, (<-cancelled).JobID)
	assert.False(t, res.Found)
	assert.Equal(t, messages.StatusNotFound, res.Status)
	assert.Equal(t, uint64(20000), res.Attempts)
}

func TestAwaitResult_KeepsResultWhenCancelUndeliverable(t *testing.T) {
	for range 20 {
		ctrlSide, workerSide := net.Pipe()
		job := newJob()

		go func() {
			_ = messages.Send(workerSide, messages.ResultMsg{Type: messages.RESULT, JobID: job.JobID, Status: messages.StatusFound, Found: true, Plaintext: "abc", Attempts: 43041})
			workerSide.Close()
		}()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, err := awaitResult(ctx, ctrlSide, bufio.NewReader(ctrlSide), job, quietLogger())
		require.NoError(t, err)
		assert.True(t, res.Found)
		assert.Equal(t, "abc", res.Plaintext)
		ctrlSide.Close()
	}
}

func TestAwaitResult_ProtocolErrors(t *testing.T) {
	tests := map[string]any{
		"unexpected type": messages.AckMsg{Type: messages.ACK, Status: "OK"},
		"foreign job":     messages.ResultMsg{Type: messages.RESULT, JobID: uuid.NewString(), Status: messages.StatusNotFound},
		"bad status":      messages.ResultMsg{Type: messages.RESULT, Status: "MAYBE"},
	}
	for name, msg := range tests {
		t.Run(name, func(t *testing.T) {
			ctrlSide, workerSide := net.Pipe()
			defer ctrlSide.Close()
			defer workerSide.Close()

			go func() { _ = messages.Send(workerSide, msg) }()

			_, err := awaitResult(context.Background(), ctrlSide, bufio.NewReader(ctrlSide), newJob(), quietLogger())
			assert.Error(t, err)
		})
	}
}

func TestAwaitResult_WorkerHangsUp(t *testing.T) {
	ctrlSide, workerSide := net.Pipe()
	defer ctrlSide.Close()
	workerSide.Close()

	_, err := awaitResult(context.Background(), ctrlSide, bufio.NewReader(ctrlSide), newJob(), quietLogger())
	assert.ErrorContains(t, err, "read RESULT failed")
}

func TestAccept_GivesUpOnContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = accept(ctx, ln)
	assert.ErrorIs(t, err, context.Canceled)
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MD5BRUTE_LOG_LEVEL", "error")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDigestCommand(t *testing.T) {
	out, err := runRoot(t, "digest", "password")
	require.NoError(t, err)
	assert.Equal(t, "5f4dcc3b5aa765d61d8327deb882cf99\n", out)

	out, err = runRoot(t, "digest", "")
	require.NoError(t, err)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e\n", out)
}

func TestLocalCommand(t *testing.T) {
	prev := bruteforce.Default()
	t.Cleanup(func() { bruteforce.SetDefault(prev) })

	out, err := runRoot(t, "local", "--hash", bruteforce.Digest("abc"), "-m", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "status: FOUND\n")
	assert.Contains(t, out, "password: abc\n")
	assert.Contains(t, out, "attempts: 43041\n")

	out, err = runRoot(t, "local", "--hash", bruteforce.Digest("zzzzz"), "-m", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "status: NOT_FOUND\n")
	assert.Contains(t, out, "searched: 3906 of 3906 (100.00%)\n")
}

func TestLocalCommand_FlagErrors(t *testing.T) {
	_, err := runRoot(t, "local")
	assert.Error(t, err, "a target is required")

	_, err = runRoot(t, "local", "--hash", bruteforce.Digest("a"), "-f", "hashes", "-u", "alice")
	assert.Error(t, err, "--hash and --file are exclusive")

	_, err = runRoot(t, "local", "--hash", "ABC")
	assert.ErrorIs(t, err, bruteforce.ErrInvalidTarget)

	_, err = runRoot(t, "local", "--hash", bruteforce.Digest("a"), "-m", "0")
	assert.Error(t, err)
}
