package scheduler

// Subprocess-Per-Job Isolation
//
// Every running job executes in its own process: the scheduler re-invokes
// the current binary with a worker subcommand, writes the serialized request
// to its stdin and reads the serialized result from its stdout. Worker
// diagnostics flow to stderr and never mix with the structured output. A
// crash, malformed output or timeout in one job cannot corrupt another job
// or the scheduler itself; the context deadline forcibly terminates the
// process and the job surfaces as Failed with a timeout error kind.

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"ecg-screening/ecg"
)

// SubprocessRunner executes payloads through an isolated child process.
type SubprocessRunner struct {
	binary     string
	subcommand string
}

// NewSubprocessRunner resolves the current executable as the worker binary.
func NewSubprocessRunner(subcommand string) (*SubprocessRunner, error) {
	binary, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve worker binary: %w", err)
	}
	return &SubprocessRunner{binary: binary, subcommand: subcommand}, nil
}

// Run executes one request in a child process under the caller's deadline.
func (r *SubprocessRunner) Run(ctx context.Context, payload []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.binary, r.subcommand)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stderr = os.Stderr

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, ecg.NewPipelineError(ecg.KindInferenceTimeout,
			"inference execution exceeded its wall-clock bound")
	}
	if err != nil {
		// A failed worker reports its typed error on stdout before
		// exiting non-zero; anything else violated the contract.
		if perr, ok := ecg.ParseErrorPayload(stdout.Bytes()); ok {
			return nil, perr
		}
		return nil, ecg.WrapError(ecg.KindMalformedOutput,
			fmt.Errorf("worker exited abnormally: %w", err))
	}
	return stdout.Bytes(), nil
}
