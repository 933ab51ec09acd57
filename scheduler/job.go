package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// JobState tracks a job through its lifecycle:
// Queued -> Running -> Succeeded | Failed. There is no cancellation
// transition once Running; jobs run to completion or failure.
type JobState int32

const (
	StateQueued JobState = iota
	StateRunning
	StateSucceeded
	StateFailed
)

func (s JobState) String() string {
	switch s {
	case StateQueued:
		return "Queued"
	case StateRunning:
		return "Running"
	case StateSucceeded:
		return "Succeeded"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Job is one queued unit of inference work. It is owned exclusively by the
// scheduler for its lifetime and never shared across jobs; callers interact
// only through State and Wait.
type Job struct {
	ID         string
	EnqueuedAt time.Time

	payload []byte
	state   atomic.Int32

	// result and err are written once by the worker before done is
	// closed; the channel close publishes them to waiters.
	result []byte
	err    error
	done   chan struct{}
}

func newJob(payload []byte) *Job {
	return &Job{
		ID:         uuid.NewString(),
		EnqueuedAt: time.Now(),
		payload:    payload,
		done:       make(chan struct{}),
	}
}

// State reports the job's current lifecycle state.
func (j *Job) State() JobState {
	return JobState(j.state.Load())
}

// Wait blocks until the job reaches a terminal state or the caller's context
// ends. Each caller awaits exactly its own job, never the whole queue.
func (j *Job) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-j.done:
		return j.result, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (j *Job) finish(result []byte, err error) {
	j.result = result
	j.err = err
	if err != nil {
		j.state.Store(int32(StateFailed))
	} else {
		j.state.Store(int32(StateSucceeded))
	}
	close(j.done)
}
