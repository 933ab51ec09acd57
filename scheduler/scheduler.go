package scheduler

// Bounded-Concurrency Inference Scheduler
//
// A fixed-size worker pool consumes a FIFO queue of jobs. At most `workers`
// jobs are Running simultaneously; the rest stay Queued in submission order.
// Admission is non-blocking: Submit either enqueues immediately or reports a
// full queue, and callers then block only on their own job's completion.
// Jobs are dequeued FIFO, but completion order across concurrently running
// jobs is not guaranteed.
//
// Each job executes through a Runner, in production a subprocess-isolated
// execution (see subprocess.go), under a per-job wall-clock timeout. A
// runner failure marks the job Failed with a typed error; the scheduler
// never retries — retry policy, if any, belongs to the caller.

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mdobak/go-xerrors"

	"ecg-screening/ecg"
	"ecg-screening/utils"
)

// Runner executes one serialized inference request and returns the
// serialized result. Implementations decide the isolation boundary.
type Runner interface {
	Run(ctx context.Context, payload []byte) ([]byte, error)
}

// ErrQueueFull is returned when admission would exceed the queue depth.
var ErrQueueFull = errors.New("inference queue is full")

// ErrStopped is returned when submitting to a stopped scheduler.
var ErrStopped = errors.New("scheduler is stopped")

// Scheduler runs jobs through a bounded worker pool.
type Scheduler struct {
	runner  Runner
	queue   chan *Job
	workers int
	timeout time.Duration

	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	stopped bool
}

// New builds a scheduler with the given concurrency bound, queue depth and
// per-job timeout.
func New(runner Runner, workers, queueDepth int, timeout time.Duration) *Scheduler {
	return &Scheduler{
		runner:  runner,
		queue:   make(chan *Job, queueDepth),
		workers: workers,
		timeout: timeout,
	}
}

// Start launches the worker pool. Safe to call once.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
}

// Submit enqueues a payload and returns its job handle without blocking.
// The lock is held across the enqueue: Stop closes the queue under the same
// lock, so a concurrent Stop can never turn the send into a panic.
func (s *Scheduler) Submit(payload []byte) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, ErrStopped
	}

	job := newJob(payload)
	select {
	case s.queue <- job:
		return job, nil
	default:
		return nil, ErrQueueFull
	}
}

// Stop closes admission and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.queue)
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) worker() {
	defer s.wg.Done()
	logger := utils.GetLogger()

	for job := range s.queue {
		job.state.Store(int32(StateRunning))

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		result, err := s.runner.Run(ctx, job.payload)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				err = ecg.WrapError(ecg.KindInferenceTimeout, err)
			}
			logger.Error("inference job failed",
				"job", job.ID,
				"kind", string(ecg.KindOf(err)),
				slog.Any("error", xerrors.New(err)))
			job.finish(nil, err)
			continue
		}
		job.finish(result, nil)
	}
}
