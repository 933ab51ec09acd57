package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ecg-screening/ecg"
)

// countingRunner tracks how many executions overlap.
type countingRunner struct {
	active  atomic.Int32
	peak    atomic.Int32
	runtime time.Duration
}

func (r *countingRunner) Run(ctx context.Context, payload []byte) ([]byte, error) {
	now := r.active.Add(1)
	for {
		peak := r.peak.Load()
		if now <= peak || r.peak.CompareAndSwap(peak, now) {
			break
		}
	}
	defer r.active.Add(-1)

	select {
	case <-time.After(r.runtime):
		return payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSchedulerNeverExceedsConcurrencyBound(t *testing.T) {
	t.Parallel()

	const workers = 2
	runner := &countingRunner{runtime: 10 * time.Millisecond}
	sched := New(runner, workers, 128, time.Second)
	sched.Start()
	defer sched.Stop()

	jobs := make([]*Job, 0, 40)
	for i := 0; i < 40; i++ {
		job, err := sched.Submit([]byte{byte(i)})
		if err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
		jobs = append(jobs, job)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i, job := range jobs {
		result, err := job.Wait(ctx)
		if err != nil {
			t.Fatalf("job %d failed: %v", i, err)
		}
		if len(result) != 1 || result[0] != byte(i) {
			t.Fatalf("job %d returned wrong payload %v", i, result)
		}
		if job.State() != StateSucceeded {
			t.Fatalf("job %d in state %s, expected Succeeded", i, job.State())
		}
	}

	if peak := runner.peak.Load(); peak > workers {
		t.Fatalf("observed %d concurrent executions, bound is %d", peak, workers)
	}
}

// orderRunner records the order payloads start executing.
type orderRunner struct {
	mu    sync.Mutex
	order []byte
}

func (r *orderRunner) Run(ctx context.Context, payload []byte) ([]byte, error) {
	r.mu.Lock()
	r.order = append(r.order, payload[0])
	r.mu.Unlock()
	return payload, nil
}

func TestSchedulerDequeuesInSubmissionOrder(t *testing.T) {
	t.Parallel()

	runner := &orderRunner{}
	sched := New(runner, 1, 32, time.Second)

	// Enqueue everything before the single worker starts draining, so the
	// observed execution order is exactly the admission order.
	jobs := make([]*Job, 0, 10)
	for i := 0; i < 10; i++ {
		job, err := sched.Submit([]byte{byte(i)})
		if err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
		jobs = append(jobs, job)
	}
	sched.Start()
	defer sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, job := range jobs {
		if _, err := job.Wait(ctx); err != nil {
			t.Fatalf("job failed: %v", err)
		}
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	for i, b := range runner.order {
		if b != byte(i) {
			t.Fatalf("execution order %v is not FIFO", runner.order)
		}
	}
}

func TestSchedulerRejectsWhenQueueIsFull(t *testing.T) {
	t.Parallel()

	// No workers are started, so the first job occupies the whole queue.
	sched := New(&orderRunner{}, 1, 1, time.Second)
	if _, err := sched.Submit([]byte{1}); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if _, err := sched.Submit([]byte{2}); err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestSubmitRacingStopNeverPanics(t *testing.T) {
	t.Parallel()

	// Submissions racing a Stop must resolve to a handle, ErrStopped or
	// ErrQueueFull; a send on the closed queue would panic the process.
	for i := 0; i < 200; i++ {
		sched := New(&orderRunner{}, 1, 4, time.Second)
		sched.Start()

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					_, err := sched.Submit([]byte{1})
					if err != nil && err != ErrStopped && err != ErrQueueFull {
						t.Errorf("unexpected submit error: %v", err)
						return
					}
				}
			}()
		}
		sched.Stop()
		wg.Wait()
	}
}

func TestSchedulerRejectsAfterStop(t *testing.T) {
	t.Parallel()

	sched := New(&orderRunner{}, 1, 4, time.Second)
	sched.Start()
	sched.Stop()

	if _, err := sched.Submit([]byte{1}); err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestSchedulerMapsDeadlineToTimeoutKind(t *testing.T) {
	t.Parallel()

	runner := &countingRunner{runtime: time.Second}
	sched := New(runner, 1, 4, 20*time.Millisecond)
	sched.Start()
	defer sched.Stop()

	job, err := sched.Submit([]byte{1})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := job.Wait(ctx)
	if err == nil {
		t.Fatal("expected a timeout failure")
	}
	if result != nil {
		t.Fatal("failed job must not carry a result")
	}
	if ecg.KindOf(err) != ecg.KindInferenceTimeout {
		t.Fatalf("expected InferenceTimeout, got %s", ecg.KindOf(err))
	}
	if job.State() != StateFailed {
		t.Fatalf("job state %s, expected Failed", job.State())
	}
}

// failingRunner always surfaces one fixed typed error.
type failingRunner struct{ err error }

func (r *failingRunner) Run(ctx context.Context, payload []byte) ([]byte, error) {
	return nil, r.err
}

func TestSchedulerPreservesTypedRunnerErrors(t *testing.T) {
	t.Parallel()

	typed := ecg.NewPipelineError(ecg.KindMalformedOutput, "worker emitted garbage")
	sched := New(&failingRunner{err: typed}, 1, 4, time.Second)
	sched.Start()
	defer sched.Stop()

	job, err := sched.Submit([]byte{1})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = job.Wait(ctx)
	if ecg.KindOf(err) != ecg.KindMalformedOutput {
		t.Fatalf("expected MalformedOutput, got %v", err)
	}
}

func TestJobWaitHonorsCallerContext(t *testing.T) {
	t.Parallel()

	// A job that is never scheduled: Wait must still unblock on the
	// caller's context.
	sched := New(&orderRunner{}, 1, 4, time.Second)
	job, err := sched.Submit([]byte{1})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := job.Wait(ctx); err != context.DeadlineExceeded {
		t.Fatalf("expected context deadline, got %v", err)
	}
	if job.State() != StateQueued {
		t.Fatalf("job state %s, expected Queued", job.State())
	}
}
