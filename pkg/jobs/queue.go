package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotRunning is returned when submitting to a queue that was never
	// started or has been stopped.
	ErrNotRunning = errors.New("jobs: queue not running")
	// ErrQueueFull is returned when the buffer is saturated.
	ErrQueueFull = errors.New("jobs: queue full")
)

// Job is a unit of background work identified by the entity it operates on.
type Job struct {
	ID       string
	Kind     string
	Attempt  int
	Enqueued time.Time
}

// Handler processes one job. A returned error schedules a retry until the
// attempt budget is spent.
type Handler func(context.Context, Job) error

// Options configures a Queue.
type Options struct {
	Workers    int
	Buffer     int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Stats is a point-in-time view of queue counters.
type Stats struct {
	Pending   int
	Processed int64
	Failed    int64
}

// Queue fans jobs out to a fixed set of goroutines.
type Queue struct {
	name    string
	handle  Handler
	opts    Options
	log     *zap.Logger
	jobs    chan Job
	running atomic.Bool

	processed atomic.Int64
	failed    atomic.Int64

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a queue. Zero options fall back to one worker, a buffer of four
// jobs per worker, three retries and a one second retry delay.
func New(name string, handle Handler, opts Options) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Buffer <= 0 {
		opts.Buffer = opts.Workers * 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Queue{
		name:   name,
		handle: handle,
		opts:   opts,
		log:    opts.Logger.With(zap.String("queue", name)),
		jobs:   make(chan Job, opts.Buffer),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running.Load() {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	q.running.Store(true)
	q.log.Info("queue started", zap.Int("workers", q.opts.Workers))
}

// Stop cancels in-flight work and waits for every worker to return.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running.Load() {
		q.mu.Unlock()
		return
	}
	q.running.Store(false)
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.log.Info("queue stopped", zap.Int64("processed", q.processed.Load()), zap.Int64("failed", q.failed.Load()))
}

// Enqueue hands a job to the workers without blocking.
func (q *Queue) Enqueue(job Job) error {
	if !q.running.Load() {
		return ErrNotRunning
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stats reports queue counters.
func (q *Queue) Stats() Stats {
	return Stats{Pending: len(q.jobs), Processed: q.processed.Load(), Failed: q.failed.Load()}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			if err := q.handle(q.ctx, job); err != nil {
				q.retry(job, err)
				continue
			}
			q.processed.Add(1)
		}
	}
}

func (q *Queue) retry(job Job, cause error) {
	job.Attempt++
	if job.Attempt > q.opts.MaxRetries {
		q.failed.Add(1)
		q.log.Error("job exhausted retries", zap.String("job_id", job.ID), zap.String("kind", job.Kind), zap.Error(cause))
		return
	}
	q.log.Warn("job failed, retrying", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(cause))

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		timer := time.NewTimer(q.opts.RetryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if err := q.Enqueue(job); err != nil {
				q.failed.Add(1)
				q.log.Error("requeue failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}()
}
