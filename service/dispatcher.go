package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pavi2410/droidkit/models"
)

var (
	ErrQueueFull         = errors.New("job queue full")
	ErrDispatcherStopped = errors.New("dispatcher stopped")
)

// maxRetainedJobs bounds the job history kept for status queries.
const maxRetainedJobs = 1000

type task struct {
	job *models.Job
	run func() error
	// finish runs after the final status is recorded.
	finish func()
}

// Dispatcher runs blocking device sequences on a bounded pool of workers so
// that request handlers never block on a device. A job that has started is
// never interrupted: callers that stop waiting leave it running to
// completion, and its outcome stays visible through Job.
type Dispatcher struct {
	queue       chan *task
	broadcaster WebSocketBroadcaster
	logger      *zap.Logger

	mu      sync.RWMutex
	closed  bool
	jobs    map[string]*models.Job
	history []string

	wg sync.WaitGroup
}

// NewDispatcher starts workers goroutines consuming a queue of queueSize.
// broadcaster may be nil.
func NewDispatcher(workers, queueSize int, broadcaster WebSocketBroadcaster, logger *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	d := &Dispatcher{
		queue:       make(chan *task, queueSize),
		broadcaster: broadcaster,
		logger:      logger.Named("dispatcher"),
		jobs:        make(map[string]*models.Job),
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

// Future is the pending result of a submitted job.
type Future[T any] struct {
	jobID string
	done  chan struct{}
	value T
	err   error
}

func (f *Future[T]) JobID() string { return f.jobID }

// Wait blocks until the job finishes or ctx is done. Giving up on ctx does
// not cancel the job.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit queues fn as a job without blocking. It fails with ErrQueueFull when
// every worker is busy and the queue is at capacity.
func Submit[T any](d *Dispatcher, kind, deviceID string, fn func() (T, error)) (*Future[T], error) {
	f := &Future[T]{done: make(chan struct{})}
	run := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("job panicked: %v", r)
				err = f.err
			}
		}()
		f.value, f.err = fn()
		return f.err
	}
	job, err := d.enqueue(&task{run: run, finish: func() { close(f.done) }}, kind, deviceID)
	if err != nil {
		return nil, err
	}
	f.jobID = job.ID
	return f, nil
}

// Run submits fn and waits for it with ctx.
func Run[T any](ctx context.Context, d *Dispatcher, kind, deviceID string, fn func() (T, error)) (T, string, error) {
	f, err := Submit(d, kind, deviceID, fn)
	if err != nil {
		var zero T
		return zero, "", err
	}
	v, err := f.Wait(ctx)
	return v, f.JobID(), err
}

func (d *Dispatcher) enqueue(t *task, kind, deviceID string) (*models.Job, error) {
	now := time.Now().UnixMilli()
	job := &models.Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		DeviceID:  deviceID,
		Status:    models.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.job = job

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrDispatcherStopped
	}

	select {
	case d.queue <- t:
	default:
		jobsTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %s", ErrQueueFull, kind)
	}

	d.jobs[job.ID] = job
	d.history = append(d.history, job.ID)
	d.evictLocked()

	d.logger.Debug("job queued",
		zap.String("job_id", job.ID),
		zap.String("kind", kind),
		zap.String("device_id", deviceID),
	)
	return job, nil
}

// evictLocked drops the oldest finished jobs beyond maxRetainedJobs.
func (d *Dispatcher) evictLocked() {
	for len(d.history) > maxRetainedJobs {
		oldest := d.jobs[d.history[0]]
		if oldest != nil && !oldest.Finished() {
			return
		}
		delete(d.jobs, d.history[0])
		d.history = d.history[1:]
	}
}

// Job returns a snapshot of a job's state.
func (d *Dispatcher) Job(id string) (models.Job, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	job, ok := d.jobs[id]
	if !ok {
		return models.Job{}, false
	}
	return *job, true
}

// Stop rejects new jobs, lets queued jobs drain and waits for the workers.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for t := range d.queue {
		d.execute(t)
	}
}

func (d *Dispatcher) execute(t *task) {
	if t.finish != nil {
		defer t.finish()
	}
	d.setStatus(t.job, models.JobExecuting, nil)

	if err := t.run(); err != nil {
		d.setStatus(t.job, models.JobFailed, err)
		jobsTotal.WithLabelValues(string(models.JobFailed)).Inc()
		d.logger.Warn("job failed",
			zap.String("job_id", t.job.ID),
			zap.String("kind", t.job.Kind),
			zap.Error(err),
		)
		return
	}
	d.setStatus(t.job, models.JobDone, nil)
	jobsTotal.WithLabelValues(string(models.JobDone)).Inc()
}

func (d *Dispatcher) setStatus(job *models.Job, status models.JobStatus, err error) {
	d.mu.Lock()
	job.Status = status
	job.UpdatedAt = time.Now().UnixMilli()
	if err != nil {
		job.Error = err.Error()
	}
	snapshot := *job
	d.mu.Unlock()

	if d.broadcaster != nil {
		d.broadcaster.BroadcastToDevice(snapshot.DeviceID, newEvent(models.EventJobUpdated, snapshot.DeviceID, snapshot))
	}
}
