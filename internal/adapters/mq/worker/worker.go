package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/dealdesk/internal/adapters/mq/queue"
	"github.com/okian/dealdesk/pkg/logger"
	"github.com/okian/dealdesk/pkg/metrics"
)

const (
	defaultLaneCapacity   = 256
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Func is the work carried by a job. ctx is the submitter's context.
type Func func(ctx context.Context) error

// SettleFunc receives a job's final error on its lane, whether or not the
// submitter is still waiting.
type SettleFunc func(err error)

type job struct {
	ctx      context.Context
	fn       Func
	settle   SettleFunc
	done     chan error
	enqueued time.Time
}

// lane is a single consumer over its own queue.
type lane struct {
	id     int
	queue  *queue.InMemoryQueue[job]
	done   chan struct{}
	logger logger.Logger
}

func (l *lane) run(ctx context.Context) {
	defer close(l.done)

	jobs := l.queue.Dequeue(ctx)
	for j := range jobs {
		l.process(j)
	}
}

func (l *lane) process(j job) {
	defer func() {
		metrics.RecordDispatchLatency(float64(time.Since(j.enqueued).Microseconds()) / 1000)
	}()

	// The submitter may have given up while the job was queued.
	if err := j.ctx.Err(); err != nil {
		l.finish(j, err)
		return
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				metrics.RecordErrorByComponent("worker", "panic")
				err = fmt.Errorf("job panicked: %v", r)
			}
		}()
		return j.fn(j.ctx)
	}()
	if err != nil {
		l.logger.Debug(j.ctx, "job failed", logger.Int("lane", l.id), logger.Error(err))
	}
	l.finish(j, err)
}

// finish settles j before handing err to a waiting submitter.
func (l *lane) finish(j job, err error) {
	if j.settle != nil {
		j.settle(err)
	}
	j.done <- err
}

// Pool routes keyed jobs onto a fixed set of lanes.
type Pool struct {
	name   string
	lanes  []*lane
	logger logger.Logger

	shutdown chan struct{}
	once     sync.Once
	started  atomic.Bool
}

// NewPool creates a pool with laneCount lanes of laneCapacity pending jobs.
func NewPool(laneCount, laneCapacity int, opts ...Option) *Pool {
	if laneCount < 1 {
		laneCount = runtime.NumCPU()
	}
	if laneCapacity < 1 {
		laneCapacity = defaultLaneCapacity
	}

	p := &Pool{
		name:     "dispatch",
		logger:   logger.Nop(),
		shutdown: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.lanes = make([]*lane, laneCount)
	for i := range p.lanes {
		p.lanes[i] = &lane{
			id: i,
			queue: queue.NewInMemoryQueue[job](
				queue.WithCapacity(laneCapacity),
				queue.WithName(p.name+"-lane-"+strconv.Itoa(i)),
			),
			done:   make(chan struct{}),
			logger: p.logger,
		}
	}
	metrics.UpdateDispatchQueue(0, laneCount*laneCapacity)
	return p
}

// Start launches one goroutine per lane.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, l := range p.lanes {
		go l.run(ctx)
	}
	go p.startMetricsUpdater(ctx)
	p.logger.Info(ctx, "worker pool started",
		logger.String("name", p.name),
		logger.Int("lanes", len(p.lanes)),
		logger.Int("capacity", p.Capacity()))
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			metrics.UpdateDispatchQueue(p.Len(), p.Capacity())
		}
	}
}

// Lane returns the lane index for key.
func (p *Pool) Lane(key int) int {
	i := key % len(p.lanes)
	if i < 0 {
		i += len(p.lanes)
	}
	return i
}

// Do runs fn on key's lane and waits for it. It fails fast with
// ErrBackpressure when the lane is full and ErrStopped after Shutdown.
// If ctx ends first Do returns ctx.Err(); a job that already started still
// runs to completion.
func (p *Pool) Do(ctx context.Context, key int, fn Func) error {
	return p.DoSettled(ctx, key, fn, nil)
}

// DoSettled is Do with a settle hook. settle is called exactly once with
// the job's final error: the result of fn, ctx.Err() when the job was
// skipped because its submitter gave up, or the rejection from the lane.
// For accepted jobs it runs on the lane, even after Do has returned.
func (p *Pool) DoSettled(ctx context.Context, key int, fn Func, settle SettleFunc) error {
	l := p.lanes[p.Lane(key)]
	j := job{ctx: ctx, fn: fn, settle: settle, done: make(chan error, 1), enqueued: time.Now()}

	if err := p.enqueue(l, j); err != nil {
		if settle != nil {
			settle(err)
		}
		return err
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) enqueue(l *lane, j job) error {
	err := l.queue.Enqueue(j.ctx, j)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, queue.ErrFull):
		metrics.RecordDispatchRejected()
		return fmt.Errorf("lane %d: %w", l.id, ErrBackpressure)
	case errors.Is(err, queue.ErrClosed):
		metrics.RecordDispatchRejected()
		return ErrStopped
	default:
		return err
	}
}

// Len is the number of queued jobs across lanes.
func (p *Pool) Len() int {
	n := 0
	for _, l := range p.lanes {
		n += l.queue.Len(context.Background())
	}
	return n
}

// Capacity is the total number of jobs the lanes can hold.
func (p *Pool) Capacity() int {
	n := 0
	for _, l := range p.lanes {
		n += l.queue.Capacity()
	}
	return n
}

// Lanes returns the number of lanes.
func (p *Pool) Lanes() int { return len(p.lanes) }

// Shutdown closes the lanes and waits for queued jobs to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.once.Do(func() {
		close(p.shutdown)
		for _, l := range p.lanes {
			if err := l.queue.Close(); err != nil {
				p.logger.Error(ctx, "error closing lane", logger.Int("lane", l.id), logger.Error(err))
			}
		}
	})

	if !p.started.Load() {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for _, l := range p.lanes {
		select {
		case <-l.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "lane shutdown timed out", logger.Int("lane", l.id))
			return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
		}
	}
	return nil
}
