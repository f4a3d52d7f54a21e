package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Completion is a settled job tagged with its dispatch index
type Completion struct {
	Index  int
	Result Result
}

// Pool runs jobs with bounded concurrency and reports every completion.
// Each job keeps the index it was submitted with so callers can restore dispatch order.
// After the pool context is cancelled no further jobs start and late results are dropped.
type Pool struct {
	workers     int
	sem         chan struct{}
	completions chan Completion
	wg          sync.WaitGroup
	ctx         context.Context
	cancelFunc  context.CancelFunc
	mu          sync.Mutex
	submitted   int
	closed      bool
	closeOnce   sync.Once
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:     workers,
		sem:         make(chan struct{}, workers),
		completions: make(chan Completion),
		ctx:         ctx,
		cancelFunc:  cancel,
	}
}

// Submit schedules a job and returns its dispatch index.
// It never blocks; the job waits for a free worker in its own goroutine.
// Returns -1 if the pool is closed or cancelled.
func (p *Pool) Submit(job Job) int {
	p.mu.Lock()
	if p.closed || p.ctx.Err() != nil {
		p.mu.Unlock()
		return -1
	}
	index := p.submitted
	p.submitted++
	p.wg.Add(1)
	p.mu.Unlock()

	go p.run(index, job)
	return index
}

func (p *Pool) run(index int, job Job) {
	defer p.wg.Done()

	select {
	case <-p.ctx.Done():
		return
	case p.sem <- struct{}{}:
	}
	if p.ctx.Err() != nil {
		<-p.sem
		return
	}
	result := job.Execute(p.ctx)
	<-p.sem

	select {
	case p.completions <- Completion{Index: index, Result: result}:
	case <-p.ctx.Done():
	}
}

// Close stops accepting jobs. The completions channel is closed once every
// submitted job has settled or been dropped.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.closeOnce.Do(func() {
		go func() {
			p.wg.Wait()
			close(p.completions)
		}()
	})
}

// Completions streams settled jobs in completion order
func (p *Pool) Completions() <-chan Completion {
	return p.completions
}

// Submitted returns the number of accepted jobs
func (p *Pool) Submitted() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.submitted
}

// Wait closes the pool, waits for all jobs and returns their results in dispatch order.
// Slots of jobs dropped by cancellation are nil.
func (p *Pool) Wait() []Result {
	p.Close()

	results := make([]Result, p.Submitted())
	for c := range p.completions {
		results[c.Index] = c.Result
	}
	return results
}

// Shutdown cancels the pool: pending jobs never start and running jobs see a cancelled context
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.Close()
}

// OrderedCollector reorders completions into dispatch order.
// Add returns the completions that became releasable, lowest index first.
type OrderedCollector struct {
	next    int
	pending map[int]Completion
	mu      sync.Mutex
}

// NewOrderedCollector creates a new ordered collector
func NewOrderedCollector() *OrderedCollector {
	return &OrderedCollector{pending: make(map[int]Completion)}
}

// Add buffers c and releases the contiguous run starting at the next expected index
func (c *OrderedCollector) Add(completion Completion) []Completion {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending[completion.Index] = completion

	var released []Completion
	for {
		next, ok := c.pending[c.next]
		if !ok {
			break
		}
		delete(c.pending, c.next)
		released = append(released, next)
		c.next++
	}
	return released
}

// Released returns how many completions have been released so far
func (c *OrderedCollector) Released() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}
