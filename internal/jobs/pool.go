package jobs

import (
	"context"
	"sync"

	"github.com/botconversa/contactsheet/pkg/log"
)

// Task is one self-contained unit of background work. A task owns its
// job for the job's entire lifetime and must drive it to a terminal
// state itself; the pool never inspects job state.
type Task func(ctx context.Context)

// Handle tracks the eventual completion of a submitted task. Nothing in
// the request path blocks on it; it exists so tests and callers that
// care can wait for the terminal state.
type Handle struct {
	done chan struct{}
}

func (h *Handle) Done() <-chan struct{} { return h.done }

type submission struct {
	task   Task
	handle *Handle
}

// Pool runs tasks on a fixed number of workers. The size is set once at
// construction. There is no cancellation for an in-flight task: once
// picked up it runs until it returns or the process exits.
type Pool struct {
	workerCount int

	pending  chan submission
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewPool(workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Pool{
		workerCount: workerCount,
		pending:     make(chan submission, 1024),
		stopCh:      make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for range p.workerCount {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop waits for the workers to drain their current task. Queued tasks
// that no worker picked up before Stop are abandoned.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.wg.Wait()
	})
}

// Submit enqueues task and returns immediately. The buffered channel
// keeps the request path from blocking even when every worker is busy;
// on overflow the enqueue moves to a goroutine that gives up at Stop so
// shutdown never strands it.
func (p *Pool) Submit(task Task) *Handle {
	handle := &Handle{done: make(chan struct{})}
	sub := submission{task: task, handle: handle}
	select {
	case p.pending <- sub:
	default:
		go func() {
			select {
			case p.pending <- sub:
			case <-p.stopCh:
			}
		}()
	}
	return handle
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case sub := <-p.pending:
			p.run(sub)
		}
	}
}

func (p *Pool) run(sub submission) {
	defer close(sub.handle.done)
	defer func() {
		if r := recover(); r != nil {
			log.Error("worker task panic: %v", r)
		}
	}()
	sub.task(context.Background())
}
