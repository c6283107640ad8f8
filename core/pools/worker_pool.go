package pools

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Task represents a unit of work
type Task func()

// WorkerPool runs tasks on a fixed set of goroutines.
// When the queue is full the submitting goroutine runs the task itself,
// which throttles the producer instead of dropping work.
type WorkerPool struct {
	numWorkers int
	tasks      chan Task
	wg         sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	// Statistics
	stats struct {
		tasksSubmitted atomic.Uint64
		tasksCompleted atomic.Uint64
		tasksInline    atomic.Uint64
	}
}

// NewWorkerPool creates a pool with numWorkers goroutines and a queue of queueSize tasks.
// Non-positive values default to runtime.NumCPU() and 256.
func NewWorkerPool(numWorkers, queueSize int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = 256
	}

	pool := &WorkerPool{
		numWorkers: numWorkers,
		tasks:      make(chan Task, queueSize),
	}

	pool.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go pool.run()
	}

	return pool
}

// Submit queues a task, running it inline if the queue is full.
// It returns false once the pool is closed.
func (p *WorkerPool) Submit(task Task) bool {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return false
	}

	p.stats.tasksSubmitted.Add(1)

	select {
	case p.tasks <- task:
		p.mu.RUnlock()
		return true
	default:
	}
	p.mu.RUnlock()

	// Queue full, execute inline
	p.stats.tasksInline.Add(1)
	task()
	p.stats.tasksCompleted.Add(1)
	return true
}

func (p *WorkerPool) run() {
	defer p.wg.Done()

	for task := range p.tasks {
		task()
		p.stats.tasksCompleted.Add(1)
	}
}

// Close stops accepting tasks and waits for queued tasks to finish
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

// Stats returns pool statistics
func (p *WorkerPool) Stats() WorkerPoolStats {
	submitted := p.stats.tasksSubmitted.Load()
	completed := p.stats.tasksCompleted.Load()
	return WorkerPoolStats{
		NumWorkers:     p.numWorkers,
		TasksSubmitted: submitted,
		TasksCompleted: completed,
		TasksPending:   submitted - completed,
		TasksInline:    p.stats.tasksInline.Load(),
	}
}

// WorkerPoolStats contains pool statistics
type WorkerPoolStats struct {
	NumWorkers     int
	TasksSubmitted uint64
	TasksCompleted uint64
	TasksPending   uint64
	TasksInline    uint64
}
