package core

import "github.com/searchktools/quickly/core/pools"

// Stats is a snapshot of connection and pool counters
type Stats struct {
	Accepted     uint64
	AcceptErrors uint64
	Served       uint64
	Failed       uint64

	BytePool pools.BytePoolStats
	Workers  *pools.WorkerPoolStats // nil when serving sequentially
}

// Stats returns engine statistics
func (e *Engine) Stats() Stats {
	s := Stats{
		Accepted:     e.stats.accepted.Load(),
		AcceptErrors: e.stats.acceptErrors.Load(),
		Served:       e.stats.served.Load(),
		Failed:       e.stats.failed.Load(),
		BytePool:     e.bytePool.Stats(),
	}

	e.mu.Lock()
	wp := e.workerPool
	e.mu.Unlock()
	if wp != nil {
		ws := wp.Stats()
		s.Workers = &ws
	}
	return s
}
