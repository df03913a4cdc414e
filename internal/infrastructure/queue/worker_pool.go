package queue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type WorkerPool struct {
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type PoolConfig struct {
	Workers     int
	PollTimeout time.Duration
	Heartbeat   time.Duration
}

func NewWorkerPool(cfg PoolConfig, consumer Consumer, handler JobHandler, logger *zap.Logger) *WorkerPool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool := &WorkerPool{
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < cfg.Workers; i++ {
		worker := &Worker{
			ID:          i,
			Queue:       consumer,
			Handler:     handler,
			Wg:          &pool.wg,
			Logger:      logger,
			PollTimeout: cfg.PollTimeout,
			Heartbeat:   cfg.Heartbeat,
		}
		pool.wg.Add(1)
		worker.Start(pool.ctx)
	}
	return pool
}

// Shutdown cancels in-flight jobs and waits for every worker to return.
func (p *WorkerPool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
