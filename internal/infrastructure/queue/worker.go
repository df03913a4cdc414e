package queue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ProgressReporter publishes a job's progress to the queue.
type ProgressReporter func(progress float64)

type JobHandler interface {
	Process(ctx context.Context, jobID string, job VideoJob, report ProgressReporter) error
}

// Consumer is the worker's view of the queue.
type Consumer interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*Delivery, error)
	UpdateProgress(ctx context.Context, id string, progress float64) error
	Touch(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) error
	Fail(ctx context.Context, id string, cause error) (bool, error)
	Release(ctx context.Context, id string) error
}

type Worker struct {
	ID          int
	Queue       Consumer
	Handler     JobHandler
	Wg          *sync.WaitGroup
	Logger      *zap.Logger
	PollTimeout time.Duration
	Heartbeat   time.Duration
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		defer w.Wg.Done()
		for {
			select {
			case <-ctx.Done():
				w.Logger.Info("worker stopping", zap.Int("worker", w.ID))
				return
			default:
			}

			delivery, err := w.Queue.Dequeue(ctx, w.PollTimeout)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				w.Logger.Error("dequeue failed", zap.Int("worker", w.ID), zap.Error(err))
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
				continue
			}
			if delivery == nil {
				continue
			}
			w.processJob(ctx, delivery)
		}
	}()
}

func (w *Worker) processJob(ctx context.Context, d *Delivery) {
	log := w.Logger.With(
		zap.Int("worker", w.ID),
		zap.String("job_id", d.ID),
		zap.String("collection", d.Job.Collection),
		zap.String("document_id", d.Job.ID.String()),
		zap.String("preset", d.Job.Preset),
		zap.Int("attempt", d.Attempt),
	)
	log.Info("processing job")

	jobCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	if w.Heartbeat > 0 {
		go w.heartbeat(jobCtx, d.ID, log)
	}

	report := func(progress float64) {
		if err := w.Queue.UpdateProgress(ctx, d.ID, progress); err != nil {
			log.Warn("progress update failed", zap.Float64("progress", progress), zap.Error(err))
		}
	}

	err := w.Handler.Process(jobCtx, d.ID, d.Job, report)
	stopHeartbeat()

	// Shutdown interrupted the job; hand it back for redelivery.
	if ctx.Err() != nil {
		bg, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if releaseErr := w.Queue.Release(bg, d.ID); releaseErr != nil {
			log.Error("release interrupted job failed", zap.Error(releaseErr))
		} else {
			log.Warn("job interrupted by shutdown, released")
		}
		return
	}

	if err != nil {
		retried, failErr := w.Queue.Fail(ctx, d.ID, err)
		if failErr != nil {
			log.Error("recording job failure failed", zap.Error(failErr))
		}
		log.Error("job failed", zap.Bool("will_retry", retried), zap.Error(err))
		return
	}

	if err := w.Queue.Complete(ctx, d.ID); err != nil {
		log.Error("marking job completed failed", zap.Error(err))
		return
	}
	log.Info("job completed")
}

func (w *Worker) heartbeat(ctx context.Context, id string, log *zap.Logger) {
	ticker := time.NewTicker(w.Heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Queue.Touch(ctx, id); err != nil && ctx.Err() == nil {
				log.Warn("lease heartbeat failed", zap.Error(err))
			}
		}
	}
}
