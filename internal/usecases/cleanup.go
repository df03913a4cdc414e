package usecases

import (
	"context"

	"go.uber.org/zap"

	"video-processor/internal/pkg/metrics"
)

// LeaseReaper returns jobs whose worker stopped heartbeating to the queue.
type LeaseReaper interface {
	ReapExpired(ctx context.Context) (int, error)
}

type CleanupService interface {
	ReapExpiredJobs(ctx context.Context) error
}

type cleanupService struct {
	reaper LeaseReaper
	logger *zap.Logger
}

func NewCleanupService(reaper LeaseReaper, logger *zap.Logger) CleanupService {
	return &cleanupService{
		reaper: reaper,
		logger: logger,
	}
}

func (s *cleanupService) ReapExpiredJobs(ctx context.Context) error {
	n, err := s.reaper.ReapExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		metrics.LeasesReapedTotal.Add(float64(n))
		s.logger.Warn("requeued jobs with expired leases", zap.Int("count", n))
	}
	return nil
}
