package outbox

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Scheduler struct {
	dispatcher *Dispatcher
	interval   time.Duration
	logger     *zap.Logger
	wg         sync.WaitGroup
}

func NewScheduler(d *Dispatcher, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{dispatcher: d, interval: interval, logger: logger}
}

// Start runs the dispatch loop until ctx is cancelled. Wait blocks until the
// loop has exited.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("outbox scheduler stopped")
				return
			case <-ticker.C:
				n, err := s.dispatcher.DispatchOnce(ctx)
				if err != nil {
					s.logger.Error("outbox dispatch error", zap.Error(err))
				} else if n > 0 {
					s.logger.Debug("outbox dispatch processed messages", zap.Int("count", n))
				}
			}
		}
	}()
}

func (s *Scheduler) Wait() {
	s.wg.Wait()
}
