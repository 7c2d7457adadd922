package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/itsManeka/gibipromo-sub001/internal/usecase"
	"github.com/itsManeka/gibipromo-sub001/pkg/jitter"
	"github.com/itsManeka/gibipromo-sub001/pkg/logger"
)

// Scheduler периодически ставит CHECK_PRODUCT на очередную пачку товаров.
// Выбор товаров идёт по персистентному курсору с заворачиванием на начало,
// так что каждый товар перепроверяется с периодом, обратно пропорциональным
// размеру каталога.
type Scheduler struct {
	uc       usecase.MonitorUC
	logger   logger.Logger
	interval time.Duration
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewScheduler(uc usecase.MonitorUC, logger logger.Logger, interval time.Duration) *Scheduler {
	return &Scheduler{
		uc:       uc,
		logger:   logger,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

func (s *Scheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	timer := time.NewTimer(jitter.Duration(s.interval, jitter.DefaultJitter))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infof("Scheduler stopped by context cancellation")
			return
		case <-s.stop:
			s.logger.Infof("Scheduler stopped")
			return
		case <-timer.C:
			if err := s.uc.ScheduleChecks(ctx); err != nil {
				s.logger.Warnf("Check scheduling failed: %v", err)
			}
			timer.Reset(jitter.Duration(s.interval, jitter.DefaultJitter))
		}
	}
}
