package funding

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"fundingarb/internal/adapters"
)

// Scheduler runs the authoritative periodic cycle: a forced refresh every
// interval, broadcast to all connected subscribers. Singleton mode keeps
// cycles from overlapping when the upstream calls run long.
type Scheduler struct {
	service     *Service
	broadcaster adapters.Broadcaster
	interval    time.Duration
	// -----
	sched gocron.Scheduler
}

func NewScheduler(service *Service, broadcaster adapters.Broadcaster, interval time.Duration) *Scheduler {
	return &Scheduler{service: service, broadcaster: broadcaster, interval: interval}
}

func (s *Scheduler) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	s.sched = scheduler

	job := func(jobCtx context.Context) {
		snapshot, refreshErr := s.service.ForceRefresh(jobCtx)
		if refreshErr != nil {
			// Previous snapshot stays cached; nothing stale is pushed.
			logrus.Errorf("Broadcast refresh failed: %v", refreshErr)
			return
		}
		if s.broadcaster != nil {
			s.broadcaster.Broadcast(snapshot)
		}
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(job),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	scheduler.Start()

	// Stop scheduler when the provided context is canceled.
	go func() {
		<-ctx.Done()
		if sdErr := s.Shutdown(); sdErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", sdErr)
		}
	}()
	return nil
}

func (s *Scheduler) Shutdown() error {
	if s.sched == nil {
		return nil
	}
	err := s.sched.Shutdown()
	s.sched = nil
	return err
}
