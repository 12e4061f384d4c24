package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"crmserver/internal/priority"
	"crmserver/internal/repository"
	"crmserver/pkg/metrics"
	"crmserver/pkg/mq"
)

// Sweeper periodically scans for overdue tasks and renewals inside the
// warning window and publishes events for the worker. It never mutates
// state itself.
type Sweeper struct {
	customerRepo *repository.CustomerRepository
	taskRepo     *repository.TaskRepository
	publisher    *mq.Publisher
	logger       *zap.Logger
}

func New(
	customerRepo *repository.CustomerRepository,
	taskRepo *repository.TaskRepository,
	publisher *mq.Publisher,
	logger *zap.Logger,
) *Sweeper {
	return &Sweeper{
		customerRepo: customerRepo,
		taskRepo:     taskRepo,
		publisher:    publisher,
		logger:       logger,
	}
}

// Run sweeps once immediately, then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.SweepOnce(ctx); err != nil {
		s.logger.Error("Sweep failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper stopping")
			return
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				s.logger.Error("Sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce publishes task.overdue for every overdue active task and
// renewal.due for every customer whose renewal is expired or inside
// the six-month window.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	s.logger.Info("Sweep started")
	now := time.Now()

	tasks, err := s.taskRepo.ListActive(ctx)
	if err != nil {
		return err
	}

	overdueCount := 0
	for i := range tasks {
		if !priority.IsOverdue(&tasks[i], now) {
			continue
		}
		payload := mq.TaskOverduePayload{
			TaskID:     tasks[i].ID,
			CustomerID: tasks[i].CustomerID,
			Title:      tasks[i].Title,
			DueDate:    *tasks[i].DueDate,
		}
		if err := s.publisher.Publish(mq.KeyTaskOverdue, payload); err != nil {
			s.logger.Error("Failed to publish task.overdue event",
				zap.String("task_id", tasks[i].ID),
				zap.Error(err),
			)
			continue
		}
		metrics.IncrementSweepEvent(mq.KeyTaskOverdue)
		overdueCount++
	}

	customers, err := s.customerRepo.List(ctx)
	if err != nil {
		return err
	}

	renewalCount := 0
	for _, c := range customers {
		dueSoon := priority.RenewalDueSoon(c.RenewalDate, now)
		expired := priority.RenewalExpired(c.RenewalDate, now)
		if !dueSoon && !expired {
			continue
		}
		payload := mq.RenewalDuePayload{
			CustomerID:   c.ID,
			CustomerName: c.Name,
			RenewalDate:  *c.RenewalDate,
			Expired:      expired,
		}
		if err := s.publisher.Publish(mq.KeyRenewalDue, payload); err != nil {
			s.logger.Error("Failed to publish renewal.due event",
				zap.String("customer_id", c.ID),
				zap.Error(err),
			)
			continue
		}
		metrics.IncrementSweepEvent(mq.KeyRenewalDue)
		renewalCount++
	}

	s.logger.Info("Sweep completed",
		zap.Int("overdue_events", overdueCount),
		zap.Int("renewal_events", renewalCount),
	)
	return nil
}
