package jobs

import (
	"context"

	"vendor-service/internal/notify"
	"vendor-service/pkg/logger"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypePerformanceEmail is the task type for the periodic
	// vendor performance report run.
	TaskTypePerformanceEmail = "notify:performance"
)

// NewPerformanceEmailTask constructs the performance report task.
// The run carries no payload; the handler evaluates all vendors.
func NewPerformanceEmailTask() *asynq.Task {
	return asynq.NewTask(TaskTypePerformanceEmail, nil)
}

// PerformanceEmailJob processes TaskTypePerformanceEmail tasks.
type PerformanceEmailJob struct {
	Notifier *notify.Notifier
	Logger   *zap.Logger
}

// Handle runs one full report dispatch.
func (j *PerformanceEmailJob) Handle(ctx context.Context, _ *asynq.Task) error {
	ctx = logger.WithLogger(ctx, j.Logger)
	sent, err := j.Notifier.SendPerformanceReports(ctx)
	if err != nil {
		j.Logger.Error("Performance report run failed", zap.Error(err))
		return err
	}
	j.Logger.Info("Performance report run finished", zap.Int("reports_sent", sent))
	return nil
}
