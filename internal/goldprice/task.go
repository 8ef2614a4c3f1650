package goldprice

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

// TaskRefresh is the asynq task type that refreshes the cached gold price.
const TaskRefresh = "goldprice:refresh"

// NewRefreshTask builds a refresh task. Duplicate tasks within the unique
// window are dropped by the queue.
func NewRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskRefresh, nil, asynq.MaxRetry(3), asynq.Timeout(time.Minute), asynq.Unique(10*time.Minute))
}

// ProcessTask implements asynq.Handler by running a single refresh.
func (r Refresher) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	return r.RunOnce(ctx)
}
