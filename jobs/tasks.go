// Package jobs defines the background task types and the Asynq worker that
// processes them.
package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskQuoteExpire marks quotes past their validity window as expired.
	TaskQuoteExpire = "quote:expire"
	// TaskNEAKPrune removes eligibility-check history past retention.
	TaskNEAKPrune = "neak:prune"
)

// NewQuoteExpireTask constructs the quote expiry task. It carries no payload;
// the handler works off the database clock.
func NewQuoteExpireTask() *asynq.Task {
	return asynq.NewTask(TaskQuoteExpire, nil)
}

// NewNEAKPruneTask constructs the history prune task.
func NewNEAKPruneTask() *asynq.Task {
	return asynq.NewTask(TaskNEAKPrune, nil)
}

// QuoteExpirer is the slice of the quote service the worker needs.
type QuoteExpirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// HistoryPruner is the slice of the eligibility service the worker needs.
type HistoryPruner interface {
	Prune(ctx context.Context) (int64, error)
}

// HandleQuoteExpire processes TaskQuoteExpire tasks.
func HandleQuoteExpire(expirer QuoteExpirer, logger *slog.Logger, metrics *TaskMetrics) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		n, err := expirer.ExpireOverdue(ctx)
		metrics.CountRun(TaskQuoteExpire, err)
		if err != nil {
			logger.Error("quote expiry run failed", slog.Any("error", err))
			return err
		}
		logger.Info("quote expiry run complete", slog.Int64("expired", n))
		return nil
	}
}

// HandleNEAKPrune processes TaskNEAKPrune tasks.
func HandleNEAKPrune(pruner HistoryPruner, logger *slog.Logger, metrics *TaskMetrics) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		n, err := pruner.Prune(ctx)
		metrics.CountRun(TaskNEAKPrune, err)
		if err != nil {
			logger.Error("eligibility history prune failed", slog.Any("error", err))
			return err
		}
		logger.Info("eligibility history prune complete", slog.Int64("removed", n))
		return nil
	}
}
