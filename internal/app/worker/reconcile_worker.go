package worker

import (
	"context"
	"errors"
	"time"

	"algoarena/internal/common"
	"algoarena/internal/domain/model"
	"algoarena/internal/domain/repository"
	"algoarena/internal/platform/logger"
	"algoarena/internal/platform/metrics"

	"go.uber.org/zap"
)

const (
	orphanMessage  = "judge unavailable, please resubmit"
	sweepBatchSize = 100
)

// OrphanSource is the queue of submission ids left pending by judge failures.
type OrphanSource interface {
	Pop(ctx context.Context, timeout time.Duration) (string, bool, error)
}

type ReconcileConfig struct {
	// PopTimeout bounds each blocking pop; every idle timeout triggers a sweep.
	PopTimeout time.Duration
	// StaleAfter is the age after which a pending submission counts as abandoned.
	StaleAfter time.Duration
	Now        func() time.Time
}

// ReconcileWorker closes submissions that will never receive a verdict. It
// marks them as errors and does not re-judge them.
type ReconcileWorker struct {
	queue       OrphanSource
	submissions repository.SubmissionRepository
	cfg         ReconcileConfig
}

func NewReconcileWorker(queue OrphanSource, submissions repository.SubmissionRepository, cfg ReconcileConfig) *ReconcileWorker {
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = time.Minute
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 10 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ReconcileWorker{queue: queue, submissions: submissions, cfg: cfg}
}

// Start blocks until ctx is cancelled.
func (w *ReconcileWorker) Start(ctx context.Context) {
	logger.Info(ctx, "reconcile worker started",
		zap.Duration("pop_timeout", w.cfg.PopTimeout),
		zap.Duration("stale_after", w.cfg.StaleAfter),
	)
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "reconcile worker stopping")
			return
		default:
		}

		id, ok, err := w.queue.Pop(ctx, w.cfg.PopTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error(ctx, "orphan queue pop failed", zap.Error(err))
			sleep(ctx, 5*time.Second)
			continue
		}
		if !ok {
			w.Sweep(ctx)
			continue
		}
		if _, err := w.Close(ctx, id); err != nil {
			logger.Error(ctx, "close orphaned submission failed", zap.String("submission_id", id), zap.Error(err))
		}
	}
}

// Close finalizes one pending submission as an error. closed is false when the
// submission already had a verdict.
func (w *ReconcileWorker) Close(ctx context.Context, submissionID string) (closed bool, err error) {
	msg := orphanMessage
	err = w.submissions.FinalizeSubmission(ctx, submissionID, model.Verdict{
		Status:       model.StatusError,
		Passed:       0,
		ErrorMessage: &msg,
	})
	switch {
	case err == nil:
		metrics.OrphansReconciled.Inc()
		logger.Info(ctx, "orphaned submission closed", zap.String("submission_id", submissionID))
		return true, nil
	case errors.Is(err, common.ErrConflict), errors.Is(err, common.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Sweep closes pending submissions older than StaleAfter and returns how many it closed.
func (w *ReconcileWorker) Sweep(ctx context.Context) int {
	cutoff := w.cfg.Now().Add(-w.cfg.StaleAfter)
	ids, err := w.submissions.ListStalePending(ctx, cutoff, sweepBatchSize)
	if err != nil {
		logger.Error(ctx, "list stale submissions failed", zap.Error(err))
		return 0
	}
	closed := 0
	for _, id := range ids {
		ok, err := w.Close(ctx, id)
		if err != nil {
			logger.Error(ctx, "close stale submission failed", zap.String("submission_id", id), zap.Error(err))
			continue
		}
		if ok {
			closed++
		}
	}
	if closed > 0 {
		logger.Info(ctx, "stale submissions swept", zap.Int("closed", closed))
	}
	return closed
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
