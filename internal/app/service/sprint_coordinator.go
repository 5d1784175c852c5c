package service

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

// SprintCoordinator records a solved problem against every running sprint
// that contains it. It is best effort: failures are logged and never returned.
type SprintCoordinator struct {
	sprints repository.SprintRepository
}

func NewSprintCoordinator(sprints repository.SprintRepository) *SprintCoordinator {
	return &SprintCoordinator{sprints: sprints}
}

func (c *SprintCoordinator) RecordSolve(ctx context.Context, userID, problemID string, now time.Time) {
	sprints, err := c.sprints.ListActiveSprintsContaining(ctx, problemID, now)
	if err != nil {
		metrics.SideEffectErrors.WithLabelValues("sprint").Inc()
		logger.Error(ctx, "list active sprints failed", zap.String("problem_id", problemID), zap.Error(err))
		return
	}

	for _, sprint := range sprints {
		if !sprint.Running(now) || !sprint.Contains(problemID) {
			continue
		}
		progress, err := c.sprints.UpdateProgress(ctx, userID, sprint, sprintSolveMutation(sprint, problemID, now))
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				// user never joined this sprint
				continue
			}
			metrics.SideEffectErrors.WithLabelValues("sprint").Inc()
			logger.Error(ctx, "update sprint progress failed",
				zap.String("sprint_id", sprint.ID),
				zap.String("problem_id", problemID),
				zap.Error(err),
			)
			continue
		}
		if progress.Status == model.SprintCompleted && progress.CompletedAt != nil && progress.CompletedAt.Equal(now) {
			logger.Info(ctx, "sprint completed",
				zap.String("sprint_id", sprint.ID),
				zap.String("reward_type", string(sprint.Reward.Type)),
			)
		}
	}
}

// sprintSolveMutation logs problemID as solved on an in-progress sprint. It
// returns the sprint reward only on the call that completes the sprint.
func sprintSolveMutation(sprint model.Sprint, problemID string, now time.Time) repository.SprintProgressMutation {
	return func(p *model.SprintProgress) (bool, *model.SprintReward) {
		if p.Status != model.SprintInProgress || p.HasSolved(problemID) {
			return false, nil
		}

		p.Solved = append(p.Solved, model.SolvedSprintProblem{ProblemID: problemID, SolvedAt: now})
		total := len(sprint.ProblemIDs)
		solved := sprint.CountSolved(p.Solved)
		p.ProgressPercentage = model.Percentage(solved, total)
		p.Streak.Advance(now)

		if total > 0 && solved >= total {
			p.Status = model.SprintCompleted
			completedAt := now
			p.CompletedAt = &completedAt
			reward := sprint.Reward
			return true, &reward
		}
		return true, nil
	}
}
