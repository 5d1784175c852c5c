package service

import (
	"context"
	"time"

	"algoarena/internal/domain/model"
	"algoarena/internal/domain/repository"
)

// StreakCoordinator advances a user's daily solve streak.
type StreakCoordinator struct {
	users repository.UserRepository
}

func NewStreakCoordinator(users repository.UserRepository) *StreakCoordinator {
	return &StreakCoordinator{users: users}
}

// RecordSolve counts a solve at now. Several solves on one UTC day count once,
// and a gap of several days does not reset the streak.
func (c *StreakCoordinator) RecordSolve(ctx context.Context, userID string, now time.Time) (model.Streak, error) {
	return c.users.UpdateStreak(ctx, userID, func(s *model.Streak) bool {
		return s.Advance(now)
	})
}
