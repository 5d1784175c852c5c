package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"algoarena/internal/common"
	"algoarena/internal/domain/model"
)

// UserRepository owns the per-user solve state: solved set, checked entries,
// points and the streak. Every write is a single atomic statement or runs
// under a row lock, so concurrent submissions of one user cannot lose updates.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	// MarkProblemSolved records an accepted submission. firstTime is true only
	// for the call that inserted the problem into the solved set; only that
	// call awards points. The checked entry is upserted to solved either way.
	MarkProblemSolved(ctx context.Context, userID, problemID string, points int, at time.Time) (firstTime bool, err error)
	// RecordAttempt adds an unsolved checked entry unless one already exists.
	RecordAttempt(ctx context.Context, userID, problemID string, at time.Time) error
	// UpdateStreak loads the streak under FOR UPDATE and persists it when mutate reports a change.
	UpdateStreak(ctx context.Context, userID string, mutate func(*model.Streak) bool) (model.Streak, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT id, username, email, points, streak_current, streak_longest, streak_last_updated, created_at, updated_at
	          FROM users WHERE id = $1`
	user := &model.User{}
	var last sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Email, &user.Points,
		&user.Streak.Current, &user.Streak.Longest, &last, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	if last.Valid {
		user.Streak.LastUpdated = &last.Time
	}
	return user, nil
}

func (r *pgUserRepository) MarkProblemSolved(ctx context.Context, userID, problemID string, points int, at time.Time) (bool, error) {
	var firstTime bool
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO user_solved_problems (user_id, problem_id, solved_at)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, problem_id) DO NOTHING`,
			userID, problemID, at,
		)
		if err != nil {
			return fmt.Errorf("insert solved problem: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert solved problem rows: %w", err)
		}
		firstTime = n == 1

		if firstTime {
			res, err := tx.ExecContext(ctx,
				`UPDATE users SET points = points + $2, updated_at = NOW() WHERE id = $1`,
				userID, points,
			)
			if err != nil {
				return fmt.Errorf("increment points: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return common.ErrNotFound
			}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_checked_problems (user_id, problem_id, is_solved, submit_date)
			 VALUES ($1, $2, TRUE, $3)
			 ON CONFLICT (user_id, problem_id)
			 DO UPDATE SET is_solved = TRUE, submit_date = EXCLUDED.submit_date`,
			userID, problemID, at,
		)
		if err != nil {
			return fmt.Errorf("upsert checked problem: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("pgUserRepository.MarkProblemSolved: %w", err)
	}
	return firstTime, nil
}

func (r *pgUserRepository) RecordAttempt(ctx context.Context, userID, problemID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_checked_problems (user_id, problem_id, is_solved, submit_date)
		 VALUES ($1, $2, FALSE, $3)
		 ON CONFLICT (user_id, problem_id) DO NOTHING`,
		userID, problemID, at,
	)
	if err != nil {
		return fmt.Errorf("pgUserRepository.RecordAttempt: %w", err)
	}
	return nil
}

func (r *pgUserRepository) UpdateStreak(ctx context.Context, userID string, mutate func(*model.Streak) bool) (model.Streak, error) {
	var streak model.Streak
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var last sql.NullTime
		err := tx.QueryRowContext(ctx,
			`SELECT streak_current, streak_longest, streak_last_updated FROM users WHERE id = $1 FOR UPDATE`,
			userID,
		).Scan(&streak.Current, &streak.Longest, &last)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrNotFound
			}
			return err
		}
		if last.Valid {
			streak.LastUpdated = &last.Time
		}

		if !mutate(&streak) {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET streak_current = $2, streak_longest = $3, streak_last_updated = $4, updated_at = NOW()
			 WHERE id = $1`,
			userID, streak.Current, streak.Longest, streak.LastUpdated,
		)
		return err
	})
	if err != nil {
		return model.Streak{}, fmt.Errorf("pgUserRepository.UpdateStreak: %w", err)
	}
	return streak, nil
}
