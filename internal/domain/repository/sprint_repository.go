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

// SprintProgressMutation edits a locked progress row. It reports whether the
// row changed and, when the sprint was just completed, the reward to grant.
type SprintProgressMutation func(p *model.SprintProgress) (changed bool, reward *model.SprintReward)

type SprintRepository interface {
	ListActiveSprintsContaining(ctx context.Context, problemID string, now time.Time) ([]model.Sprint, error)
	// UpdateProgress locks the user's progress row for sprint, applies mutate and
	// persists the result together with any reward in one transaction.
	// A missing progress row yields common.ErrNotFound.
	UpdateProgress(ctx context.Context, userID string, sprint model.Sprint, mutate SprintProgressMutation) (*model.SprintProgress, error)
}

type pgSprintRepository struct {
	db *sql.DB
}

func NewPgSprintRepository(db *sql.DB) SprintRepository {
	return &pgSprintRepository{db: db}
}

func (r *pgSprintRepository) ListActiveSprintsContaining(ctx context.Context, problemID string, now time.Time) ([]model.Sprint, error) {
	query := `SELECT s.id, s.title, s.is_active, s.start_date, s.end_date,
	                 s.reward_type, s.reward_points, COALESCE(s.reward_badge, '')
	          FROM sprints s
	          WHERE s.is_active = TRUE AND s.start_date <= $2 AND s.end_date >= $2
	            AND EXISTS (SELECT 1 FROM sprint_problems sp WHERE sp.sprint_id = s.id AND sp.problem_id = $1)
	          ORDER BY s.start_date ASC`
	rows, err := r.db.QueryContext(ctx, query, problemID, now)
	if err != nil {
		return nil, fmt.Errorf("pgSprintRepository.ListActiveSprintsContaining: %w", err)
	}
	defer rows.Close()

	var sprints []model.Sprint
	for rows.Next() {
		var s model.Sprint
		if err := rows.Scan(&s.ID, &s.Title, &s.IsActive, &s.StartDate, &s.EndDate,
			&s.Reward.Type, &s.Reward.Points, &s.Reward.Badge); err != nil {
			return nil, fmt.Errorf("pgSprintRepository.ListActiveSprintsContaining scan: %w", err)
		}
		sprints = append(sprints, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSprintRepository.ListActiveSprintsContaining rows: %w", err)
	}

	for i := range sprints {
		ids, err := r.problemIDs(ctx, sprints[i].ID)
		if err != nil {
			return nil, err
		}
		sprints[i].ProblemIDs = ids
	}
	return sprints, nil
}

func (r *pgSprintRepository) problemIDs(ctx context.Context, sprintID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT problem_id FROM sprint_problems WHERE sprint_id = $1 ORDER BY position ASC`, sprintID)
	if err != nil {
		return nil, fmt.Errorf("pgSprintRepository.problemIDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pgSprintRepository.problemIDs scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *pgSprintRepository) UpdateProgress(ctx context.Context, userID string, sprint model.Sprint, mutate SprintProgressMutation) (*model.SprintProgress, error) {
	var progress *model.SprintProgress
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		p, err := loadProgressForUpdate(ctx, tx, userID, sprint.ID)
		if err != nil {
			return err
		}
		before := len(p.Solved)

		changed, reward := mutate(p)
		progress = p
		if !changed {
			return nil
		}

		for _, s := range p.Solved[before:] {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sprint_progress_solved (user_id, sprint_id, problem_id, solved_at)
				 VALUES ($1, $2, $3, $4) ON CONFLICT (user_id, sprint_id, problem_id) DO NOTHING`,
				userID, sprint.ID, s.ProblemID, s.SolvedAt,
			); err != nil {
				return fmt.Errorf("insert solved entry: %w", err)
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE sprint_progress
			 SET status = $3, progress_percentage = $4, current_streak = $5, longest_streak = $6,
			     last_solved_at = $7, completed_at = $8, updated_at = NOW()
			 WHERE user_id = $1 AND sprint_id = $2`,
			userID, sprint.ID, p.Status, p.ProgressPercentage,
			p.Streak.Current, p.Streak.Longest, p.Streak.LastUpdated, p.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("update progress: %w", err)
		}

		if reward != nil {
			return applyReward(ctx, tx, userID, sprint.ID, *reward)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgSprintRepository.UpdateProgress: %w", err)
	}
	return progress, nil
}

func loadProgressForUpdate(ctx context.Context, tx *sql.Tx, userID, sprintID string) (*model.SprintProgress, error) {
	p := &model.SprintProgress{UserID: userID, SprintID: sprintID}
	var last, completed sql.NullTime
	err := tx.QueryRowContext(ctx,
		`SELECT status, progress_percentage, current_streak, longest_streak, last_solved_at, completed_at
		 FROM sprint_progress WHERE user_id = $1 AND sprint_id = $2 FOR UPDATE`,
		userID, sprintID,
	).Scan(&p.Status, &p.ProgressPercentage, &p.Streak.Current, &p.Streak.Longest, &last, &completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if last.Valid {
		p.Streak.LastUpdated = &last.Time
	}
	if completed.Valid {
		p.CompletedAt = &completed.Time
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT problem_id, solved_at FROM sprint_progress_solved
		 WHERE user_id = $1 AND sprint_id = $2 ORDER BY solved_at ASC`,
		userID, sprintID,
	)
	if err != nil {
		return nil, fmt.Errorf("load solved entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s model.SolvedSprintProblem
		if err := rows.Scan(&s.ProblemID, &s.SolvedAt); err != nil {
			return nil, fmt.Errorf("scan solved entry: %w", err)
		}
		p.Solved = append(p.Solved, s)
	}
	return p, rows.Err()
}

func applyReward(ctx context.Context, tx *sql.Tx, userID, sprintID string, reward model.SprintReward) error {
	switch reward.Type {
	case model.RewardPoints:
		if reward.Points <= 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET points = points + $2, updated_at = NOW() WHERE id = $1`,
			userID, reward.Points,
		); err != nil {
			return fmt.Errorf("grant reward points: %w", err)
		}
	case model.RewardBadge:
		if reward.Badge == "" {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_badges (user_id, badge, sprint_id, awarded_at)
			 VALUES ($1, $2, $3, NOW()) ON CONFLICT (user_id, badge) DO NOTHING`,
			userID, reward.Badge, sprintID,
		); err != nil {
			return fmt.Errorf("grant reward badge: %w", err)
		}
	default:
		return fmt.Errorf("unknown reward type %q: %w", reward.Type, common.ErrValidation)
	}
	return nil
}
