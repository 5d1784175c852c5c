package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"algoarena/internal/common"
	"algoarena/internal/domain/model"
)

// ProblemRepository is read-only here; problem authoring lives elsewhere.
type ProblemRepository interface {
	FindProblemByID(ctx context.Context, id string) (*model.Problem, error)
	// GetTestCasesByProblemID returns hidden (judging) or visible (run) cases ordered by sort_order.
	GetTestCasesByProblemID(ctx context.Context, problemID string, hidden bool) ([]model.TestCase, error)
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	query := `SELECT id, title, slug, difficulty, created_at, updated_at
	          FROM problems WHERE id = $1`
	p := &model.Problem{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.Slug, &p.Difficulty, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindProblemByID: %w", err)
	}
	return p, nil
}

func (r *pgProblemRepository) GetTestCasesByProblemID(ctx context.Context, problemID string, hidden bool) ([]model.TestCase, error) {
	query := `SELECT id, problem_id, input, expected_output, is_hidden, sort_order
	          FROM test_cases WHERE problem_id = $1 AND is_hidden = $2
	          ORDER BY sort_order ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, problemID, hidden)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetTestCasesByProblemID: %w", err)
	}
	defer rows.Close()

	var cases []model.TestCase
	for rows.Next() {
		var tc model.TestCase
		if err := rows.Scan(&tc.ID, &tc.ProblemID, &tc.Input, &tc.ExpectedOutput, &tc.IsHidden, &tc.SortOrder); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.GetTestCasesByProblemID scan: %w", err)
		}
		cases = append(cases, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetTestCasesByProblemID rows: %w", err)
	}
	return cases, nil
}
