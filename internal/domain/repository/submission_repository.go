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

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, sub *model.Submission) error
	// FinalizeSubmission moves a pending submission to its terminal status.
	// A submission that is no longer pending yields common.ErrConflict.
	FinalizeSubmission(ctx context.Context, id string, verdict model.Verdict) error
	GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error)
	ListSubmissionsForUserProblem(ctx context.Context, userID, problemID string, limit, offset int) ([]model.Submission, int, error)
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]string, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

const submissionColumns = `id, user_id, problem_id, code, language, language_id, status,
	test_cases_total, test_cases_passed, runtime, memory, error_message, created_at, updated_at`

func scanSubmission(row interface{ Scan(...any) error }, s *model.Submission) error {
	var errMsg sql.NullString
	if err := row.Scan(
		&s.ID, &s.UserID, &s.ProblemID, &s.Code, &s.Language, &s.LanguageID, &s.Status,
		&s.TestCasesTotal, &s.TestCasesPassed, &s.Runtime, &s.Memory, &errMsg, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return err
	}
	if errMsg.Valid {
		s.ErrorMessage = &errMsg.String
	}
	return nil
}

func (r *pgSubmissionRepository) CreateSubmission(ctx context.Context, s *model.Submission) error {
	query := `INSERT INTO submissions (id, user_id, problem_id, code, language, language_id, status, test_cases_total)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		s.ID, s.UserID, s.ProblemID, s.Code, s.Language, s.LanguageID, s.Status, s.TestCasesTotal,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateSubmission: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) FinalizeSubmission(ctx context.Context, id string, v model.Verdict) error {
	if !v.Status.IsTerminal() {
		return fmt.Errorf("finalize with status %q: %w", v.Status, common.ErrValidation)
	}
	// GREATEST/LEAST keep test_cases_passed inside [0, test_cases_total].
	query := `UPDATE submissions
	          SET status = $2,
	              test_cases_passed = LEAST(GREATEST($3, 0), test_cases_total),
	              runtime = $4, memory = $5, error_message = $6, updated_at = NOW()
	          WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, v.Status, v.Passed, v.Runtime, v.Memory, v.ErrorMessage)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.FinalizeSubmission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.FinalizeSubmission rows: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM submissions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("pgSubmissionRepository.FinalizeSubmission exists: %w", err)
	}
	if !exists {
		return common.ErrNotFound
	}
	return fmt.Errorf("submission %s already finalized: %w", id, common.ErrConflict)
}

func (r *pgSubmissionRepository) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	s := &model.Submission{}
	if err := scanSubmission(r.db.QueryRowContext(ctx, query, id), s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) ListSubmissionsForUserProblem(ctx context.Context, userID, problemID string, limit, offset int) ([]model.Submission, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM submissions WHERE user_id = $1 AND problem_id = $2`,
		userID, problemID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("pgSubmissionRepository.ListSubmissionsForUserProblem count: %w", err)
	}

	query := `SELECT ` + submissionColumns + ` FROM submissions
	          WHERE user_id = $1 AND problem_id = $2
	          ORDER BY created_at DESC
	          LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, query, userID, problemID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgSubmissionRepository.ListSubmissionsForUserProblem: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		if err := scanSubmission(rows, &s); err != nil {
			return nil, 0, fmt.Errorf("pgSubmissionRepository.ListSubmissionsForUserProblem scan: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgSubmissionRepository.ListSubmissionsForUserProblem rows: %w", err)
	}
	return subs, total, nil
}

func (r *pgSubmissionRepository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	query := `SELECT id FROM submissions
	          WHERE status = 'pending' AND created_at < $1
	          ORDER BY created_at ASC
	          LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListStalePending: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListStalePending scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
