package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"algoarena/internal/app/judge"
	"algoarena/internal/common"
	"algoarena/internal/domain/model"
	"algoarena/internal/domain/repository"
	"algoarena/internal/platform/logger"
	"algoarena/internal/platform/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultHistoryPageSize = 20
	maxHistoryPageSize     = 100
)

// JudgeClient is the remote execution service.
type JudgeClient interface {
	SubmitBatch(ctx context.Context, subs []judge.Submission) ([]string, error)
	PollUntilReady(ctx context.Context, tokens []string) ([]judge.Result, error)
}

// UserLocker serializes solve-state updates of one user.
type UserLocker interface {
	LockUser(ctx context.Context, userID string) (func(context.Context) error, error)
}

// OrphanSink receives ids of submissions left pending by a judge failure.
type OrphanSink interface {
	Push(ctx context.Context, submissionID string) error
}

type SubmissionServiceConfig struct {
	Problems    repository.ProblemRepository
	Submissions repository.SubmissionRepository
	Users       repository.UserRepository
	Judge       JudgeClient
	Streaks     *StreakCoordinator
	Sprints     *SprintCoordinator

	// Optional. Without a locker solve-state updates rely on SQL atomicity alone.
	Locker  UserLocker
	Orphans OrphanSink
	Now     func() time.Time
}

type SubmissionService struct {
	problems    repository.ProblemRepository
	submissions repository.SubmissionRepository
	users       repository.UserRepository
	judge       JudgeClient
	streaks     *StreakCoordinator
	sprints     *SprintCoordinator
	locker      UserLocker
	orphans     OrphanSink
	now         func() time.Time
}

func NewSubmissionService(cfg SubmissionServiceConfig) (*SubmissionService, error) {
	if cfg.Problems == nil {
		return nil, fmt.Errorf("problem repository is required")
	}
	if cfg.Submissions == nil {
		return nil, fmt.Errorf("submission repository is required")
	}
	if cfg.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if cfg.Judge == nil {
		return nil, fmt.Errorf("judge client is required")
	}
	if cfg.Streaks == nil {
		return nil, fmt.Errorf("streak coordinator is required")
	}
	if cfg.Sprints == nil {
		return nil, fmt.Errorf("sprint coordinator is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &SubmissionService{
		problems:    cfg.Problems,
		submissions: cfg.Submissions,
		users:       cfg.Users,
		judge:       cfg.Judge,
		streaks:     cfg.Streaks,
		sprints:     cfg.Sprints,
		locker:      cfg.Locker,
		orphans:     cfg.Orphans,
		now:         cfg.Now,
	}, nil
}

type SubmitCodeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type SubmitCodeResponse struct {
	SubmissionID    string  `json:"submissionId"`
	Accepted        bool    `json:"accepted"`
	TotalTestCases  int     `json:"totalTestCases"`
	PassedTestCases int     `json:"passedTestCases"`
	Runtime         float64 `json:"runtime"`
	Memory          int     `json:"memory"`
}

// RunCaseResult is the outcome of one visible test case.
type RunCaseResult struct {
	Input    string  `json:"input"`
	Expected string  `json:"expected"`
	Output   string  `json:"output"`
	Passed   bool    `json:"passed"`
	Error    string  `json:"error"`
	Time     float64 `json:"time"`
	Memory   int     `json:"memory"`
}

func validateRequest(userID, problemID string, req SubmitCodeRequest) (judge.Language, error) {
	switch {
	case strings.TrimSpace(userID) == "":
		return judge.Language{}, fmt.Errorf("user id is required: %w", common.ErrValidation)
	case strings.TrimSpace(problemID) == "":
		return judge.Language{}, fmt.Errorf("problem id is required: %w", common.ErrValidation)
	case strings.TrimSpace(req.Code) == "":
		return judge.Language{}, fmt.Errorf("code is required: %w", common.ErrValidation)
	case strings.TrimSpace(req.Language) == "":
		return judge.Language{}, fmt.Errorf("language is required: %w", common.ErrValidation)
	}
	return judge.ResolveLanguage(req.Language)
}

func buildBatch(code string, lang judge.Language, cases []model.TestCase) []judge.Submission {
	batch := make([]judge.Submission, len(cases))
	for i, tc := range cases {
		batch[i] = judge.Submission{
			SourceCode:     code,
			LanguageID:     lang.ID,
			Stdin:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		}
	}
	return batch
}

// SubmitCode judges code against the problem's hidden test cases, stores the
// verdict and applies first-acceptance rewards.
func (s *SubmissionService) SubmitCode(ctx context.Context, userID, problemID string, req SubmitCodeRequest) (*SubmitCodeResponse, error) {
	lang, err := validateRequest(userID, problemID, req)
	if err != nil {
		return nil, err
	}

	// tokens may outlive the account they were issued for
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, common.Errorf("load user %s: %w", userID, err)
	}
	problem, err := s.problems.FindProblemByID(ctx, problemID)
	if err != nil {
		return nil, common.Errorf("load problem %s: %w", problemID, err)
	}
	hidden, err := s.problems.GetTestCasesByProblemID(ctx, problem.ID, true)
	if err != nil {
		return nil, common.Errorf("load hidden test cases: %w", err)
	}
	if len(hidden) == 0 {
		return nil, fmt.Errorf("problem has no hidden test cases: %w", common.ErrValidation)
	}

	sub := &model.Submission{
		ID:             uuid.NewString(),
		UserID:         userID,
		ProblemID:      problem.ID,
		Code:           req.Code,
		Language:       req.Language,
		LanguageID:     lang.ID,
		Status:         model.StatusPending,
		TestCasesTotal: len(hidden),
	}
	if err := s.submissions.CreateSubmission(ctx, sub); err != nil {
		return nil, common.Errorf("create submission: %w", err)
	}

	started := time.Now()
	results, err := s.runBatch(ctx, buildBatch(req.Code, lang, hidden))
	if err != nil {
		s.orphan(ctx, sub.ID, err)
		return nil, err
	}
	metrics.JudgeLatency.WithLabelValues("submit").Observe(time.Since(started).Seconds())

	verdict := judge.Aggregate(results)
	if err := s.submissions.FinalizeSubmission(ctx, sub.ID, verdict); err != nil {
		return nil, common.Errorf("finalize submission %s: %w", sub.ID, err)
	}
	verdict.ApplyTo(sub)
	metrics.SubmissionVerdicts.WithLabelValues(string(sub.Status)).Inc()

	logger.Info(ctx, "submission judged",
		zap.String("submission_id", sub.ID),
		zap.String("problem_id", problem.ID),
		zap.String("status", string(sub.Status)),
		zap.Int("passed", sub.TestCasesPassed),
		zap.Int("total", sub.TestCasesTotal),
	)

	s.updateSolveState(ctx, sub, problem)

	return &SubmitCodeResponse{
		SubmissionID:    sub.ID,
		Accepted:        sub.Status == model.StatusAccepted,
		TotalTestCases:  sub.TestCasesTotal,
		PassedTestCases: sub.TestCasesPassed,
		Runtime:         sub.Runtime,
		Memory:          sub.Memory,
	}, nil
}

func (s *SubmissionService) runBatch(ctx context.Context, batch []judge.Submission) ([]judge.Result, error) {
	tokens, err := s.judge.SubmitBatch(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("submit batch: %w", err)
	}
	results, err := s.judge.PollUntilReady(ctx, tokens)
	if err != nil {
		return nil, fmt.Errorf("poll batch: %w", err)
	}
	if len(results) != len(batch) {
		return nil, fmt.Errorf("judge returned %d results for %d cases: %w", len(results), len(batch), judge.ErrInfrastructure)
	}
	return results, nil
}

// orphan leaves the submission pending and hands it to the reconciler.
func (s *SubmissionService) orphan(ctx context.Context, submissionID string, cause error) {
	logger.Error(ctx, "judging failed, submission left pending",
		zap.String("submission_id", submissionID),
		zap.Error(cause),
	)
	if s.orphans == nil {
		return
	}
	// the request context may already be done
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.orphans.Push(pushCtx, submissionID); err != nil {
		logger.Warn(ctx, "could not queue orphaned submission",
			zap.String("submission_id", submissionID),
			zap.Error(err),
		)
	}
}

// updateSolveState applies the user-side effects of a judged submission. The
// verdict is already stored, so failures here are logged and swallowed.
func (s *SubmissionService) updateSolveState(ctx context.Context, sub *model.Submission, problem *model.Problem) {
	if s.locker != nil {
		unlock, err := s.locker.LockUser(ctx, sub.UserID)
		if err != nil {
			logger.Warn(ctx, "user lock unavailable, continuing without it", zap.Error(err))
		} else {
			defer func() {
				if err := unlock(context.WithoutCancel(ctx)); err != nil {
					logger.Warn(ctx, "user lock release failed", zap.Error(err))
				}
			}()
		}
	}

	now := s.now()
	if sub.Status != model.StatusAccepted {
		if err := s.users.RecordAttempt(ctx, sub.UserID, sub.ProblemID, now); err != nil {
			logger.Error(ctx, "record attempt failed",
				zap.String("submission_id", sub.ID),
				zap.Error(err),
			)
		}
		return
	}

	points := model.CalculatePoints(problem.Difficulty)
	firstTime, err := s.users.MarkProblemSolved(ctx, sub.UserID, sub.ProblemID, points, now)
	if err != nil {
		logger.Error(ctx, "mark problem solved failed",
			zap.String("submission_id", sub.ID),
			zap.Error(err),
		)
		return
	}
	if !firstTime {
		return
	}
	logger.Info(ctx, "problem solved for the first time",
		zap.String("problem_id", sub.ProblemID),
		zap.Int("points", points),
	)

	if _, err := s.streaks.RecordSolve(ctx, sub.UserID, now); err != nil {
		metrics.SideEffectErrors.WithLabelValues("streak").Inc()
		logger.Error(ctx, "streak update failed", zap.Error(err))
	}
	s.sprints.RecordSolve(ctx, sub.UserID, sub.ProblemID, now)
}

// RunCode executes code against the visible test cases. Nothing is stored.
func (s *SubmissionService) RunCode(ctx context.Context, userID, problemID string, req SubmitCodeRequest) ([]RunCaseResult, error) {
	lang, err := validateRequest(userID, problemID, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.problems.FindProblemByID(ctx, problemID); err != nil {
		return nil, common.Errorf("load problem %s: %w", problemID, err)
	}
	visible, err := s.problems.GetTestCasesByProblemID(ctx, problemID, false)
	if err != nil {
		return nil, common.Errorf("load visible test cases: %w", err)
	}
	if len(visible) == 0 {
		return []RunCaseResult{}, nil
	}

	started := time.Now()
	results, err := s.runBatch(ctx, buildBatch(req.Code, lang, visible))
	if err != nil {
		logger.Warn(ctx, "run failed", zap.String("problem_id", problemID), zap.Error(err))
		return nil, err
	}
	metrics.JudgeLatency.WithLabelValues("run").Observe(time.Since(started).Seconds())

	out := make([]RunCaseResult, len(results))
	for i, r := range results {
		passed := r.Code().Category() == judge.CategoryPass
		res := RunCaseResult{
			Input:    visible[i].Input,
			Expected: visible[i].ExpectedOutput,
			Output:   r.Stdout,
			Passed:   passed,
			Time:     float64(r.Time),
			Memory:   r.Memory,
		}
		if !passed {
			res.Error = firstNonEmpty(r.Stderr, r.CompileOutput, r.Message, r.Status.Description)
		}
		out[i] = res
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// GetSubmission returns a submission owned by userID. Other users' submissions are reported as not found.
func (s *SubmissionService) GetSubmission(ctx context.Context, userID, submissionID string) (*model.Submission, error) {
	sub, err := s.submissions.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, common.ErrNotFound
	}
	return sub, nil
}

type SubmissionHistory struct {
	Submissions []model.Submission `json:"submissions"`
	Total       int                `json:"total"`
	Page        int                `json:"page"`
	PageSize    int                `json:"pageSize"`
}

// ListHistory pages through the caller's submissions for a problem, newest first.
func (s *SubmissionService) ListHistory(ctx context.Context, userID, problemID string, page, pageSize int) (*SubmissionHistory, error) {
	if strings.TrimSpace(problemID) == "" {
		return nil, fmt.Errorf("problem id is required: %w", common.ErrValidation)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultHistoryPageSize
	}
	if pageSize > maxHistoryPageSize {
		pageSize = maxHistoryPageSize
	}

	subs, total, err := s.submissions.ListSubmissionsForUserProblem(ctx, userID, problemID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, common.Errorf("list submissions: %w", err)
	}
	return &SubmissionHistory{Submissions: subs, Total: total, Page: page, PageSize: pageSize}, nil
}

// IsJudgeFailure reports whether err came from the judge rather than from the request.
func IsJudgeFailure(err error) bool {
	return errors.Is(err, judge.ErrInfrastructure) || errors.Is(err, judge.ErrTimeout)
}
