package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"algoarena/internal/app/judge"
	"algoarena/internal/common"
	"algoarena/internal/domain/model"
	"algoarena/internal/domain/repository"
)

type fakeProblemRepo struct {
	problems map[string]*model.Problem
	cases    map[string][]model.TestCase
}

func (f *fakeProblemRepo) FindProblemByID(_ context.Context, id string) (*model.Problem, error) {
	p, ok := f.problems[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return p, nil
}

func (f *fakeProblemRepo) GetTestCasesByProblemID(_ context.Context, problemID string, hidden bool) ([]model.TestCase, error) {
	var out []model.TestCase
	for _, tc := range f.cases[problemID] {
		if tc.IsHidden == hidden {
			out = append(out, tc)
		}
	}
	return out, nil
}

type fakeSubmissionRepo struct {
	mu          sync.Mutex
	subs        map[string]*model.Submission
	finalizeErr error
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{subs: map[string]*model.Submission{}}
}

func (f *fakeSubmissionRepo) CreateSubmission(_ context.Context, s *model.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.subs[s.ID] = &cp
	return nil
}

func (f *fakeSubmissionRepo) FinalizeSubmission(_ context.Context, id string, v model.Verdict) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finalizeErr != nil {
		return f.finalizeErr
	}
	s, ok := f.subs[id]
	if !ok {
		return common.ErrNotFound
	}
	if s.Status != model.StatusPending {
		return common.ErrConflict
	}
	v.ApplyTo(s)
	return nil
}

func (f *fakeSubmissionRepo) GetSubmissionByID(_ context.Context, id string) (*model.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSubmissionRepo) ListSubmissionsForUserProblem(_ context.Context, userID, problemID string, limit, offset int) ([]model.Submission, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.Submission
	for _, s := range f.subs {
		if s.UserID == userID && s.ProblemID == problemID {
			all = append(all, *s)
		}
	}
	total := len(all)
	if offset >= total {
		return []model.Submission{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (f *fakeSubmissionRepo) ListStalePending(_ context.Context, olderThan time.Time, limit int) ([]string, error) {
	return nil, nil
}

func (f *fakeSubmissionRepo) only() *model.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		cp := *s
		return &cp
	}
	return nil
}

type checkedEntry struct {
	solved bool
	date   time.Time
}

// fakeUserRepo mirrors the SQL semantics of the Postgres repository.
type fakeUserRepo struct {
	mu        sync.Mutex
	points    map[string]int
	solved    map[string]map[string]bool
	checked   map[string]map[string]checkedEntry
	streaks   map[string]*model.Streak
	streakErr error
	markErr   error
	missing   map[string]bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		points:  map[string]int{},
		solved:  map[string]map[string]bool{},
		checked: map[string]map[string]checkedEntry{},
		streaks: map[string]*model.Streak{},
	}
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[id] {
		return nil, common.ErrNotFound
	}
	u := &model.User{ID: id, Points: f.points[id]}
	if s, ok := f.streaks[id]; ok {
		u.Streak = *s
	}
	return u, nil
}

func (f *fakeUserRepo) MarkProblemSolved(_ context.Context, userID, problemID string, points int, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return false, f.markErr
	}
	if f.solved[userID] == nil {
		f.solved[userID] = map[string]bool{}
	}
	firstTime := !f.solved[userID][problemID]
	if firstTime {
		f.solved[userID][problemID] = true
		f.points[userID] += points
	}
	if f.checked[userID] == nil {
		f.checked[userID] = map[string]checkedEntry{}
	}
	f.checked[userID][problemID] = checkedEntry{solved: true, date: at}
	return firstTime, nil
}

func (f *fakeUserRepo) RecordAttempt(_ context.Context, userID, problemID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checked[userID] == nil {
		f.checked[userID] = map[string]checkedEntry{}
	}
	if _, ok := f.checked[userID][problemID]; !ok {
		f.checked[userID][problemID] = checkedEntry{solved: false, date: at}
	}
	return nil
}

func (f *fakeUserRepo) UpdateStreak(_ context.Context, userID string, mutate func(*model.Streak) bool) (model.Streak, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.streakErr != nil {
		return model.Streak{}, f.streakErr
	}
	s, ok := f.streaks[userID]
	if !ok {
		s = &model.Streak{}
		f.streaks[userID] = s
	}
	mutate(s)
	return *s, nil
}

type fakeSprintRepo struct {
	mu       sync.Mutex
	sprints  []model.Sprint
	progress map[string]*model.SprintProgress // by sprint id
	rewards  []model.SprintReward
	listErr  error
}

// ListActiveSprintsContaining returns every configured sprint unfiltered so
// tests can check the coordinator's own eligibility guard.
func (f *fakeSprintRepo) ListActiveSprintsContaining(_ context.Context, _ string, _ time.Time) ([]model.Sprint, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Sprint(nil), f.sprints...), nil
}

func (f *fakeSprintRepo) UpdateProgress(_ context.Context, userID string, sprint model.Sprint, mutate repository.SprintProgressMutation) (*model.SprintProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.progress[sprint.ID]
	if !ok {
		return nil, common.ErrNotFound
	}
	changed, reward := mutate(p)
	if changed && reward != nil {
		f.rewards = append(f.rewards, *reward)
	}
	cp := *p
	return &cp, nil
}

type fakeJudge struct {
	mu        sync.Mutex
	submitErr error
	pollErr   error
	// results returned for each submitted batch, in order
	statuses []judge.StatusID
	times    []float64
	memories []int
	stderr   []string
	batches  [][]judge.Submission
}

func (f *fakeJudge) SubmitBatch(_ context.Context, subs []judge.Submission) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, subs)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	tokens := make([]string, len(subs))
	for i := range subs {
		tokens[i] = string(rune('a' + i))
	}
	return tokens, nil
}

func (f *fakeJudge) PollUntilReady(_ context.Context, tokens []string) ([]judge.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	out := make([]judge.Result, len(tokens))
	for i, tok := range tokens {
		r := judge.Result{Token: tok, StatusID: judge.StatusAccepted, Stdout: "ok"}
		if i < len(f.statuses) {
			r.StatusID = f.statuses[i]
		}
		if i < len(f.times) {
			r.Time = judge.Seconds(f.times[i])
		}
		if i < len(f.memories) {
			r.Memory = f.memories[i]
		}
		if i < len(f.stderr) {
			r.Stderr = f.stderr[i]
		}
		out[i] = r
	}
	return out, nil
}

type fakeLocker struct {
	mu       sync.Mutex
	err      error
	locks    int
	releases int
}

func (f *fakeLocker) LockUser(_ context.Context, userID string) (func(context.Context) error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.locks++
	return func(context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.releases++
		return nil
	}, nil
}

type fakeOrphans struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeOrphans) Push(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
	return nil
}

var errBoom = errors.New("boom")
