package service

import (
	"context"
	"testing"
	"time"

	"algoarena/internal/domain/model"
)

func TestStreakCoordinatorCountsDaysOnce(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	c := NewStreakCoordinator(users)
	ctx := context.Background()
	day := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	steps := []struct {
		at      time.Time
		current int
	}{
		{day, 1},
		{day.Add(3 * time.Hour), 1},
		{day.Add(24 * time.Hour), 2},
		{day.Add(5 * 24 * time.Hour), 3},
	}
	prevLongest := 0
	for i, s := range steps {
		got, err := c.RecordSolve(ctx, "u1", s.at)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got.Current != s.current {
			t.Fatalf("step %d: current %d, want %d", i, got.Current, s.current)
		}
		if got.Longest < got.Current || got.Longest < prevLongest {
			t.Fatalf("step %d: longest invariant broken: %+v", i, got)
		}
		prevLongest = got.Longest
	}
}

func TestSprintMutationSkipsIneligibleProgress(t *testing.T) {
	t.Parallel()

	sprint := model.Sprint{ID: "s1", ProblemIDs: []string{"p1", "p2"}}
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mutate := sprintSolveMutation(sprint, "p1", now)

	notStarted := &model.SprintProgress{Status: model.SprintNotStarted}
	if changed, _ := mutate(notStarted); changed {
		t.Fatalf("not started progress must be skipped")
	}

	already := &model.SprintProgress{
		Status: model.SprintInProgress,
		Solved: []model.SolvedSprintProblem{{ProblemID: "p1"}},
	}
	if changed, _ := mutate(already); changed {
		t.Fatalf("already logged problem must be skipped")
	}
}

func TestSprintMutationProgressAndReward(t *testing.T) {
	t.Parallel()

	sprint := model.Sprint{
		ID:         "s1",
		ProblemIDs: []string{"p1", "p2", "p3"},
		Reward:     model.SprintReward{Type: model.RewardBadge, Badge: "sprinter"},
	}
	day := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	p := &model.SprintProgress{Status: model.SprintInProgress}

	changed, reward := sprintSolveMutation(sprint, "p1", day)(p)
	if !changed || reward != nil || p.ProgressPercentage != 33 || p.Streak.Current != 1 {
		t.Fatalf("unexpected progress after first solve: %+v", p)
	}
	_, _ = sprintSolveMutation(sprint, "p2", day.Add(time.Hour))(p)
	if p.ProgressPercentage != 67 || p.Streak.Current != 1 {
		t.Fatalf("unexpected progress after second solve: %+v", p)
	}

	last := day.Add(24 * time.Hour)
	changed, reward = sprintSolveMutation(sprint, "p3", last)(p)
	if !changed || reward == nil || reward.Badge != "sprinter" {
		t.Fatalf("expected badge reward on completion, got %+v", reward)
	}
	if p.Status != model.SprintCompleted || p.ProgressPercentage != 100 || !p.CompletedAt.Equal(last) {
		t.Fatalf("unexpected completed progress: %+v", p)
	}
	if p.Streak.Current != 2 || p.Streak.Longest != 2 {
		t.Fatalf("unexpected sprint streak: %+v", p.Streak)
	}

	// completed progress never yields a second reward
	if changed, reward := sprintSolveMutation(sprint, "p4", last)(p); changed || reward != nil {
		t.Fatalf("completed sprint must not change again")
	}
}

func TestSprintMutationIgnoresProblemsRemovedFromSprint(t *testing.T) {
	t.Parallel()

	sprint := model.Sprint{
		ID:         "s1",
		ProblemIDs: []string{"p1", "p2"},
		Reward:     model.SprintReward{Type: model.RewardPoints, Points: 40},
	}
	now := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	p := &model.SprintProgress{
		Status: model.SprintInProgress,
		Solved: []model.SolvedSprintProblem{{ProblemID: "old", SolvedAt: now.Add(-48 * time.Hour)}},
	}

	changed, reward := sprintSolveMutation(sprint, "p1", now)(p)
	if !changed || reward != nil {
		t.Fatalf("expected progress without reward, got changed=%v reward=%+v", changed, reward)
	}
	if p.Status != model.SprintInProgress || p.ProgressPercentage != 50 || p.CompletedAt != nil {
		t.Fatalf("stale solved entry must not count toward completion: %+v", p)
	}

	changed, reward = sprintSolveMutation(sprint, "p2", now.Add(time.Hour))(p)
	if !changed || reward == nil || reward.Points != 40 {
		t.Fatalf("expected points reward once both current problems are solved, got %+v", reward)
	}
	if p.Status != model.SprintCompleted || p.ProgressPercentage != 100 {
		t.Fatalf("unexpected completed progress: %+v", p)
	}
}

func TestSprintCoordinatorSkipsMissingProgress(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeSprintRepo{
		sprints: []model.Sprint{
			{ID: "joined", IsActive: true, StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), ProblemIDs: []string{"p1", "p2"}},
			{ID: "not-joined", IsActive: true, StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), ProblemIDs: []string{"p1"}},
			{ID: "inactive", IsActive: false, StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), ProblemIDs: []string{"p1"}},
		},
		progress: map[string]*model.SprintProgress{
			"joined":   {Status: model.SprintInProgress},
			"inactive": {Status: model.SprintInProgress},
		},
	}

	NewSprintCoordinator(repo).RecordSolve(context.Background(), "u1", "p1", now)

	if got := repo.progress["joined"].ProgressPercentage; got != 50 {
		t.Fatalf("expected 50%% on joined sprint, got %d", got)
	}
	if len(repo.progress["inactive"].Solved) != 0 {
		t.Fatalf("inactive sprint must not be updated")
	}
}
