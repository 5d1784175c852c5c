package model

import (
	"testing"
	"time"
)

func TestCalculatePoints(t *testing.T) {
	t.Parallel()

	cases := []struct {
		difficulty ProblemDifficulty
		want       int
	}{
		{DifficultyEasy, 10},
		{DifficultyMedium, 25},
		{DifficultyHard, 50},
		{"hard", 50},
		{" MEDIUM ", 25},
		{"legendary", 10},
		{"", 10},
	}
	for _, tc := range cases {
		if got := CalculatePoints(tc.difficulty); got != tc.want {
			t.Fatalf("CalculatePoints(%q) = %d, want %d", tc.difficulty, got, tc.want)
		}
	}
}

func TestStreakAdvanceOncePerDay(t *testing.T) {
	t.Parallel()

	var s Streak
	day1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if !s.Advance(day1) {
		t.Fatalf("first advance should change the streak")
	}
	if s.Advance(day1.Add(10 * time.Hour)) {
		t.Fatalf("second advance on the same day should be a no-op")
	}
	if s.Current != 1 || s.Longest != 1 {
		t.Fatalf("unexpected streak after day 1: %+v", s)
	}

	s.Advance(day1.Add(24 * time.Hour))
	if s.Current != 2 || s.Longest != 2 {
		t.Fatalf("unexpected streak after day 2: %+v", s)
	}
}

func TestStreakDoesNotDecayAcrossGaps(t *testing.T) {
	t.Parallel()

	last := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := Streak{Current: 4, Longest: 7, LastUpdated: &last}

	s.Advance(last.Add(5 * 24 * time.Hour))
	if s.Current != 5 {
		t.Fatalf("expected current 5, got %d", s.Current)
	}
	if s.Longest != 7 {
		t.Fatalf("longest should stay 7, got %d", s.Longest)
	}
}

func TestStreakComparesUTCCalendarDays(t *testing.T) {
	t.Parallel()

	tz := time.FixedZone("UTC+9", 9*3600)
	last := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	s := Streak{Current: 1, Longest: 1, LastUpdated: &last}

	// 08:45 on Mar 2 in UTC+9 is still Mar 1 in UTC.
	if s.Advance(time.Date(2026, 3, 2, 8, 45, 0, 0, tz)) {
		t.Fatalf("expected same UTC day to be a no-op")
	}
}

func TestVerdictApplyToClampsPassed(t *testing.T) {
	t.Parallel()

	sub := &Submission{Status: StatusPending, TestCasesTotal: 3}
	Verdict{Status: StatusWrong, Passed: 9}.ApplyTo(sub)
	if sub.TestCasesPassed != 3 {
		t.Fatalf("expected passed clamped to 3, got %d", sub.TestCasesPassed)
	}
	Verdict{Status: StatusError, Passed: -1}.ApplyTo(sub)
	if sub.TestCasesPassed != 0 {
		t.Fatalf("expected passed clamped to 0, got %d", sub.TestCasesPassed)
	}
	if !sub.Status.IsTerminal() {
		t.Fatalf("expected terminal status")
	}
}

func TestSprintHelpers(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	sp := Sprint{
		IsActive:   true,
		StartDate:  now.Add(-24 * time.Hour),
		EndDate:    now.Add(24 * time.Hour),
		ProblemIDs: []string{"p1", "p2", "p3"},
	}
	if !sp.Running(now) || !sp.Contains("p2") || sp.Contains("p9") {
		t.Fatalf("unexpected sprint helpers result")
	}
	if sp.Running(now.Add(48 * time.Hour)) {
		t.Fatalf("sprint should not run after its end date")
	}

	solved := []SolvedSprintProblem{{ProblemID: "p1"}, {ProblemID: "gone"}, {ProblemID: "p2"}}
	if got := sp.CountSolved(solved); got != 2 {
		t.Fatalf("CountSolved = %d, want 2", got)
	}
	if got := Percentage(1, 3); got != 33 {
		t.Fatalf("Percentage(1,3) = %d", got)
	}
	if got := Percentage(2, 3); got != 67 {
		t.Fatalf("Percentage(2,3) = %d", got)
	}
	if got := Percentage(1, 0); got != 0 {
		t.Fatalf("Percentage(1,0) = %d", got)
	}

	p := SprintProgress{Solved: []SolvedSprintProblem{{ProblemID: "p1"}}}
	if !p.HasSolved("p1") || p.HasSolved("p2") {
		t.Fatalf("unexpected HasSolved result")
	}
}
