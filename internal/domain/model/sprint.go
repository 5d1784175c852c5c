package model

import (
	"math"
	"time"
)

type SprintRewardType string

const (
	RewardPoints SprintRewardType = "points"
	RewardBadge  SprintRewardType = "badge"
)

type SprintProgressStatus string

const (
	SprintNotStarted SprintProgressStatus = "not_started"
	SprintInProgress SprintProgressStatus = "in_progress"
	SprintCompleted  SprintProgressStatus = "completed"
)

type SprintReward struct {
	Type   SprintRewardType `json:"type"`
	Points int              `json:"points,omitempty"`
	Badge  string           `json:"badge,omitempty"`
}

type Sprint struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	IsActive   bool         `json:"is_active"`
	StartDate  time.Time    `json:"start_date"`
	EndDate    time.Time    `json:"end_date"`
	ProblemIDs []string     `json:"problem_ids"`
	Reward     SprintReward `json:"reward"`
}

// Contains reports whether problemID is one of the sprint's problems.
func (s *Sprint) Contains(problemID string) bool {
	for _, id := range s.ProblemIDs {
		if id == problemID {
			return true
		}
	}
	return false
}

// CountSolved counts the entries of solved that are still part of the sprint.
// Problems removed from the sprint after being solved do not count.
func (s *Sprint) CountSolved(solved []SolvedSprintProblem) int {
	n := 0
	for _, sp := range solved {
		if s.Contains(sp.ProblemID) {
			n++
		}
	}
	return n
}

// Running is true for an active sprint whose window includes now.
func (s *Sprint) Running(now time.Time) bool {
	return s.IsActive && !now.Before(s.StartDate) && !now.After(s.EndDate)
}

type SolvedSprintProblem struct {
	ProblemID string    `json:"problem_id"`
	SolvedAt  time.Time `json:"solved_at"`
}

type SprintProgress struct {
	UserID             string                `json:"user_id"`
	SprintID           string                `json:"sprint_id"`
	Status             SprintProgressStatus  `json:"status"`
	Solved             []SolvedSprintProblem `json:"solved"`
	ProgressPercentage int                   `json:"progress_percentage"`
	Streak             Streak                `json:"streak"`
	CompletedAt        *time.Time            `json:"completed_at,omitempty"`
}

func (p *SprintProgress) HasSolved(problemID string) bool {
	for _, s := range p.Solved {
		if s.ProblemID == problemID {
			return true
		}
	}
	return false
}

// Percentage rounds solved/total to the nearest whole percent. total <= 0 yields 0.
func Percentage(solved, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(solved) / float64(total) * 100))
}
