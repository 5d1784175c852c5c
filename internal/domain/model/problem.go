package model

import (
	"strings"
	"time"
)

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "Easy"
	DifficultyMedium ProblemDifficulty = "Medium"
	DifficultyHard   ProblemDifficulty = "Hard"
)

// Points awarded on the first accepted submission of a problem.
const (
	PointsEasy   = 10
	PointsMedium = 25
	PointsHard   = 50
)

type Problem struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Slug       string            `json:"slug"`
	Difficulty ProblemDifficulty `json:"difficulty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// TestCase is either hidden (scored submissions) or visible (the run flow).
type TestCase struct {
	ID             string `json:"id"`
	ProblemID      string `json:"problem_id"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	IsHidden       bool   `json:"is_hidden"`
	SortOrder      int    `json:"sort_order"`
}

// CalculatePoints matches difficulty case-insensitively; anything unrecognised is worth PointsEasy.
func CalculatePoints(difficulty ProblemDifficulty) int {
	d := strings.TrimSpace(string(difficulty))
	switch {
	case strings.EqualFold(d, string(DifficultyMedium)):
		return PointsMedium
	case strings.EqualFold(d, string(DifficultyHard)):
		return PointsHard
	default:
		return PointsEasy
	}
}
