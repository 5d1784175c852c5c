package model

import "time"

type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusAccepted SubmissionStatus = "accepted"
	StatusWrong    SubmissionStatus = "wrong"
	StatusError    SubmissionStatus = "error"
)

func (s SubmissionStatus) IsTerminal() bool {
	return s == StatusAccepted || s == StatusWrong || s == StatusError
}

// Submission is one judged attempt. Code, language and TestCasesTotal are fixed at creation;
// the verdict fields are written once when judging completes.
type Submission struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	ProblemID       string           `json:"problem_id"`
	Code            string           `json:"code"`
	Language        string           `json:"language"`
	LanguageID      int              `json:"language_id"`
	Status          SubmissionStatus `json:"status"`
	TestCasesTotal  int              `json:"test_cases_total"`
	TestCasesPassed int              `json:"test_cases_passed"`
	Runtime         float64          `json:"runtime"` // seconds, sum over accepted cases
	Memory          int              `json:"memory"`  // KB, max over accepted cases
	ErrorMessage    *string          `json:"error_message,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Verdict is the aggregated outcome written onto a pending Submission.
type Verdict struct {
	Status       SubmissionStatus `json:"status"`
	Passed       int              `json:"passed"`
	Runtime      float64          `json:"runtime"`
	Memory       int              `json:"memory"`
	ErrorMessage *string          `json:"error_message,omitempty"`
}

// ApplyTo copies the verdict onto s, clamping Passed into [0, TestCasesTotal].
func (v Verdict) ApplyTo(s *Submission) {
	passed := v.Passed
	if passed < 0 {
		passed = 0
	}
	if passed > s.TestCasesTotal {
		passed = s.TestCasesTotal
	}
	s.Status = v.Status
	s.TestCasesPassed = passed
	s.Runtime = v.Runtime
	s.Memory = v.Memory
	s.ErrorMessage = v.ErrorMessage
}
