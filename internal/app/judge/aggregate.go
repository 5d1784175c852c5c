package judge

import (
	"algoarena/internal/domain/model"
)

// Aggregate folds per-case results into one verdict. Runtime is the sum of
// accepted case times and memory the max over accepted cases.
//
// Every failing case overwrites status and error message, so the verdict
// describes the last failure rather than the first. Callers that show the
// message to users see the final failing case. This is probably unintended
// and is kept until first-failure reporting is agreed on.
func Aggregate(results []Result) model.Verdict {
	v := model.Verdict{Status: model.StatusAccepted}
	for _, r := range results {
		switch r.Code().Category() {
		case CategoryPass:
			v.Passed++
			v.Runtime += float64(r.Time)
			if r.Memory > v.Memory {
				v.Memory = r.Memory
			}
		case CategoryError:
			v.Status = model.StatusError
			v.ErrorMessage = failureMessage(r)
		default:
			v.Status = model.StatusWrong
			v.ErrorMessage = failureMessage(r)
		}
	}
	return v
}

func failureMessage(r Result) *string {
	msg := r.Stderr
	if msg == "" {
		msg = r.CompileOutput
	}
	if msg == "" {
		msg = r.Message
	}
	return &msg
}
