package judge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Submission is one case sent to the judge.
type Submission struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

type batchRequest struct {
	Submissions []Submission `json:"submissions"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type resultStatus struct {
	ID          StatusID `json:"id"`
	Description string   `json:"description"`
}

// Result is the judge's outcome for one token.
type Result struct {
	Token         string       `json:"token"`
	Status        resultStatus `json:"status"`
	StatusID      StatusID     `json:"status_id"`
	Time          Seconds      `json:"time"`
	Memory        int          `json:"memory"`
	Stdout        string       `json:"stdout"`
	Stderr        string       `json:"stderr"`
	CompileOutput string       `json:"compile_output"`
	Message       string       `json:"message"`
}

// Code returns the status id, preferring the nested status object the judge
// sends with fields=* and falling back to the flat status_id.
func (r Result) Code() StatusID {
	if r.Status.ID != 0 {
		return r.Status.ID
	}
	return r.StatusID
}

type batchResultResponse struct {
	Submissions []*Result `json:"submissions"`
}

// Seconds decodes the judge's time field, which arrives as a decimal string
// ("0.012"), occasionally as a number, and as null while the case is queued.
type Seconds float64

func (s *Seconds) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str == "" {
			*s = 0
			return nil
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("invalid time %q: %w", str, err)
		}
		*s = Seconds(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Seconds(v)
	return nil
}
