package scenario

import (
	"fmt"
	"time"
)

// Status of a scenario in a report
type Status string

// Enum of statuses
const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result is an outcome of one scenario
type Result struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Project    string    `json:"project"` // project created for the last attempt
	Status     Status    `json:"status"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error,omitempty"`
	Screenshot string    `json:"screenshot,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration of the scenario including retries
func (r Result) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Report is an outcome of a run
type Report struct {
	ID         string    `json:"id"`
	BaseURL    string    `json:"base_url"`
	Seed       uint64    `json:"seed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Results    []Result  `json:"results"`
}

// Passed returns the number of passed scenarios
func (r Report) Passed() int { return r.count(StatusPassed) }

// Failed returns the number of failed scenarios
func (r Report) Failed() int { return r.count(StatusFailed) }

// Skipped returns the number of scenarios not started
func (r Report) Skipped() int { return r.count(StatusSkipped) }

// OK is true if every scenario passed
func (r Report) OK() bool { return r.Passed() == len(r.Results) }

// Duration of the whole run
func (r Report) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Summary is a one-line outcome, used for logs and notification subjects
func (r Report) Summary() string {
	if r.OK() {
		return fmt.Sprintf("all %d scenarios passed in %v", len(r.Results), r.Duration().Round(time.Millisecond))
	}
	res := fmt.Sprintf("%d of %d scenarios failed", r.Failed(), len(r.Results))
	if s := r.Skipped(); s > 0 {
		res += fmt.Sprintf(", %d skipped", s)
	}
	return res
}

func (r Report) count(st Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == st {
			n++
		}
	}
	return n
}
