package models

import "time"

// RunOutcome is the single terminal state of a poll
type RunOutcome string

const (
	OutcomeNoOpenings  RunOutcome = "no_openings"
	OutcomeNotified    RunOutcome = "notified"
	OutcomeFetchFailed RunOutcome = "fetch_failed"
	OutcomeSendFailed  RunOutcome = "send_failed"
)

// RunRecord is the compact history entry kept per invocation
type RunRecord struct {
	PK string `dynamodbav:"PK" json:"-"`
	SK string `dynamodbav:"SK" json:"-"`

	RunID       string        `dynamodbav:"run_id" json:"run_id"`
	Provider    string        `dynamodbav:"provider" json:"provider"`
	StartedAt   time.Time     `dynamodbav:"started_at" json:"started_at"`
	CompletedAt time.Time     `dynamodbav:"completed_at" json:"completed_at"`
	Request     SearchRequest `dynamodbav:"request" json:"request"`
	Candidates  int           `dynamodbav:"candidates" json:"candidates"` // in range, before availability
	Openings    int           `dynamodbav:"openings" json:"openings"`
	Outcome     RunOutcome    `dynamodbav:"outcome" json:"outcome"`
	Error       string        `dynamodbav:"error,omitempty" json:"error,omitempty"`
	ExpiresAt   int64         `dynamodbav:"expires_at,omitempty" json:"-"` // TTL, unix seconds
}

// Duration is the wall time of the run
func (r RunRecord) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// RunReport is the full archive document for a run that found openings
type RunReport struct {
	RunID        string             `json:"run_id"`
	Provider     string             `json:"provider"`
	GeneratedAt  time.Time          `json:"generated_at"`
	Request      SearchRequest      `json:"request"`
	Openings     []Location         `json:"openings"`
	Notification NotificationResult `json:"notification"`
}
