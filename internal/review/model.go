package review

import (
	"time"

	"github.com/kenya-hie/platform/internal/fraud"
	"github.com/kenya-hie/platform/internal/shared/types"
)

// Decision is a reviewer's verdict on a stored fraud case
type Decision string

const (
	DecisionApprove     Decision = "approve"
	DecisionFlag        Decision = "flag"
	DecisionInvestigate Decision = "investigate"
)

// Valid reports whether the decision is one of the recognized verdicts
func (d Decision) Valid() bool {
	switch d {
	case DecisionApprove, DecisionFlag, DecisionInvestigate:
		return true
	}
	return false
}

// Case is a stored fraud analysis result with its review workflow state.
// The analysis fields are immutable once stored; only the review state
// changes.
type Case struct {
	ID              types.ID          `json:"id"`
	PatientID       string            `json:"patient_id"`
	FraudScore      float64           `json:"fraud_score"`
	RiskLevel       fraud.RiskLevel   `json:"risk_level"`
	Violations      []fraud.Violation `json:"violations"`
	TotalAmount     float64           `json:"total_amount"`
	ProcedureCount  int               `json:"procedure_count"`
	HospitalCount   int               `json:"hospital_count"`
	Recommendations []string          `json:"recommendations"`
	AnalyzedAt      time.Time         `json:"analyzed_at"`

	Reviewed       bool       `json:"reviewed"`
	Reviewer       string     `json:"reviewer,omitempty"`
	ReviewDecision *Decision  `json:"review_decision,omitempty"`
	ReviewNotes    string     `json:"review_notes,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
}

// ReviewRequest is the request to record a reviewer decision
type ReviewRequest struct {
	Decision Decision `json:"decision"`
	Notes    string   `json:"notes,omitempty"`
}

// ListCasesFilter defines filters for listing stored cases
type ListCasesFilter struct {
	PatientID string
	RiskLevel *fraud.RiskLevel
	Reviewed  *bool
	Limit     int
	Offset    int
}
