package fraud

import (
	"fmt"
	"time"
)

// claimDateLayout is the wire format for claim dates (ISO-8601 calendar date).
const claimDateLayout = "2006-01-02"

// Severity grades a single violation
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// RiskLevel is the ordinal classification of a whole case
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// ViolationType tags the detection rule family that produced a violation
type ViolationType string

const (
	ViolationAnatomical    ViolationType = "anatomical_violation"
	ViolationCrossProvider ViolationType = "cross_provider_pattern"
	ViolationInsurance     ViolationType = "insurance_fraud"
	ViolationIdentityReuse ViolationType = "identity_reuse"
	ViolationTemporal      ViolationType = "temporal_anomaly"
)

// ProcedureCategory is the closed set of anatomically limited procedure
// classes. Procedures that match none of the classifier rules stay
// uncategorized (CategoryNone) and are excluded from anatomical counting.
type ProcedureCategory string

const (
	CategoryNone             ProcedureCategory = ""
	CategoryLegAmputation    ProcedureCategory = "leg_amputation"
	CategoryArmAmputation    ProcedureCategory = "arm_amputation"
	CategoryHeartSurgery     ProcedureCategory = "heart_surgery"
	CategoryBrainSurgery     ProcedureCategory = "brain_surgery"
	CategoryKidneyTransplant ProcedureCategory = "kidney_transplant"
	CategoryLiverTransplant  ProcedureCategory = "liver_transplant"
)

// categoryOrder fixes the iteration order for per-category tallies so
// violation output is reproducible across runs.
var categoryOrder = []ProcedureCategory{
	CategoryLegAmputation,
	CategoryArmAmputation,
	CategoryHeartSurgery,
	CategoryBrainSurgery,
	CategoryKidneyTransplant,
	CategoryLiverTransplant,
}

// AnatomicalLimits maps a procedure category to the maximum number of times
// that procedure is physically possible for one human.
type AnatomicalLimits map[ProcedureCategory]int

// DefaultAnatomicalLimits returns the built-in limits table. Deployments can
// override individual categories through configuration.
func DefaultAnatomicalLimits() AnatomicalLimits {
	return AnatomicalLimits{
		CategoryLegAmputation:    2,
		CategoryArmAmputation:    2,
		CategoryHeartSurgery:     1,
		CategoryBrainSurgery:     1,
		CategoryKidneyTransplant: 2,
		CategoryLiverTransplant:  1,
	}
}

// ProcedureClaim is one claimed medical procedure tied to a patient
// identifier. Claims are immutable once constructed and supplied wholesale
// by the caller.
type ProcedureClaim struct {
	Procedure         string  `json:"procedure"`
	ProcedureCode     string  `json:"procedure_code,omitempty"`
	Hospital          string  `json:"hospital"`
	HospitalID        string  `json:"hospital_id,omitempty"`
	Date              string  `json:"date"` // ISO-8601 calendar date
	Amount            float64 `json:"amount"`
	InsuranceProvider string  `json:"insurance_provider,omitempty"`
	PatientName       string  `json:"patient_name,omitempty"`
}

// ParseDate parses the claim's calendar date
func (c ProcedureClaim) ParseDate() (time.Time, error) {
	return time.Parse(claimDateLayout, c.Date)
}

// CaseBundle is one patient identifier plus the unordered bag of claims
// attributed to it. Duplicate claims are kept; they are meaningful fraud
// signals.
type CaseBundle struct {
	PatientID string           `json:"patient_id"`
	Claims    []ProcedureClaim `json:"procedures"`
}

// Violation is one detected rule breach
type Violation struct {
	Type        ViolationType `json:"type"`
	Severity    Severity      `json:"severity"`
	Description string        `json:"description"`
	Rule        string        `json:"rule"`

	// Anatomical fields
	ProcedureType ProcedureCategory `json:"procedure_type,omitempty"`
	Count         int               `json:"count,omitempty"`
	Limit         int               `json:"limit,omitempty"`

	// Cross-provider pattern fields
	Hospitals []string `json:"hospitals,omitempty"`
	Providers []string `json:"providers,omitempty"`
	Names     []string `json:"names,omitempty"`

	// Temporal fields
	GapDays int      `json:"gap_days,omitempty"`
	Dates   []string `json:"dates,omitempty"`

	// Presentation, filled by the evidence stage
	Explanation string   `json:"explanation,omitempty"`
	Evidence    []string `json:"evidence,omitempty"`
}

// FraudAnalysisResult is the outcome of analyzing one case bundle
type FraudAnalysisResult struct {
	PatientID         string      `json:"patient_id"`
	FraudScore        float64     `json:"fraud_score"`
	RiskLevel         RiskLevel   `json:"risk_level"`
	Violations        []Violation `json:"violations"`
	TotalAmount       float64     `json:"total_amount"`
	ProcedureCount    int         `json:"procedure_count"`
	HospitalCount     int         `json:"hospital_count"`
	Recommendations   []string    `json:"recommendations"`
	AnalysisTimestamp time.Time   `json:"analysis_timestamp"`
}

// ValidationError reports a claim that must be rejected before analysis
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid claim: %s %s", e.Field, e.Reason)
}

// ComputationError reports an unexpected internal failure during analysis,
// e.g. an unparseable date reaching the temporal sort. It always propagates
// out of Analyze instead of being swallowed.
type ComputationError struct {
	Stage string
	Err   error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("fraud analysis failed in %s stage: %v", e.Stage, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// ValidateClaim checks the required fields of a single claim. Callers must
// reject invalid claims before invoking the engine; the engine itself never
// defaults missing values.
func ValidateClaim(c ProcedureClaim) error {
	if c.Procedure == "" {
		return &ValidationError{Field: "procedure", Reason: "is required"}
	}
	if c.Hospital == "" {
		return &ValidationError{Field: "hospital", Reason: "is required"}
	}
	if c.Date == "" {
		return &ValidationError{Field: "date", Reason: "is required"}
	}
	if _, err := c.ParseDate(); err != nil {
		return &ValidationError{Field: "date", Reason: "must be an ISO-8601 calendar date (YYYY-MM-DD)"}
	}
	if c.Amount < 0 {
		return &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	return nil
}
