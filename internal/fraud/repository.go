package fraud

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kenya-hie/platform/internal/shared/errors"
	"github.com/kenya-hie/platform/internal/shared/metrics"
	"github.com/kenya-hie/platform/internal/shared/types"
)

// Alert summarizes a stored high-risk case awaiting review
type Alert struct {
	CaseID         types.ID  `json:"case_id"`
	PatientID      string    `json:"patient_id"`
	FraudScore     float64   `json:"fraud_score"`
	RiskLevel      RiskLevel `json:"risk_level"`
	ViolationCount int       `json:"violation_count"`
	TotalAmount    float64   `json:"total_amount"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
	Status         string    `json:"status"`
}

// Repository persists analysis results and imported claims
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new fraud repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// StoreResult persists a fraud analysis result and returns the new case ID
func (r *Repository) StoreResult(ctx context.Context, result *FraudAnalysisResult) (types.ID, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("fraud.store_result", time.Since(start)) }()

	violations, err := json.Marshal(result.Violations)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode violations")
	}
	recommendations, err := json.Marshal(result.Recommendations)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode recommendations")
	}

	id := types.NewID()
	query := `
		INSERT INTO fraud.cases (
			id, patient_id, fraud_score, risk_level, violations,
			total_amount, procedure_count, hospital_count,
			recommendations, analyzed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.pool.Exec(ctx, query,
		id, result.PatientID, result.FraudScore, result.RiskLevel, violations,
		result.TotalAmount, result.ProcedureCount, result.HospitalCount,
		recommendations, result.AnalysisTimestamp,
	)
	if err != nil {
		return "", errors.Wrap(err, "failed to store analysis result")
	}

	return id, nil
}

// ListHighRiskAlerts returns unreviewed cases at HIGH or CRITICAL risk,
// newest first.
func (r *Repository) ListHighRiskAlerts(ctx context.Context, limit int) ([]Alert, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("fraud.list_alerts", time.Since(start)) }()

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, patient_id, fraud_score, risk_level,
			jsonb_array_length(violations), total_amount, analyzed_at
		FROM fraud.cases
		WHERE risk_level IN ('HIGH', 'CRITICAL') AND reviewed = FALSE
		ORDER BY analyzed_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list high-risk alerts")
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.CaseID, &a.PatientID, &a.FraudScore, &a.RiskLevel,
			&a.ViolationCount, &a.TotalAmount, &a.AnalyzedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan alert")
		}
		a.Status = "PENDING_REVIEW"
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// InsertClaims stores claims imported from an external hospital system.
// Claim IDs are derived deterministically so re-importing a batch is a
// no-op rather than a duplicate.
func (r *Repository) InsertClaims(ctx context.Context, patientID, source string, claims []ProcedureClaim) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("fraud.insert_claims", time.Since(start)) }()

	query := `
		INSERT INTO fraud.claims (
			id, patient_id, procedure_name, procedure_code, hospital,
			hospital_id, claim_date, amount, insurance_provider, patient_name, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`

	for _, claim := range claims {
		id := types.NewDeterministicID("claim",
			source+"|"+patientID+"|"+claim.Procedure+"|"+claim.Hospital+"|"+claim.Date)

		_, err := r.pool.Exec(ctx, query,
			id, patientID, claim.Procedure, nullable(claim.ProcedureCode), claim.Hospital,
			nullable(claim.HospitalID), claim.Date, claim.Amount,
			nullable(claim.InsuranceProvider), nullable(claim.PatientName), source,
		)
		if err != nil {
			return errors.Wrap(err, "failed to insert claim")
		}
	}

	return nil
}

// ClaimsByPatient loads all stored claims for a patient, oldest first
func (r *Repository) ClaimsByPatient(ctx context.Context, patientID string) ([]ProcedureClaim, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("fraud.claims_by_patient", time.Since(start)) }()

	query := `
		SELECT procedure_name, COALESCE(procedure_code, ''), hospital,
			COALESCE(hospital_id, ''), to_char(claim_date, 'YYYY-MM-DD'), amount,
			COALESCE(insurance_provider, ''), COALESCE(patient_name, '')
		FROM fraud.claims
		WHERE patient_id = $1
		ORDER BY claim_date, imported_at`

	rows, err := r.pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query claims")
	}
	defer rows.Close()

	var claims []ProcedureClaim
	for rows.Next() {
		var c ProcedureClaim
		if err := rows.Scan(&c.Procedure, &c.ProcedureCode, &c.Hospital, &c.HospitalID,
			&c.Date, &c.Amount, &c.InsuranceProvider, &c.PatientName); err != nil {
			return nil, errors.Wrap(err, "failed to scan claim")
		}
		claims = append(claims, c)
	}

	return claims, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
