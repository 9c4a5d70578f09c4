package review

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kenya-hie/platform/internal/fraud"
	"github.com/kenya-hie/platform/internal/shared/errors"
	"github.com/kenya-hie/platform/internal/shared/metrics"
	"github.com/kenya-hie/platform/internal/shared/types"
)

// Repository provides database operations for the review workflow
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new review repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const caseColumns = `
	id, patient_id, fraud_score, risk_level, violations,
	total_amount, procedure_count, hospital_count, recommendations,
	analyzed_at, reviewed, COALESCE(reviewer, ''), review_decision,
	COALESCE(review_notes, ''), reviewed_at`

// GetCase retrieves a stored case by ID
func (r *Repository) GetCase(ctx context.Context, id types.ID) (*Case, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("review.get_case", time.Since(start)) }()

	row := r.pool.QueryRow(ctx, `SELECT `+caseColumns+` FROM fraud.cases WHERE id = $1`, id)

	c, err := scanCase(row)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("case", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get case")
	}

	return c, nil
}

// ListCases lists stored cases matching the filter, newest first
func (r *Repository) ListCases(ctx context.Context, filter ListCasesFilter) ([]*Case, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("review.list_cases", time.Since(start)) }()

	query := `SELECT ` + caseColumns + ` FROM fraud.cases WHERE 1=1`
	args := []any{}
	argn := 1

	if filter.PatientID != "" {
		query += ` AND patient_id = $` + itoa(argn)
		args = append(args, filter.PatientID)
		argn++
	}
	if filter.RiskLevel != nil {
		query += ` AND risk_level = $` + itoa(argn)
		args = append(args, *filter.RiskLevel)
		argn++
	}
	if filter.Reviewed != nil {
		query += ` AND reviewed = $` + itoa(argn)
		args = append(args, *filter.Reviewed)
		argn++
	}

	query += ` ORDER BY analyzed_at DESC`

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query += ` LIMIT $` + itoa(argn)
	args = append(args, limit)
	argn++

	if filter.Offset > 0 {
		query += ` OFFSET $` + itoa(argn)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cases")
	}
	defer rows.Close()

	var cases []*Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan case")
		}
		cases = append(cases, c)
	}

	return cases, rows.Err()
}

// Review records a reviewer decision on a case. A case can only be
// reviewed once; later decisions conflict.
func (r *Repository) Review(ctx context.Context, id types.ID, reviewer string, decision Decision, notes string) (*Case, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("review.review_case", time.Since(start)) }()

	query := `
		UPDATE fraud.cases SET
			reviewed = TRUE, reviewer = $2, review_decision = $3,
			review_notes = $4, reviewed_at = NOW()
		WHERE id = $1 AND reviewed = FALSE`

	result, err := r.pool.Exec(ctx, query, id, reviewer, decision, notes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to review case")
	}

	if result.RowsAffected() == 0 {
		// Either missing or already reviewed; disambiguate for the caller
		existing, err := r.GetCase(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing.Reviewed {
			return nil, errors.Conflict("case has already been reviewed")
		}
		return nil, errors.NotFound("case", id.String())
	}

	return r.GetCase(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*Case, error) {
	var (
		c               Case
		violations      []byte
		recommendations []byte
		decision        *string
	)

	err := row.Scan(
		&c.ID, &c.PatientID, &c.FraudScore, &c.RiskLevel, &violations,
		&c.TotalAmount, &c.ProcedureCount, &c.HospitalCount, &recommendations,
		&c.AnalyzedAt, &c.Reviewed, &c.Reviewer, &decision,
		&c.ReviewNotes, &c.ReviewedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(violations, &c.Violations); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(recommendations, &c.Recommendations); err != nil {
		return nil, err
	}
	if c.Violations == nil {
		c.Violations = []fraud.Violation{}
	}
	if c.Recommendations == nil {
		c.Recommendations = []string{}
	}
	if decision != nil {
		d := Decision(*decision)
		c.ReviewDecision = &d
	}

	return &c, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
