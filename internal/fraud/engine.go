package fraud

import (
	"sync"
	"time"
)

// Config carries the tunables of the analysis engine. The zero value is not
// usable; construct engines through NewEngine, which fills defaults.
type Config struct {
	// Limits is the anatomical ceiling table, category -> maximum count
	Limits AnatomicalLimits
	// MinGapDays is the smallest plausible gap between adjacent procedures
	MinGapDays int
	// MaxHospitals is the highest distinct-hospital count not flagged
	MaxHospitals int
	// MaxInsurers is the highest distinct-insurer count not flagged
	MaxInsurers int
	// MaxNameVariants is the highest distinct-name count not flagged
	MaxNameVariants int
}

// DefaultConfig returns the standard engine configuration
func DefaultConfig() Config {
	return Config{
		Limits:          DefaultAnatomicalLimits(),
		MinGapDays:      7,
		MaxHospitals:    2,
		MaxInsurers:     1,
		MaxNameVariants: 1,
	}
}

// Engine is the fraud detection rule engine. It is stateless: every Analyze
// call is an independent pure computation, safe to run concurrently across
// patients.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine, filling unset config fields with defaults
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.Limits == nil {
		cfg.Limits = def.Limits
	}
	if cfg.MinGapDays == 0 {
		cfg.MinGapDays = def.MinGapDays
	}
	if cfg.MaxHospitals == 0 {
		cfg.MaxHospitals = def.MaxHospitals
	}
	if cfg.MaxInsurers == 0 {
		cfg.MaxInsurers = def.MaxInsurers
	}
	if cfg.MaxNameVariants == 0 {
		cfg.MaxNameVariants = def.MaxNameVariants
	}
	return &Engine{cfg: cfg}
}

// Limits returns the active anatomical limits table
func (e *Engine) Limits() AnatomicalLimits {
	return e.cfg.Limits
}

// Analyze runs the full detection pipeline over one patient's claims. The
// three detectors read the same immutable claim list and run concurrently;
// their results are concatenated in a fixed order (anatomical, then
// cross-provider, then temporal) so violation ordering is reproducible.
func (e *Engine) Analyze(patientID string, claims []ProcedureClaim) (*FraudAnalysisResult, error) {
	var (
		anatomical    []Violation
		crossProvider []Violation
		temporal      []Violation
		temporalErr   error
	)

	thresholds := crossProviderThresholds{
		maxHospitals:    e.cfg.MaxHospitals,
		maxInsurers:     e.cfg.MaxInsurers,
		maxNameVariants: e.cfg.MaxNameVariants,
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		anatomical = checkAnatomical(claims, e.cfg.Limits)
	}()
	go func() {
		defer wg.Done()
		crossProvider = checkCrossProvider(claims, thresholds)
	}()
	go func() {
		defer wg.Done()
		temporal, temporalErr = checkTemporal(claims, e.cfg.MinGapDays)
	}()
	wg.Wait()

	if temporalErr != nil {
		return nil, temporalErr
	}

	violations := make([]Violation, 0, len(anatomical)+len(crossProvider)+len(temporal))
	violations = append(violations, anatomical...)
	violations = append(violations, crossProvider...)
	violations = append(violations, temporal...)

	explainViolations(violations, claims)

	score := aggregateScore(violations)

	var totalAmount float64
	for _, claim := range claims {
		totalAmount += claim.Amount
	}

	return &FraudAnalysisResult{
		PatientID:         patientID,
		FraudScore:        score,
		RiskLevel:         classifyRisk(score),
		Violations:        violations,
		TotalAmount:       totalAmount,
		ProcedureCount:    len(claims),
		HospitalCount:     distinctHospitals(claims),
		Recommendations:   recommend(score, violations),
		AnalysisTimestamp: time.Now().UTC(),
	}, nil
}
