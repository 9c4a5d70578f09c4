package fraud

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultConfig())
}

func TestAnalyzeCleanCase(t *testing.T) {
	engine := newTestEngine()

	claims := []ProcedureClaim{
		{Procedure: "Appendectomy", Hospital: "Kenyatta National Hospital", Date: "2025-01-10", Amount: 120000, InsuranceProvider: "NHIF", PatientName: "Grace Wanjiru"},
		{Procedure: "Physiotherapy", Hospital: "Kenyatta National Hospital", Date: "2025-03-10", Amount: 15000, InsuranceProvider: "NHIF", PatientName: "Grace Wanjiru"},
	}

	result, err := engine.Analyze("KE-1988-334455", claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.FraudScore != 0 {
		t.Errorf("expected score 0 for clean case, got %v", result.FraudScore)
	}
	if result.RiskLevel != RiskLow {
		t.Errorf("expected LOW risk, got %q", result.RiskLevel)
	}
	if len(result.Violations) != 0 {
		t.Errorf("expected no violations, got %d", len(result.Violations))
	}
	if result.TotalAmount != 135000 {
		t.Errorf("expected total amount 135000, got %v", result.TotalAmount)
	}
	if result.ProcedureCount != 2 {
		t.Errorf("expected procedure count 2, got %d", result.ProcedureCount)
	}
	if result.HospitalCount != 1 {
		t.Errorf("expected hospital count 1, got %d", result.HospitalCount)
	}
}

func TestAnalyzeTripleAmputation(t *testing.T) {
	engine := newTestEngine()

	claims := []ProcedureClaim{
		{Procedure: "Left leg amputation", Hospital: "Kenyatta National Hospital", Date: "2025-01-10", Amount: 450000},
		{Procedure: "Right leg amputation", Hospital: "Kenyatta National Hospital", Date: "2025-04-10", Amount: 450000},
		{Procedure: "Leg amputation revision", Hospital: "Kenyatta National Hospital", Date: "2025-07-10", Amount: 300000},
	}

	result, err := engine.Analyze("KE-1975-112233", claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	anatomical := violationsOfType(result.Violations, ViolationAnatomical)
	if len(anatomical) != 1 {
		t.Fatalf("expected exactly 1 anatomical violation, got %d", len(anatomical))
	}

	v := anatomical[0]
	if v.Count != 3 || v.Limit != 2 {
		t.Errorf("expected count=3 limit=2, got count=%d limit=%d", v.Count, v.Limit)
	}
	if v.Severity != SeverityCritical {
		t.Errorf("expected CRITICAL severity, got %q", v.Severity)
	}
	if v.Explanation == "" {
		t.Error("expected a plain-language explanation")
	}
	if len(v.Evidence) != 3 {
		t.Errorf("expected 3 evidence excerpts, got %d", len(v.Evidence))
	}
	if !strings.Contains(v.Evidence[0], "Left leg amputation on 2025-01-10") {
		t.Errorf("unexpected evidence format: %q", v.Evidence[0])
	}

	if result.FraudScore != 0.4 {
		t.Errorf("expected score 0.4, got %v", result.FraudScore)
	}
	if result.RiskLevel != RiskMedium {
		t.Errorf("expected MEDIUM risk, got %q", result.RiskLevel)
	}
}

func TestAnalyzeThreeHospitalsSameInsurerSameName(t *testing.T) {
	engine := newTestEngine()

	claims := []ProcedureClaim{
		{Procedure: "Appendectomy", Hospital: "Kenyatta National Hospital", Date: "2025-01-10", Amount: 120000, InsuranceProvider: "NHIF", PatientName: "Grace Wanjiru"},
		{Procedure: "Hernia repair", Hospital: "Coast General Hospital", Date: "2025-03-10", Amount: 95000, InsuranceProvider: "NHIF", PatientName: "Grace Wanjiru"},
		{Procedure: "Cataract surgery", Hospital: "Moi Teaching and Referral Hospital", Date: "2025-05-10", Amount: 60000, InsuranceProvider: "NHIF", PatientName: "Grace Wanjiru"},
	}

	result, err := engine.Analyze("KE-1988-334455", claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	crossProvider := violationsOfType(result.Violations, ViolationCrossProvider)
	if len(crossProvider) != 1 {
		t.Fatalf("expected exactly 1 cross-provider violation, got %d", len(crossProvider))
	}
	if len(crossProvider[0].Hospitals) != 3 {
		t.Errorf("expected 3 hospitals listed, got %v", crossProvider[0].Hospitals)
	}

	if n := len(violationsOfType(result.Violations, ViolationInsurance)); n != 0 {
		t.Errorf("expected no insurance violations, got %d", n)
	}
	if n := len(violationsOfType(result.Violations, ViolationIdentityReuse)); n != 0 {
		t.Errorf("expected no identity violations, got %d", n)
	}
	if result.HospitalCount != 3 {
		t.Errorf("expected hospital count 3, got %d", result.HospitalCount)
	}
}

func TestAnalyzeRapidSuccession(t *testing.T) {
	engine := newTestEngine()

	claims := []ProcedureClaim{
		{Procedure: "Appendectomy", Hospital: "Kenyatta National Hospital", Date: "2025-08-18", Amount: 120000},
		{Procedure: "Hernia repair", Hospital: "Kenyatta National Hospital", Date: "2025-08-19", Amount: 95000},
	}

	result, err := engine.Analyze("KE-1990-556677", claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	temporal := violationsOfType(result.Violations, ViolationTemporal)
	if len(temporal) != 1 {
		t.Fatalf("expected exactly 1 temporal violation, got %d", len(temporal))
	}
	if temporal[0].GapDays != 1 {
		t.Errorf("expected gap of 1 day, got %d", temporal[0].GapDays)
	}
	if temporal[0].Severity != SeverityMedium {
		t.Errorf("expected MEDIUM severity, got %q", temporal[0].Severity)
	}
}

func TestAnalyzeSingleClaim(t *testing.T) {
	engine := newTestEngine()

	claims := []ProcedureClaim{
		{Procedure: "Left leg amputation", Hospital: "Kenyatta National Hospital", Date: "2025-01-10", Amount: 450000, InsuranceProvider: "NHIF", PatientName: "Grace Wanjiru"},
	}

	result, err := engine.Analyze("KE-1988-334455", claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, vt := range []ViolationType{ViolationCrossProvider, ViolationInsurance, ViolationIdentityReuse, ViolationTemporal} {
		if n := len(violationsOfType(result.Violations, vt)); n != 0 {
			t.Errorf("single claim produced %d %s violations", n, vt)
		}
	}
}

func TestAnalyzeCompoundFraudCase(t *testing.T) {
	engine := newTestEngine()

	// Three leg amputations across 4 hospitals and 4 insurers under 2 name
	// variants, with every adjacent gap at least 7 days.
	claims := []ProcedureClaim{
		{Procedure: "Left leg amputation", Hospital: "Kenyatta National Hospital", Date: "2025-01-01", Amount: 450000, InsuranceProvider: "NHIF", PatientName: "Grace Wanjiru"},
		{Procedure: "Right leg amputation", Hospital: "Coast General Hospital", Date: "2025-01-11", Amount: 450000, InsuranceProvider: "Jubilee Insurance", PatientName: "Grace Wanjiru"},
		{Procedure: "Leg amputation revision", Hospital: "Moi Teaching and Referral Hospital", Date: "2025-01-21", Amount: 300000, InsuranceProvider: "Britam", PatientName: "G. Wanjiru"},
		{Procedure: "Physiotherapy", Hospital: "Aga Khan University Hospital", Date: "2025-01-31", Amount: 20000, InsuranceProvider: "Madison Insurance", PatientName: "G. Wanjiru"},
	}

	result, err := engine.Analyze("KE-1988-334455", claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectations := map[ViolationType]int{
		ViolationAnatomical:    1,
		ViolationCrossProvider: 1,
		ViolationInsurance:     1,
		ViolationIdentityReuse: 1,
		ViolationTemporal:      0,
	}
	for vt, want := range expectations {
		if got := len(violationsOfType(result.Violations, vt)); got != want {
			t.Errorf("expected %d %s violations, got %d", want, vt, got)
		}
	}

	// 0.4 + 0.25*3 = 1.15, clamped to 1.0
	if result.FraudScore != 1.0 {
		t.Errorf("expected clamped score 1.0, got %v", result.FraudScore)
	}
	if result.RiskLevel != RiskCritical {
		t.Errorf("expected CRITICAL risk, got %q", result.RiskLevel)
	}
}

func TestAnalyzeViolationOrderFixed(t *testing.T) {
	engine := newTestEngine()

	// Triggers anatomical, cross-provider and temporal families at once
	claims := []ProcedureClaim{
		{Procedure: "Left leg amputation", Hospital: "Kenyatta National Hospital", Date: "2025-01-01", Amount: 450000},
		{Procedure: "Right leg amputation", Hospital: "Coast General Hospital", Date: "2025-01-03", Amount: 450000},
		{Procedure: "Leg amputation revision", Hospital: "Moi Teaching and Referral Hospital", Date: "2025-01-05", Amount: 300000},
	}

	for run := 0; run < 5; run++ {
		result, err := engine.Analyze("KE-1988-334455", claims)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Violations) != 4 {
			t.Fatalf("expected 4 violations, got %d", len(result.Violations))
		}

		order := []ViolationType{
			result.Violations[0].Type,
			result.Violations[1].Type,
			result.Violations[2].Type,
			result.Violations[3].Type,
		}
		want := []ViolationType{ViolationAnatomical, ViolationCrossProvider, ViolationTemporal, ViolationTemporal}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("run %d: violation %d is %q, want %q", run, i, order[i], want[i])
			}
		}
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	engine := newTestEngine()

	claims := []ProcedureClaim{
		{Procedure: "Left leg amputation", Hospital: "Kenyatta National Hospital", Date: "2025-01-01", Amount: 450000, InsuranceProvider: "NHIF", PatientName: "Grace Wanjiru"},
		{Procedure: "Right leg amputation", Hospital: "Coast General Hospital", Date: "2025-01-03", Amount: 450000, InsuranceProvider: "Jubilee Insurance", PatientName: "G. Wanjiru"},
		{Procedure: "Leg amputation revision", Hospital: "Moi Teaching and Referral Hospital", Date: "2025-01-21", Amount: 300000, InsuranceProvider: "Britam", PatientName: "Grace W."},
	}

	first, err := engine.Analyze("KE-1988-334455", claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.Analyze("KE-1988-334455", claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The analysis timestamp is the only non-deterministic field
	first.AnalysisTimestamp = time.Time{}
	second.AnalysisTimestamp = time.Time{}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("analysis is not idempotent:\nfirst:  %s\nsecond: %s", a, b)
	}
}

func TestAnalyzeUnparseableDatePropagates(t *testing.T) {
	engine := newTestEngine()

	claims := []ProcedureClaim{
		{Procedure: "Appendectomy", Hospital: "Kenyatta National Hospital", Date: "2025-01-01", Amount: 120000},
		{Procedure: "Hernia repair", Hospital: "Kenyatta National Hospital", Date: "garbage", Amount: 95000},
	}

	_, err := engine.Analyze("KE-1990-556677", claims)
	if err == nil {
		t.Fatal("expected error for unparseable date")
	}
	if _, ok := err.(*ComputationError); !ok {
		t.Errorf("expected *ComputationError, got %T", err)
	}
}

// --- Scoring Tests ---

func TestAggregateScoreClamp(t *testing.T) {
	tests := []struct {
		name       string
		violations []Violation
		expected   float64
	}{
		{"empty", nil, 0},
		{"one critical", []Violation{{Severity: SeverityCritical}}, 0.4},
		{"one high", []Violation{{Severity: SeverityHigh}}, 0.25},
		{"one medium", []Violation{{Severity: SeverityMedium}}, 0.15},
		{"one low", []Violation{{Severity: SeverityLow}}, 0.05},
		{"critical plus high", []Violation{{Severity: SeverityCritical}, {Severity: SeverityHigh}}, 0.65},
		{"clamped", []Violation{
			{Severity: SeverityCritical},
			{Severity: SeverityCritical},
			{Severity: SeverityCritical},
		}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aggregateScore(tt.violations)
			if diff := got - tt.expected; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("aggregateScore() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAggregateScoreMonotonic(t *testing.T) {
	base := []Violation{{Severity: SeverityHigh}, {Severity: SeverityMedium}}
	superset := append([]Violation{{Severity: SeverityLow}}, base...)

	if aggregateScore(superset) < aggregateScore(base) {
		t.Error("adding a violation must never lower the score")
	}
}

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		score    float64
		expected RiskLevel
	}{
		{0.0, RiskLow},
		{0.29, RiskLow},
		{0.3, RiskMedium}, // lower bounds are inclusive
		{0.59, RiskMedium},
		{0.6, RiskHigh},
		{0.79, RiskHigh},
		{0.8, RiskCritical},
		{1.0, RiskCritical},
	}

	for _, tt := range tests {
		if got := classifyRisk(tt.score); got != tt.expected {
			t.Errorf("classifyRisk(%v) = %q, want %q", tt.score, got, tt.expected)
		}
	}
}

func violationsOfType(violations []Violation, vt ViolationType) []Violation {
	var out []Violation
	for _, v := range violations {
		if v.Type == vt {
			out = append(out, v)
		}
	}
	return out
}
