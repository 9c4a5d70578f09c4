package fraud

import (
	"testing"
)

func claim(procedure, hospital, date string) ProcedureClaim {
	return ProcedureClaim{
		Procedure: procedure,
		Hospital:  hospital,
		Date:      date,
		Amount:    50000,
	}
}

// --- Anatomical Tests ---

func TestCheckAnatomicalSingleViolationPerCategory(t *testing.T) {
	claims := []ProcedureClaim{
		claim("Left leg amputation", "Kenyatta National Hospital", "2025-01-10"),
		claim("Right leg amputation", "Kenyatta National Hospital", "2025-03-15"),
		claim("Leg amputation revision", "Coast General Hospital", "2025-06-20"),
	}

	violations := checkAnatomical(claims, DefaultAnatomicalLimits())

	if len(violations) != 1 {
		t.Fatalf("expected exactly 1 violation, got %d", len(violations))
	}

	v := violations[0]
	if v.Type != ViolationAnatomical {
		t.Errorf("expected type %q, got %q", ViolationAnatomical, v.Type)
	}
	if v.Severity != SeverityCritical {
		t.Errorf("expected severity CRITICAL, got %q", v.Severity)
	}
	if v.ProcedureType != CategoryLegAmputation {
		t.Errorf("expected category leg_amputation, got %q", v.ProcedureType)
	}
	if v.Count != 3 || v.Limit != 2 {
		t.Errorf("expected count=3 limit=2, got count=%d limit=%d", v.Count, v.Limit)
	}
	if v.Rule != RuleAnatomicalLimit {
		t.Errorf("expected rule %q, got %q", RuleAnatomicalLimit, v.Rule)
	}
}

func TestCheckAnatomicalAtLimitIsClean(t *testing.T) {
	claims := []ProcedureClaim{
		claim("Left leg amputation", "Kenyatta National Hospital", "2025-01-10"),
		claim("Right leg amputation", "Kenyatta National Hospital", "2025-06-15"),
	}

	if violations := checkAnatomical(claims, DefaultAnatomicalLimits()); len(violations) != 0 {
		t.Errorf("count at limit must not be flagged, got %d violations", len(violations))
	}
}

func TestCheckAnatomicalInjectedLimits(t *testing.T) {
	claims := []ProcedureClaim{
		claim("Kidney transplant", "Aga Khan University Hospital", "2025-02-01"),
		claim("Kidney transplant", "Aga Khan University Hospital", "2025-05-01"),
	}

	limits := AnatomicalLimits{CategoryKidneyTransplant: 1}
	violations := checkAnatomical(claims, limits)

	if len(violations) != 1 {
		t.Fatalf("expected 1 violation with tightened limit, got %d", len(violations))
	}
	if violations[0].Count != 2 || violations[0].Limit != 1 {
		t.Errorf("expected count=2 limit=1, got count=%d limit=%d",
			violations[0].Count, violations[0].Limit)
	}

	// A category absent from the limits table is never flagged
	if violations := checkAnatomical(claims, AnatomicalLimits{}); len(violations) != 0 {
		t.Errorf("unlimited category must not be flagged, got %d violations", len(violations))
	}
}

func TestCheckAnatomicalUnclassifiedNeverCounted(t *testing.T) {
	claims := []ProcedureClaim{
		claim("Heart transplant", "Kenyatta National Hospital", "2025-01-10"),
		claim("Heart transplant", "Kenyatta National Hospital", "2025-03-10"),
		claim("Heart transplant", "Kenyatta National Hospital", "2025-05-10"),
	}

	if violations := checkAnatomical(claims, DefaultAnatomicalLimits()); len(violations) != 0 {
		t.Errorf("unclassified procedures must not be flagged, got %d violations", len(violations))
	}
}

// --- Cross-Provider Tests ---

func defaultThresholds() crossProviderThresholds {
	return crossProviderThresholds{maxHospitals: 2, maxInsurers: 1, maxNameVariants: 1}
}

func TestCheckCrossProviderHospitalsOnly(t *testing.T) {
	claims := []ProcedureClaim{
		{Procedure: "Appendectomy", Hospital: "Kenyatta National Hospital", Date: "2025-01-10", InsuranceProvider: "NHIF", PatientName: "James Mwangi"},
		{Procedure: "Hernia repair", Hospital: "Coast General Hospital", Date: "2025-02-10", InsuranceProvider: "NHIF", PatientName: "James Mwangi"},
		{Procedure: "Cataract surgery", Hospital: "Moi Teaching and Referral Hospital", Date: "2025-03-10", InsuranceProvider: "NHIF", PatientName: "James Mwangi"},
	}

	violations := checkCrossProvider(claims, defaultThresholds())

	if len(violations) != 1 {
		t.Fatalf("expected exactly 1 violation, got %d", len(violations))
	}

	v := violations[0]
	if v.Type != ViolationCrossProvider {
		t.Errorf("expected type %q, got %q", ViolationCrossProvider, v.Type)
	}
	if v.Severity != SeverityHigh {
		t.Errorf("expected severity HIGH, got %q", v.Severity)
	}
	if len(v.Hospitals) != 3 {
		t.Errorf("expected all 3 hospitals listed, got %v", v.Hospitals)
	}
}

func TestCheckCrossProviderIndependentConditions(t *testing.T) {
	claims := []ProcedureClaim{
		{Procedure: "Appendectomy", Hospital: "Kenyatta National Hospital", Date: "2025-01-10", InsuranceProvider: "NHIF", PatientName: "James Mwangi"},
		{Procedure: "Hernia repair", Hospital: "Coast General Hospital", Date: "2025-02-10", InsuranceProvider: "Jubilee Insurance", PatientName: "Jimmy Mwangi"},
		{Procedure: "Cataract surgery", Hospital: "Moi Teaching and Referral Hospital", Date: "2025-03-10", InsuranceProvider: "Britam", PatientName: "J. Mwangi"},
	}

	violations := checkCrossProvider(claims, defaultThresholds())

	if len(violations) != 3 {
		t.Fatalf("expected 3 independent violations, got %d", len(violations))
	}

	types := map[ViolationType]bool{}
	for _, v := range violations {
		types[v.Type] = true
		if v.Severity != SeverityHigh {
			t.Errorf("expected severity HIGH for %s, got %q", v.Type, v.Severity)
		}
	}
	for _, want := range []ViolationType{ViolationCrossProvider, ViolationInsurance, ViolationIdentityReuse} {
		if !types[want] {
			t.Errorf("missing expected violation type %q", want)
		}
	}
}

func TestCheckCrossProviderNameVariantsCaseInsensitive(t *testing.T) {
	claims := []ProcedureClaim{
		{Procedure: "Appendectomy", Hospital: "Kenyatta National Hospital", Date: "2025-01-10", PatientName: "James Mwangi"},
		{Procedure: "Hernia repair", Hospital: "Kenyatta National Hospital", Date: "2025-02-10", PatientName: "JAMES MWANGI"},
	}

	if violations := checkCrossProvider(claims, defaultThresholds()); len(violations) != 0 {
		t.Errorf("case variants of the same name must not be flagged, got %d violations", len(violations))
	}
}

func TestCheckCrossProviderEmptyOptionalFieldsSkipped(t *testing.T) {
	claims := []ProcedureClaim{
		{Procedure: "Appendectomy", Hospital: "Kenyatta National Hospital", Date: "2025-01-10", InsuranceProvider: "NHIF"},
		{Procedure: "Hernia repair", Hospital: "Kenyatta National Hospital", Date: "2025-02-10", InsuranceProvider: ""},
	}

	if violations := checkCrossProvider(claims, defaultThresholds()); len(violations) != 0 {
		t.Errorf("empty insurer must not count as a distinct value, got %d violations", len(violations))
	}
}

// --- Temporal Tests ---

func TestCheckTemporalOneDayGap(t *testing.T) {
	claims := []ProcedureClaim{
		claim("Appendectomy", "Kenyatta National Hospital", "2025-08-18"),
		claim("Hernia repair", "Kenyatta National Hospital", "2025-08-19"),
	}

	violations, err := checkTemporal(claims, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(violations) != 1 {
		t.Fatalf("expected exactly 1 violation, got %d", len(violations))
	}

	v := violations[0]
	if v.Type != ViolationTemporal {
		t.Errorf("expected type %q, got %q", ViolationTemporal, v.Type)
	}
	if v.Severity != SeverityMedium {
		t.Errorf("expected severity MEDIUM, got %q", v.Severity)
	}
	if v.GapDays != 1 {
		t.Errorf("expected gap of 1 day, got %d", v.GapDays)
	}
}

func TestCheckTemporalAdjacentPairsOnly(t *testing.T) {
	// Gaps of 10, 10 and 3 days: only the last adjacent pair is flagged,
	// never a non-adjacent combination.
	claims := []ProcedureClaim{
		claim("Appendectomy", "Kenyatta National Hospital", "2025-01-01"),
		claim("Hernia repair", "Kenyatta National Hospital", "2025-01-11"),
		claim("Cataract surgery", "Kenyatta National Hospital", "2025-01-21"),
		claim("Tonsillectomy", "Kenyatta National Hospital", "2025-01-24"),
	}

	violations, err := checkTemporal(claims, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("expected exactly 1 violation, got %d", len(violations))
	}
	if violations[0].GapDays != 3 {
		t.Errorf("expected gap of 3 days, got %d", violations[0].GapDays)
	}
}

func TestCheckTemporalSortsBeforeComparing(t *testing.T) {
	// Out-of-order input still compares chronologically adjacent claims
	claims := []ProcedureClaim{
		claim("Cataract surgery", "Kenyatta National Hospital", "2025-03-01"),
		claim("Appendectomy", "Kenyatta National Hospital", "2025-01-01"),
		claim("Hernia repair", "Kenyatta National Hospital", "2025-01-03"),
	}

	violations, err := checkTemporal(claims, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("expected exactly 1 violation, got %d", len(violations))
	}
	if violations[0].GapDays != 2 {
		t.Errorf("expected gap of 2 days, got %d", violations[0].GapDays)
	}
}

func TestCheckTemporalSingleClaim(t *testing.T) {
	claims := []ProcedureClaim{
		claim("Appendectomy", "Kenyatta National Hospital", "2025-01-01"),
	}

	violations, err := checkTemporal(claims, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(violations) != 0 {
		t.Errorf("single claim must produce no temporal violations, got %d", len(violations))
	}
}

func TestCheckTemporalUnparseableDate(t *testing.T) {
	claims := []ProcedureClaim{
		claim("Appendectomy", "Kenyatta National Hospital", "2025-01-01"),
		claim("Hernia repair", "Kenyatta National Hospital", "not-a-date"),
	}

	_, err := checkTemporal(claims, 7)
	if err == nil {
		t.Fatal("expected a computation error for unparseable date")
	}

	compErr, ok := err.(*ComputationError)
	if !ok {
		t.Fatalf("expected *ComputationError, got %T", err)
	}
	if compErr.Stage != "temporal" {
		t.Errorf("expected stage %q, got %q", "temporal", compErr.Stage)
	}
}

// --- Validation Tests ---

func TestValidateClaim(t *testing.T) {
	valid := ProcedureClaim{Procedure: "Appendectomy", Hospital: "Kenyatta National Hospital", Date: "2025-01-01", Amount: 80000}

	tests := []struct {
		name      string
		mutate    func(c ProcedureClaim) ProcedureClaim
		wantField string
	}{
		{"valid", func(c ProcedureClaim) ProcedureClaim { return c }, ""},
		{"missing procedure", func(c ProcedureClaim) ProcedureClaim { c.Procedure = ""; return c }, "procedure"},
		{"missing hospital", func(c ProcedureClaim) ProcedureClaim { c.Hospital = ""; return c }, "hospital"},
		{"missing date", func(c ProcedureClaim) ProcedureClaim { c.Date = ""; return c }, "date"},
		{"bad date", func(c ProcedureClaim) ProcedureClaim { c.Date = "18/08/2025"; return c }, "date"},
		{"negative amount", func(c ProcedureClaim) ProcedureClaim { c.Amount = -1; return c }, "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateClaim(tt.mutate(valid))
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("expected valid claim, got %v", err)
				}
				return
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, verr.Field)
			}
		})
	}
}
