package fraud

import (
	"fmt"
	"strings"
)

// Cross-provider rule identifiers
const (
	RuleMultipleHospitals = "pattern.multiple_hospitals"
	RuleMultipleInsurers  = "pattern.multiple_insurers"
	RuleNameVariants      = "pattern.name_variants"
)

// crossProviderThresholds are the highest distinct-value counts that are
// still considered plausible for one legitimate patient.
type crossProviderThresholds struct {
	maxHospitals    int
	maxInsurers     int
	maxNameVariants int
}

// checkCrossProvider builds the distinct hospital, insurer and patient-name
// sets over the claim list and emits one HIGH violation per exceeded
// threshold. The three conditions are independent; zero to three violations
// may fire together. Empty optional fields never count as a distinct value.
func checkCrossProvider(claims []ProcedureClaim, t crossProviderThresholds) []Violation {
	hospitals := newOrderedSet()
	providers := newOrderedSet()
	names := newOrderedSet()

	for _, claim := range claims {
		if h := strings.TrimSpace(claim.Hospital); h != "" {
			hospitals.add(h, h)
		}
		if p := strings.TrimSpace(claim.InsuranceProvider); p != "" {
			providers.add(p, p)
		}
		if n := strings.TrimSpace(claim.PatientName); n != "" {
			// Name variants are compared case-insensitively but reported
			// with their original spelling.
			names.add(strings.ToLower(n), n)
		}
	}

	var violations []Violation

	if hospitals.len() > t.maxHospitals {
		violations = append(violations, Violation{
			Type:      ViolationCrossProvider,
			Severity:  SeverityHigh,
			Rule:      RuleMultipleHospitals,
			Hospitals: hospitals.values(),
			Description: fmt.Sprintf("Claims submitted across %d different hospitals",
				hospitals.len()),
		})
	}

	if providers.len() > t.maxInsurers {
		violations = append(violations, Violation{
			Type:      ViolationInsurance,
			Severity:  SeverityHigh,
			Rule:      RuleMultipleInsurers,
			Providers: providers.values(),
			Description: fmt.Sprintf("Claims billed to %d different insurance providers",
				providers.len()),
		})
	}

	if names.len() > t.maxNameVariants {
		violations = append(violations, Violation{
			Type:     ViolationIdentityReuse,
			Severity: SeverityHigh,
			Rule:     RuleNameVariants,
			Names:    names.values(),
			Description: fmt.Sprintf("Patient name appears in %d different variants across claims",
				names.len()),
		})
	}

	return violations
}

// distinctHospitals counts the distinct hospital names in a claim list
func distinctHospitals(claims []ProcedureClaim) int {
	hospitals := newOrderedSet()
	for _, claim := range claims {
		if h := strings.TrimSpace(claim.Hospital); h != "" {
			hospitals.add(h, h)
		}
	}
	return hospitals.len()
}
