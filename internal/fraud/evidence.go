package fraud

import (
	"fmt"
	"strings"
)

// explainViolations attaches a plain-language explanation and supporting
// claim excerpts to every violation, for presentation to reviewers. The
// violation list is modified in place.
func explainViolations(violations []Violation, claims []ProcedureClaim) {
	for i := range violations {
		v := &violations[i]
		switch v.Type {
		case ViolationAnatomical:
			explainAnatomical(v, claims)
		case ViolationCrossProvider:
			explainCrossProvider(v, claims)
		case ViolationInsurance:
			explainInsurance(v, claims)
		case ViolationIdentityReuse:
			explainIdentityReuse(v, claims)
		case ViolationTemporal:
			explainTemporal(v, claims)
		}
	}
}

func explainAnatomical(v *Violation, claims []ProcedureClaim) {
	v.Explanation = fmt.Sprintf(
		"This anomaly indicates the patient has claimed more %s procedures (%d) than a human body typically possesses (%d).",
		v.ProcedureType, v.Count, v.Limit)

	for _, claim := range claims {
		if Classify(claim.Procedure) == v.ProcedureType {
			v.Evidence = append(v.Evidence, fmt.Sprintf("%s on %s", claim.Procedure, claim.Date))
		}
	}
}

func explainCrossProvider(v *Violation, claims []ProcedureClaim) {
	v.Explanation = fmt.Sprintf(
		"Claims for this patient were submitted by %d different hospitals, which is implausible for a single course of treatment.",
		len(v.Hospitals))

	v.Evidence = append(v.Evidence, "Hospitals: "+strings.Join(v.Hospitals, ", "))
	for _, claim := range claims {
		v.Evidence = append(v.Evidence,
			fmt.Sprintf("%s at %s on %s", claim.Procedure, claim.Hospital, claim.Date))
	}
}

func explainInsurance(v *Violation, claims []ProcedureClaim) {
	v.Explanation = fmt.Sprintf(
		"Procedures were billed to %d different insurance providers, suggesting duplicate billing across insurers.",
		len(v.Providers))

	v.Evidence = append(v.Evidence, "Providers: "+strings.Join(v.Providers, ", "))
	for _, claim := range claims {
		if claim.InsuranceProvider == "" {
			continue
		}
		v.Evidence = append(v.Evidence,
			fmt.Sprintf("%s billed to %s on %s", claim.Procedure, claim.InsuranceProvider, claim.Date))
	}
}

func explainIdentityReuse(v *Violation, claims []ProcedureClaim) {
	v.Explanation = fmt.Sprintf(
		"The patient name appears with %d different spellings across claims, suggesting the member number is shared or stolen.",
		len(v.Names))

	v.Evidence = append(v.Evidence, "Names: "+strings.Join(v.Names, ", "))
	for _, claim := range claims {
		if claim.PatientName == "" {
			continue
		}
		v.Evidence = append(v.Evidence,
			fmt.Sprintf("%s claimed under %q on %s", claim.Procedure, claim.PatientName, claim.Date))
	}
}

func explainTemporal(v *Violation, claims []ProcedureClaim) {
	v.Explanation = fmt.Sprintf(
		"Procedures were claimed only %d day(s) apart, which is clinically implausible for recovery.",
		v.GapDays)

	for _, date := range v.Dates {
		for _, claim := range claims {
			if claim.Date == date {
				v.Evidence = append(v.Evidence, fmt.Sprintf("%s on %s", claim.Procedure, claim.Date))
			}
		}
	}
}
