package fraud

// Score-tier guidance, highest tier first. Exactly one block applies.
var (
	recommendationsCritical = []string{
		"Immediately suspend claim payments pending investigation",
		"Escalate case to the NHIF fraud investigation unit",
		"Freeze provider reimbursements for the implicated facilities",
	}
	recommendationsHigh = []string{
		"Flag case for manual review by a senior claims officer",
		"Request supporting clinical documentation from the hospitals",
	}
	recommendationsMedium = []string{
		"Monitor future claims under this member number",
	}
)

// Per-violation-type guidance, appended once per type present in the result.
var violationRecommendations = map[ViolationType][]string{
	ViolationAnatomical: {
		"Verify procedure records against hospital theatre registers",
		"Audit the claimed procedure history with the treating clinicians",
	},
	ViolationCrossProvider: {
		"Cross-check patient visits with hospital admission records",
	},
	ViolationInsurance: {
		"Reconcile coverage with all listed insurance providers",
	},
	ViolationIdentityReuse: {
		"Confirm patient identity against the national registry",
		"Check for a shared or stolen NHIF member number",
	},
	ViolationTemporal: {
		"Review clinical plausibility of the procedure timeline",
	},
}

// recommend produces the ordered, deduplicated remediation list: the
// score-tier block first, then one type-specific block per violation type in
// violation order. Deduplication preserves first-seen order.
func recommend(score float64, violations []Violation) []string {
	out := newOrderedSet()

	var tier []string
	switch {
	case score >= 0.8:
		tier = recommendationsCritical
	case score >= 0.6:
		tier = recommendationsHigh
	case score >= 0.3:
		tier = recommendationsMedium
	}
	for _, msg := range tier {
		out.add(msg, msg)
	}

	seenTypes := make(map[ViolationType]bool)
	for _, v := range violations {
		if seenTypes[v.Type] {
			continue
		}
		seenTypes[v.Type] = true
		for _, msg := range violationRecommendations[v.Type] {
			out.add(msg, msg)
		}
	}

	return out.values()
}
