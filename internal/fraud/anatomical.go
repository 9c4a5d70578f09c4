package fraud

import "fmt"

// RuleAnatomicalLimit identifies anatomical ceiling violations
const RuleAnatomicalLimit = "anatomical.limit_exceeded"

// checkAnatomical tallies classified claims per category and emits exactly
// one CRITICAL violation for every category whose count exceeds its limit.
// Uncategorized claims and categories absent from the limits table are
// never flagged.
func checkAnatomical(claims []ProcedureClaim, limits AnatomicalLimits) []Violation {
	counts := make(map[ProcedureCategory]int)
	for _, claim := range claims {
		if category := Classify(claim.Procedure); category != CategoryNone {
			counts[category]++
		}
	}

	var violations []Violation
	for _, category := range categoryOrder {
		limit, limited := limits[category]
		if !limited {
			continue
		}
		count := counts[category]
		if count <= limit {
			continue
		}

		violations = append(violations, Violation{
			Type:          ViolationAnatomical,
			Severity:      SeverityCritical,
			Rule:          RuleAnatomicalLimit,
			ProcedureType: category,
			Count:         count,
			Limit:         limit,
			Description: fmt.Sprintf("%d %s procedures exceed human anatomical limit of %d",
				count, category, limit),
		})
	}

	return violations
}
