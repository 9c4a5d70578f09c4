package fraud

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// RuleRapidSuccession identifies implausibly close procedure dates
const RuleRapidSuccession = "temporal.rapid_succession"

type datedClaim struct {
	claim ProcedureClaim
	date  time.Time
}

// checkTemporal sorts claims by date ascending (stable, so same-day claims
// keep input order) and emits one MEDIUM violation per adjacent pair closer
// than minGapDays. Only adjacent pairs are compared; close dates separated
// by an intervening claim are not flagged.
func checkTemporal(claims []ProcedureClaim, minGapDays int) ([]Violation, error) {
	if len(claims) < 2 {
		return nil, nil
	}

	dated := make([]datedClaim, 0, len(claims))
	for _, claim := range claims {
		date, err := claim.ParseDate()
		if err != nil {
			return nil, &ComputationError{Stage: "temporal", Err: err}
		}
		dated = append(dated, datedClaim{claim: claim, date: date})
	}

	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].date.Before(dated[j].date)
	})

	var violations []Violation
	for i := 1; i < len(dated); i++ {
		prev, next := dated[i-1], dated[i]
		gap := int(math.Round(next.date.Sub(prev.date).Hours() / 24))
		if gap >= minGapDays {
			continue
		}

		violations = append(violations, Violation{
			Type:     ViolationTemporal,
			Severity: SeverityMedium,
			Rule:     RuleRapidSuccession,
			GapDays:  gap,
			Dates:    []string{prev.claim.Date, next.claim.Date},
			Description: fmt.Sprintf("Procedures claimed only %d day(s) apart: %s on %s and %s on %s",
				gap, prev.claim.Procedure, prev.claim.Date, next.claim.Procedure, next.claim.Date),
		})
	}

	return violations, nil
}
