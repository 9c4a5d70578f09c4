package fraud

// severityWeights are the fixed per-violation score contributions
var severityWeights = map[Severity]float64{
	SeverityCritical: 0.4,
	SeverityHigh:     0.25,
	SeverityMedium:   0.15,
	SeverityLow:      0.05,
}

// aggregateScore sums the severity weight of every violation and clamps the
// result to [0, 1]. Values above 1.0 are truncated, not rescaled: saturation
// is a deliberate property of the scoring design.
func aggregateScore(violations []Violation) float64 {
	var score float64
	for _, v := range violations {
		score += severityWeights[v.Severity]
	}
	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}

// classifyRisk maps a fraud score to its risk tier. Thresholds are inclusive
// at the lower bound of each tier.
func classifyRisk(score float64) RiskLevel {
	switch {
	case score >= 0.8:
		return RiskCritical
	case score >= 0.6:
		return RiskHigh
	case score >= 0.3:
		return RiskMedium
	default:
		return RiskLow
	}
}
