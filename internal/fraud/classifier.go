package fraud

import "strings"

// classifierRule pairs a predicate over the lowercased procedure name with
// the category it assigns. Rules are evaluated in priority order; the first
// match wins, which resolves ambiguous double-matches deterministically.
type classifierRule struct {
	category ProcedureCategory
	match    func(name string) bool
}

func contains(sub string) func(string) bool {
	return func(name string) bool { return strings.Contains(name, sub) }
}

func allOf(preds ...func(string) bool) func(string) bool {
	return func(name string) bool {
		for _, p := range preds {
			if !p(name) {
				return false
			}
		}
		return true
	}
}

func anyOf(preds ...func(string) bool) func(string) bool {
	return func(name string) bool {
		for _, p := range preds {
			if p(name) {
				return true
			}
		}
		return false
	}
}

// classifierRules is the ordered classification table. A heart procedure is
// only classified when the name also mentions surgery or bypass, so a plain
// "heart transplant" stays uncategorized.
var classifierRules = []classifierRule{
	{CategoryLegAmputation, contains("leg amputation")},
	{CategoryArmAmputation, contains("arm amputation")},
	{CategoryHeartSurgery, allOf(contains("heart"), anyOf(contains("surgery"), contains("bypass")))},
	{CategoryBrainSurgery, allOf(contains("brain"), contains("surgery"))},
	{CategoryKidneyTransplant, contains("kidney transplant")},
	{CategoryLiverTransplant, contains("liver transplant")},
}

// Classify maps a raw procedure description to its anatomical category.
// Matching is case-insensitive; unmatched procedures return CategoryNone.
func Classify(procedure string) ProcedureCategory {
	name := strings.ToLower(procedure)
	for _, rule := range classifierRules {
		if rule.match(name) {
			return rule.category
		}
	}
	return CategoryNone
}
