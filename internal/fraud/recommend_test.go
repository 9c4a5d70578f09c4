package fraud

import "testing"

func TestRecommendTierBlockFirst(t *testing.T) {
	violations := []Violation{{Type: ViolationAnatomical, Severity: SeverityCritical}}

	recs := recommend(0.85, violations)

	if len(recs) != len(recommendationsCritical)+len(violationRecommendations[ViolationAnatomical]) {
		t.Fatalf("unexpected recommendation count: %d (%v)", len(recs), recs)
	}
	for i, msg := range recommendationsCritical {
		if recs[i] != msg {
			t.Errorf("recommendation %d = %q, want tier message %q", i, recs[i], msg)
		}
	}
}

func TestRecommendPerTypeBlockOncePerType(t *testing.T) {
	// Two temporal violations must contribute the temporal block only once
	violations := []Violation{
		{Type: ViolationTemporal, Severity: SeverityMedium},
		{Type: ViolationTemporal, Severity: SeverityMedium},
	}

	recs := recommend(0.3, violations)

	want := len(recommendationsMedium) + len(violationRecommendations[ViolationTemporal])
	if len(recs) != want {
		t.Errorf("expected %d recommendations, got %d (%v)", want, len(recs), recs)
	}
}

func TestRecommendTypeBlocksFollowViolationOrder(t *testing.T) {
	violations := []Violation{
		{Type: ViolationIdentityReuse, Severity: SeverityHigh},
		{Type: ViolationAnatomical, Severity: SeverityCritical},
	}

	recs := recommend(0.65, violations)

	// Tier block, then identity block, then anatomical block
	idx := len(recommendationsHigh)
	if recs[idx] != violationRecommendations[ViolationIdentityReuse][0] {
		t.Errorf("expected identity guidance first after tier block, got %q", recs[idx])
	}

	idx += len(violationRecommendations[ViolationIdentityReuse])
	if recs[idx] != violationRecommendations[ViolationAnatomical][0] {
		t.Errorf("expected anatomical guidance next, got %q", recs[idx])
	}
}

func TestRecommendLowScoreNoTierBlock(t *testing.T) {
	recs := recommend(0.1, nil)
	if len(recs) != 0 {
		t.Errorf("expected no recommendations for a clean low-score case, got %v", recs)
	}
}

func TestOrderedSetDedupKeepsFirstSeen(t *testing.T) {
	set := newOrderedSet()
	set.add("a", "Alpha")
	set.add("b", "Bravo")
	set.add("a", "ALPHA") // duplicate key, later spelling discarded

	values := set.values()
	if len(values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(values))
	}
	if values[0] != "Alpha" || values[1] != "Bravo" {
		t.Errorf("expected first-seen order and spelling, got %v", values)
	}
}
