package events

import (
	"testing"

	"github.com/kenya-hie/platform/internal/shared/types"
)

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		eventType string
		pattern   string
		expected  bool
	}{
		{"fraud.analysis.completed", "fraud.*", true},
		{"fraud.case.reviewed", "fraud.*", true},
		{"claims.batch.analyzed", "fraud.*", false},
		{"claims.batch.analyzed", "claims.*", true},
		{"fraud.analysis.completed", "*", true},
		{"fraud.analysis.completed", "fraud.analysis.completed", true},
		{"fraud.analysis.completed", "fraud.analysis", false},
		{"fraud", "fraud.*", false},
	}

	for _, tt := range tests {
		t.Run(tt.eventType+"/"+tt.pattern, func(t *testing.T) {
			if got := matchesPattern(tt.eventType, tt.pattern); got != tt.expected {
				t.Errorf("matchesPattern(%q, %q) = %v, want %v",
					tt.eventType, tt.pattern, got, tt.expected)
			}
		})
	}
}

func TestPatternToRegex(t *testing.T) {
	tests := []struct {
		pattern  string
		expected string
	}{
		{"fraud.*", `fraud\..*`},
		{"*", `.*`},
		{"claims.batch.analyzed", `claims\.batch\.analyzed`},
	}

	for _, tt := range tests {
		if got := patternToRegex(tt.pattern); got != tt.expected {
			t.Errorf("patternToRegex(%q) = %q, want %q", tt.pattern, got, tt.expected)
		}
	}
}

func TestNewEventDefaults(t *testing.T) {
	event := NewEvent("fraud.analysis.completed", "fraud", map[string]any{"fraud_score": 0.65})

	if event.ID == "" {
		t.Error("event must get a generated ID")
	}
	if event.Timestamp.IsZero() {
		t.Error("event must get a timestamp")
	}
	if event.Type != "fraud.analysis.completed" || event.Source != "fraud" {
		t.Errorf("unexpected type/source: %s/%s", event.Type, event.Source)
	}

	actorID := types.NewID()
	event = event.WithActor(actorID, "analyst").WithCorrelation("req-123")
	if event.ActorID != actorID || event.ActorType != "analyst" {
		t.Error("WithActor must set actor fields")
	}
	if event.CorrelationID != "req-123" {
		t.Error("WithCorrelation must set the correlation ID")
	}
}
