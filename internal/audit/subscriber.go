package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kenya-hie/platform/internal/shared/events"
	"github.com/kenya-hie/platform/internal/shared/types"
)

// Subscriber listens to domain events and records audit entries for them
type Subscriber struct {
	repo Repository
	bus  *events.Bus
}

// NewSubscriber creates a new audit subscriber
func NewSubscriber(repo Repository, bus *events.Bus) *Subscriber {
	return &Subscriber{repo: repo, bus: bus}
}

// Start subscribes to the domain event streams
func (s *Subscriber) Start(ctx context.Context) error {
	patterns := []string{
		"fraud.*",
		"claims.*",
		"auth.*",
	}

	for _, pattern := range patterns {
		if err := s.bus.Subscribe(ctx, pattern, s.handleEvent); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", pattern, err)
		}
	}

	return nil
}

// handleEvent converts an incoming event into an audit entry and appends it
func (s *Subscriber) handleEvent(ctx context.Context, event events.Event) error {
	entry := s.eventToEntry(event)
	if entry == nil {
		return nil
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

func (s *Subscriber) eventToEntry(event events.Event) *Entry {
	parts := strings.SplitN(event.Type, ".", 2)
	if len(parts) < 2 {
		return nil
	}

	resourceType := parts[0]

	// Look for common ID field patterns in the event payload
	var resourceID *types.ID
	if data, ok := event.Data.(map[string]any); ok {
		for _, field := range []string{resourceType + "_id", "case_id", "id"} {
			if idVal, ok := data[field]; ok {
				if idStr, ok := idVal.(string); ok {
					if id, err := types.ParseID(idStr); err == nil {
						resourceID = &id
						break
					}
				}
				if id, ok := idVal.(types.ID); ok {
					resourceID = &id
					break
				}
			}
		}
	}

	actorType := ActorTypeSystem
	switch event.ActorType {
	case "analyst":
		actorType = ActorTypeAnalyst
	case "reviewer":
		actorType = ActorTypeReviewer
	case "external":
		actorType = ActorTypeExternal
	}

	// Truncate timestamp to microseconds for deterministic hash verification
	entry := &Entry{
		ID:           types.NewID(),
		Timestamp:    event.Timestamp.UTC().Truncate(time.Microsecond),
		ActorType:    actorType,
		ActorID:      event.ActorID,
		Action:       event.Type,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}

	if data, ok := event.Data.(map[string]any); ok {
		entry.Details = data
	}

	return entry
}
