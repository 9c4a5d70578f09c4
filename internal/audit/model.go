package audit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/kenya-hie/platform/internal/shared/types"
)

// canonicalJSON produces deterministic JSON output with sorted map keys.
// Hash verification depends on it: Go maps iterate in random order, so the
// hash input must be re-encoded with a fixed key order.
func canonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}

	return canonicalMarshal(parsed)
}

func canonicalMarshal(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyBytes, _ := json.Marshal(k)
			buf.Write(keyBytes)
			buf.WriteByte(':')
			valBytes, err := canonicalMarshal(val[k])
			if err != nil {
				return nil, err
			}
			buf.Write(valBytes)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil

	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			itemBytes, err := canonicalMarshal(item)
			if err != nil {
				return nil, err
			}
			buf.Write(itemBytes)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil

	default:
		return json.Marshal(val)
	}
}

// ActorType defines the type of actor
type ActorType string

const (
	ActorTypeAnalyst  ActorType = "analyst"
	ActorTypeReviewer ActorType = "reviewer"
	ActorTypeSystem   ActorType = "system"
	ActorTypeExternal ActorType = "external"
)

// Entry represents an immutable, hash-chained audit log record
type Entry struct {
	ID        types.ID  `json:"id"`
	Sequence  int64     `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	Hash      string    `json:"hash"`
	PrevHash  string    `json:"prev_hash,omitempty"`

	// Actor
	ActorType     ActorType `json:"actor_type"`
	ActorID       types.ID  `json:"actor_id"`
	ActorFacility string    `json:"actor_facility,omitempty"`
	ActorIP       string    `json:"actor_ip,omitempty"`

	// Action
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   *types.ID `json:"resource_id,omitempty"`

	// Outcome details
	Details map[string]any `json:"details,omitempty"`
}

// NewEntry creates a new audit entry with its hash computed
func NewEntry(
	actorType ActorType,
	actorID types.ID,
	action, resourceType string,
	resourceID *types.ID,
	details map[string]any,
	prevHash string,
) *Entry {
	entry := &Entry{
		ID:           types.NewID(),
		Timestamp:    time.Now().UTC().Truncate(time.Microsecond),
		PrevHash:     prevHash,
		ActorType:    actorType,
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
	}

	entry.Hash = entry.calculateHash()
	return entry
}

// calculateHash computes the SHA-256 hash of the entry over canonical JSON.
// Timestamps are always hashed in UTC so verification is timezone-neutral.
func (e *Entry) calculateHash() string {
	data := map[string]any{
		"id":            e.ID,
		"timestamp":     e.Timestamp.UTC().Format(time.RFC3339Nano),
		"prev_hash":     e.PrevHash,
		"actor_type":    e.ActorType,
		"actor_id":      e.ActorID,
		"action":        e.Action,
		"resource_type": e.ResourceType,
	}

	if e.ActorFacility != "" {
		data["actor_facility"] = e.ActorFacility
	}
	if e.ResourceID != nil {
		data["resource_id"] = e.ResourceID
	}
	if len(e.Details) > 0 {
		data["details"] = e.Details
	}

	jsonData, _ := canonicalJSON(data)
	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:])
}

// VerifyHash verifies the entry's own hash
func (e *Entry) VerifyHash() bool {
	return e.Hash == e.calculateHash()
}

// WithRequest adds request origin information to the entry
func (e *Entry) WithRequest(ip string) *Entry {
	e.ActorIP = ip
	return e
}

// ListEntriesFilter defines filters for listing audit entries
type ListEntriesFilter struct {
	ActorID      *types.ID  `json:"actor_id,omitempty"`
	ActorType    *ActorType `json:"actor_type,omitempty"`
	Action       string     `json:"action,omitempty"`
	ResourceType string     `json:"resource_type,omitempty"`
	ResourceID   *types.ID  `json:"resource_id,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Limit        int        `json:"limit,omitempty"`
	Offset       int        `json:"offset,omitempty"`
}

// VerifyResult reports the outcome of an audit chain verification
type VerifyResult struct {
	Valid        bool     `json:"valid"`
	CheckedCount int      `json:"checked_count"`
	BrokenAt     *int64   `json:"broken_at,omitempty"`
	Problems     []string `json:"problems,omitempty"`
}

// Audit actions recorded by the platform
const (
	// Authentication
	ActionLogin       = "auth.login"
	ActionLoginFailed = "auth.login_failed"

	// Fraud analysis
	ActionAnalysisCompleted = "fraud.analysis_completed"
	ActionAnalysisFailed    = "fraud.analysis_failed"
	ActionAlertsViewed      = "fraud.alerts_viewed"

	// Review workflow
	ActionCaseViewed   = "case.viewed"
	ActionCaseReviewed = "case.reviewed"

	// Claims ingestion
	ActionClaimsImported = "claims.imported"
)
