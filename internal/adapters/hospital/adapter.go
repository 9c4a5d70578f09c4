package hospital

import (
	"context"
	"time"

	"github.com/kenya-hie/platform/internal/fraud"
)

// Adapter defines the interface for hospital information system adapters.
// Implementations connect to specific HIS systems (AfyaCare, Afyapro, etc.)
// and provide a unified claims feed for the platform.
type Adapter interface {
	// Claims retrieval
	FetchClaims(ctx context.Context, patientID string, from, to time.Time) ([]fraud.ProcedureClaim, error)

	// Real-time claim batch subscription
	SubscribeClaims(ctx context.Context, handler ClaimBatchHandler) error

	// Adapter metadata
	SourceSystem() string
	SourceHospital() string
	IsConnected() bool

	// Lifecycle
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) error
}

// ClaimBatchHandler is called when a batch of new claims is detected
type ClaimBatchHandler func(batch ClaimBatch)

// ClaimBatch groups newly observed claims for a single patient
type ClaimBatch struct {
	BatchID        string                 `json:"batch_id"`
	Timestamp      time.Time              `json:"timestamp"`
	PatientID      string                 `json:"patient_id"`
	Claims         []fraud.ProcedureClaim `json:"claims"`
	SourceSystem   string                 `json:"source_system"`
	SourceHospital string                 `json:"source_hospital"`
}

// Config holds common configuration for hospital adapters
type Config struct {
	// Database connection
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"ssl_mode"`

	// Facility info
	FacilityCode string `json:"facility_code"`
	FacilityName string `json:"facility_name"`

	// Polling configuration
	PollInterval  time.Duration `json:"poll_interval"`
	BatchSize     int           `json:"batch_size"`
	RetryAttempts int           `json:"retry_attempts"`
	RetryDelay    time.Duration `json:"retry_delay"`

	// Event publishing
	EventBufferSize int `json:"event_buffer_size"`
}

// DefaultConfig returns default adapter configuration
func DefaultConfig() Config {
	return Config{
		Port:            1433, // SQL Server default
		SSLMode:         "disable",
		PollInterval:    30 * time.Second,
		BatchSize:       100,
		RetryAttempts:   3,
		RetryDelay:      5 * time.Second,
		EventBufferSize: 1000,
	}
}
