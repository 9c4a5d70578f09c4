package afyacare

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver
	"github.com/google/uuid"
	"github.com/kenya-hie/platform/internal/adapters/hospital"
	"github.com/kenya-hie/platform/internal/fraud"
)

const claimDateLayout = "2006-01-02"

// Adapter implements hospital.Adapter for the AfyaCare HIS. AfyaCare exposes
// claims through a SQL Server database; new claims are picked up by polling.
type Adapter struct {
	db     *sql.DB
	config Config

	claimChan chan hospital.ClaimBatch

	running  bool
	mu       sync.RWMutex
	cancel   context.CancelFunc
	lastPoll time.Time
	wg       sync.WaitGroup
}

// Config holds AfyaCare adapter configuration
type Config struct {
	hospital.Config

	// AfyaCare-specific settings
	ClaimsTable  string `json:"claims_table"`
	PatientTable string `json:"patient_table"`
}

// DefaultAfyaCareConfig returns default AfyaCare configuration
func DefaultAfyaCareConfig() Config {
	return Config{
		Config:       hospital.DefaultConfig(),
		ClaimsTable:  "dbo.NHIFClaims",
		PatientTable: "dbo.Patients",
	}
}

// New creates a new AfyaCare adapter
func New(cfg Config) (*Adapter, error) {
	if cfg.ClaimsTable == "" || cfg.PatientTable == "" {
		return nil, fmt.Errorf("claims and patient tables must be configured")
	}

	return &Adapter{
		config:    cfg,
		claimChan: make(chan hospital.ClaimBatch, cfg.EventBufferSize),
	}, nil
}

// Start initializes the database connection and starts polling
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("adapter already running")
	}

	connStr := fmt.Sprintf("server=%s;port=%d;database=%s;user id=%s;password=%s",
		a.config.Host,
		a.config.Port,
		a.config.Database,
		a.config.User,
		a.config.Password,
	)

	if a.config.SSLMode != "disable" {
		connStr += ";encrypt=true;TrustServerCertificate=true"
	}

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = db
	a.running = true
	a.lastPoll = time.Now().Add(-a.config.PollInterval)

	pollCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	go a.pollLoop(pollCtx)

	return nil
}

// Stop stops the adapter and closes connections
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}

	if a.cancel != nil {
		a.cancel()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	close(a.claimChan)

	if a.db != nil {
		a.db.Close()
	}

	a.running = false
	return nil
}

// Health checks database connectivity
func (a *Adapter) Health(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.running {
		return fmt.Errorf("adapter not running")
	}

	return a.db.PingContext(ctx)
}

// SourceSystem returns the source system name
func (a *Adapter) SourceSystem() string {
	return "afyacare"
}

// SourceHospital returns the facility name
func (a *Adapter) SourceHospital() string {
	return a.config.FacilityName
}

// IsConnected returns connection status
func (a *Adapter) IsConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running && a.db != nil
}

// FetchClaims retrieves claims for a patient within a date range
func (a *Adapter) FetchClaims(ctx context.Context, patientID string, from, to time.Time) ([]fraud.ProcedureClaim, error) {
	if !a.IsConnected() {
		return nil, fmt.Errorf("adapter not connected")
	}

	query := fmt.Sprintf(`
		SELECT
			c.ProcedureName,
			c.ProcedureCode,
			c.HospitalName,
			c.HospitalCode,
			c.ClaimDate,
			c.Amount,
			c.InsuranceProvider,
			p.FullName
		FROM %s c
		INNER JOIN %s p ON c.PatientID = p.PatientID
		WHERE p.NationalID = @patientID
		  AND c.ClaimDate >= @from
		  AND c.ClaimDate <= @to
		ORDER BY c.ClaimDate ASC
	`, a.config.ClaimsTable, a.config.PatientTable)

	rows, err := a.db.QueryContext(ctx, query,
		sql.Named("patientID", patientID),
		sql.Named("from", from),
		sql.Named("to", to),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer rows.Close()

	var claims []fraud.ProcedureClaim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, claim)
	}

	return claims, rows.Err()
}

// SubscribeClaims registers a handler for new claim batches
func (a *Adapter) SubscribeClaims(ctx context.Context, handler hospital.ClaimBatchHandler) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case batch, ok := <-a.claimChan:
				if !ok {
					return
				}
				handler(batch)
			}
		}
	}()
	return nil
}

// pollLoop polls for newly submitted claims
func (a *Adapter) pollLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.mu.Lock()
			lastPoll := a.lastPoll
			a.lastPoll = time.Now()
			a.mu.Unlock()

			if err := a.pollClaims(ctx, lastPoll); err != nil {
				log.Printf("Error polling claims: %v", err)
			}
		}
	}
}

// pollClaims checks for claims submitted since the last poll and emits one
// batch per patient
func (a *Adapter) pollClaims(ctx context.Context, since time.Time) error {
	query := fmt.Sprintf(`
		SELECT
			p.NationalID,
			c.ProcedureName,
			c.ProcedureCode,
			c.HospitalName,
			c.HospitalCode,
			c.ClaimDate,
			c.Amount,
			c.InsuranceProvider,
			p.FullName
		FROM %s c
		INNER JOIN %s p ON c.PatientID = p.PatientID
		WHERE c.SubmittedAt > @since
		ORDER BY p.NationalID, c.ClaimDate ASC
	`, a.config.ClaimsTable, a.config.PatientTable)

	rows, err := a.db.QueryContext(ctx, query, sql.Named("since", since))
	if err != nil {
		return err
	}
	defer rows.Close()

	batches := map[string][]fraud.ProcedureClaim{}
	var order []string

	for rows.Next() {
		var patientID string
		claim, err := scanClaimWithPatient(rows, &patientID)
		if err != nil {
			continue
		}

		if _, ok := batches[patientID]; !ok {
			order = append(order, patientID)
		}
		batches[patientID] = append(batches[patientID], claim)
	}

	now := time.Now().UTC()
	for _, patientID := range order {
		batch := hospital.ClaimBatch{
			BatchID:        uuid.New().String(),
			Timestamp:      now,
			PatientID:      patientID,
			Claims:         batches[patientID],
			SourceSystem:   a.SourceSystem(),
			SourceHospital: a.SourceHospital(),
		}

		select {
		case a.claimChan <- batch:
		default:
			// Channel full, skip batch
		}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (fraud.ProcedureClaim, error) {
	var (
		claim       fraud.ProcedureClaim
		code        sql.NullString
		hospitalID  sql.NullString
		provider    sql.NullString
		patientName sql.NullString
		claimDate   time.Time
		amount      sql.NullFloat64
	)

	err := row.Scan(
		&claim.Procedure,
		&code,
		&claim.Hospital,
		&hospitalID,
		&claimDate,
		&amount,
		&provider,
		&patientName,
	)
	if err != nil {
		return claim, err
	}

	claim.Date = claimDate.Format(claimDateLayout)
	if code.Valid {
		claim.ProcedureCode = code.String
	}
	if hospitalID.Valid {
		claim.HospitalID = hospitalID.String
	}
	if amount.Valid {
		claim.Amount = amount.Float64
	}
	if provider.Valid {
		claim.InsuranceProvider = provider.String
	}
	if patientName.Valid {
		claim.PatientName = patientName.String
	}

	return claim, nil
}

func scanClaimWithPatient(row rowScanner, patientID *string) (fraud.ProcedureClaim, error) {
	var (
		claim       fraud.ProcedureClaim
		code        sql.NullString
		hospitalID  sql.NullString
		provider    sql.NullString
		patientName sql.NullString
		claimDate   time.Time
		amount      sql.NullFloat64
	)

	err := row.Scan(
		patientID,
		&claim.Procedure,
		&code,
		&claim.Hospital,
		&hospitalID,
		&claimDate,
		&amount,
		&provider,
		&patientName,
	)
	if err != nil {
		return claim, err
	}

	claim.Date = claimDate.Format(claimDateLayout)
	if code.Valid {
		claim.ProcedureCode = code.String
	}
	if hospitalID.Valid {
		claim.HospitalID = hospitalID.String
	}
	if amount.Valid {
		claim.Amount = amount.Float64
	}
	if provider.Valid {
		claim.InsuranceProvider = provider.String
	}
	if patientName.Valid {
		claim.PatientName = patientName.String
	}

	return claim, nil
}

// Verify interface implementation
var _ hospital.Adapter = (*Adapter)(nil)
