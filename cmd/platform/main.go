package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kenya-hie/platform/internal/adapters/hospital"
	"github.com/kenya-hie/platform/internal/adapters/hospital/afyacare"
	"github.com/kenya-hie/platform/internal/audit"
	"github.com/kenya-hie/platform/internal/fraud"
	"github.com/kenya-hie/platform/internal/review"
	"github.com/kenya-hie/platform/internal/shared/auth"
	"github.com/kenya-hie/platform/internal/shared/config"
	"github.com/kenya-hie/platform/internal/shared/database"
	"github.com/kenya-hie/platform/internal/shared/events"
	"github.com/kenya-hie/platform/internal/shared/metrics"
	secmiddleware "github.com/kenya-hie/platform/internal/shared/middleware"
)

// App holds all application dependencies
type App struct {
	Config  *config.Config
	DB      *database.DB
	Bus     *events.Bus
	Engine  *fraud.Engine
	Adapter hospital.Adapter
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	app := &App{Config: cfg}

	// Initialize database (optional - skip if not available)
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		fmt.Printf("Warning: Database not available: %v\n", err)
		fmt.Println("Running in limited mode without case storage...")
	} else {
		app.DB = db
		defer db.Close()

		if err := database.Migrate(ctx, db.Pool); err != nil {
			fmt.Printf("Warning: Migration failed: %v\n", err)
		}
	}

	// Initialize event bus with KurrentDB (optional - skip if not available)
	bus, err := events.NewBus(ctx, cfg.KurrentDB)
	if err != nil {
		fmt.Printf("Warning: KurrentDB not available: %v\n", err)
		fmt.Println("Running without event streaming...")
	} else {
		app.Bus = bus
		defer bus.Close()
		fmt.Println("KurrentDB Event Bus initialized")
	}

	// Rule engine: built-in anatomical limits plus per-deployment overrides
	limits := fraud.DefaultAnatomicalLimits()
	for category, limit := range config.LimitOverrides() {
		limits[fraud.ProcedureCategory(category)] = limit
	}
	app.Engine = fraud.NewEngine(fraud.Config{
		Limits:          limits,
		MinGapDays:      cfg.Fraud.MinGapDays,
		MaxHospitals:    cfg.Fraud.MaxHospitals,
		MaxInsurers:     cfg.Fraud.MaxInsurers,
		MaxNameVariants: cfg.Fraud.MaxNameVariants,
	})

	var fraudRepo *fraud.Repository
	if app.DB != nil {
		fraudRepo = fraud.NewRepository(app.DB.Pool)
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware)

	if cfg.Server.RateLimitRPS > 0 {
		r.Use(secmiddleware.RateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	}

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler(app))
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	// API info
	r.Get("/", infoHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes in dev mode; JWT required in production
		if cfg.Server.Env == "production" {
			r.Use(auth.Middleware(cfg.Auth))
		}

		// Fraud analysis module
		fraudHandler := fraud.NewHandler(app.Engine, fraudRepo, app.Bus, cfg.Fraud.MinScoreToStore)
		r.Mount("/fraud", fraudHandler.Routes())

		// Review workflow module
		if app.DB != nil {
			reviewRepo := review.NewRepository(app.DB.Pool)
			reviewHandler := review.NewHandler(reviewRepo, app.Bus)
			r.Mount("/cases", reviewHandler.Routes())
		}

		// Audit module - uses KurrentDB (append-only event store)
		var auditRepo audit.Repository
		if app.Bus != nil {
			auditRepo = audit.NewKurrentDBRepository(app.Bus.Client())
		} else {
			auditRepo = audit.NewMemoryRepository()
		}
		if err := auditRepo.Initialize(ctx); err != nil {
			fmt.Printf("Warning: Audit initialization failed: %v\n", err)
		}
		auditHandler := audit.NewHandler(auditRepo)
		r.Mount("/audit", auditHandler.Routes())

		if app.Bus != nil {
			auditSubscriber := audit.NewSubscriber(auditRepo, app.Bus)
			if err := auditSubscriber.Start(ctx); err != nil {
				fmt.Printf("Warning: Audit subscriber failed to start: %v\n", err)
			} else {
				fmt.Println("Audit subscriber started (KurrentDB)")
			}
		}
	})

	// HIS claims feed (optional)
	if cfg.HIS.Enabled {
		adapter, err := startHISAdapter(ctx, app, cfg.HIS, fraudRepo)
		if err != nil {
			fmt.Printf("Warning: HIS adapter failed to start: %v\n", err)
		} else {
			app.Adapter = adapter
			fmt.Printf("AfyaCare claims adapter started (%s)\n", cfg.HIS.SourceHospital)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		fmt.Println("\nShutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if app.Adapter != nil {
			if err := app.Adapter.Stop(ctx); err != nil {
				fmt.Printf("HIS adapter shutdown error: %v\n", err)
			}
		}

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Server shutdown error: %v\n", err)
		}
		close(done)
	}()

	fmt.Println("============================================")
	fmt.Println("Kenya Health Insurance Exchange Platform")
	fmt.Println("============================================")
	fmt.Printf("Environment:  %s\n", cfg.Server.Env)
	fmt.Printf("Server:       http://localhost:%d\n", cfg.Server.Port)
	fmt.Printf("API:          http://localhost:%d/api/v1\n", cfg.Server.Port)
	fmt.Printf("Health:       http://localhost:%d/health\n", cfg.Server.Port)
	fmt.Printf("KurrentDB:    %s:%d\n", cfg.KurrentDB.Host, cfg.KurrentDB.Port)
	fmt.Printf("HIS Adapter:  %v\n", cfg.HIS.Enabled)
	fmt.Println("============================================")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	<-done
	fmt.Println("Server stopped")
}

// startHISAdapter connects the AfyaCare polling adapter and consumes its
// claim batches: every batch is persisted and immediately analyzed, and
// high-signal results are published to the event bus.
func startHISAdapter(ctx context.Context, app *App, cfg config.HISConfig, repo *fraud.Repository) (hospital.Adapter, error) {
	adapterCfg := afyacare.DefaultAfyaCareConfig()
	adapterCfg.Host = cfg.Host
	adapterCfg.Port = cfg.Port
	adapterCfg.User = cfg.User
	adapterCfg.Password = cfg.Password
	adapterCfg.Database = cfg.Database
	adapterCfg.SSLMode = cfg.SSLMode
	adapterCfg.FacilityName = cfg.SourceHospital
	adapterCfg.PollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second

	adapter, err := afyacare.New(adapterCfg)
	if err != nil {
		return nil, err
	}

	if err := adapter.Start(ctx); err != nil {
		return nil, err
	}

	err = adapter.SubscribeClaims(ctx, func(batch hospital.ClaimBatch) {
		if repo != nil {
			if err := repo.InsertClaims(ctx, batch.PatientID, batch.SourceSystem, batch.Claims); err != nil {
				fmt.Printf("Warning: failed to store imported claims: %v\n", err)
			} else {
				metrics.RecordClaimsImported(batch.SourceSystem, len(batch.Claims))
			}
		}

		// Analyze the patient's full claim history, not just this batch
		claims := batch.Claims
		if repo != nil {
			if history, err := repo.ClaimsByPatient(ctx, batch.PatientID); err == nil && len(history) > 0 {
				claims = history
			}
		}

		result, err := app.Engine.Analyze(batch.PatientID, claims)
		if err != nil {
			fmt.Printf("Warning: analysis of imported claims failed: %v\n", err)
			return
		}

		metrics.RecordAnalysis(string(result.RiskLevel), result.FraudScore)

		if repo != nil && result.FraudScore > app.Config.Fraud.MinScoreToStore {
			if _, err := repo.StoreResult(ctx, result); err != nil {
				fmt.Printf("Warning: failed to store analysis result: %v\n", err)
			}
		}

		if app.Bus != nil {
			event := events.NewEvent("claims.batch.analyzed", "adapter", map[string]any{
				"patient_id":  result.PatientID,
				"source":      batch.SourceSystem,
				"hospital":    batch.SourceHospital,
				"claim_count": len(batch.Claims),
				"fraud_score": result.FraudScore,
				"risk_level":  result.RiskLevel,
			})
			app.Bus.Publish(ctx, event)
		}
	})
	if err != nil {
		adapter.Stop(ctx)
		return nil, err
	}

	return adapter, nil
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "Kenya Health Insurance Exchange Platform",
		"version": "0.1.0",
		"status":  "MVP Development",
		"docs":    "/api/v1",
	})
}

func healthHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
		})
	}
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if app.DB != nil {
			if err := app.DB.Health(r.Context()); err != nil {
				checks["database"] = "not ready: " + err.Error()
			} else {
				checks["database"] = "ready"
			}
		} else {
			checks["database"] = "not configured"
		}

		if app.Bus != nil {
			if err := app.Bus.Health(); err != nil {
				checks["kurrentdb"] = "not ready: " + err.Error()
			} else {
				checks["kurrentdb"] = "ready"
			}
		} else {
			checks["kurrentdb"] = "not configured"
		}

		if app.Adapter != nil {
			if err := app.Adapter.Health(r.Context()); err != nil {
				checks["his_adapter"] = "not ready: " + err.Error()
			} else {
				checks["his_adapter"] = "ready"
			}
		} else {
			checks["his_adapter"] = "not configured"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" && status != "not configured" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
