package fraud

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kenya-hie/platform/internal/shared/auth"
	"github.com/kenya-hie/platform/internal/shared/errors"
	"github.com/kenya-hie/platform/internal/shared/events"
	"github.com/kenya-hie/platform/internal/shared/metrics"
	"github.com/kenya-hie/platform/internal/shared/types"
)

// Handler provides HTTP handlers for fraud analysis
type Handler struct {
	engine          *Engine
	repo            *Repository
	bus             *events.Bus
	minScoreToStore float64
}

// NewHandler creates a new fraud handler. repo and bus may be nil when the
// platform runs without persistence or event streaming.
func NewHandler(engine *Engine, repo *Repository, bus *events.Bus, minScoreToStore float64) *Handler {
	return &Handler{engine: engine, repo: repo, bus: bus, minScoreToStore: minScoreToStore}
}

// Routes registers the fraud analysis routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/analyze", h.Analyze)
	r.Get("/alerts/high-risk", h.HighRiskAlerts)
	r.Get("/config/limits", h.AnatomicalLimits)

	return r
}

// AnalyzeResponse wraps the analysis result with the stored case reference
type AnalyzeResponse struct {
	*FraudAnalysisResult
	CaseID types.ID `json:"case_id,omitempty"`
}

// Analyze validates a case bundle, runs the rule engine and persists the
// result when the score crosses the storage threshold.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var bundle CaseBundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if bundle.PatientID == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"patient_id": "patient_id is required",
		}))
		return
	}
	if len(bundle.Claims) == 0 {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"procedures": "at least one procedure claim is required",
		}))
		return
	}

	// Malformed claims never reach the engine
	for i, claim := range bundle.Claims {
		if err := ValidateClaim(claim); err != nil {
			verr := err.(*ValidationError)
			writeError(w, errors.Validation("validation failed", map[string]string{
				fmt.Sprintf("procedures[%d].%s", i, verr.Field): verr.Reason,
			}))
			return
		}
	}

	result, err := h.engine.Analyze(bundle.PatientID, bundle.Claims)
	if err != nil {
		writeError(w, errors.Unprocessable("fraud analysis failed", err))
		return
	}

	metrics.RecordAnalysis(string(result.RiskLevel), result.FraudScore)
	for _, v := range result.Violations {
		metrics.RecordViolation(string(v.Type), string(v.Severity))
	}

	resp := AnalyzeResponse{FraudAnalysisResult: result}
	if h.repo != nil && result.FraudScore > h.minScoreToStore {
		caseID, err := h.repo.StoreResult(r.Context(), result)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.CaseID = caseID
	}

	if h.bus != nil {
		event := events.NewEvent("fraud.analysis.completed", "fraud", map[string]any{
			"patient_id":      result.PatientID,
			"fraud_score":     result.FraudScore,
			"risk_level":      result.RiskLevel,
			"violation_count": len(result.Violations),
			"case_id":         resp.CaseID,
		})
		if user := auth.GetUser(r.Context()); user != nil {
			event = event.WithActor(user.ID, user.UserType)
		}
		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusOK, resp)
}

// HighRiskAlerts lists stored unreviewed HIGH and CRITICAL cases
func (h *Handler) HighRiskAlerts(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, errors.BadRequest("case storage is not configured"))
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, _ = strconv.Atoi(l)
	}

	alerts, err := h.repo.ListHighRiskAlerts(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	critical := 0
	for _, a := range alerts {
		if a.RiskLevel == RiskCritical {
			critical++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"high_risk_alerts": alerts,
		"summary": map[string]any{
			"total_alerts":    len(alerts),
			"critical_alerts": critical,
			"high_alerts":     len(alerts) - critical,
		},
	})
}

// AnatomicalLimits exposes the active anatomical limits table
func (h *Handler) AnatomicalLimits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"anatomical_limits": h.engine.Limits(),
	})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
