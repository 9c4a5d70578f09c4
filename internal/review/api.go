package review

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kenya-hie/platform/internal/fraud"
	"github.com/kenya-hie/platform/internal/shared/auth"
	"github.com/kenya-hie/platform/internal/shared/errors"
	"github.com/kenya-hie/platform/internal/shared/events"
	"github.com/kenya-hie/platform/internal/shared/metrics"
	"github.com/kenya-hie/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the case review workflow
type Handler struct {
	repo *Repository
	bus  *events.Bus
}

// NewHandler creates a new review handler
func NewHandler(repo *Repository, bus *events.Bus) *Handler {
	return &Handler{repo: repo, bus: bus}
}

// Routes registers the review routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListCases)
	r.Route("/{caseID}", func(r chi.Router) {
		r.Get("/", h.GetCase)
		r.Post("/review", h.ReviewCase)
	})

	return r
}

// ListCases lists stored fraud cases
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	filter := ListCasesFilter{
		PatientID: r.URL.Query().Get("patient_id"),
	}

	if rl := r.URL.Query().Get("risk_level"); rl != "" {
		level := fraud.RiskLevel(rl)
		filter.RiskLevel = &level
	}
	if rev := r.URL.Query().Get("reviewed"); rev != "" {
		reviewed := rev == "true"
		filter.Reviewed = &reviewed
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		filter.Limit, _ = strconv.Atoi(l)
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		filter.Offset, _ = strconv.Atoi(o)
	}

	cases, err := h.repo.ListCases(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  cases,
		"total": len(cases),
	})
}

// GetCase gets a stored case by ID
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid case ID"))
		return
	}

	c, err := h.repo.GetCase(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// ReviewCase records a reviewer decision on a stored case
func (h *Handler) ReviewCase(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid case ID"))
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if !req.Decision.Valid() {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"decision": "must be one of: approve, flag, investigate",
		}))
		return
	}
	if req.Decision == DecisionInvestigate && req.Notes == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"notes": "notes are required when opening an investigation",
		}))
		return
	}

	reviewer := "anonymous"
	var actorID types.ID
	if user := auth.GetUser(r.Context()); user != nil {
		reviewer = user.ID.String()
		actorID = user.ID
	}

	c, err := h.repo.Review(r.Context(), id, reviewer, req.Decision, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordReviewDecision(string(req.Decision))

	if h.bus != nil {
		event := events.NewEvent("fraud.case.reviewed", "review", map[string]any{
			"case_id":    c.ID,
			"patient_id": c.PatientID,
			"decision":   req.Decision,
			"risk_level": c.RiskLevel,
		}).WithActor(actorID, "reviewer")
		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusOK, c)
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
