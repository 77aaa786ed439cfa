package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/analysis"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/industry"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/persona"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/repository"
)

// ListRiskCodes returns the loaded risk rules in evaluation order.
func (h *Handler) ListRiskCodes(w http.ResponseWriter, r *http.Request) {
	defs := h.analyzer.Evaluator().RuleSet().Rules()
	writeJSON(w, http.StatusOK, map[string]any{
		"rules": defs,
		"count": len(defs),
	})
}

// EvaluateRisksRequest is the request body for POST /risks/evaluate.
type EvaluateRisksRequest struct {
	Metrics  domain.Metrics     `json:"metrics"`
	Industry domain.Industry    `json:"industry"`
	Extra    map[string]float64 `json:"extra,omitempty"`
}

// EvaluateRisks scores precomputed metrics without a report.
func (h *Handler) EvaluateRisks(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRisksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	key := industry.Key(domain.Industry(strings.ToUpper(string(req.Industry))))
	averages := h.analyzer.Industries().Lookup(key)

	assessment := h.analyzer.Evaluator().EvaluateExtra(req.Metrics, averages, req.Extra)
	writeJSON(w, http.StatusOK, map[string]any{
		"assessment": assessment,
		"averages":   averages,
	})
}

// ListPersonas returns the active persona library.
func (h *Handler) ListPersonas(w http.ResponseWriter, r *http.Request) {
	templates := h.analyzer.Matcher().Library().Templates()
	writeJSON(w, http.StatusOK, map[string]any{
		"personas": templates,
		"count":    len(templates),
	})
}

// GetPersona returns one template from the active library.
func (h *Handler) GetPersona(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	t, ok := h.analyzer.Matcher().Library().Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "persona not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// CreatePersona stores a template. It takes effect after POST /personas/reload.
func (h *Handler) CreatePersona(w http.ResponseWriter, r *http.Request) {
	var t domain.PersonaTemplate
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if err := persona.Validate(t); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "repository not available")
		return
	}

	if err := h.repo.SavePersonaTemplate(r.Context(), analysis.ReferenceTenantID, &t); err != nil {
		slog.Error("failed to save persona template", "name", t.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save persona")
		return
	}

	slog.Info("persona template saved", "name", t.Name)
	writeJSON(w, http.StatusCreated, map[string]any{
		"persona": t,
		"message": "Persona saved. Call POST /personas/reload to apply changes.",
	})
}

// DeletePersona removes a stored template and reloads the library.
// Built-in templates cannot be deleted.
func (h *Handler) DeletePersona(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "repository not available")
		return
	}

	if err := h.repo.DeletePersonaTemplate(ctx, analysis.ReferenceTenantID, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "stored persona not found")
			return
		}
		slog.Error("failed to delete persona template", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete persona")
		return
	}

	count, err := h.analyzer.ReloadPersonas(ctx, h.repo)
	if err != nil {
		slog.Error("failed to reload personas after delete", "error", err)
	} else {
		slog.Info("personas auto-reloaded after delete", "count", count)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Persona deleted and library reloaded.",
		"count":   count,
	})
}

// ReloadPersonas rebuilds the library from built-ins plus stored templates.
func (h *Handler) ReloadPersonas(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "repository not available")
		return
	}

	count, err := h.analyzer.ReloadPersonas(r.Context(), h.repo)
	if err != nil {
		slog.Error("failed to reload personas", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reload personas: "+err.Error())
		return
	}

	slog.Info("personas reloaded", "count", count)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "personas reloaded successfully",
		"count":   count,
	})
}

// MatchPersona matches caller-supplied components against the library.
func (h *Handler) MatchPersona(w http.ResponseWriter, r *http.Request) {
	var c domain.PersonaComponents
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	writeJSON(w, http.StatusOK, h.analyzer.Matcher().Match(c))
}

// ListIndustries returns the active industry averages.
func (h *Handler) ListIndustries(w http.ResponseWriter, r *http.Request) {
	rows := h.analyzer.Industries().All()
	writeJSON(w, http.StatusOK, map[string]any{
		"industries": rows,
		"count":      len(rows),
	})
}

// PutIndustry stores averages for one industry and reloads the table.
func (h *Handler) PutIndustry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var avg domain.IndustryAverages
	if err := json.NewDecoder(r.Body).Decode(&avg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if strings.TrimSpace(avg.Industry) == "" {
		writeError(w, http.StatusBadRequest, "industry is required")
		return
	}
	if avg.RevisitRate < 0 || avg.DeliveryRatio < 0 || avg.CancellationRate < 0 || avg.MarketFitScore < 0 {
		writeError(w, http.StatusBadRequest, "averages must not be negative")
		return
	}
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "repository not available")
		return
	}

	if err := h.repo.SaveIndustryAverages(ctx, analysis.ReferenceTenantID, &avg); err != nil {
		slog.Error("failed to save industry averages", "industry", avg.Industry, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save industry averages")
		return
	}

	count, err := h.analyzer.ReloadIndustries(ctx, h.repo)
	if err != nil {
		slog.Error("failed to reload industries", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reload industries")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"industry": h.analyzer.Industries().Lookup(avg.Industry),
		"count":    count,
	})
}

// ReloadIndustries rebuilds the averages table from built-ins plus stored rows.
func (h *Handler) ReloadIndustries(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "repository not available")
		return
	}

	count, err := h.analyzer.ReloadIndustries(r.Context(), h.repo)
	if err != nil {
		slog.Error("failed to reload industries", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reload industries")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "industries reloaded successfully",
		"count":   count,
	})
}
