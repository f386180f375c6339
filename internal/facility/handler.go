package facility

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/opencourt/receptionist/internal/http/middleware"
	"github.com/opencourt/receptionist/internal/schedule"
	"github.com/opencourt/receptionist/pkg/logging"
)

// Handler exposes admin endpoints for facility management.
type Handler struct {
	repo   *Repository
	cache  *Cache
	logger *logging.Logger
}

// NewHandler creates a facility admin handler. cache may be nil.
func NewHandler(repo *Repository, cache *Cache, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, cache: cache, logger: logger}
}

// CreateFacilityRequest is the payload for POST /admin/facilities.
type CreateFacilityRequest struct {
	Name        string              `json:"name"`
	Timezone    string              `json:"timezone"`
	PhoneNumber string              `json:"phone_number"`
	OpenHours   map[string][]string `json:"open_hours,omitempty"`
	SlotMinutes int                 `json:"slot_minutes,omitempty"`
}

// CreateFacility handles POST /admin/facilities. When opening hours are
// supplied the config is written in the same request.
func (h *Handler) CreateFacility(w http.ResponseWriter, r *http.Request) {
	var req CreateFacilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Timezone == "" || req.PhoneNumber == "" {
		http.Error(w, "name, timezone and phone_number are required", http.StatusBadRequest)
		return
	}

	// Validate the inline config up front so a bad payload never leaves a
	// facility row behind without a usable configuration.
	var cfg *Config
	if req.SlotMinutes > 0 || len(req.OpenHours) > 0 {
		cfg = &Config{OpenHours: req.OpenHours, SlotMinutes: req.SlotMinutes}
		if err := cfg.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	fac, err := h.repo.Create(r.Context(), req.Name, req.Timezone, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, ErrInvalidTimezone) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("create facility failed", "error", err)
		http.Error(w, "failed to create facility", http.StatusInternalServerError)
		return
	}

	out := WithConfig{Facility: *fac}
	if cfg != nil {
		cfg.FacilityID = fac.ID
		if err := h.repo.UpsertConfig(r.Context(), cfg); err != nil {
			if errors.Is(err, schedule.ErrInvalidRange) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			h.logger.Error("write facility config failed", "error", err, "facility_id", fac.ID)
			http.Error(w, "failed to save config", http.StatusInternalServerError)
			return
		}
		out.Config = *cfg
	}

	admin, _ := httpmiddleware.AdminSubject(r.Context())
	h.logger.Info("facility created", "facility_id", fac.ID, "name", fac.Name, "admin", admin)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(out)
}

// GetConfig handles GET /admin/facilities/{facilityID}/config.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "facilityID"))
	if err != nil {
		http.Error(w, "invalid facility id", http.StatusBadRequest)
		return
	}

	out, err := h.reader().GetWithConfig(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrConfigMissing):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error("load facility config failed", "error", err, "facility_id", id)
			http.Error(w, "failed to load config", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// UpdateConfigRequest is the payload for PUT /admin/facilities/{id}/config.
type UpdateConfigRequest struct {
	OpenHours   map[string][]string `json:"open_hours"`
	SlotMinutes int                 `json:"slot_minutes"`
}

// UpdateConfig handles PUT /admin/facilities/{facilityID}/config.
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "facilityID"))
	if err != nil {
		http.Error(w, "invalid facility id", http.StatusBadRequest)
		return
	}

	var req UpdateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	cfg := &Config{FacilityID: id, OpenHours: req.OpenHours, SlotMinutes: req.SlotMinutes}
	if err := h.repo.UpsertConfig(r.Context(), cfg); err != nil {
		switch {
		case errors.Is(err, schedule.ErrInvalidRange):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error("update facility config failed", "error", err, "facility_id", id)
			http.Error(w, "failed to save config", http.StatusInternalServerError)
		}
		return
	}

	if h.cache != nil {
		h.cache.Invalidate(r.Context(), id)
	}

	admin, _ := httpmiddleware.AdminSubject(r.Context())
	h.logger.Info("facility config updated", "facility_id", id, "slot_minutes", req.SlotMinutes, "admin", admin)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cfg)
}

func (h *Handler) reader() Reader {
	if h.cache != nil {
		return h.cache
	}
	return h.repo
}
