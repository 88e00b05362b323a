package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/irrigafacil/apiserver/internal/services"
	"github.com/irrigafacil/apiserver/internal/store"
	"github.com/irrigafacil/apiserver/types"
)

// ZoneHandler serves the irrigation-zone CRUD. Mounted behind the auth
// middleware; every operation is filtered by the caller's tenant.
type ZoneHandler struct {
	zoneService *services.ZoneService
	logger      *slog.Logger
}

func NewZoneHandler(zoneService *services.ZoneService, logger *slog.Logger) *ZoneHandler {
	return &ZoneHandler{zoneService: zoneService, logger: logger}
}

// ZoneRouter registers the zone routes on the given router.
func ZoneRouter(r chi.Router, zoneService *services.ZoneService, logger *slog.Logger) {
	handler := NewZoneHandler(zoneService, logger)

	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Route("/{zoneID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Delete("/", handler.Delete)
	})
}

type CreateZoneRequest struct {
	Name   string `json:"nome"`
	Active *bool  `json:"ativa"`
}

type ZoneListResponse struct {
	Items []types.Zone `json:"items"`
}

func (h *ZoneHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, unauthenticatedMsg)
		return
	}

	zones, err := h.zoneService.List(r.Context(), identity.TenantID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "zone list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	writeJSON(w, http.StatusOK, ZoneListResponse{Items: zones})
}

func (h *ZoneHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, unauthenticatedMsg)
		return
	}

	zone, err := h.zoneService.Get(r.Context(), identity.TenantID, chi.URLParam(r, "zoneID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "zona não encontrada")
			return
		}
		h.logger.ErrorContext(r.Context(), "zone fetch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	writeJSON(w, http.StatusOK, zone)
}

func (h *ZoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, unauthenticatedMsg)
		return
	}

	var req CreateZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "requisição inválida")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "campo obrigatório: nome")
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	zone, err := h.zoneService.Create(r.Context(), identity.TenantID, strings.TrimSpace(req.Name), active)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "zone create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	writeJSON(w, http.StatusCreated, zone)
}

func (h *ZoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, unauthenticatedMsg)
		return
	}

	if err := h.zoneService.Delete(r.Context(), identity.TenantID, chi.URLParam(r, "zoneID")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "zona não encontrada")
			return
		}
		h.logger.ErrorContext(r.Context(), "zone delete failed", "error", err)
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
