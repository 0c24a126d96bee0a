package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"safesphere/internal/domain/models"
	"safesphere/internal/domain/services"
	"safesphere/pkg/logger"
)

// AdminHandler handles the admin dashboard, export and reset
type AdminHandler struct {
	scans  *services.ScanService
	logger *logger.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(scans *services.ScanService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		scans:  scans,
		logger: log.WithComponent("admin-handler"),
	}
}

// Dashboard handles GET /api/v1/admin/dashboard?period=today|7d|all
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	period := models.ParseScanPeriod(r.URL.Query().Get("period"))

	d, err := h.scans.Dashboard(r.Context(), period)
	if err != nil {
		h.fail(w, err, "failed to build dashboard")
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// Export handles GET /api/v1/admin/export
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	exp, err := h.scans.Export(r.Context())
	if err != nil {
		h.fail(w, err, "failed to export scans")
		return
	}

	filename := fmt.Sprintf("safesphere-export-%s.json", exp.ExportedAt.Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	respondJSON(w, http.StatusOK, exp)
}

// Clear handles DELETE /api/v1/admin/scans
func (h *AdminHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.scans.ClearHistory(r.Context()); err != nil {
		h.fail(w, err, "failed to clear scans")
		return
	}

	h.logger.Info().Str("remote_addr", r.RemoteAddr).Msg("scan history cleared by admin")
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *AdminHandler) fail(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, services.ErrHistoryDisabled) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Error().Err(err).Msg(msg)
	respondError(w, http.StatusInternalServerError, msg)
}
