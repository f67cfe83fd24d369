package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/heartmarshall/quotespell/internal/domain"
	"github.com/heartmarshall/quotespell/internal/service/history"
)

type historyService interface {
	List(ctx context.Context, f domain.SpellFilter) ([]domain.Spell, int, error)
	Purge(ctx context.Context, olderThanDays int) (int64, error)
}

// AdminHandler serves history maintenance endpoints. Routes are expected
// to be wrapped with middleware.RequireAdmin.
type AdminHandler struct {
	history historyService
	log     *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(svc historyService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		history: svc,
		log:     logger.With("handler", "admin"),
	}
}

type spellListResponse struct {
	Items  []spellResponse `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type purgeResponse struct {
	Deleted int64 `json:"deleted"`
}

// ListSpells returns recorded spells newest first.
// GET /admin/spells?limit=20&offset=0&found=true
func (h *AdminHandler) ListSpells(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter domain.SpellFilter
	var errs []domain.FieldError

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, domain.FieldError{Field: "limit", Message: "must be an integer"})
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, domain.FieldError{Field: "offset", Message: "must be an integer"})
		}
		filter.Offset = n
	}
	if v := q.Get("found"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, domain.FieldError{Field: "found", Message: "must be a boolean"})
		}
		filter.Found = &b
	}
	if len(errs) > 0 {
		writeValidation(w, domain.NewValidationErrors(errs))
		return
	}

	items, total, err := h.history.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	resp := spellListResponse{
		Items:  make([]spellResponse, 0, len(items)),
		Total:  total,
		Limit:  history.ClampLimit(filter.Limit),
		Offset: filter.Offset,
	}
	for i := range items {
		resp.Items = append(resp.Items, toSpellResponse(&items[i]))
	}

	writeJSON(w, http.StatusOK, resp)
}

// PurgeSpells deletes spells older than the given number of days.
// DELETE /admin/spells?older_than_days=30
func (h *AdminHandler) PurgeSpells(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.URL.Query().Get("older_than_days"))
	if err != nil {
		writeValidation(w, domain.NewValidationError("older_than_days", "must be an integer"))
		return
	}

	deleted, err := h.history.Purge(r.Context(), days)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, purgeResponse{Deleted: deleted})
}
