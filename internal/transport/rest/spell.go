package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/quotespell/internal/domain"
	"github.com/heartmarshall/quotespell/internal/service/spell"
)

const maxBodyBytes = 64 << 10

type spellService interface {
	Spell(ctx context.Context, in spell.SpellInput) (*spell.SpellResult, error)
}

// SpellReader loads recorded spells.
type SpellReader interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Spell, error)
}

// SpellHandler serves the quote search and history lookup endpoints.
type SpellHandler struct {
	spells  spellService
	history SpellReader
	log     *slog.Logger
}

// NewSpellHandler creates a SpellHandler. history may be nil when no
// database is configured; Get then answers 404.
func NewSpellHandler(spells spellService, history SpellReader, logger *slog.Logger) *SpellHandler {
	return &SpellHandler{
		spells:  spells,
		history: history,
		log:     logger.With("handler", "spell"),
	}
}

type searchRequest struct {
	Quote *string `json:"quote"`
}

type searchResponse struct {
	ID           *uuid.UUID     `json:"id,omitempty"`
	Phrase       string         `json:"phrase"`
	Combinations [][]string     `json:"combinations"`
	Playlist     []domain.Track `json:"playlist"`
	Found        bool           `json:"found"`
}

type spellResponse struct {
	ID           uuid.UUID      `json:"id"`
	Quote        string         `json:"quote"`
	Phrase       string         `json:"phrase"`
	Combinations int            `json:"combinations"`
	Found        bool           `json:"found"`
	Playlist     []domain.Track `json:"playlist"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Search spells a quote as a playlist.
// POST /api/search
func (h *SpellHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr):
			writeValidation(w, domain.NewValidationError("quote", "must be a string"))
		case errors.Is(err, io.EOF):
			writeValidation(w, domain.NewValidationError("quote", "required"))
		default:
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return
	}
	if req.Quote == nil {
		writeValidation(w, domain.NewValidationError("quote", "required"))
		return
	}

	result, err := h.spells.Spell(r.Context(), spell.SpellInput{Quote: *req.Quote})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toSearchResponse(result))
}

// Get returns one recorded spell.
// GET /api/spells/{id}
func (h *SpellHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusNotFound, "history disabled")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeValidation(w, domain.NewValidationError("id", "must be a uuid"))
		return
	}

	rec, err := h.history.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toSpellResponse(rec))
}

func toSearchResponse(res *spell.SpellResult) searchResponse {
	combos := make([][]string, len(res.Combinations))
	for i, p := range res.Combinations {
		combos[i] = []string(p)
	}
	resp := searchResponse{
		ID:           res.ID,
		Phrase:       res.Phrase,
		Combinations: combos,
		Found:        res.Found,
	}
	if res.Found {
		resp.Playlist = res.Playlist
	}
	return resp
}

func toSpellResponse(s *domain.Spell) spellResponse {
	return spellResponse{
		ID:           s.ID,
		Quote:        s.Quote,
		Phrase:       s.Phrase,
		Combinations: s.Combinations,
		Found:        s.Found,
		Playlist:     s.Playlist,
		CreatedAt:    s.CreatedAt,
	}
}
