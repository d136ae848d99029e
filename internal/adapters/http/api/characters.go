package api

import (
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/localscan/internal/app"
	"github.com/okian/localscan/pkg/logger"
)

// maxLookupBody caps the request body of a lookup.
const maxLookupBody = 1 << 20

// lookupRequest mirrors the body of POST /api/characters.
type lookupRequest struct {
	CharacterNames []string `json:"characterNames"`
}

func (r lookupRequest) validate() error {
	if len(r.CharacterNames) == 0 {
		return errors.New("characterNames must be a non-empty list")
	}
	return nil
}

// CharactersHandler handles character lookups.
type CharactersHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewCharactersHandler creates a new characters handler.
func NewCharactersHandler(deps Dependencies, log logger.Logger) *CharactersHandler {
	return &CharactersHandler{deps: deps, log: log}
}

// HandleLookup handles POST /api/characters requests.
func (h *CharactersHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	const op = "api.lookup_characters"

	var req lookupRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLookupBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	records, err := h.deps.Lookup(r.Context(), req.CharacterNames)
	switch {
	case errors.Is(err, service.ErrNoCharacters):
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	case err != nil:
		h.log.Error(r.Context(), "lookup failed", logger.Error(Wrap(op, err)))
		writeError(w, http.StatusInternalServerError, "internal", NewKind(op, ErrInternal))
		return
	}

	writeJSON(w, http.StatusOK, records)
}
