package resolution

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/smsledger/internal/http/middleware"
	txhttp "github.com/MrJamesThe3rd/smsledger/internal/http/transaction"
	"github.com/MrJamesThe3rd/smsledger/internal/logger"
	"github.com/MrJamesThe3rd/smsledger/internal/resolution"
	"github.com/MrJamesThe3rd/smsledger/internal/transaction"
)

type Handler struct {
	svc *resolution.Service
}

func NewHandler(svc *resolution.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/pending", h.pending)
	r.Get("/{id}/suggestion", h.suggestion)
	r.Post("/{id}/resolve", h.resolve)
	r.Post("/{id}/dismiss", h.dismiss)
}

func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.Pending(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	middleware.WriteJSON(w, r, http.StatusOK, txhttp.ToResponseList(txs))
}

type suggestionResponse struct {
	Transaction txhttp.Response   `json:"transaction"`
	Merchant    string            `json:"merchant"`
	Category    string            `json:"category"`
	Source      resolution.Source `json:"source"`
}

func (h *Handler) suggestion(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	tx, err := h.svc.Get(r.Context(), id, middleware.UserID(r.Context()))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	s, err := h.svc.Suggest(r.Context(), tx)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	middleware.WriteJSON(w, r, http.StatusOK, suggestionResponse{
		Transaction: txhttp.ToResponse(tx),
		Merchant:    s.Merchant,
		Category:    s.Category,
		Source:      s.Source,
	})
}

type resolveRequest struct {
	Merchant      string `json:"merchant"`
	Category      string `json:"category"`
	SaveAsPattern bool   `json:"save_as_pattern"`
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.svc.Resolve(r.Context(), resolution.ResolveParams{
		ID:            id,
		UserID:        middleware.UserID(r.Context()),
		Merchant:      req.Merchant,
		Category:      req.Category,
		SaveAsPattern: req.SaveAsPattern,
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	middleware.WriteJSON(w, r, http.StatusOK, txhttp.ToResponse(tx))
}

func (h *Handler) dismiss(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	tx, err := h.svc.Dismiss(r.Context(), id, middleware.UserID(r.Context()))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	middleware.WriteJSON(w, r, http.StatusOK, txhttp.ToResponse(tx))
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}

	return id, true
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, transaction.ErrNotFound), errors.Is(err, resolution.ErrNotOwner):
		middleware.WriteError(w, r, http.StatusNotFound, "transaction not found")
	case errors.Is(err, resolution.ErrInvalidInput):
		middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, resolution.ErrAlreadyResolved):
		middleware.WriteError(w, r, http.StatusConflict, err.Error())
	default:
		logger.FromContext(r.Context()).Error().Err(err).Msg("resolution request failed")
		middleware.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}
