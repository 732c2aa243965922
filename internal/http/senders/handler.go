package senders

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/smsledger/internal/http/middleware"
	"github.com/MrJamesThe3rd/smsledger/internal/logger"
	"github.com/MrJamesThe3rd/smsledger/internal/screen"
)

type Handler struct {
	registry *screen.Registry
}

func NewHandler(registry *screen.Registry) *Handler {
	return &Handler{registry: registry}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.approve)
	r.Get("/check", h.check)
}

type sendersResponse struct {
	Version  int64    `json:"version"`
	Builtin  []string `json:"builtin"`
	Approved []string `json:"approved"`
}

func toResponse(set *screen.SenderSet) sendersResponse {
	resp := sendersResponse{
		Version:  set.Version,
		Builtin:  set.Builtin(),
		Approved: set.Approved(),
	}

	if resp.Approved == nil {
		resp.Approved = []string{}
	}

	return resp
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, r, http.StatusOK, toResponse(h.registry.Snapshot(middleware.UserID(r.Context()))))
}

type approveRequest struct {
	Code string `json:"code"`
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	set, err := h.registry.Approve(r.Context(), middleware.UserID(r.Context()), req.Code)
	if err != nil {
		if errors.Is(err, screen.ErrInvalidSender) || errors.Is(err, screen.ErrNoOwner) {
			middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		logger.FromContext(r.Context()).Error().Err(err).Msg("approving sender failed")
		middleware.WriteError(w, r, http.StatusInternalServerError, "internal error")

		return
	}

	middleware.WriteJSON(w, r, http.StatusOK, toResponse(set))
}

type checkResponse struct {
	Sender    string `json:"sender"`
	Financial bool   `json:"financial"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	sender := r.URL.Query().Get("sender")
	if sender == "" {
		middleware.WriteError(w, r, http.StatusBadRequest, "sender query parameter is required")
		return
	}

	middleware.WriteJSON(w, r, http.StatusOK, checkResponse{
		Sender:    sender,
		Financial: h.registry.Snapshot(middleware.UserID(r.Context())).IsKnownFinancialSender(sender),
	})
}
