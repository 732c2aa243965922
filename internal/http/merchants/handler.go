package merchants

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/smsledger/internal/http/middleware"
	"github.com/MrJamesThe3rd/smsledger/internal/logger"
	"github.com/MrJamesThe3rd/smsledger/internal/merchant"
)

type Handler struct {
	svc *merchant.Service
}

func NewHandler(svc *merchant.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/category", h.category)
	r.Put("/category", h.save)
}

type mappingResponse struct {
	Merchant string `json:"merchant"`
	Category string `json:"category"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.svc.List(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	resp := make([]mappingResponse, len(mappings))
	for i, m := range mappings {
		resp[i] = mappingResponse{Merchant: m.Merchant, Category: m.Category}
	}

	middleware.WriteJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) category(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("merchant")
	if name == "" {
		middleware.WriteError(w, r, http.StatusBadRequest, "merchant query parameter is required")
		return
	}

	category, err := h.svc.Lookup(r.Context(), name, middleware.UserID(r.Context()))
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	if category == "" {
		middleware.WriteError(w, r, http.StatusNotFound, "no category stored for merchant")
		return
	}

	middleware.WriteJSON(w, r, http.StatusOK, mappingResponse{Merchant: name, Category: category})
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var req mappingResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Save(r.Context(), req.Merchant, req.Category, middleware.UserID(r.Context())); err != nil {
		if errors.Is(err, merchant.ErrInvalidMapping) {
			middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		h.internalError(w, r, err)

		return
	}

	middleware.WriteJSON(w, r, http.StatusOK, req)
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Error().Err(err).Msg("merchant request failed")
	middleware.WriteError(w, r, http.StatusInternalServerError, "internal error")
}
