package matching

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/smsledger/internal/http/middleware"
	"github.com/MrJamesThe3rd/smsledger/internal/logger"
	"github.com/MrJamesThe3rd/smsledger/internal/matching"
)

type Handler struct {
	svc *matching.Service
}

func NewHandler(svc *matching.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/suggest", h.suggest)
	r.Post("/", h.learn)
}

type patternResponse struct {
	ID         int64  `json:"id"`
	RawPattern string `json:"raw_pattern"`
	Merchant   string `json:"merchant"`
	Category   string `json:"category"`
	CreatedAt  int64  `json:"created_at"`
}

func toResponse(p *matching.Pattern) patternResponse {
	return patternResponse{
		ID:         p.ID,
		RawPattern: p.RawPattern,
		Merchant:   p.Merchant,
		Category:   p.Category,
		CreatedAt:  p.CreatedAt.UnixMilli(),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	patterns, err := h.svc.List(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	resp := make([]patternResponse, len(patterns))
	for i, p := range patterns {
		resp[i] = toResponse(p)
	}

	middleware.WriteJSON(w, r, http.StatusOK, resp)
}

type suggestResponse struct {
	Message  string `json:"message"`
	Merchant string `json:"merchant"`
	Category string `json:"category"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	message := r.URL.Query().Get("message")
	if message == "" {
		middleware.WriteError(w, r, http.StatusBadRequest, "message query parameter is required")
		return
	}

	match, err := h.svc.Suggest(r.Context(), message, middleware.UserID(r.Context()))
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	if match == nil {
		middleware.WriteError(w, r, http.StatusNotFound, "no pattern matches the message")
		return
	}

	middleware.WriteJSON(w, r, http.StatusOK, suggestResponse{
		Message:  message,
		Merchant: match.Merchant,
		Category: match.Category,
	})
}

type learnRequest struct {
	Message  string `json:"message"`
	Merchant string `json:"merchant"`
	Category string `json:"category"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if req.Message == "" || req.Merchant == "" {
		middleware.WriteError(w, r, http.StatusBadRequest, "message and merchant are required")
		return
	}

	p, err := h.svc.Learn(r.Context(), req.Message, req.Merchant, req.Category, middleware.UserID(r.Context()))
	if err != nil {
		if errors.Is(err, matching.ErrPatternTooShort) || errors.Is(err, matching.ErrInvalidPattern) {
			middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		h.internalError(w, r, err)

		return
	}

	middleware.WriteJSON(w, r, http.StatusCreated, toResponse(p))
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Error().Err(err).Msg("matching request failed")
	middleware.WriteError(w, r, http.StatusInternalServerError, "internal error")
}
