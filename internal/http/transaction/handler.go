package transaction

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/smsledger/internal/http/middleware"
	"github.com/MrJamesThe3rd/smsledger/internal/logger"
	"github.com/MrJamesThe3rd/smsledger/internal/transaction"
)

type Handler struct {
	svc *transaction.Service
}

func NewHandler(svc *transaction.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Patch("/{id}", h.update)
}

type createTransactionRequest struct {
	Name        string           `json:"name"`
	Amount      int64            `json:"amount"`
	Currency    string           `json:"currency"`
	Type        transaction.Type `json:"type"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	// Date is epoch milliseconds.
	Date int64 `json:"date"`
}

// create records a manually entered transaction. It is resolved as soon as it
// carries a name and category.
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	params := transaction.CreateParams{
		UserID:      middleware.UserID(r.Context()),
		Name:        strings.TrimSpace(req.Name),
		Amount:      req.Amount,
		Currency:    req.Currency,
		Type:        req.Type,
		Status:      transaction.StatusExtracted,
		Category:    strings.TrimSpace(req.Category),
		Description: req.Description,
		Date:        time.Now(),
	}

	if req.Date > 0 {
		params.Date = time.UnixMilli(req.Date)
	}

	if params.Name != "" && params.Category != "" {
		params.Status = transaction.StatusResolved
	}

	tx, err := h.svc.Create(r.Context(), params)
	if err != nil {
		if errors.Is(err, transaction.ErrInvalidParams) {
			middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		h.internalError(w, r, err)

		return
	}

	middleware.WriteJSON(w, r, http.StatusCreated, ToResponse(tx))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := transaction.ListFilter{UserID: middleware.UserID(r.Context())}

	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = new(transaction.Status(s))
	}

	if s := r.URL.Query().Get("start_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.StartDate = new(t)
		}
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.EndDate = new(t.AddDate(0, 0, 1).Add(-time.Nanosecond))
		}
	}

	txs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	middleware.WriteJSON(w, r, http.StatusOK, ToResponseList(txs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.owned(w, r)
	if !ok {
		return
	}

	middleware.WriteJSON(w, r, http.StatusOK, ToResponse(tx))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.owned(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), tx.ID); err != nil {
		h.internalError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type updateTransactionRequest struct {
	Name        *string           `json:"name,omitempty"`
	Category    *string           `json:"category,omitempty"`
	Description *string           `json:"description,omitempty"`
	Amount      *int64            `json:"amount,omitempty"`
	Type        *transaction.Type `json:"type,omitempty"`
	Date        *int64            `json:"date,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tx, ok := h.owned(w, r)
	if !ok {
		return
	}

	if req.Name != nil {
		tx.Name = strings.TrimSpace(*req.Name)
	}

	if req.Category != nil {
		tx.Category = strings.TrimSpace(*req.Category)
	}

	if req.Description != nil {
		tx.Description = *req.Description
	}

	if req.Amount != nil {
		if *req.Amount <= 0 {
			middleware.WriteError(w, r, http.StatusBadRequest, "amount must be positive")
			return
		}

		tx.Amount = *req.Amount
	}

	if req.Type != nil {
		tx.Type = *req.Type
	}

	if req.Date != nil {
		tx.Date = time.UnixMilli(*req.Date)
	}

	if err := h.svc.Update(r.Context(), tx); err != nil {
		h.internalError(w, r, err)
		return
	}

	middleware.WriteJSON(w, r, http.StatusOK, ToResponse(tx))
}

// owned loads the transaction named in the path. Transactions of other users
// are reported as missing.
func (h *Handler) owned(w http.ResponseWriter, r *http.Request) (*transaction.Transaction, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid id")
		return nil, false
	}

	tx, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			middleware.WriteError(w, r, http.StatusNotFound, "transaction not found")
			return nil, false
		}

		h.internalError(w, r, err)

		return nil, false
	}

	if tx.UserID != middleware.UserID(r.Context()) {
		middleware.WriteError(w, r, http.StatusNotFound, "transaction not found")
		return nil, false
	}

	return tx, true
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Error().Err(err).Msg("transaction request failed")
	middleware.WriteError(w, r, http.StatusInternalServerError, "internal error")
}
