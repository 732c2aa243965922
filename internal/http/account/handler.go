package account

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/smsledger/internal/account"
	"github.com/MrJamesThe3rd/smsledger/internal/http/middleware"
	"github.com/MrJamesThe3rd/smsledger/internal/logger"
)

type Handler struct {
	svc *account.Service
}

func NewHandler(svc *account.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/migrate", h.migrate)
}

type migrateRequest struct {
	// GuestID is the device id the guest used in the guest header.
	GuestID string `json:"guest_id"`
}

// migrate moves a guest's data to the signed-in caller.
func (h *Handler) migrate(w http.ResponseWriter, r *http.Request) {
	var req migrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	guestID := strings.TrimSpace(req.GuestID)
	if !account.IsGuest(guestID) {
		guestID = account.GuestID(guestID)
	}

	res, err := h.svc.MigrateGuest(r.Context(), guestID, middleware.UserID(r.Context()))
	if err != nil {
		if errors.Is(err, account.ErrInvalidMigration) {
			middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		logger.FromContext(r.Context()).Error().Err(err).Msg("guest migration failed")
		middleware.WriteError(w, r, http.StatusInternalServerError, "internal error")

		return
	}

	middleware.WriteJSON(w, r, http.StatusOK, res)
}
