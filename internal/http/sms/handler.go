package sms

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/smsledger/internal/http/middleware"
	"github.com/MrJamesThe3rd/smsledger/internal/importer"
	"github.com/MrJamesThe3rd/smsledger/internal/ingest"
	"github.com/MrJamesThe3rd/smsledger/internal/logger"
)

const maxImportSize = 10 << 20

type Queue interface {
	Enqueue(ctx context.Context, msg ingest.Message) error
}

type Importer interface {
	Import(ctx context.Context, format importer.Format, userID string, r io.Reader) (int, error)
}

type Handler struct {
	queue    Queue
	importer Importer
}

func NewHandler(queue Queue, imp Importer) *Handler {
	return &Handler{queue: queue, importer: imp}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.receive)
	r.Post("/import", h.importExport)
}

type receiveRequest struct {
	Sender string `json:"sender"`
	Body   string `json:"body"`
	// ReceivedAt is epoch milliseconds; zero means now.
	ReceivedAt int64 `json:"received_at"`
}

type receiveResponse struct {
	ID uuid.UUID `json:"id"`
}

// receive accepts one SMS event. Filtering happens in the pipeline, so every
// well-formed event is accepted.
func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	var req receiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	msg := ingest.Message{
		ID:     uuid.New(),
		UserID: middleware.UserID(r.Context()),
		Sender: strings.TrimSpace(req.Sender),
		Body:   req.Body,
	}

	if req.ReceivedAt > 0 {
		msg.ReceivedAt = time.UnixMilli(req.ReceivedAt)
	}

	if err := h.queue.Enqueue(r.Context(), msg); err != nil {
		h.enqueueFailed(w, r, err)
		return
	}

	middleware.WriteJSON(w, r, http.StatusAccepted, receiveResponse{ID: msg.ID})
}

type importResponse struct {
	Queued int `json:"queued"`
}

func (h *Handler) importExport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)

	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "failed to parse form: "+err.Error())
		return
	}

	format := importer.Format(r.FormValue("format"))
	if format == "" {
		format = importer.FormatSMSBackup
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	n, err := h.importer.Import(r.Context(), format, middleware.UserID(r.Context()), file)
	if err != nil {
		if errors.Is(err, ingest.ErrQueueClosed) {
			h.enqueueFailed(w, r, err)
			return
		}

		middleware.WriteError(w, r, http.StatusBadRequest, err.Error())

		return
	}

	middleware.WriteJSON(w, r, http.StatusAccepted, importResponse{Queued: n})
}

func (h *Handler) enqueueFailed(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Error().Err(err).Msg("failed to queue message")
	middleware.WriteError(w, r, http.StatusServiceUnavailable, "not accepting messages")
}
