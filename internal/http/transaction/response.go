package transaction

import (
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/smsledger/internal/transaction"
)

// Response is the wire form of a transaction. Timestamps are epoch
// milliseconds.
type Response struct {
	ID              uuid.UUID          `json:"id"`
	Name            string             `json:"name"`
	Amount          int64              `json:"amount"`
	Currency        string             `json:"currency"`
	Type            transaction.Type   `json:"type"`
	Status          transaction.Status `json:"status"`
	Category        string             `json:"category"`
	Description     string             `json:"description,omitempty"`
	ReferenceNumber string             `json:"reference_number,omitempty"`
	Sender          string             `json:"sender,omitempty"`
	RawMessage      string             `json:"raw_message,omitempty"`
	Date            int64              `json:"date"`
	CreatedAt       int64              `json:"created_at"`
	UpdatedAt       *int64             `json:"updated_at,omitempty"`
}

func ToResponse(tx *transaction.Transaction) Response {
	resp := Response{
		ID:              tx.ID,
		Name:            tx.Name,
		Amount:          tx.Amount,
		Currency:        tx.Currency,
		Type:            tx.Type,
		Status:          tx.Status,
		Category:        tx.Category,
		Description:     tx.Description,
		ReferenceNumber: tx.ReferenceNumber,
		Sender:          tx.Sender,
		RawMessage:      tx.RawMessage,
		Date:            tx.Date.UnixMilli(),
		CreatedAt:       tx.CreatedAt.UnixMilli(),
	}

	if tx.UpdatedAt != nil {
		resp.UpdatedAt = new(tx.UpdatedAt.UnixMilli())
	}

	return resp
}

func ToResponseList(txs []*transaction.Transaction) []Response {
	resp := make([]Response, len(txs))
	for i, tx := range txs {
		resp[i] = ToResponse(tx)
	}

	return resp
}
