package account

import (
	"errors"
	"strings"
)

// GuestPrefix marks user ids issued to unauthenticated devices.
const GuestPrefix = "guest:"

var ErrInvalidMigration = errors.New("invalid guest migration")

// Result counts the rows moved from the guest to the user.
type Result struct {
	Transactions int64 `json:"transactions"`
	Merchants    int64 `json:"merchants"`
	Patterns     int64 `json:"patterns"`
	Senders      int64 `json:"senders"`
}

func GuestID(deviceID string) string {
	return GuestPrefix + strings.TrimSpace(deviceID)
}

func IsGuest(userID string) bool {
	return strings.HasPrefix(userID, GuestPrefix) && len(userID) > len(GuestPrefix)
}
