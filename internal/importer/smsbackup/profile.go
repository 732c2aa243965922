package smsbackup

// dateMode determines how the timestamp column is read.
type dateMode int

const (
	// dateEpochMillis is a Unix timestamp in milliseconds (Android backups).
	dateEpochMillis dateMode = iota
	// dateLayout is a formatted timestamp tried against dateLayouts.
	dateLayout
)

// Profile describes the column layout of an SMS export. Column names are
// matched case-insensitively.
type Profile struct {
	Name      string
	SenderCol string
	BodyCol   string
	DateCol   string
	DateMode  dateMode
	// KindCol, when set, holds the message box; only InboxKind rows are kept.
	KindCol string
}

// InboxKind is the Android message type for received messages.
const InboxKind = "1"

func (p Profile) requiredCols() []string {
	return []string{p.SenderCol, p.BodyCol, p.DateCol}
}

var dateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
}

// profiles is the ordered list of export formats tried during detection.
var profiles = []Profile{
	{
		Name:      "android",
		SenderCol: "address",
		BodyCol:   "body",
		DateCol:   "date",
		DateMode:  dateEpochMillis,
		KindCol:   "type",
	},
	{
		Name:      "generic",
		SenderCol: "sender",
		BodyCol:   "message",
		DateCol:   "date",
		DateMode:  dateLayout,
	},
}
