package importer

import (
	"io"

	"github.com/MrJamesThe3rd/smsledger/internal/ingest"
)

type Format string

const (
	FormatSMSBackup Format = "smsbackup"
)

type Importer interface {
	Parse(r io.Reader) ([]ingest.Message, error)
}
