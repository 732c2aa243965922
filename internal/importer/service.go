package importer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/MrJamesThe3rd/smsledger/internal/importer/smsbackup"
	"github.com/MrJamesThe3rd/smsledger/internal/ingest"
	"github.com/MrJamesThe3rd/smsledger/internal/logger"
)

type Queue interface {
	Enqueue(ctx context.Context, msg ingest.Message) error
}

type Service struct {
	queue     Queue
	importers map[Format]Importer
}

func NewService(queue Queue, loc *time.Location) *Service {
	return &Service{
		queue: queue,
		importers: map[Format]Importer{
			FormatSMSBackup: smsbackup.NewParser(loc),
		},
	}
}

// Import parses an export and queues every message for userID through the
// normal pipeline. It returns how many messages were queued.
func (s *Service) Import(ctx context.Context, format Format, userID string, r io.Reader) (int, error) {
	importer, ok := s.importers[format]
	if !ok {
		return 0, fmt.Errorf("unknown format: %s", format)
	}

	msgs, err := importer.Parse(r)
	if err != nil {
		return 0, fmt.Errorf("parsing %s export: %w", format, err)
	}

	for i, msg := range msgs {
		msg.UserID = userID
		if err := s.queue.Enqueue(ctx, msg); err != nil {
			return i, fmt.Errorf("queueing message %d: %w", i+1, err)
		}
	}

	logger.FromContext(ctx).Info().
		Str("format", string(format)).
		Str("user_id", userID).
		Int("messages", len(msgs)).
		Msg("sms export queued")

	return len(msgs), nil
}
