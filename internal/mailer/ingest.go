package mailer

import (
	"context"
	"io"
	"strings"

	"spreadpool/internal/metrics"
	"spreadpool/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Extractor reads spreads out of HTML pick sheets
type Extractor interface {
	Extract(ctx context.Context, bodies []string) ([]models.Spread, error)
}

// SpreadSaver persists spreads
type SpreadSaver interface {
	Save(ctx context.Context, week int, spreads []models.Spread) (int, error)
}

// Result describes one processed message
type Result struct {
	IngestID string   `json:"ingest_id"`
	Owners   []string `json:"owners"`
	Saved    int      `json:"saved"`
}

// Ingestor turns inbound pick sheets into saved spreads
type Ingestor struct {
	extractor Extractor
	spreads   SpreadSaver
	ack       Acknowledger
}

// NewIngestor creates an ingestor
func NewIngestor(extractor Extractor, spreads SpreadSaver, ack Acknowledger) *Ingestor {
	return &Ingestor{
		extractor: extractor,
		spreads:   spreads,
		ack:       ack,
	}
}

// Ingest processes one raw message. The whole sheet is saved or none of it
// is. The sender gets a reply either way, except for an unreadable message or
// a sheet with no picks.
func (i *Ingestor) Ingest(ctx context.Context, r io.Reader) (Result, error) {
	result := Result{IngestID: uuid.NewString()}
	logger := log.With().Str("ingest_id", result.IngestID).Logger()

	in, err := ParseInbound(r)
	if err != nil {
		metrics.RecordMailIngestion("unreadable")
		logger.Warn().Err(err).Msg("Rejected unreadable message")
		return result, &models.ExtractionError{Err: err}
	}

	ack := Acknowledgment{
		IngestID: result.IngestID,
		To:       in.From,
		From:     in.To,
		Subject:  in.Subject,
	}
	if strings.TrimSpace(ack.Subject) == "" {
		ack.Subject = DefaultSubject
	}

	spreads, err := i.extractor.Extract(ctx, in.HTMLBodies)
	if err != nil {
		metrics.RecordMailIngestion("rejected")
		logger.Warn().Err(err).Str("from", in.From).Msg("Rejected pick sheet")
		ack.Err = err
		i.reply(ctx, ack)
		return result, err
	}
	if len(spreads) == 0 {
		metrics.RecordMailIngestion("empty")
		logger.Info().Str("from", in.From).Msg("No picks found")
		return result, nil
	}

	for _, s := range spreads {
		result.Owners = append(result.Owners, s.Owner)
	}

	saved, err := i.spreads.Save(ctx, spreads[0].Week, spreads)
	if err != nil {
		metrics.RecordMailIngestion("failed")
		logger.Error().Err(err).Msg("Failed to save spreads")
		ack.Err = err
		i.reply(ctx, ack)
		return result, err
	}
	result.Saved = saved

	metrics.RecordMailIngestion("saved")
	logger.Info().
		Str("from", in.From).
		Strs("owners", result.Owners).
		Int("saved", saved).
		Msg("Pick sheet saved")

	i.reply(ctx, ack)
	return result, nil
}

func (i *Ingestor) reply(ctx context.Context, ack Acknowledgment) {
	if err := i.ack.Acknowledge(ctx, ack); err != nil {
		log.Error().Err(err).Str("ingest_id", ack.IngestID).Msg("Failed to acknowledge pick sheet")
	}
}
