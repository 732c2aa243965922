package extraction

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/smsledger/internal/logger"
)

// Chain tries each extractor in order and returns the first success.
type Chain struct {
	extractors []Extractor
}

func NewChain(extractors ...Extractor) *Chain {
	var list []Extractor
	for _, e := range extractors {
		if e != nil {
			list = append(list, e)
		}
	}

	return &Chain{extractors: list}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Extract(ctx context.Context, text string) (Details, error) {
	log := logger.FromContext(ctx)

	errs := []error{ErrExtractionFailed}

	for _, e := range c.extractors {
		d, err := e.Extract(ctx, text)
		if err == nil {
			log.Debug().Str("extractor", e.Name()).Msg("message extracted")
			return d, nil
		}

		if errors.Is(err, ErrNoAmount) {
			log.Debug().Str("extractor", e.Name()).Msg("no amount found, trying next extractor")
		} else {
			log.Warn().Err(err).Str("extractor", e.Name()).Msg("extractor failed, trying next extractor")
		}

		errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
	}

	return Details{}, errors.Join(errs...)
}
