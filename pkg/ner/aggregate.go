package ner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/claimgraph/internal/util"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger"
)

// ExtractorFailure records why an extractor contributed nothing.
type ExtractorFailure struct {
	Extractor string `json:"extractor"`
	Error     string `json:"error"`
}

// Report describes one aggregation pass.
type Report struct {
	Contributions map[string]int     `json:"contributions"`
	Failed        []ExtractorFailure `json:"failed,omitempty"`
}

// Aggregator runs a fixed set of extractors one after another.
type Aggregator struct {
	extractors []Extractor
}

func NewAggregator(extractors ...Extractor) *Aggregator {
	return &Aggregator{extractors: extractors}
}

// Extractors returns the registered extractors in invocation order.
func (a *Aggregator) Extractors() []Extractor {
	return a.extractors
}

// Aggregate runs every extractor over sentences and merges the mentions.
// Extractors run sequentially so only one model is busy at a time. An
// extractor that errors or panics contributes nothing and is listed in
// Report.Failed; the remaining extractors still run. Blank mentions are
// discarded and surrounding whitespace is collapsed.
func (a *Aggregator) Aggregate(ctx context.Context, sentences []string) (Vocabulary, Report) {
	vocab := make(Vocabulary)
	report := Report{Contributions: make(map[string]int, len(a.extractors))}

	for _, ex := range a.extractors {
		name := ex.Name()
		if err := ctx.Err(); err != nil {
			report.Failed = append(report.Failed, ExtractorFailure{Extractor: name, Error: err.Error()})
			continue
		}

		start := time.Now()
		mentions, err := runExtractor(ctx, ex, sentences)
		if err != nil {
			logger.Warn("[NER] Extractor failed, continuing without it", "extractor", name, "err", err)
			report.Failed = append(report.Failed, ExtractorFailure{Extractor: name, Error: err.Error()})
			continue
		}

		local := make(Vocabulary)
		for _, m := range mentions {
			m = util.NormalizeWhitespace(util.SanitizeText(m))
			if m == "" {
				continue
			}
			local.Add(m)
		}
		vocab.Merge(local)
		report.Contributions[name] = local.Total()

		logger.Info(
			"[NER] Extractor finished",
			"extractor", name,
			"mentions", local.Total(),
			"distinct", len(local),
			"duration", time.Since(start).String(),
		)
	}

	logger.Info("[NER] Aggregation completed", "distinct", len(vocab), "failed", len(report.Failed))
	return vocab, report
}

func runExtractor(ctx context.Context, ex Extractor, sentences []string) (mentions []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			mentions = nil
			err = fmt.Errorf("extractor panicked: %v", r)
		}
	}()
	if len(sentences) == 0 {
		return nil, nil
	}
	return ex.GetEntities(ctx, sentences)
}

// Close releases every extractor and returns their errors joined.
func (a *Aggregator) Close() error {
	var errs []error
	for _, ex := range a.extractors {
		if err := ex.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ex.Name(), err))
		}
	}
	return errors.Join(errs...)
}
