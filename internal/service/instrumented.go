package service

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"cardsim/internal/domain"
	"cardsim/internal/metrics"
)

// InstrumentedEngine wraps a SimilarityEngine with query metrics and logging.
type InstrumentedEngine struct {
	inner  domain.SimilarityEngine
	logger *zap.Logger
}

var _ domain.SimilarityEngine = (*InstrumentedEngine)(nil)

// NewInstrumentedEngine wraps inner and publishes its stats as gauges.
// metrics.RegisterSimilarityMetrics must have been called for the values to
// be exported.
func NewInstrumentedEngine(inner domain.SimilarityEngine, logger *zap.Logger) *InstrumentedEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	st := inner.Stats()
	metrics.IndexCards.Set(float64(st.Cards))
	metrics.IndexTopics.Set(float64(st.Topics))
	return &InstrumentedEngine{inner: inner, logger: logger}
}

// Stats delegates to the wrapped engine.
func (e *InstrumentedEngine) Stats() domain.Stats { return e.inner.Stats() }

// GetCardByName delegates to the wrapped engine.
func (e *InstrumentedEngine) GetCardByName(name string) (domain.Card, error) {
	return e.inner.GetCardByName(name)
}

// GetSimilar records the query and delegates to Similar.
func (e *InstrumentedEngine) GetSimilar(name string, n, offset int) ([]domain.Card, error) {
	matches, err := e.Similar(name, n, offset)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Card, len(matches))
	for i, m := range matches {
		out[i] = m.Card
	}
	return out, nil
}

// Similar delegates to the wrapped engine and records duration, outcome and
// result count.
func (e *InstrumentedEngine) Similar(name string, n, offset int) ([]domain.Match, error) {
	start := time.Now()
	matches, err := e.inner.Similar(name, n, offset)
	duration := time.Since(start)
	metrics.QueryDuration.Observe(duration.Seconds())

	switch {
	case errors.Is(err, domain.ErrNotFound):
		metrics.QueriesTotal.WithLabelValues("not_found").Inc()
		e.logger.Debug("Similar query for unknown card", zap.String("name", name))
		return nil, err
	case err != nil:
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		e.logger.Error("Similar query failed",
			zap.String("name", name),
			zap.Int("n", n),
			zap.Int("offset", offset),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.QueriesTotal.WithLabelValues("ok").Inc()
	metrics.ResultsReturned.Observe(float64(len(matches)))
	e.logger.Debug("Similar query completed",
		zap.String("name", name),
		zap.Int("n", n),
		zap.Int("offset", offset),
		zap.Int("results", len(matches)),
		zap.Duration("duration", duration),
	)
	return matches, nil
}
