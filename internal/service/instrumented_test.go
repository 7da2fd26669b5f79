package service

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cardsim/internal/domain"
	"cardsim/internal/metrics"
)

func TestInstrumentedEngine_PublishesIndexGauges(t *testing.T) {
	svc := newEngine(t, library())
	NewInstrumentedEngine(svc, zap.NewNop())

	assert.Equal(t, float64(10), testutil.ToFloat64(metrics.IndexCards))
	assert.Equal(t, float64(svc.Stats().Topics), testutil.ToFloat64(metrics.IndexTopics))
}

func TestInstrumentedEngine_CountsOutcomes(t *testing.T) {
	eng := NewInstrumentedEngine(newEngine(t, library()), zap.NewNop())
	ok := testutil.ToFloat64(metrics.QueriesTotal.WithLabelValues("ok"))
	notFound := testutil.ToFloat64(metrics.QueriesTotal.WithLabelValues("not_found"))

	got, err := eng.GetSimilar("Shock", 3, 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = eng.GetSimilar("Nope", 3, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, ok+1, testutil.ToFloat64(metrics.QueriesTotal.WithLabelValues("ok")))
	assert.Equal(t, notFound+1, testutil.ToFloat64(metrics.QueriesTotal.WithLabelValues("not_found")))
}

func TestInstrumentedEngine_Delegates(t *testing.T) {
	svc := newEngine(t, library())
	eng := NewInstrumentedEngine(svc, nil)

	want, err := svc.Similar("Opt", 4, 1)
	require.NoError(t, err)
	got, err := eng.Similar("Opt", 4, 1)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	c, err := eng.GetCardByName("opt")
	require.NoError(t, err)
	assert.Equal(t, "Opt", c.Name)
	assert.Equal(t, svc.Stats(), eng.Stats())
}
