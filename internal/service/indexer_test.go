package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"cardsim/internal/artifact"
	"cardsim/internal/domain"
	"cardsim/internal/normalizer"
)

type fakeStore struct {
	saved   []*artifact.Set
	saveErr error
}

func (f *fakeStore) Save(_ context.Context, set *artifact.Set) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, set)
	return nil
}

func (f *fakeStore) Load(context.Context) (*artifact.Set, error) {
	if len(f.saved) == 0 {
		return nil, domain.ErrArtifactsMissing
	}
	return f.saved[len(f.saved)-1], nil
}

func (f *fakeStore) Close() error { return nil }

func TestIndexer_Build(t *testing.T) {
	store := &fakeStore{}
	cards := library()

	set, err := NewIndexer(normalizer.New(), store, testOpts, zap.NewNop()).Build(context.Background(), cards)
	require.NoError(t, err)
	require.Len(t, store.saved, 1)
	assert.Same(t, set, store.saved[0])
	assert.Equal(t, len(cards), set.Cards)
	assert.Equal(t, len(cards), set.Index.Len())
	assert.Equal(t, set.Encoder.Dimension(), set.Topics)
	assert.Equal(t, artifact.Fingerprint(cards), set.Fingerprint)
	assert.Equal(t, normalizer.New().Signature(), set.Normalizer)
	assert.NoError(t, set.Validate(cards, set.Normalizer))
}

func TestIndexer_BuildDeterministicVectors(t *testing.T) {
	cards := library()
	ix := NewIndexer(normalizer.New(), nil, testOpts, nil)

	a, err := ix.Build(context.Background(), cards)
	require.NoError(t, err)
	b, err := ix.Build(context.Background(), cards)
	require.NoError(t, err)

	assert.NotEqual(t, a.BuildID, b.BuildID)
	query := []string{"draw", "card"}
	assert.Equal(t, a.Index.Score(a.Encoder.Embed(query)), b.Index.Score(b.Encoder.Embed(query)))
}

func TestIndexer_EmptyCorpus(t *testing.T) {
	_, err := NewIndexer(normalizer.New(), nil, testOpts, nil).Build(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)
}

func TestIndexer_MalformedRecordPosition(t *testing.T) {
	cards := library()
	cards[4].Name = ""

	_, err := NewIndexer(normalizer.New(), nil, testOpts, nil).Build(context.Background(), cards)
	var mre *domain.MalformedRecordError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, 4, mre.Index)
	assert.ErrorIs(t, err, domain.ErrMalformedRecord)
}

func TestIndexer_SaveError(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("disk full")}

	_, err := NewIndexer(normalizer.New(), store, testOpts, nil).Build(context.Background(), library())
	assert.ErrorContains(t, err, "disk full")
}

func TestIndexer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewIndexer(normalizer.New(), nil, testOpts, nil).Build(ctx, library())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndexer_WarnsOnDuplicates(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cards := append(library(), domain.Card{Name: "Opt!", Text: "Scry 2."})

	_, err := NewIndexer(normalizer.New(), nil, testOpts, zap.New(core)).Build(context.Background(), cards)
	require.NoError(t, err)
	entries := logs.FilterField(zap.String("key", "opt")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, []any{4, 10}, entries[0].ContextMap()["positions"])
}
