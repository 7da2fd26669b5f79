package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cardsim/internal/artifact"
	"cardsim/internal/corpus"
	"cardsim/internal/domain"
	"cardsim/internal/embedding"
	"cardsim/internal/embedding/lsi"
	"cardsim/internal/normalizer"
	"cardsim/internal/vectorstore/memory"
)

// Indexer fits every artifact over a library and persists them as one build.
type Indexer struct {
	normalizer domain.Normalizer
	store      artifact.Store
	opts       lsi.Options
	logger     *zap.Logger
}

// NewIndexer creates an indexer. A nil store skips persistence.
func NewIndexer(normalizer domain.Normalizer, store artifact.Store, opts lsi.Options, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{normalizer: normalizer, store: store, opts: opts, logger: logger}
}

// Build normalizes cards, fits vocabulary, tf-idf and projection, indexes the
// latent vectors and saves the resulting set, replacing any previous build.
func (ix *Indexer) Build(ctx context.Context, cards []domain.Card) (*artifact.Set, error) {
	if len(cards) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	start := time.Now()

	for _, d := range corpus.Duplicates(cards) {
		ix.logger.Warn("Duplicate normalized card name, lookup keeps the last record",
			zap.String("key", d.Key),
			zap.Ints("positions", d.Positions),
		)
	}

	docs, err := normalizer.NormalizeAll(ctx, ix.normalizer, cards)
	if err != nil {
		return nil, err
	}

	enc, latent, err := embedding.Fit(docs, ix.opts)
	if err != nil {
		return nil, fmt.Errorf("fit encoder: %w", err)
	}
	idx, err := memory.Build(latent)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	signature := ix.normalizer.Signature()
	set := artifact.NewSet(cards, enc, idx, signature)
	if err := set.Validate(cards, signature); err != nil {
		return nil, err
	}

	if ix.store != nil {
		if err := ix.store.Save(ctx, set); err != nil {
			return nil, fmt.Errorf("save artifacts: %w", err)
		}
	}

	ix.logger.Info("Build completed",
		zap.String("build_id", set.BuildID),
		zap.Int("cards", len(cards)),
		zap.Int("vocabulary", enc.Dictionary.Len()),
		zap.Int("topics", enc.Dimension()),
		zap.Duration("duration", time.Since(start)),
	)
	return set, nil
}
