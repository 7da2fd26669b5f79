package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"cardsim/internal/artifact"
	"cardsim/internal/corpus"
	"cardsim/internal/domain"
)

// SimilarityService answers similar-card queries against one loaded build.
// It is read-only after construction and safe for concurrent use.
type SimilarityService struct {
	cards      []domain.Card
	keys       []string
	lookup     map[string]int
	normalizer domain.Normalizer
	embedder   domain.Embedder
	index      domain.SimilarityIndex
	stats      domain.Stats
	logger     *zap.Logger
}

var _ domain.SimilarityEngine = (*SimilarityService)(nil)

// NewSimilarityService validates set against cards and builds the name
// lookup. A mismatch between library and artifacts fails eagerly with
// domain.ErrCorpusInconsistency.
func NewSimilarityService(cards []domain.Card, set *artifact.Set, normalizer domain.Normalizer, logger *zap.Logger) (*SimilarityService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := set.Validate(cards, normalizer.Signature()); err != nil {
		return nil, err
	}

	s := &SimilarityService{
		cards:      cards,
		keys:       make([]string, len(cards)),
		lookup:     make(map[string]int, len(cards)),
		normalizer: normalizer,
		embedder:   set.Encoder,
		index:      set.Index,
		logger:     logger,
	}
	textless := 0
	for i, c := range cards {
		if c.Name == "" {
			return nil, &domain.MalformedRecordError{Index: i, Field: "name"}
		}
		s.keys[i] = domain.NormalizeName(c.Name)
		s.lookup[s.keys[i]] = i
		if c.Textless() {
			textless++
		}
	}
	dups := corpus.Duplicates(cards)
	for _, d := range dups {
		logger.Warn("Duplicate normalized card name, lookup keeps the last record",
			zap.String("key", d.Key),
			zap.Ints("positions", d.Positions),
		)
	}

	s.stats = domain.Stats{
		BuildID:        set.BuildID,
		Cards:          len(cards),
		TextlessCards:  textless,
		Vocabulary:     set.Encoder.Dictionary.Len(),
		Topics:         set.Encoder.Dimension(),
		DuplicateNames: len(dups),
	}
	return s, nil
}

// Open loads the stored build and constructs the service over cards.
func Open(ctx context.Context, cards []domain.Card, store artifact.Store, normalizer domain.Normalizer, logger *zap.Logger) (*SimilarityService, error) {
	set, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load artifacts: %w", err)
	}
	return NewSimilarityService(cards, set, normalizer, logger)
}

// Stats describes the loaded build.
func (s *SimilarityService) Stats() domain.Stats { return s.stats }

// GetCardByName looks a card up by normalized name.
func (s *SimilarityService) GetCardByName(name string) (domain.Card, error) {
	pos, ok := s.lookup[domain.NormalizeName(name)]
	if !ok {
		return domain.Card{}, &domain.LookupError{Name: name}
	}
	return s.cards[pos], nil
}

// GetSimilar returns up to n cards most similar to the named card, skipping
// the first offset qualifying cards.
func (s *SimilarityService) GetSimilar(name string, n, offset int) ([]domain.Card, error) {
	matches, err := s.Similar(name, n, offset)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Card, len(matches))
	for i, m := range matches {
		out[i] = m.Card
	}
	return out, nil
}

// Similar is GetSimilar with scores. The target is re-encoded with the
// fitted artifacts, every card is scored, and the ranking is walked in
// descending score order (ties keep library order). The target itself and
// textless cards are skipped.
func (s *SimilarityService) Similar(name string, n, offset int) ([]domain.Match, error) {
	target, err := s.GetCardByName(name)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return []domain.Match{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	tokens, err := s.normalizer.Normalize(target)
	if err != nil {
		return nil, fmt.Errorf("normalize %q: %w", target.Name, err)
	}
	scores := s.index.Score(s.embedder.Embed(tokens))
	slices.SortStableFunc(scores, func(a, b domain.Score) int {
		return cmp.Compare(b.Value, a.Value)
	})

	targetKey := domain.NormalizeName(name)
	page := make([]domain.Match, 0, min(n, len(scores)))
	skipped := 0
	for _, sc := range scores {
		if s.keys[sc.Position] == targetKey {
			continue
		}
		card := s.cards[sc.Position]
		if card.Textless() {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		page = append(page, domain.Match{Card: card, Score: sc.Value})
		if len(page) == n {
			break
		}
	}
	return page, nil
}
