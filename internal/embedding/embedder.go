package embedding

import (
	"fmt"

	"cardsim/internal/domain"
	"cardsim/internal/embedding/lsi"
	"cardsim/internal/embedding/tfidf"
	"cardsim/internal/embedding/vocab"
)

// Encoder chains the three fitted stages: vocabulary, tf-idf weighting and
// latent projection. All three come from the same build.
type Encoder struct {
	Dictionary *vocab.Dictionary
	Weights    *tfidf.Model
	Projection *lsi.Model
}

var _ domain.Embedder = (*Encoder)(nil)

// Fit fits all three stages over the normalized corpus and returns the
// encoder together with the latent vector of every document, in order.
func Fit(docs [][]string, opts lsi.Options) (*Encoder, [][]float64, error) {
	dict, err := vocab.Fit(docs)
	if err != nil {
		return nil, nil, err
	}
	weights, err := tfidf.Fit(dict)
	if err != nil {
		return nil, nil, err
	}
	weighted := make([][]domain.TermWeight, len(docs))
	for i, doc := range docs {
		weighted[i] = weights.Apply(dict.Doc2Bow(doc))
	}
	proj, err := lsi.Fit(weighted, dict.Len(), opts)
	if err != nil {
		return nil, nil, err
	}
	latent := make([][]float64, len(weighted))
	for i, w := range weighted {
		latent[i] = proj.Apply(w)
	}
	return &Encoder{Dictionary: dict, Weights: weights, Projection: proj}, latent, nil
}

// Validate checks that the stages agree on the term space.
func (e *Encoder) Validate() error {
	if e.Dictionary == nil || e.Weights == nil || e.Projection == nil {
		return domain.NewCorpusInconsistency("encoder is missing a stage")
	}
	if e.Dictionary.Len() != e.Weights.Len() {
		return domain.NewCorpusInconsistency("vocabulary has %d terms, tfidf has %d", e.Dictionary.Len(), e.Weights.Len())
	}
	if e.Dictionary.Len() != e.Projection.Terms() {
		return domain.NewCorpusInconsistency("vocabulary has %d terms, projection has %d", e.Dictionary.Len(), e.Projection.Terms())
	}
	return nil
}

// Name returns the identifier of this embedder implementation.
func (e *Encoder) Name() string { return "lsi" }

// Dimension returns the length of produced vectors.
func (e *Encoder) Dimension() int { return e.Projection.Dim() }

// Embed maps tokens to a latent vector without refitting anything.
func (e *Encoder) Embed(tokens []string) []float64 {
	return e.Projection.Apply(e.Weights.Apply(e.Dictionary.Doc2Bow(tokens)))
}

func (e *Encoder) String() string {
	return fmt.Sprintf("lsi(terms=%d, dim=%d)", e.Dictionary.Len(), e.Dimension())
}
