// Package artifact bundles the four fitted artifacts of one build: the
// vocabulary, the tf-idf model, the latent projection and the similarity
// index. They are only valid together and are stored and loaded as a set.
package artifact

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"cardsim/internal/domain"
	"cardsim/internal/embedding"
	"cardsim/internal/embedding/lsi"
	"cardsim/internal/embedding/tfidf"
	"cardsim/internal/embedding/vocab"
	"cardsim/internal/vectorstore"
	"cardsim/internal/vectorstore/memory"
)

// Artifact kinds, one blob each.
const (
	KindVocabulary = "vocabulary"
	KindTFIDF      = "tfidf"
	KindLSI        = "lsi"
	KindIndex      = "index"
)

// Kinds lists every artifact that makes up a complete set.
var Kinds = []string{KindVocabulary, KindTFIDF, KindLSI, KindIndex}

// Meta describes a build.
type Meta struct {
	BuildID     string
	CreatedAt   time.Time
	Fingerprint string
	Normalizer  string
	Cards       int
	Topics      int
}

// Set is one complete build.
type Set struct {
	Meta
	Encoder *embedding.Encoder
	Index   vectorstore.Index
}

// Store persists complete sets. Save replaces any previous build.
type Store interface {
	Save(ctx context.Context, set *Set) error
	Load(ctx context.Context) (*Set, error)
	Close() error
}

// NewSet stamps a freshly fitted encoder and index with build metadata.
// normalizer is the signature of the normalizer that tokenized cards.
func NewSet(cards []domain.Card, enc *embedding.Encoder, idx vectorstore.Index, normalizer string) *Set {
	return &Set{
		Meta: Meta{
			BuildID:     uuid.NewString(),
			CreatedAt:   time.Now().UTC(),
			Fingerprint: Fingerprint(cards),
			Normalizer:  normalizer,
			Cards:       len(cards),
			Topics:      enc.Dimension(),
		},
		Encoder: enc,
		Index:   idx,
	}
}

// Fingerprint hashes every field of the library that similarity depends
// on, in order.
func Fingerprint(cards []domain.Card) string {
	d := xxhash.New()
	for _, c := range cards {
		_, _ = d.WriteString(c.Name)
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(c.Text)
		for _, st := range c.Subtypes {
			_, _ = d.Write([]byte{0x1f})
			_, _ = d.WriteString(st)
		}
		_, _ = d.Write([]byte{0x1e})
	}
	return strconv.FormatUint(d.Sum64(), 16) + "-" + strconv.Itoa(len(cards))
}

// Validate checks that the set belongs to cards, that queries will be
// tokenized by the normalizer that built it and that its artifacts agree with
// each other.
func (s *Set) Validate(cards []domain.Card, normalizer string) error {
	if s.Encoder == nil || s.Index == nil {
		return domain.NewCorpusInconsistency("artifact set is incomplete")
	}
	if s.Index.Len() != len(cards) {
		return domain.NewCorpusInconsistency("index has %d rows, library has %d cards", s.Index.Len(), len(cards))
	}
	if s.Cards != len(cards) {
		return domain.NewCorpusInconsistency("build covered %d cards, library has %d", s.Cards, len(cards))
	}
	if fp := Fingerprint(cards); fp != s.Fingerprint {
		return domain.NewCorpusInconsistency("library fingerprint %s does not match build fingerprint %s", fp, s.Fingerprint)
	}
	if normalizer != s.Normalizer {
		return domain.NewCorpusInconsistency("normalizer %q does not match build normalizer %q, rebuild after changing stopwords", normalizer, s.Normalizer)
	}
	if err := s.Encoder.Validate(); err != nil {
		return err
	}
	if s.Encoder.Dimension() != s.Index.Dim() {
		return domain.NewCorpusInconsistency("projection has %d topics, index has %d", s.Encoder.Dimension(), s.Index.Dim())
	}
	return nil
}

// Blobs encodes every artifact.
func (s *Set) Blobs() (map[string][]byte, error) {
	out := make(map[string][]byte, len(Kinds))
	enc := map[string]interface{ MarshalBinary() ([]byte, error) }{
		KindVocabulary: s.Encoder.Dictionary,
		KindTFIDF:      s.Encoder.Weights,
		KindLSI:        s.Encoder.Projection,
		KindIndex:      s.Index,
	}
	for _, kind := range Kinds {
		data, err := enc[kind].MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", kind, err)
		}
		out[kind] = data
	}
	return out, nil
}

// FromBlobs decodes a set. Every kind must be present.
func FromBlobs(meta Meta, blobs map[string][]byte) (*Set, error) {
	for _, kind := range Kinds {
		if _, ok := blobs[kind]; !ok {
			return nil, fmt.Errorf("build %s lacks %s: %w", meta.BuildID, kind, domain.ErrArtifactsMissing)
		}
	}
	var (
		dict  vocab.Dictionary
		tf    tfidf.Model
		proj  lsi.Model
		index memory.Index
	)
	if err := dict.UnmarshalBinary(blobs[KindVocabulary]); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KindVocabulary, err)
	}
	if err := tf.UnmarshalBinary(blobs[KindTFIDF]); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KindTFIDF, err)
	}
	if err := proj.UnmarshalBinary(blobs[KindLSI]); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KindLSI, err)
	}
	if err := index.UnmarshalBinary(blobs[KindIndex]); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KindIndex, err)
	}
	return &Set{
		Meta:    meta,
		Encoder: &embedding.Encoder{Dictionary: &dict, Weights: &tf, Projection: &proj},
		Index:   &index,
	}, nil
}
