package tfidf

import (
	"errors"
	"fmt"
	"math"

	"cardsim/internal/blob"
	"cardsim/internal/domain"
	"cardsim/internal/embedding/vocab"
)

const (
	blobKind    = "tfidf"
	blobVersion = 1
	// weights below this are dropped from weighted vectors
	epsilon = 1e-12
)

// Model rescales term-frequency vectors by inverse document frequency.
// It is fitted once over the corpus dictionary and reused unchanged.
type Model struct {
	idf     []float64
	numDocs int
}

// Fit computes idf = log2(N/df) for every term of the dictionary.
func Fit(dict *vocab.Dictionary) (*Model, error) {
	if dict == nil || dict.Len() == 0 || dict.NumDocs() == 0 {
		return nil, fmt.Errorf("fit tfidf: %w", domain.ErrEmptyCorpus)
	}
	N := float64(dict.NumDocs())
	m := &Model{idf: make([]float64, dict.Len()), numDocs: dict.NumDocs()}
	for id := range m.idf {
		df := dict.DocFreq(id)
		if df == 0 {
			continue
		}
		m.idf[id] = math.Log2(N / float64(df))
	}
	return m, nil
}

// Len returns the number of terms the model covers.
func (m *Model) Len() int { return len(m.idf) }

// IDF returns the inverse document frequency of id.
func (m *Model) IDF(id int) float64 { return m.idf[id] }

// Apply weights a term-frequency vector and L2-normalizes it. Terms that
// appear in every document get zero weight and are dropped.
func (m *Model) Apply(bow []domain.TermCount) []domain.TermWeight {
	vec := make([]domain.TermWeight, 0, len(bow))
	norm := 0.0
	for _, tc := range bow {
		if tc.ID < 0 || tc.ID >= len(m.idf) {
			continue
		}
		w := float64(tc.Count) * m.idf[tc.ID]
		if math.Abs(w) < epsilon {
			continue
		}
		vec = append(vec, domain.TermWeight{ID: tc.ID, Weight: w})
		norm += w * w
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i].Weight /= norm
		}
	}
	return vec
}

type modelBlob struct {
	IDF     []byte `json:"idf"`
	NumDocs int    `json:"num_docs"`
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *Model) MarshalBinary() ([]byte, error) {
	return blob.Encode(blobKind, blobVersion, modelBlob{IDF: blob.Float64sToBytes(m.idf), NumDocs: m.numDocs})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *Model) UnmarshalBinary(data []byte) error {
	var b modelBlob
	if err := blob.Decode(data, blobKind, blobVersion, &b); err != nil {
		return err
	}
	idf, err := blob.BytesToFloat64s(b.IDF)
	if err != nil {
		return fmt.Errorf("tfidf blob: %w", err)
	}
	if len(idf) == 0 {
		return errors.New("tfidf blob: no terms")
	}
	m.idf = idf
	m.numDocs = b.NumDocs
	return nil
}
