package memory

import (
	"errors"
	"fmt"
	"math"

	"cardsim/internal/blob"
	"cardsim/internal/domain"
)

const (
	blobKind    = "similarity-index"
	blobVersion = 1
)

// Index is an in-memory brute-force cosine similarity matrix. Rows are
// L2-normalized at build time; row i belongs to corpus position i.
type Index struct {
	dimension int
	vectors   [][]float64
}

// Build creates an index from every corpus latent vector.
func Build(vectors [][]float64) (*Index, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("build index: %w", domain.ErrEmptyCorpus)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("build index: invalid dimension")
	}
	rows := make([][]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("build index: row %d has dimension %d, want %d", i, len(v), dim)
		}
		rows[i] = unit(v)
	}
	return &Index{dimension: dim, vectors: rows}, nil
}

// Len returns the number of rows.
func (s *Index) Len() int { return len(s.vectors) }

// Dim returns the row dimension.
func (s *Index) Dim() int { return s.dimension }

// Score returns the cosine similarity of query against every row, ordered
// by position. Zero vectors score 0 against everything.
func (s *Index) Score(query []float64) []domain.Score {
	q := unit(query)
	scores := make([]domain.Score, len(s.vectors))
	for i := range s.vectors {
		scores[i] = domain.Score{Position: i, Value: dot(s.vectors[i], q)}
	}
	return scores
}

func unit(v []float64) []float64 {
	out := make([]float64, len(v))
	norm := math.Sqrt(dot(v, v))
	if norm == 0 {
		return out
	}
	for i := range v {
		out[i] = v[i] / norm
	}
	return out
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

type indexBlob struct {
	Dim  int    `json:"dim"`
	Rows int    `json:"rows"`
	Data []byte `json:"data"`
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s *Index) MarshalBinary() ([]byte, error) {
	flat := make([]float64, 0, len(s.vectors)*s.dimension)
	for _, v := range s.vectors {
		flat = append(flat, v...)
	}
	return blob.Encode(blobKind, blobVersion, indexBlob{Dim: s.dimension, Rows: len(s.vectors), Data: blob.Float64sToBytes(flat)})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Index) UnmarshalBinary(data []byte) error {
	var b indexBlob
	if err := blob.Decode(data, blobKind, blobVersion, &b); err != nil {
		return err
	}
	flat, err := blob.BytesToFloat64s(b.Data)
	if err != nil {
		return fmt.Errorf("index blob: %w", err)
	}
	if b.Dim <= 0 || len(flat) != b.Dim*b.Rows {
		return fmt.Errorf("index blob: %d values for %d rows of dimension %d", len(flat), b.Rows, b.Dim)
	}
	s.dimension = b.Dim
	s.vectors = make([][]float64, b.Rows)
	for i := range s.vectors {
		s.vectors[i] = flat[i*b.Dim : (i+1)*b.Dim : (i+1)*b.Dim]
	}
	return nil
}
