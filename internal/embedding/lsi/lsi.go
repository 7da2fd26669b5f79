// Package lsi fits a latent semantic projection: a truncated SVD of the
// weighted term/document matrix. Documents are mapped to U_k^T x.
//
// The range of the matrix is found with a seeded randomized range finder
// (Gaussian test matrix, a few power iterations, Gram-Schmidt
// re-orthonormalization), so only an l×n dense matrix is ever decomposed
// exactly. Builds with the same seed are reproducible.
package lsi

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"cardsim/internal/blob"
	"cardsim/internal/domain"
)

const (
	blobKind    = "lsi"
	blobVersion = 1
)

// DefaultTopics is the latent dimension used when none is configured.
const DefaultTopics = 100

// Options controls fitting.
type Options struct {
	Topics          int
	Oversampling    int
	PowerIterations int
	Seed            int64
}

func (o Options) withDefaults() Options {
	if o.Topics <= 0 {
		o.Topics = DefaultTopics
	}
	if o.Oversampling < 0 {
		o.Oversampling = 0
	}
	if o.PowerIterations < 0 {
		o.PowerIterations = 0
	}
	return o
}

// Model is a fitted projection from term space to latent space.
type Model struct {
	proj  *mat.Dense // dim × terms
	sigma []float64
}

// Fit computes the projection for a weighted corpus over terms distinct
// term ids. The latent dimension is min(Topics, terms, documents).
func Fit(corpus [][]domain.TermWeight, terms int, opts Options) (*Model, error) {
	opts = opts.withDefaults()
	n := len(corpus)
	if n == 0 || terms == 0 {
		return nil, fmt.Errorf("fit lsi: %w", domain.ErrEmptyCorpus)
	}
	for j, doc := range corpus {
		for _, tw := range doc {
			if tw.ID < 0 || tw.ID >= terms {
				return nil, fmt.Errorf("fit lsi: document %d has term id %d outside [0,%d)", j, tw.ID, terms)
			}
		}
	}

	k := min(opts.Topics, terms, n)
	l := min(k+opts.Oversampling, terms, n)

	rng := rand.New(rand.NewSource(opts.Seed)) //nolint:gosec
	omega := mat.NewDense(n, l, nil)
	raw := omega.RawMatrix().Data
	for i := range raw {
		raw[i] = rng.NormFloat64()
	}

	qt := rangeT(corpus, omega, terms)
	orthonormalizeRows(qt)
	for it := 0; it < opts.PowerIterations; it++ {
		qt = rangeT(corpus, projectT(corpus, qt), terms)
		orthonormalizeRows(qt)
	}

	// B = Q^T A, stored transposed as n×l.
	bt := projectT(corpus, qt)
	var svd mat.SVD
	if ok := svd.Factorize(bt.T(), mat.SVDThin); !ok {
		return nil, errors.New("fit lsi: svd did not converge")
	}
	var u mat.Dense
	svd.UTo(&u)
	sigma := svd.Values(nil)

	proj := mat.NewDense(k, terms, nil)
	proj.Mul(u.Slice(0, l, 0, k).T(), qt)

	return &Model{proj: proj, sigma: sigma[:k]}, nil
}

// Dim returns the length of latent vectors.
func (m *Model) Dim() int {
	r, _ := m.proj.Dims()
	return r
}

// Terms returns the width of the term space.
func (m *Model) Terms() int {
	_, c := m.proj.Dims()
	return c
}

// SingularValues returns the singular values of the kept topics, largest
// first.
func (m *Model) SingularValues() []float64 {
	out := make([]float64, len(m.sigma))
	copy(out, m.sigma)
	return out
}

// Apply projects a weighted vector into latent space.
func (m *Model) Apply(vec []domain.TermWeight) []float64 {
	dim, terms := m.proj.Dims()
	out := make([]float64, dim)
	for i := 0; i < dim; i++ {
		row := m.proj.RawRowView(i)
		s := 0.0
		for _, tw := range vec {
			if tw.ID < 0 || tw.ID >= terms {
				continue
			}
			s += tw.Weight * row[tw.ID]
		}
		out[i] = s
	}
	return out
}

// rangeT returns (A Z)^T as an l×terms matrix, where A is the terms×n
// corpus matrix and Z is n×l.
func rangeT(corpus [][]domain.TermWeight, z *mat.Dense, terms int) *mat.Dense {
	_, l := z.Dims()
	out := mat.NewDense(l, terms, nil)
	data := out.RawMatrix().Data
	stride := out.RawMatrix().Stride
	for j, doc := range corpus {
		zrow := z.RawRowView(j)
		for _, tw := range doc {
			for i := 0; i < l; i++ {
				data[i*stride+tw.ID] += tw.Weight * zrow[i]
			}
		}
	}
	return out
}

// projectT returns A^T Q as an n×l matrix, where qt is Q^T (l×terms).
func projectT(corpus [][]domain.TermWeight, qt *mat.Dense) *mat.Dense {
	l, _ := qt.Dims()
	out := mat.NewDense(len(corpus), l, nil)
	for j, doc := range corpus {
		orow := out.RawRowView(j)
		for i := 0; i < l; i++ {
			qrow := qt.RawRowView(i)
			s := 0.0
			for _, tw := range doc {
				s += tw.Weight * qrow[tw.ID]
			}
			orow[i] = s
		}
	}
	return out
}

// orthonormalizeRows runs modified Gram-Schmidt twice over the rows of a.
// Rows that vanish (rank deficiency) are zeroed.
func orthonormalizeRows(a *mat.Dense) {
	r, _ := a.Dims()
	for pass := 0; pass < 2; pass++ {
		for i := 0; i < r; i++ {
			row := a.RawRowView(i)
			before := floats.Norm(row, 2)
			if before == 0 {
				continue
			}
			for j := 0; j < i; j++ {
				prev := a.RawRowView(j)
				floats.AddScaled(row, -floats.Dot(row, prev), prev)
			}
			after := floats.Norm(row, 2)
			if after <= 1e-10*before {
				for x := range row {
					row[x] = 0
				}
				continue
			}
			floats.Scale(1/after, row)
		}
	}
}

type modelBlob struct {
	Dim   int    `json:"dim"`
	Terms int    `json:"terms"`
	Proj  []byte `json:"proj"`
	Sigma []byte `json:"sigma"`
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *Model) MarshalBinary() ([]byte, error) {
	dim, terms := m.proj.Dims()
	data := make([]float64, 0, dim*terms)
	for i := 0; i < dim; i++ {
		data = append(data, m.proj.RawRowView(i)...)
	}
	return blob.Encode(blobKind, blobVersion, modelBlob{
		Dim:   dim,
		Terms: terms,
		Proj:  blob.Float64sToBytes(data),
		Sigma: blob.Float64sToBytes(m.sigma),
	})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *Model) UnmarshalBinary(data []byte) error {
	var b modelBlob
	if err := blob.Decode(data, blobKind, blobVersion, &b); err != nil {
		return err
	}
	proj, err := blob.BytesToFloat64s(b.Proj)
	if err != nil {
		return fmt.Errorf("lsi blob: %w", err)
	}
	if b.Dim <= 0 || b.Terms <= 0 || len(proj) != b.Dim*b.Terms {
		return fmt.Errorf("lsi blob: %d values for a %d×%d projection", len(proj), b.Dim, b.Terms)
	}
	sigma, err := blob.BytesToFloat64s(b.Sigma)
	if err != nil {
		return fmt.Errorf("lsi blob: %w", err)
	}
	m.proj = mat.NewDense(b.Dim, b.Terms, proj)
	m.sigma = sigma
	return nil
}
