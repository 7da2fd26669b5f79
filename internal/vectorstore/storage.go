package vectorstore

import "cardsim/internal/domain"

// Index scores a query vector against every stored row, in row order.
type Index interface {
	domain.SimilarityIndex
	MarshalBinary() ([]byte, error)
}
