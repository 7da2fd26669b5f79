package domain

// TermCount is one entry of a sparse term-frequency vector.
type TermCount struct {
	ID    int
	Count int
}

// TermWeight is one entry of a sparse weighted vector.
type TermWeight struct {
	ID     int
	Weight float64
}

// Score is the cosine similarity of one corpus position against a query.
type Score struct {
	Position int
	Value    float64
}

// Normalizer turns a card's raw fields into a canonical token sequence.
// Signature identifies the rule, stopword and stemmer configuration.
type Normalizer interface {
	Normalize(card Card) ([]string, error)
	Signature() string
}

// Embedder converts a token sequence into a dense latent vector using
// parameters fitted once over the corpus.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(tokens []string) []float64
}

// SimilarityIndex scores a query vector against every corpus position.
type SimilarityIndex interface {
	Len() int
	Dim() int
	Score(query []float64) []Score
}

// Match is a similar card together with its similarity to the target.
type Match struct {
	Card  Card    `json:"card"`
	Score float64 `json:"score"`
}

// SimilarityEngine defines the read-side operations exposed to the CLI,
// the TUI and the HTTP API.
type SimilarityEngine interface {
	GetCardByName(name string) (Card, error)
	GetSimilar(name string, n, offset int) ([]Card, error)
	Similar(name string, n, offset int) ([]Match, error)
	Stats() Stats
}

// Stats describes a loaded index.
type Stats struct {
	BuildID        string `json:"build_id"`
	Cards          int    `json:"cards"`
	TextlessCards  int    `json:"textless_cards"`
	Vocabulary     int    `json:"vocabulary"`
	Topics         int    `json:"topics"`
	DuplicateNames int    `json:"duplicate_names"`
}
