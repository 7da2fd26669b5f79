// Package vocab maps tokens to stable integer ids.
package vocab

import (
	"fmt"
	"sort"

	"cardsim/internal/blob"
	"cardsim/internal/domain"
)

const (
	blobKind    = "vocabulary"
	blobVersion = 1
)

// Dictionary is a frozen token <-> id mapping with per-id document
// frequencies. Ids follow first appearance over the fitted corpus.
type Dictionary struct {
	token2id map[string]int
	tokens   []string
	dfs      []int
	numDocs  int
}

// Fit builds a dictionary over every document's token sequence.
func Fit(docs [][]string) (*Dictionary, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("fit vocabulary: %w", domain.ErrEmptyCorpus)
	}
	d := &Dictionary{token2id: make(map[string]int), numDocs: len(docs)}
	for _, doc := range docs {
		seen := make(map[int]struct{}, len(doc))
		for _, tok := range doc {
			id, ok := d.token2id[tok]
			if !ok {
				id = len(d.tokens)
				d.token2id[tok] = id
				d.tokens = append(d.tokens, tok)
				d.dfs = append(d.dfs, 0)
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			d.dfs[id]++
		}
	}
	if len(d.tokens) == 0 {
		return nil, fmt.Errorf("fit vocabulary: no tokens in %d documents: %w", len(docs), domain.ErrEmptyCorpus)
	}
	return d, nil
}

// Len returns the number of distinct tokens.
func (d *Dictionary) Len() int { return len(d.tokens) }

// NumDocs returns the number of documents the dictionary was fitted on.
func (d *Dictionary) NumDocs() int { return d.numDocs }

// DocFreq returns how many fitted documents contain id.
func (d *Dictionary) DocFreq(id int) int { return d.dfs[id] }

// Token returns the token for id.
func (d *Dictionary) Token(id int) string { return d.tokens[id] }

// ID returns the id of token, if known.
func (d *Dictionary) ID(token string) (int, bool) {
	id, ok := d.token2id[token]
	return id, ok
}

// Doc2Bow converts tokens to a term-frequency vector sorted by id.
// Out-of-vocabulary tokens are dropped.
func (d *Dictionary) Doc2Bow(tokens []string) []domain.TermCount {
	counts := make(map[int]int, len(tokens))
	for _, tok := range tokens {
		if id, ok := d.token2id[tok]; ok {
			counts[id]++
		}
	}
	bow := make([]domain.TermCount, 0, len(counts))
	for id, c := range counts {
		bow = append(bow, domain.TermCount{ID: id, Count: c})
	}
	sort.Slice(bow, func(i, j int) bool { return bow[i].ID < bow[j].ID })
	return bow
}

type dictionaryBlob struct {
	Tokens  []string `json:"tokens"`
	DocFreq []int    `json:"doc_freq"`
	NumDocs int      `json:"num_docs"`
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (d *Dictionary) MarshalBinary() ([]byte, error) {
	return blob.Encode(blobKind, blobVersion, dictionaryBlob{Tokens: d.tokens, DocFreq: d.dfs, NumDocs: d.numDocs})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (d *Dictionary) UnmarshalBinary(data []byte) error {
	var b dictionaryBlob
	if err := blob.Decode(data, blobKind, blobVersion, &b); err != nil {
		return err
	}
	if len(b.Tokens) != len(b.DocFreq) {
		return fmt.Errorf("vocabulary blob: %d tokens but %d frequencies", len(b.Tokens), len(b.DocFreq))
	}
	d.tokens = b.Tokens
	d.dfs = b.DocFreq
	d.numDocs = b.NumDocs
	d.token2id = make(map[string]int, len(b.Tokens))
	for i, tok := range b.Tokens {
		d.token2id[tok] = i
	}
	return nil
}
