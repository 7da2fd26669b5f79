// Package normalizer turns card records into canonical token sequences.
//
// Normalization is an ordered chain of rewrite rules followed by splitting,
// stopword removal, stemming and a frequency cap. Rule order matters: every
// rule sees the output of the previous one.
package normalizer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"cardsim/internal/domain"
)

// Normalizer implements domain.Normalizer.
type Normalizer struct {
	rules     []Rule
	stopwords Stopwords
	stemmer   Stemmer
	caps      map[string]int
	signature string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithStopwords replaces the stopword source.
func WithStopwords(s Stopwords) Option {
	return func(n *Normalizer) { n.stopwords = s }
}

// WithStemmer replaces the stemmer.
func WithStemmer(s Stemmer) Option {
	return func(n *Normalizer) { n.stemmer = s }
}

// New creates a Normalizer with the English stopword list, the Snowball
// stemmer and the default rule chain unless overridden.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		rules:     DefaultRules(),
		stopwords: EnglishStopwords(),
		stemmer:   SnowballStemmer{},
	}
	for _, opt := range opts {
		opt(n)
	}
	// "equip" is repeated on every piece of equipment and would dominate
	// that whole category.
	n.caps = map[string]int{n.stemmer.Stem("equip"): 1}
	n.signature = signature(n)
	return n
}

// Signature identifies the configuration that produced a token sequence.
// Two normalizers with equal signatures tokenize every card identically.
func (n *Normalizer) Signature() string {
	return n.signature
}

func signature(n *Normalizer) string {
	d := xxhash.New()
	for _, r := range n.rules {
		_, _ = d.WriteString(r.Name)
		_, _ = d.Write([]byte{0})
	}
	_, _ = d.Write([]byte{0x1e})
	if set, ok := n.stopwords.(StopwordSet); ok {
		words := make([]string, 0, len(set))
		for w := range set {
			words = append(words, w)
		}
		sort.Strings(words)
		for _, w := range words {
			_, _ = d.WriteString(w)
			_, _ = d.Write([]byte{0})
		}
	} else {
		_, _ = fmt.Fprintf(d, "%T", n.stopwords)
	}
	_, _ = d.Write([]byte{0x1e})
	_, _ = fmt.Fprintf(d, "%T", n.stemmer)
	return strconv.FormatUint(d.Sum64(), 16)
}

// Rewrite runs the rule chain over the card's joined text and subtypes.
func (n *Normalizer) Rewrite(card domain.Card) string {
	text := strings.Join(append([]string{card.Text}, card.Subtypes...), " ")
	name := strings.ToLower(card.Name)
	for _, r := range n.rules {
		text = r.Apply(text, name)
	}
	return text
}

// Normalize returns the card's token sequence. Cards without text and
// subtypes yield an empty sequence.
func (n *Normalizer) Normalize(card domain.Card) ([]string, error) {
	if card.Name == "" {
		return nil, &domain.MalformedRecordError{Index: -1, Field: "name"}
	}

	var order []string
	counts := make(map[string]int)
	for _, raw := range Split(n.Rewrite(card)) {
		if raw == "" || n.stopwords.IsStopword(raw) {
			continue
		}
		tok := n.stemmer.Stem(raw)
		if tok == "" {
			continue
		}
		if _, seen := counts[tok]; !seen {
			order = append(order, tok)
		}
		counts[tok]++
	}

	for tok, limit := range n.caps {
		if counts[tok] > limit {
			counts[tok] = limit
		}
	}

	tokens := make([]string, 0, len(order))
	for _, tok := range order {
		for i := 0; i < counts[tok]; i++ {
			tokens = append(tokens, tok)
		}
	}
	return tokens, nil
}

// NormalizeAll normalizes every card of the library in order. The first
// malformed record aborts with its position.
func NormalizeAll(ctx context.Context, n domain.Normalizer, cards []domain.Card) ([][]string, error) {
	docs := make([][]string, len(cards))
	for i, c := range cards {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tokens, err := n.Normalize(c)
		if err != nil {
			var mre *domain.MalformedRecordError
			if errors.As(err, &mre) && mre.Index < 0 {
				return nil, &domain.MalformedRecordError{Index: i, Field: mre.Field}
			}
			return nil, fmt.Errorf("normalize card %d: %w", i, err)
		}
		docs[i] = tokens
	}
	return docs, nil
}
