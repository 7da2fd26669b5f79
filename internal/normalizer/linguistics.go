package normalizer

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kljensen/snowball/english"
)

// Stopwords decides which tokens are dropped before stemming.
type Stopwords interface {
	IsStopword(token string) bool
}

// Stemmer reduces a token to its root form.
type Stemmer interface {
	Stem(token string) string
}

//go:embed english.txt
var englishStopwords string

// StopwordSet is a fixed set of stopwords.
type StopwordSet map[string]struct{}

// IsStopword reports whether token is in the set.
func (s StopwordSet) IsStopword(token string) bool {
	_, ok := s[token]
	return ok
}

// EnglishStopwords returns the standard English stopword list.
func EnglishStopwords() StopwordSet {
	set, _ := ReadStopwords(strings.NewReader(englishStopwords))
	return set
}

// ReadStopwords reads one stopword per line; blank lines and lines starting
// with # are ignored.
func ReadStopwords(r io.Reader) (StopwordSet, error) {
	set := make(StopwordSet)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		set[strings.ToLower(w)] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stopwords: %w", err)
	}
	return set, nil
}

// LoadStopwords reads a stopword file from disk.
func LoadStopwords(path string) (StopwordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stopwords: %w", err)
	}
	defer f.Close()
	return ReadStopwords(f)
}

// SnowballStemmer is the Snowball English stemmer.
type SnowballStemmer struct{}

// Stem lowercases token and stems it. Possessives of the self-reference
// reduce to "~".
func (SnowballStemmer) Stem(token string) string {
	return english.Stem(strings.ToLower(token), true)
}
