// Package corpus reads the card library: a JSON array of card records,
// optionally gzip compressed.
package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"cardsim/internal/domain"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Load reads the library at path.
func Load(path string) ([]domain.Card, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}
	defer f.Close()
	cards, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read library %s: %w", path, err)
	}
	return cards, nil
}

// Read decodes a library from r, transparently decompressing gzip input.
func Read(r io.Reader) ([]domain.Card, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, err
	}
	var src io.Reader = br
	if bytes.Equal(head, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		src = zr
	}

	var cards []domain.Card
	if err := json.NewDecoder(src).Decode(&cards); err != nil {
		return nil, fmt.Errorf("decode cards: %w", err)
	}
	for i, c := range cards {
		if c.Name == "" {
			return nil, &domain.MalformedRecordError{Index: i, Field: "name"}
		}
	}
	return cards, nil
}

// Write encodes cards as a gzip compressed JSON array.
func Write(w io.Writer, cards []domain.Card) error {
	zw := gzip.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(cards); err != nil {
		zw.Close()
		return fmt.Errorf("encode cards: %w", err)
	}
	return zw.Close()
}

// Duplicate is a normalized name shared by several records.
type Duplicate struct {
	Key       string
	Positions []int
}

// Duplicates reports every normalized name used by more than one record,
// in order of first appearance. Lookup keeps the last record of each.
func Duplicates(cards []domain.Card) []Duplicate {
	positions := make(map[string][]int, len(cards))
	var order []string
	for i, c := range cards {
		key := domain.NormalizeName(c.Name)
		if _, seen := positions[key]; !seen {
			order = append(order, key)
		}
		positions[key] = append(positions[key], i)
	}
	var dups []Duplicate
	for _, key := range order {
		if p := positions[key]; len(p) > 1 {
			dups = append(dups, Duplicate{Key: key, Positions: p})
		}
	}
	return dups
}
