package domain

import "strings"

// Card is one record of the card library. Only Name, Text and Subtypes take
// part in similarity; the remaining fields are carried for display.
type Card struct {
	Name     string   `json:"name"`
	Text     string   `json:"text,omitempty"`
	Subtypes []string `json:"subtypes,omitempty"`
	ManaCost string   `json:"manaCost,omitempty"`
	Type     string   `json:"type,omitempty"`
}

// Textless reports whether the card carries no rules text. Such "vanilla"
// cards are never returned as similar cards.
func (c Card) Textless() bool { return c.Text == "" }

// NormalizeName returns the lookup key of a card name: lowercased with
// every character outside [a-z0-9] removed.
func NormalizeName(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}
