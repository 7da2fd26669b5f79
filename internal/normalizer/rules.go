package normalizer

import (
	"regexp"
	"strings"
)

// SelfReference replaces a card's own name in its text.
const SelfReference = "~"

// NumberMarker replaces every run of digits.
const NumberMarker = "N"

// Rule is one ordered string rewrite. name is the lowercased card name.
type Rule struct {
	Name  string
	Apply func(text, name string) string
}

var (
	reminderRe = regexp.MustCompile(`\([^)]+\)`)
	costRe     = regexp.MustCompile(`\{[^}]+\}`)
	ptBuffRe   = regexp.MustCompile(`([+-])[\dxX*]+/([+-])[\dxX*]+`)
	numberRe   = regexp.MustCompile(`\d+`)
	splitRe    = regexp.MustCompile(`[\s.,;:—()]+`)
)

// Lowercase folds the whole text to lower case.
var Lowercase = Rule{Name: "lowercase", Apply: func(text, _ string) string {
	return strings.ToLower(text)
}}

// SelfName replaces every occurrence of the card name with SelfReference.
// It must run before punctuation is touched so multi-word names still match.
var SelfName = Rule{Name: "self-name", Apply: func(text, name string) string {
	if name == "" {
		return text
	}
	return strings.ReplaceAll(text, name, SelfReference)
}}

// ReminderText strips parenthesized reminder text.
var ReminderText = Rule{Name: "reminder-text", Apply: func(text, _ string) string {
	return reminderRe.ReplaceAllString(text, "")
}}

// Costs strips {…} cost symbols.
var Costs = Rule{Name: "costs", Apply: func(text, _ string) string {
	return costRe.ReplaceAllString(text, "")
}}

// PTBuffs collapses power/toughness modifiers to ±X/±X, keeping both signs.
var PTBuffs = Rule{Name: "pt-buffs", Apply: func(text, _ string) string {
	return ptBuffRe.ReplaceAllString(text, "${1}X/${2}X")
}}

// Numbers replaces runs of digits with NumberMarker.
var Numbers = Rule{Name: "numbers", Apply: func(text, _ string) string {
	return numberRe.ReplaceAllString(text, NumberMarker)
}}

// DefaultRules returns the rewrite chain in the order it must run.
func DefaultRules() []Rule {
	return []Rule{Lowercase, SelfName, ReminderText, Costs, PTBuffs, Numbers}
}

// Split breaks rewritten text on runs of whitespace and punctuation.
func Split(text string) []string {
	return splitRe.Split(text, -1)
}
