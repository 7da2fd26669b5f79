package tui

import (
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardsim/internal/domain"
)

type fakePort struct {
	total   int
	calls   [][2]int
	failing bool
}

func (f *fakePort) GetCardByName(name string) (domain.Card, error) {
	if name != "Shock" {
		return domain.Card{}, &domain.LookupError{Name: name}
	}
	return domain.Card{Name: "Shock", Text: "Shock deals 2 damage to any target."}, nil
}

func (f *fakePort) Similar(name string, n, offset int) ([]domain.Match, error) {
	f.calls = append(f.calls, [2]int{n, offset})
	if f.failing {
		return nil, errors.New("index unavailable")
	}
	var out []domain.Match
	for i := offset; i < f.total && len(out) < n; i++ {
		out = append(out, domain.Match{
			Card:  domain.Card{Name: fmt.Sprintf("Card %d", i), Text: "Deals damage. Draw a card."},
			Score: 1 - float64(i)/100,
		})
	}
	return out, nil
}

func (f *fakePort) Stats() domain.Stats {
	return domain.Stats{BuildID: "b1", Cards: f.total + 1, Vocabulary: 12, Topics: 4}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func search(t *testing.T, m Model, name string) Model {
	t.Helper()
	m.input.SetValue(name)
	return update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestEnter_LoadsFirstPage(t *testing.T) {
	port := &fakePort{total: 25}
	m := search(t, New(port, 10), "Shock")

	require.Len(t, m.results, 10)
	assert.Equal(t, "Shock", m.target.Name)
	assert.Equal(t, 0, m.offset)
	assert.Equal(t, [][2]int{{10, 0}}, port.calls)
	assert.Contains(t, m.status, "ranks 1-10")
}

func TestEnter_UnknownCard(t *testing.T) {
	port := &fakePort{total: 5}
	m := search(t, New(port, 10), "Black Lotus")

	assert.Empty(t, m.results)
	assert.Empty(t, m.target.Name)
	assert.Contains(t, m.status, "card not found")
	assert.Empty(t, port.calls)
}

func TestEnter_EngineError(t *testing.T) {
	m := search(t, New(&fakePort{failing: true}, 10), "Shock")
	assert.Empty(t, m.results)
	assert.Contains(t, m.status, "index unavailable")
}

func TestPaging(t *testing.T) {
	port := &fakePort{total: 25}
	m := search(t, New(port, 10), "Shock")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 10, m.offset)
	assert.Equal(t, "Card 10", m.results[0].Card.Name)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 20, m.offset)
	assert.Len(t, m.results, 5)

	// A short page is the last one.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 20, m.offset)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, 10, m.offset)
	assert.Equal(t, [][2]int{{10, 0}, {10, 10}, {10, 20}, {10, 10}}, port.calls)
}

func TestCursorWraps(t *testing.T) {
	m := search(t, New(&fakePort{total: 3}, 10), "Shock")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 2, m.cursor)
}

func TestView(t *testing.T) {
	m := New(&fakePort{total: 3}, 10)
	assert.Equal(t, "Loading...", m.View())

	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	m = search(t, m, "Shock")
	view := m.View()
	assert.Contains(t, view, "Card Similarity")
	assert.Contains(t, view, "4 cards, 12 terms, 4 topics")
	assert.Contains(t, view, "Card 0")
}

func TestHighlightBestSentence(t *testing.T) {
	out := highlightBestSentence("Draw a card. Shock deals damage to any target.", "deals 2 damage to any target")
	assert.Contains(t, out, "Draw a card.")
	assert.Contains(t, out, "Shock deals damage to any target.")

	assert.Equal(t, "", highlightBestSentence("", "anything"))
	assert.Equal(t, "Draw a card.", highlightBestSentence("Draw a card.", ""))
}

func TestSplitSentences(t *testing.T) {
	assert.Equal(t, []string{"Flying.", "Vigilance"}, splitSentences("Flying. Vigilance"))
	assert.Equal(t, []string{"Bear"}, splitSentences("Bear"))
	assert.Equal(t, []string{"Draw a card.", "Scry 1!"}, splitSentences("Draw a card.  Scry 1! "))
}

func TestHighlightBestSentence_KeepsUnterminatedTail(t *testing.T) {
	out := highlightBestSentence("Flying. Vigilance", "vigilance")
	assert.Contains(t, out, "Flying.")
	assert.Contains(t, out, "Vigilance")

	assert.Equal(t, "Flying. Vigilance", highlightBestSentence("Flying. Vigilance", ""))
}

func TestTokenOverlapScore(t *testing.T) {
	ref := toTokenSet("Deals 2 damage to any target")
	assert.Equal(t, 3, tokenOverlapScore(ref, "It deals damage, damage to creatures."))
	assert.Equal(t, 0, tokenOverlapScore(ref, "Draw a card."))
}
