package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cardsim/internal/domain"
)

// SimilarityPort is the TUI-facing subset of the similarity engine.
type SimilarityPort interface {
	GetCardByName(name string) (domain.Card, error)
	Similar(name string, n, offset int) ([]domain.Match, error)
	Stats() domain.Stats
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service  SimilarityPort
	input    textinput.Model
	viewport viewport.Model
	pageSize int
	target   domain.Card
	results  []domain.Match
	offset   int
	status   string
	cursor   int
	ready    bool
}

// New creates a new TUI model instance showing pageSize results per page.
func New(service SimilarityPort, pageSize int) Model {
	if pageSize <= 0 {
		pageSize = 10
	}
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a card name and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		input:    ti,
		viewport: vp,
		pageSize: pageSize,
		status:   "Loaded. Type a card name.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 3                                    // header + stats + target
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			name := strings.TrimSpace(m.input.Value())
			if name != "" {
				m = m.lookup(name)
				return m, nil
			}
		case "pgdown":
			if m.target.Name != "" && len(m.results) == m.pageSize {
				m = m.page(m.offset + m.pageSize)
				return m, nil
			}
		case "pgup":
			if m.target.Name != "" && m.offset > 0 {
				m = m.page(max(0, m.offset-m.pageSize))
				return m, nil
			}
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) lookup(name string) Model {
	card, err := m.service.GetCardByName(name)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.target = domain.Card{}
		m.results = nil
		m.viewport.SetContent(m.renderCurrentResult())
		return m
	}
	m.target = card
	return m.page(0)
}

func (m Model) page(offset int) Model {
	res, err := m.service.Similar(m.target.Name, m.pageSize, offset)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.results = nil
	} else {
		m.results = res
		m.offset = offset
		m.cursor = 0
		m.status = fmt.Sprintf("Cards similar to %q, ranks %d-%d", m.target.Name, offset+1, offset+len(res))
		if len(res) == 0 {
			m.status = fmt.Sprintf("No more cards similar to %q", m.target.Name)
		}
	}
	m.viewport.SetContent(m.renderCurrentResult())
	return m
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	st := m.service.Stats()
	header := lipgloss.NewStyle().Bold(true).Render("Card Similarity")
	stats := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(
		fmt.Sprintf("%d cards, %d terms, %d topics, build %s", st.Cards, st.Vocabulary, st.Topics, st.BuildID))
	target := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(renderTarget(m.target))
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + stats + "\n" + target + "\n" + results + "\n" + input + "\n" + status
}

func renderTarget(c domain.Card) string {
	if c.Name == "" {
		return "No card selected."
	}
	return c.Name + ": " + strings.ReplaceAll(c.Text, "\n", " ")
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	title := fmt.Sprintf("#%d  %s  score=%.3f", m.offset+m.cursor+1, r.Card.Name, r.Score)
	meta := strings.TrimSpace(strings.Join([]string{r.Card.ManaCost, r.Card.Type}, "  "))
	body := highlightBestSentence(r.Card.Text, m.target.Text)
	if meta != "" {
		return title + "\n" + meta + "\n\n" + body
	}
	return title + "\n\n" + body
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence emphasizes the sentence of text sharing the most
// words with reference.
func highlightBestSentence(text, reference string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := splitSentences(text)
	refTokens := toTokenSet(reference)
	if len(refTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(refTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

// splitSentences splits text after terminal punctuation. Trailing text
// without punctuation is kept as a final sentence.
func splitSentences(text string) []string {
	var out []string
	end := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); s != "" {
			out = append(out, s)
		}
		end = loc[1]
	}
	if rest := strings.TrimSpace(text[end:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(refTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := refTokens[t]; ok {
			score++
		}
	}
	return score
}
