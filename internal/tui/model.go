// Package tui is an interactive chat front end for the question-answering
// service.
package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/simiyu-dess/OnboardIQ/internal/service"
)

// Port is the TUI-facing subset of the service.
type Port interface {
	Answer(ctx context.Context, query string) (service.Answer, error)
	DocumentCount(ctx context.Context) (int, error)
	OutOfContextCount() int64
}

type answerMsg struct {
	query string
	ans   service.Answer
	err   error
}

type countMsg struct {
	n   int
	err error
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx       context.Context
	service   Port
	input     textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	render    func(markdown string, width int) string
	summary   string
	status    string
	fragments int
	last      *service.Answer
	lastQuery string
	cursor    int
	showTrace bool
	busy      bool
	ready     bool
}

// New creates a chat model. summary is shown under the header, usually the
// corpus summary produced at indexing time.
func New(ctx context.Context, svc Port, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the indexed documents and press Enter"
	ti.Focus()
	ti.CharLimit = 4096

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		ctx:      ctx,
		service:  svc,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		render:   renderMarkdown,
		summary:  summary,
		status:   "Ready. Ctrl+T toggles the stage trace, Up/Down cycles references.",
	}
}

// Init starts the cursor blink and loads the fragment count.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.countCmd())
}

func (m Model) countCmd() tea.Cmd {
	return func() tea.Msg {
		n, err := m.service.DocumentCount(m.ctx)
		return countMsg{n: n, err: err}
	}
}

func (m Model) askCmd(q string) tea.Cmd {
	return func() tea.Msg {
		ans, err := m.service.Answer(m.ctx, q)
		return answerMsg{query: q, ans: ans, err: err}
	}
}

// Update handles key, window and async result events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header and summary, status, spacer
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.refresh()
		return m, nil

	case countMsg:
		if msg.err == nil {
			m.fragments = msg.n
		}
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.last = nil
		} else {
			ans := msg.ans
			m.last = &ans
			m.lastQuery = msg.query
			m.cursor = 0
			m.status = m.answerStatus(ans)
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyCtrlT:
			m.showTrace = !m.showTrace
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.input.Reset()
			m.status = fmt.Sprintf("Thinking about %q", q)
			return m, tea.Batch(m.askCmd(q), m.spinner.Tick)
		case tea.KeyDown:
			if m.last != nil && len(m.last.References) > 0 {
				m.cursor = (m.cursor + 1) % len(m.last.References)
				m.refresh()
				return m, nil
			}
		case tea.KeyUp:
			if m.last != nil && len(m.last.References) > 0 {
				m.cursor = (m.cursor - 1 + len(m.last.References)) % len(m.last.References)
				m.refresh()
				return m, nil
			}
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) answerStatus(ans service.Answer) string {
	switch {
	case ans.OutOfContext && ans.Degraded:
		return "Out of context (generator unavailable, fixed reply)"
	case ans.OutOfContext:
		return fmt.Sprintf("Out of context: %s", ans.Verdict.Explanation)
	default:
		return fmt.Sprintf("%s pipeline, %d stages, run %s", ans.Workflow, len(ans.Trace), ans.RunID)
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderBody())
	m.viewport.GotoTop()
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	counts := fmt.Sprintf("  %d fragments indexed, %d out-of-context queries", m.fragments, m.service.OutOfContextCount())
	header := headerStyle.Render("OnboardIQ") + mutedStyle.Render(counts)
	summary := mutedStyle.Render(m.summary)
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderBody() string {
	if m.last == nil {
		return "No answer yet."
	}
	var b strings.Builder
	b.WriteString(m.render(m.last.Text, m.viewport.Width))

	if refs := m.last.References; len(refs) > 0 && !m.last.OutOfContext {
		r := refs[m.cursor]
		title := fmt.Sprintf("Reference %d/%d  %s", m.cursor+1, len(refs), r.Source)
		if r.Page != nil {
			title += fmt.Sprintf(" p.%d", *r.Page)
		}
		if r.RelevanceScore != nil {
			title += fmt.Sprintf("  score=%.3f", *r.RelevanceScore)
		}
		b.WriteString("\n" + mutedStyle.Render(title) + "\n\n")
		b.WriteString(highlightBestSentence(r.Content, m.lastQuery))
		b.WriteString("\n")
	}

	if m.showTrace && len(m.last.Trace) > 0 {
		b.WriteString("\n" + headerStyle.Render("Stage trace") + "\n")
		for _, rec := range m.last.Trace {
			fmt.Fprintf(&b, "\n%s %s (%s)\n", traceStyle.Render(rec.StageID), rec.Persona, rec.Duration.Round(time.Millisecond))
			b.WriteString(rec.Output)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(max(20, width-4)))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	traceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	spinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence marks the sentence of text sharing the most words
// with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sent = highlightStyle.Render(sent)
		}
		sentences[i] = sent
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	seen := make(map[string]struct{})
	for _, t := range unicodeWordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
