package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
	"github.com/simiyu-dess/OnboardIQ/internal/pipeline"
	"github.com/simiyu-dess/OnboardIQ/internal/service"
	"github.com/simiyu-dess/OnboardIQ/internal/workflow"
)

type fakePort struct {
	ans     service.Answer
	err     error
	queries []string
}

func (f *fakePort) Answer(_ context.Context, q string) (service.Answer, error) {
	f.queries = append(f.queries, q)
	return f.ans, f.err
}

func (f *fakePort) DocumentCount(context.Context) (int, error) { return 7, nil }

func (f *fakePort) OutOfContextCount() int64 { return 2 }

func newModel(p Port) Model {
	m := New(context.Background(), p, "Corpus about backend engineering.")
	m.render = func(md string, _ int) string { return md }
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func typeQuery(t *testing.T, m Model, q string) (Model, tea.Cmd) {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(q)})
	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

// drain runs cmd and any batched commands, returning the first answerMsg.
func drain(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c == nil {
				continue
			}
			if am, ok := c().(answerMsg); ok {
				return am
			}
		}
		t.Fatal("no answer in batch")
	}
	return msg
}

func page(n int) *int { return &n }

func score(f float64) *float64 { return &f }

func TestModel_AnswerFlow(t *testing.T) {
	port := &fakePort{ans: service.Answer{
		RunID:    "run-1",
		Text:     "Jane has seven years of Go.",
		Workflow: workflow.Standard,
		References: []domain.Fragment{
			{Content: "Seven years of Go. Led a team.", Source: "cv.pdf", Page: page(2), RelevanceScore: score(0.91)},
			{Content: "Requirements: Go.", Source: "job.txt"},
		},
		Trace: []pipeline.StageRecord{{StageID: "research", Persona: "Research Analyst", Output: "FACTS", Duration: time.Second}},
	}}
	m := newModel(port)

	m, cmd := typeQuery(t, m, "How many years of Go?")
	assert.True(t, m.busy)
	assert.Empty(t, m.input.Value())

	next, _ := m.Update(drain(t, cmd))
	m = next.(Model)
	assert.False(t, m.busy)
	assert.Equal(t, []string{"How many years of Go?"}, port.queries)

	body := m.renderBody()
	assert.Contains(t, body, "Jane has seven years of Go.")
	assert.Contains(t, body, "Reference 1/2  cv.pdf p.2  score=0.910")
	assert.NotContains(t, body, "Stage trace")
	assert.Contains(t, m.status, "run-1")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Contains(t, m.renderBody(), "Reference 2/2  job.txt")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	m = next.(Model)
	assert.Contains(t, m.renderBody(), "Stage trace")
	assert.Contains(t, m.renderBody(), "Research Analyst")
}

func TestModel_OutOfContextHidesReferences(t *testing.T) {
	port := &fakePort{ans: service.Answer{
		Text:         "Nothing about Collins here.",
		OutOfContext: true,
		References:   []domain.Fragment{{Content: "Jane Doe.", Source: "cv.txt"}},
	}}
	m, cmd := typeQuery(t, newModel(port), "Who is Collins?")
	next, _ := m.Update(drain(t, cmd))
	m = next.(Model)

	assert.NotContains(t, m.renderBody(), "Reference")
	assert.True(t, strings.HasPrefix(m.status, "Out of context"))
}

func TestModel_ErrorShownInStatus(t *testing.T) {
	m, cmd := typeQuery(t, newModel(&fakePort{err: domain.ErrNotIndexed}), "anything")
	next, _ := m.Update(drain(t, cmd))
	m = next.(Model)
	assert.Contains(t, m.status, "Error: ")
	assert.Equal(t, "No answer yet.", m.renderBody())
}

func TestModel_EnterIgnoredWhileBusy(t *testing.T) {
	port := &fakePort{}
	m, cmd := typeQuery(t, newModel(port), "first")
	require.NotNil(t, cmd)
	_, cmd = typeQuery(t, m, "second")
	assert.Nil(t, cmd)
}

func TestModel_CountsInHeader(t *testing.T) {
	m := newModel(&fakePort{})
	next, _ := m.Update(countMsg{n: 7})
	view := next.(Model).View()
	assert.Contains(t, view, "7 fragments indexed")
	assert.Contains(t, view, "2 out-of-context queries")

	next, _ = next.Update(countMsg{err: errors.New("down")})
	assert.Equal(t, 7, next.(Model).fragments)
}

func TestHighlightBestSentence(t *testing.T) {
	out := highlightBestSentence("Cats purr. Go is fast.", "is go fast")
	assert.Contains(t, out, "Cats purr.")
	assert.Contains(t, out, "Go is fast.")
	assert.Equal(t, "", highlightBestSentence("", "go"))
}
