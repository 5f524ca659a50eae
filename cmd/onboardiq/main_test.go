package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
	"github.com/simiyu-dess/OnboardIQ/internal/pipeline"
	"github.com/simiyu-dess/OnboardIQ/internal/relevance"
	"github.com/simiyu-dess/OnboardIQ/internal/service"
	"github.com/simiyu-dess/OnboardIQ/internal/workflow"
)

func TestRootCmd_Subcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"index", "ask", "chat", "serve", "watch", "count", "clear", "models"} {
		assert.Contains(t, names, want)
	}
}

func TestIndexCmd_RequiresFiles(t *testing.T) {
	assert.Error(t, indexCmd.Args(indexCmd, nil))
	assert.NoError(t, indexCmd.Args(indexCmd, []string{"cv.pdf"}))
	assert.Error(t, watchCmd.Args(watchCmd, []string{"a", "b"}))
}

func TestPrintAnswer(t *testing.T) {
	p := 3
	ans := service.Answer{
		RunID:      "run-1",
		Text:       "Seven years of Go.",
		Workflow:   workflow.Standard,
		References: []domain.Fragment{{Source: "cv.pdf", Page: &p}, {Source: "job.txt"}},
		Trace:      []pipeline.StageRecord{{StageID: "research", Persona: "Research Analyst", Output: "FACTS", Duration: 1500 * time.Millisecond}},
	}

	var buf bytes.Buffer
	printAnswer(&buf, ans, false)
	assert.Equal(t, "Seven years of Go.\n\nReferences:\n  [1] cv.pdf p.3\n  [2] job.txt\n", buf.String())

	buf.Reset()
	printAnswer(&buf, ans, true)
	assert.Contains(t, buf.String(), "Run run-1, Standard workflow")
	assert.Contains(t, buf.String(), "--- research: Research Analyst (1.5s)\nFACTS")
}

func TestPrintAnswer_OutOfContext(t *testing.T) {
	var buf bytes.Buffer
	printAnswer(&buf, service.Answer{
		Text:         "No Collins in the documents.",
		OutOfContext: true,
		Verdict:      relevance.Verdict{Explanation: "Named entities not found: Collins"},
		References:   []domain.Fragment{{Source: "cv.txt"}},
	}, true)
	require.NotContains(t, buf.String(), "References")
	assert.Contains(t, buf.String(), "(out of context: Named entities not found: Collins)")
}
