// Package pipeline describes multi-stage reasoning pipelines and runs them
// against a text generator. A Spec is a DAG of stages; each stage renders a
// text/template prompt from the query, the fragment context and the outputs
// of the stages it depends on.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
)

// Role is the reasoning persona a stage is dispatched to.
type Role string

const (
	Researcher Role = "researcher"
	Analyst    Role = "analyst"
	Writer     Role = "writer"
	Validator  Role = "validator"
)

// Persona describes how the generator should behave for a role.
type Persona struct {
	Title     string
	Goal      string
	Backstory string
}

// System renders the persona as a system instruction.
func (p Persona) System() string {
	return fmt.Sprintf("You are a %s. Your goal: %s\n%s", p.Title, p.Goal, p.Backstory)
}

// Stage is one node of a pipeline.
// Instructions is a text/template executed with fields Query, Context and
// Upstream; Upstream holds the outputs of DependsOn joined by a blank line.
type Stage struct {
	ID             string
	Role           Role
	Instructions   string
	ExpectedOutput string
	DependsOn      []string
}

// Spec is a complete pipeline bound to one query.
type Spec struct {
	Name    string
	Query   string
	Context string
	Stages  []Stage
	Roles   map[Role]Persona
}

// Participants lists the distinct roles of the spec in stage order.
func (s Spec) Participants() []Role {
	seen := make(map[Role]bool, len(s.Stages))
	var out []Role
	for _, st := range s.Stages {
		if !seen[st.Role] {
			seen[st.Role] = true
			out = append(out, st.Role)
		}
	}
	return out
}

// FormatContext renders fragments the way every pipeline embeds them.
func FormatContext(fragments []domain.Fragment) string {
	parts := make([]string, len(fragments))
	for i, f := range fragments {
		parts[i] = fmt.Sprintf("Document %d:\n%s", i+1, f.Content)
	}
	return strings.Join(parts, "\n\n")
}
