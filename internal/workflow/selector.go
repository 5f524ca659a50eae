// Package workflow routes a query to the Standard or Analytical pipeline.
package workflow

import (
	"sort"
	"strings"
)

// Workflow names a pipeline shape.
type Workflow string

const (
	Standard   Workflow = "Standard"
	Analytical Workflow = "Analytical"
)

// Table maps lowercase keywords to the workflow they select.
type Table map[string]Workflow

// AnalyticalTable builds a table routing every keyword to Analytical.
func AnalyticalTable(keywords []string) Table {
	t := make(Table, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			t[k] = Analytical
		}
	}
	return t
}

// Selector is a pure keyword gate. It is safe for concurrent use.
type Selector struct {
	keywords []string
	table    Table
}

// NewSelector copies table so later edits by the caller have no effect.
func NewSelector(table Table) *Selector {
	s := &Selector{table: make(Table, len(table))}
	for k, w := range table {
		k = strings.ToLower(k)
		s.table[k] = w
		s.keywords = append(s.keywords, k)
	}
	sort.Strings(s.keywords)
	return s
}

// Select returns Analytical when the lowercased query contains a keyword
// mapped to it, and Standard otherwise.
func (s *Selector) Select(query string) Workflow {
	w, _ := s.Match(query)
	return w
}

// Match is Select that also reports the first matching keyword in
// lexical order, empty when none matched.
func (s *Selector) Match(query string) (Workflow, string) {
	q := strings.ToLower(query)
	for _, k := range s.keywords {
		if s.table[k] == Analytical && strings.Contains(q, k) {
			return Analytical, k
		}
	}
	return Standard, ""
}
