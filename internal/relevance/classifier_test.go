package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
)

func frags(contents ...string) []domain.Fragment {
	out := make([]domain.Fragment, len(contents))
	for i, c := range contents {
		out[i] = domain.Fragment{Content: c, Source: "doc.txt"}
	}
	return out
}

var corpus = frags(
	"Jane Doe. Senior backend engineer with 7 years of Go and Kubernetes experience at Acme Corp.",
	"Job description: Senior Software Engineer position. Requirements: Go, distributed systems, mentoring.",
)

func TestCheck_EmptyFragments(t *testing.T) {
	c := New(DefaultThreshold, 0)
	for _, q := range []string{"", "What is document 1 about?", "Who is Jane?"} {
		v := c.Check(q, nil)
		assert.False(t, v.IsRelevant, q)
		assert.Equal(t, "no documents found", v.Explanation)
	}
}

func TestCheck_KeyTermCoverage(t *testing.T) {
	v := New(DefaultThreshold, 0).Check("What is document 1 about?", frags("This is document 1 about Python programming."))
	assert.True(t, v.IsRelevant)
	// "what" is the only key term missing out of what, document, about.
	assert.InDelta(t, 2.0/3.0, v.Score, 1e-9)
	assert.Equal(t, "Relevance score: 0.67", v.Explanation)
}

func TestCheck_SingleTermCrossesThreshold(t *testing.T) {
	// One present key term out of three gives 1/3, which passes 0.3.
	v := New(0.3, 3).Check("kubernetes salary expectations", corpus)
	assert.InDelta(t, 1.0/3.0, v.Score, 1e-9)
	assert.True(t, v.IsRelevant)
	assert.ElementsMatch(t, []string{"salary", "expectations"}, v.MissingTerms)
}

func TestCheck_UnknownEntityRejected(t *testing.T) {
	v := New(DefaultThreshold, 0).Check("Who is Collins?", corpus)
	assert.False(t, v.IsRelevant)
	assert.Zero(t, v.Score)
	assert.Equal(t, []string{"collins"}, v.MissingTerms)
	assert.Equal(t, []string{"Collins"}, v.MissingEntities)
	assert.Contains(t, v.Explanation, "Named entities not found: Collins")
	assert.Contains(t, v.Explanation, "Key terms not found: collins")
}

func TestCheck_KnownEntityOverridesLowScore(t *testing.T) {
	v := New(0.9, 3).Check("Did Jane ever manage budgets or payroll?", corpus)
	assert.Less(t, v.Score, 0.9)
	assert.True(t, v.IsRelevant, "a capitalized token present in the corpus makes the query relevant")
}

func TestCheck_ZeroKeyTermsBoundary(t *testing.T) {
	for _, q := range []string{"ok", "why?", "is it"} {
		v := New(DefaultThreshold, 0).Check(q, corpus)
		assert.False(t, v.IsRelevant, "%q has no key terms and no entity", q)
		assert.Zero(t, v.Score)
		assert.Contains(t, v.Explanation, "no key terms")
	}
}

func TestCheck_QuestionWordIsNotEntity(t *testing.T) {
	v := New(0.9, 0).Check("Where did Jane work?", frags("somewhere over the rainbow"))
	assert.Equal(t, []string{"Jane"}, v.MissingEntities)
	assert.False(t, v.IsRelevant)
}

func TestCheck_ShortCapitalizedTokenIsNotEntity(t *testing.T) {
	// "Go" has two runes, so it is neither a key term nor an entity.
	v := New(DefaultThreshold, 0).Check("Go?", corpus)
	assert.False(t, v.IsRelevant)
	assert.Empty(t, v.MissingEntities)
}

func TestCheck_PunctuationIsTrimmed(t *testing.T) {
	v := New(DefaultThreshold, 0).Check("\"Kubernetes\", (mentoring)!", corpus)
	assert.True(t, v.IsRelevant)
	assert.Equal(t, 1.0, v.Score)
	assert.Empty(t, v.MissingTerms)
}

func TestNew_ThresholdDefaults(t *testing.T) {
	assert.InDelta(t, DefaultThreshold, New(-1, 0).threshold, 1e-9)
	assert.Equal(t, DefaultMinKeyTermLength, New(-1, 0).minKeyTermLength)
	assert.Zero(t, New(0, 0).threshold)
}

func TestCheck_ZeroThresholdAcceptsAnyKeyTerm(t *testing.T) {
	c := New(0, 0)
	v := c.Check("quarterly payroll budgets", corpus)
	assert.True(t, v.IsRelevant)
	assert.Zero(t, v.Score)

	v = c.Check("is it", corpus)
	assert.False(t, v.IsRelevant, "a query without key terms stays out of context")
}

func TestCheck_OnlyQuestionOpenersAreSkipped(t *testing.T) {
	v := New(DefaultThreshold, 0).Check("List Collins projects", frags("somewhere over the rainbow"))
	assert.Equal(t, []string{"List", "Collins"}, v.MissingEntities)

	v = New(DefaultThreshold, 0).Check("Would Collins relocate?", frags("somewhere over the rainbow"))
	assert.Equal(t, []string{"Collins"}, v.MissingEntities)
}
