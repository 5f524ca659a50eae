package genai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTaskType(t *testing.T) {
	assert.Equal(t, "RETRIEVAL_DOCUMENT", parseTaskType(""))
	assert.Equal(t, "RETRIEVAL_DOCUMENT", parseTaskType("CLUSTERING"))
	assert.Equal(t, "RETRIEVAL_QUERY", parseTaskType("RETRIEVAL_QUERY"))
	assert.Equal(t, "SEMANTIC_SIMILARITY", parseTaskType("SEMANTIC_SIMILARITY"))
}

func TestNewEngine_RequiresKey(t *testing.T) {
	_, err := NewEngine(context.Background(), "", "", "")
	assert.ErrorContains(t, err, "API key is required")
}
