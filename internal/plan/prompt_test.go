package plan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPromptEmbedsGoalAndContext(t *testing.T) {
	prompt, err := BuildPrompt("Launch a bakery", map[string]any{"budget": 5000})
	require.NoError(t, err)
	lines := strings.SplitN(prompt, "\n", 3)
	require.Len(t, lines, 3)
	assert.Equal(t, "Goal: Launch a bakery", lines[0])
	assert.Equal(t, `Context: {"budget":5000}`, lines[1])
	assert.Contains(t, prompt, `"project_analysis"`)
	assert.True(t, strings.HasSuffix(prompt, closingInstruction))
}

func TestBuildPromptNilContext(t *testing.T) {
	prompt, err := BuildPrompt("Launch a bakery", nil)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Context: {}\n")
}

func TestBuildPromptRejectsUnencodableContext(t *testing.T) {
	_, err := BuildPrompt("Launch a bakery", map[string]any{"fn": func() {}})
	require.Error(t, err)
}
