package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeSoftwareTemplate(t *testing.T) {
	got := Synthesize("Launch a mobile app in 8 weeks")
	require.Len(t, got.Tasks, 6)
	assert.Equal(t, float64(480), got.ProjectAnalysis.EstimatedTotalTime)
	assert.Equal(t, "HIGH", got.ProjectAnalysis.ComplexityLevel)
	titles := make([]string, 0, len(got.Tasks))
	for _, task := range got.Tasks {
		titles = append(titles, task.Title)
		assert.NotNil(t, task.Dependencies)
		assert.Empty(t, task.Dependencies)
	}
	assert.Equal(t, []string{
		"Project Setup and Planning",
		"UI/UX Design Creation",
		"Backend API Development",
		"Frontend Development",
		"Testing and QA",
		"Deployment and Launch",
	}, titles)
	assert.Equal(t, float64(480), got.TotalHours())
	require.NoError(t, got.Validate())
}

func TestSynthesizeDefaultTemplate(t *testing.T) {
	got := Synthesize("Write a novel")
	require.Len(t, got.Tasks, 5)
	assert.Equal(t, float64(120), got.ProjectAnalysis.EstimatedTotalTime)
	assert.Equal(t, "Initial Planning", got.Tasks[0].Title)
	assert.Equal(t, "Documentation and Delivery", got.Tasks[4].Title)
	assert.Equal(t, float64(120), got.TotalHours())
	require.NoError(t, got.Validate())
}

func TestSynthesizeKeywordsAreCaseInsensitive(t *testing.T) {
	assert.Equal(t, TemplateSoftware, TemplateFor("Build SOFTWARE for my shop"))
	assert.Equal(t, TemplateSoftware, TemplateFor("Ship a Mobile game"))
	assert.Equal(t, TemplateDefault, TemplateFor("Run a marathon"))
}

func TestSynthesizeIsDeterministicAndIsolated(t *testing.T) {
	a := Synthesize("Write a novel")
	b := Synthesize("Write a novel")
	assert.Equal(t, a, b)

	a.Tasks[0].Title = "changed"
	a.Tasks[0].Tags[0] = "changed"
	c := Synthesize("Write a novel")
	assert.Equal(t, b, c)
}

func TestSynthesizedResultSurvivesExtraction(t *testing.T) {
	want := Synthesize("Launch a mobile app")
	got, err := Extract("```json\n" + Marshal(want) + "\n```")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
