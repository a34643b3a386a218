package ideas

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_EveryProfileTemplateParses(t *testing.T) {
	t.Parallel()

	for e, p := range profiles {
		if p.template == "" {
			continue
		}
		assert.NotNil(t, prompts.Lookup(p.template), "endpoint %s", e)
	}
	assert.NotNil(t, prompts.Lookup(businessIdeaTemplate))
}

func TestRender_GenerateIdea(t *testing.T) {
	t.Parallel()

	out, err := render("generate_idea.tmpl", promptData{Prompt: "a plant watering app"})
	require.NoError(t, err)
	assert.Contains(t, out, `based on this prompt: "a plant watering app"`)
	assert.Contains(t, out, "Unique Value:")
}

func TestRender_AnalyzeIdeasNumbersFromOne(t *testing.T) {
	t.Parallel()

	out, err := render("analyze_ideas.tmpl", promptData{Ideas: []Idea{
		{Title: "A", Description: "first"},
		{Title: "B", Description: "second"},
	}})
	require.NoError(t, err)
	assert.Contains(t, out, "Idea 1:\nTitle: A\nDescription: first")
	assert.Contains(t, out, "Idea 2:\nTitle: B\nDescription: second")
	assert.NotContains(t, out, "Idea 0:")
}

func TestRender_TrimsAndKeepsInputsVerbatim(t *testing.T) {
	t.Parallel()

	out, err := render("check_similarity.tmpl", promptData{Text1: "<one>", Text2: "two & three"})
	require.NoError(t, err)
	assert.Contains(t, out, "Idea 1: <one>")
	assert.Contains(t, out, "Idea 2: two & three")
	assert.Equal(t, strings.TrimSpace(out), out)
}

func TestRender_UnknownTemplate(t *testing.T) {
	t.Parallel()

	_, err := render("missing.tmpl", promptData{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.tmpl")
}

