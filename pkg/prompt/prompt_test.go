package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparhub/sparrow/pkg/llm"
)

func TestBuildPromptSubstitution(t *testing.T) {
	messages := BuildPrompt("application text", AcademicTemplate, Variables{
		CriteriaString: "research potential",
	})

	require.Len(t, messages, 2)
	assert.Equal(t, llm.RoleUser, messages[0].Role)
	assert.Equal(t, "application text", messages[0].Content)
	assert.Equal(t, llm.RoleSystem, messages[1].Role)

	system := messages[1].Content
	assert.Contains(t, system, "research potential")
	assert.Contains(t, system, "'FINAL_RANKING = '")
	assert.NotContains(t, system, "{criteria_string}")
	assert.NotContains(t, system, "{ranking_keyword}")
	assert.NotContains(t, system, "{additional_instructions}")
}

func TestBuildPromptKeywordOverride(t *testing.T) {
	vars := Variables{CriteriaString: "c", RankingKeyword: "CUSTOM_SCORE"}
	messages := BuildPrompt("data", AcademicTemplate, vars)

	assert.Contains(t, messages[1].Content, "CUSTOM_SCORE")
	assert.NotContains(t, messages[1].Content, "FINAL_RANKING")
	assert.Equal(t, "CUSTOM_SCORE", AcademicTemplate.Keyword(vars))
}

func TestBuildPromptAdditionalInstructions(t *testing.T) {
	messages := BuildPrompt("data", AcademicTemplate, Variables{
		CriteriaString:         "c",
		AdditionalInstructions: "  Be concise.  ",
	})
	assert.True(t, strings.HasSuffix(messages[1].Content, "\n\nBe concise."))

	// Whitespace-only instructions collapse to nothing.
	messages = BuildPrompt("data", AcademicTemplate, Variables{
		CriteriaString:         "c",
		AdditionalInstructions: "   ",
	})
	assert.NotContains(t, messages[1].Content, "{additional_instructions}")
	assert.False(t, strings.HasSuffix(messages[1].Content, "\n\n"))
}

func TestBuildMultiAxisPromptOrderAndContent(t *testing.T) {
	messages := BuildMultiAxisPrompt("applicant data", SPARTemplate, Variables{
		CriteriaString: "SPAR criteria",
	})

	require.Len(t, messages, 2)
	// Multi-axis puts the system message first.
	assert.Equal(t, llm.RoleSystem, messages[0].Role)
	assert.Equal(t, llm.RoleUser, messages[1].Role)
	assert.Equal(t, "applicant data", messages[1].Content)

	system := messages[0].Content
	assert.Contains(t, system, "SPAR criteria")
	for _, axis := range SPARTemplate.Axes {
		assert.Contains(t, system, "'"+axis.RankingKeyword+" = '")
		firstLine, _, _ := strings.Cut(axis.PromptSection, "\n")
		assert.Contains(t, system, firstLine)
	}
	assert.NotContains(t, system, "{ranking_keyword}")
	assert.NotContains(t, system, "{criteria_string}")
	assert.NotContains(t, system, "{additional_instructions}")

	// Outro follows all axis sections.
	assert.Greater(t, strings.Index(system, "overall summary"), strings.Index(system, "RESEARCH_EXPERIENCE_RATING"))
}

func TestSPARTemplateAxes(t *testing.T) {
	require.Len(t, SPARTemplate.Axes, 7)

	keywords := SPARTemplate.AxisKeywords()
	assert.Equal(t, "GENERAL_PROMISE_RATING", keywords["General Promise"])
	assert.Equal(t, "ML_SKILLS_RATING", keywords["ML Skills"])
	assert.Equal(t, "SOFTWARE_ENGINEERING_RATING", keywords["Software Engineering Skills"])
	assert.Equal(t, "POLICY_EXPERIENCE_RATING", keywords["Policy Experience"])
	assert.Equal(t, "AI_SAFETY_UNDERSTANDING_RATING", keywords["Understanding of AI Safety"])
	assert.Equal(t, "PATH_TO_IMPACT_RATING", keywords["Path to Impact"])
	assert.Equal(t, "RESEARCH_EXPERIENCE_RATING", keywords["Research Experience"])
}

func TestToTemplateUsesFirstAxis(t *testing.T) {
	single, err := SPARTemplate.ToTemplate()
	require.NoError(t, err)

	assert.Equal(t, SPARTemplate.ID, single.ID)
	assert.Equal(t, "GENERAL_PROMISE_RATING", single.RankingKeyword)
	assert.Contains(t, single.SystemMessage, "## General Promise")
	assert.NotContains(t, single.SystemMessage, "## ML Skills")

	_, err = MultiAxis{ID: "empty"}.ToTemplate()
	assert.ErrorIs(t, err, ErrNoAxes)
}

func TestGetTemplateFallback(t *testing.T) {
	assert.Equal(t, "academic", GetTemplate("academic").ID)
	assert.Equal(t, "academic", GetTemplate("does-not-exist").ID)
}
