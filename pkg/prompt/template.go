// Package prompt holds evaluation prompt templates and the builders that
// turn them into LLM message lists. Templates use {criteria_string},
// {ranking_keyword} and {additional_instructions} placeholders, substituted
// at build time.
package prompt

import (
	"strings"

	"github.com/sparhub/sparrow/pkg/llm"
)

// Template is a single-axis evaluation template. The system message asks
// for exactly one score, announced with the ranking keyword.
type Template struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	SystemMessage  string `json:"system_message"`
	RankingKeyword string `json:"ranking_keyword"`
}

// Variables are substituted into a template at build time. RankingKeyword
// overrides the template's keyword when set.
type Variables struct {
	CriteriaString         string `json:"criteria_string"`
	RankingKeyword         string `json:"ranking_keyword,omitempty"`
	AdditionalInstructions string `json:"additional_instructions,omitempty"`
}

// RankingKeyword returns the keyword the extractor should look for:
// the override from vars if present, else the template's own.
func (t Template) Keyword(vars Variables) string {
	if vars.RankingKeyword != "" {
		return vars.RankingKeyword
	}
	return t.RankingKeyword
}

// BuildPrompt assembles the message list for a single-axis evaluation.
// The applicant data goes first and the system message second; the
// templates were written against that order and refer to "the application
// above".
func BuildPrompt(applicantData string, t Template, vars Variables) []llm.Message {
	system := strings.ReplaceAll(t.SystemMessage, "{criteria_string}", vars.CriteriaString)
	system = strings.ReplaceAll(system, "{ranking_keyword}", t.Keyword(vars))
	system = substituteAdditionalInstructions(system, vars.AdditionalInstructions)

	return []llm.Message{
		{Role: llm.RoleUser, Content: applicantData},
		{Role: llm.RoleSystem, Content: system},
	}
}

func substituteAdditionalInstructions(system, instructions string) string {
	trimmed := strings.TrimSpace(instructions)
	if trimmed != "" {
		return strings.ReplaceAll(system, "{additional_instructions}", "\n\n"+trimmed)
	}
	return strings.ReplaceAll(system, "{additional_instructions}", "")
}
