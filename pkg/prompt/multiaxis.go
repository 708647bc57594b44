package prompt

import (
	"strings"

	"github.com/sparhub/sparrow/pkg/llm"
)

// Axis is one dimension of a multi-axis evaluation. PromptSection carries
// the rubric text with a {ranking_keyword} placeholder.
type Axis struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	RankingKeyword string `json:"ranking_keyword"`
	PromptSection  string `json:"prompt_section"`
}

// MultiAxis is a template that scores a candidate across several axes in
// one completion. The system message is intro + every axis section + outro.
type MultiAxis struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SystemIntro string `json:"system_intro"`
	SystemOutro string `json:"system_outro"`
	Axes        []Axis `json:"axes"`
}

// AxisKeywords maps axis names to their ranking keywords.
func (m MultiAxis) AxisKeywords() map[string]string {
	keywords := make(map[string]string, len(m.Axes))
	for _, axis := range m.Axes {
		keywords[axis.Name] = axis.RankingKeyword
	}
	return keywords
}

// ToTemplate collapses the multi-axis template to a single-axis Template
// using only the first axis. Used where a caller can only handle one score.
func (m MultiAxis) ToTemplate() (Template, error) {
	if len(m.Axes) == 0 {
		return Template{}, ErrNoAxes
	}
	first := m.Axes[0]
	return Template{
		ID:             m.ID,
		Name:           m.Name,
		Description:    m.Description,
		SystemMessage:  m.SystemIntro + "\n\n" + first.PromptSection + "\n\n" + m.SystemOutro,
		RankingKeyword: first.RankingKeyword,
	}, nil
}

// BuildMultiAxisPrompt assembles the message list for a multi-axis
// evaluation. Unlike the single-axis order, the system message comes first
// so the full rubric establishes context before the applicant data.
func BuildMultiAxisPrompt(applicantData string, m MultiAxis, vars Variables) []llm.Message {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(m.SystemIntro, "{criteria_string}", vars.CriteriaString))
	for _, axis := range m.Axes {
		b.WriteString("\n\n")
		b.WriteString(strings.ReplaceAll(axis.PromptSection, "{ranking_keyword}", axis.RankingKeyword))
	}
	b.WriteString("\n\n")
	b.WriteString(m.SystemOutro)

	system := substituteAdditionalInstructions(b.String(), vars.AdditionalInstructions)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: applicantData},
	}
}
