package evaluation

import (
	"strings"

	"github.com/sparhub/sparrow/pkg/llm"
	"github.com/sparhub/sparrow/pkg/prompt"
	"github.com/sparhub/sparrow/pkg/scoring"
)

// PromptPlan is a built evaluation prompt plus what the score extractor
// needs afterwards: the single ranking keyword, or the per-axis keywords
// when the evaluation is multi-axis.
type PromptPlan struct {
	Messages []llm.Message
	Keyword  string
	Axes     []scoring.AxisKeyword
}

// BuildEvaluationPrompt assembles the messages for an evaluation.
//
// Multi-axis evaluations use the template named by templateID and ignore
// rankingKeyword, since each axis carries its own. Single-axis
// evaluations always collapse the SPAR multi-axis template to its first
// axis, so both modes score against the same rubric.
func BuildEvaluationPrompt(applicantData, criteriaString, templateID, rankingKeyword, additionalInstructions string, useMultiAxis bool) PromptPlan {
	criteria := strings.ReplaceAll(criteriaString, "<br>", "\n")

	if useMultiAxis {
		multi := prompt.GetMultiAxisTemplate(templateID)
		vars := prompt.Variables{
			CriteriaString:         criteria,
			AdditionalInstructions: additionalInstructions,
		}
		return PromptPlan{
			Messages: prompt.BuildMultiAxisPrompt(applicantData, multi, vars),
			Axes:     scoring.KeywordsFromTemplate(multi),
		}
	}

	multi := prompt.GetMultiAxisTemplate("multi_axis_spar")
	single, _ := multi.ToTemplate()
	vars := prompt.Variables{
		CriteriaString:         criteria,
		RankingKeyword:         rankingKeyword,
		AdditionalInstructions: additionalInstructions,
	}
	return PromptPlan{
		Messages: prompt.BuildPrompt(applicantData, single, vars),
		Keyword:  single.Keyword(vars),
	}
}
