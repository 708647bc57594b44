// Package evaluation orchestrates applicant evaluations: plugin
// enrichment, prompt construction, the provider call, and score
// extraction from the completion.
package evaluation

import (
	"github.com/sparhub/sparrow/pkg/prompt"
	"github.com/sparhub/sparrow/pkg/scoring"
)

// Request is an applicant evaluation request. The caller supplies the
// provider API key, so the service never needs its own credentials for
// evaluations.
type Request struct {
	APIKey                 string           `json:"api_key"`
	Provider               string           `json:"provider"`
	Model                  string           `json:"model"`
	ApplicantData          string           `json:"applicant_data"`
	CriteriaString         string           `json:"criteria_string"`
	TemplateID             string           `json:"template_id,omitempty"`
	CustomTemplate         *prompt.Template `json:"custom_template,omitempty"`
	RankingKeyword         string           `json:"ranking_keyword,omitempty"`
	AdditionalInstructions string           `json:"additional_instructions,omitempty"`
	UseMultiAxis           bool             `json:"use_multi_axis,omitempty"`
	UsePlugin              bool             `json:"use_plugin,omitempty"`
	SourceURL              string           `json:"source_url,omitempty"`
	PDFURL                 string           `json:"pdf_url,omitempty"`
}

// Response carries the completion text, with diagnostic blocks appended,
// plus whatever scores could be extracted from it.
type Response struct {
	Result   string              `json:"result"`
	Score    *int                `json:"score,omitempty"`
	Scores   []scoring.AxisScore `json:"scores,omitempty"`
	Provider string              `json:"provider"`
	Model    string              `json:"model"`
}
