package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sparhub/sparrow/pkg/config"
	"github.com/sparhub/sparrow/pkg/llm"
	"github.com/sparhub/sparrow/pkg/metrics"
	"github.com/sparhub/sparrow/pkg/plugin"
	"github.com/sparhub/sparrow/pkg/scoring"
)

// evaluationTemperature is fixed low so repeated evaluations of the same
// applicant stay consistent.
const evaluationTemperature = 0.2

// Service runs applicant evaluations end to end.
type Service struct {
	settings *config.Settings
	factory  *llm.Factory
	manager  *plugin.Manager
	logger   *slog.Logger
}

// NewService wires the evaluation service to the provider factory and the
// shared plugin manager used for enrichment.
func NewService(settings *config.Settings, factory *llm.Factory, manager *plugin.Manager) *Service {
	return &Service{
		settings: settings,
		factory:  factory,
		manager:  manager,
		logger:   slog.Default().With("component", "evaluation"),
	}
}

// Evaluate scores an applicant. When the request asks for plugin
// enrichment, LinkedIn and PDF resume data are fetched first and injected
// into the applicant data; enrichment failures degrade to log lines in
// the result rather than failing the evaluation. The completion comes
// back with diagnostic blocks appended: extracted multi-axis scores, the
// enrichment log, and the raw enrichment payloads.
func (s *Service) Evaluate(ctx context.Context, req Request) (*Response, error) {
	s.logger.Info("evaluation request received",
		"provider", req.Provider, "model", req.Model,
		"template", req.TemplateID, "data_length", len(req.ApplicantData))

	var (
		enrichment    map[string]any
		enrichmentLog []string
		linkedinJSON  string
		pdfJSON       string
	)
	if req.UsePlugin && req.SourceURL != "" {
		enrichment, linkedinJSON, pdfJSON = s.enrich(ctx, req, &enrichmentLog)
	}

	applicantData := req.ApplicantData
	if enrichment != nil {
		text := FormatEnrichmentData(enrichment)
		enrichmentLog = append(enrichmentLog, "Formatted enrichment data for prompt")
		applicantData = fmt.Sprintf("%s\n\n### CANDIDATE ENRICHMENT DATA:\n%s", req.ApplicantData, text)
		enrichmentLog = append(enrichmentLog, "Added enrichment data to applicant data")
	}

	templateID := req.TemplateID
	criteria := req.CriteriaString
	rankingKeyword := req.RankingKeyword
	instructions := req.AdditionalInstructions
	if req.UseMultiAxis {
		// Multi-axis always runs the SPAR template; each axis brings its
		// own ranking keyword.
		templateID = "multi_axis_spar"
		rankingKeyword = ""
		if strings.TrimSpace(criteria) == "" {
			criteria = "Evaluate the candidate for the SPAR research program."
		}
		if strings.TrimSpace(instructions) == "" {
			instructions = "Return a score from 1-5 for each of the evaluation axes."
		}
	}

	plan := BuildEvaluationPrompt(applicantData, criteria, templateID, rankingKeyword, instructions, req.UseMultiAxis)

	provider, err := s.factory.Get(req.Provider, s.settings.TimeoutFor(req.Provider))
	if err != nil {
		return nil, err
	}

	mode := "single_axis"
	if req.UseMultiAxis {
		mode = "multi_axis"
	}

	s.logger.Info("calling provider for evaluation", "provider", req.Provider, "model", req.Model)
	result, err := provider.Complete(ctx, llm.CompletionRequest{
		APIKey:      req.APIKey,
		Model:       req.Model,
		Messages:    plan.Messages,
		Temperature: llm.Float64(evaluationTemperature),
		MaxTokens:   s.settings.MaxTokensFor(req.Provider),
	})
	if err != nil {
		metrics.EvaluationsTotal.WithLabelValues(req.Provider, mode, "error").Inc()
		return nil, err
	}
	metrics.EvaluationsTotal.WithLabelValues(req.Provider, mode, "success").Inc()
	completion := result.Content

	var (
		score  *int
		scores []scoring.AxisScore
	)
	if req.UseMultiAxis {
		scores = scoring.ExtractMultiAxisScores(completion, plan.Axes)
		extracted := 0
		for _, axisScore := range scores {
			if axisScore.Score != nil {
				extracted++
			}
		}
		s.logger.Info("extracted multi-axis scores", "found", extracted, "axes", len(scores))
		if len(scores) > 0 && scores[0].Score != nil {
			score = scores[0].Score
		}
		if extracted == 0 {
			completion += "\n\n[WARNING] No multi-axis scores could be extracted from the LLM response. Please check the prompt format and extraction logic."
		}
	} else {
		score = scoring.ExtractScore(completion, plan.Keyword)
		s.logger.Info("extracted score", "keyword", plan.Keyword, "found", score != nil)
	}

	if req.UseMultiAxis && len(scores) > 0 {
		completion += "\n\n" + scoring.FormatScores(scores)
	}
	if len(enrichmentLog) > 0 {
		completion += "\n\n[ENRICHMENT LOG]\n" + strings.Join(enrichmentLog, "\n") + "\n[END ENRICHMENT LOG]"
	}
	if linkedinJSON != "" {
		completion += fmt.Sprintf("\n\n[LINKEDIN_DATA]\n%s\n[END_LINKEDIN_DATA]", linkedinJSON)
	}
	if pdfJSON != "" {
		completion += fmt.Sprintf("\n\n[PDF_RESUME_DATA]\n%s\n[END_PDF_RESUME_DATA]", pdfJSON)
	}

	return &Response{
		Result:   completion,
		Score:    score,
		Scores:   scores,
		Provider: req.Provider,
		Model:    req.Model,
	}, nil
}

// enrich dispatches enrichment by source: LinkedIn URLs go to the
// LinkedIn plugin, everything else (plus an explicit pdf_url) goes to the
// PDF resume parser. Both succeeding merges into a combined payload.
func (s *Service) enrich(ctx context.Context, req Request, log *[]string) (enrichment map[string]any, linkedinJSON, pdfJSON string) {
	s.logger.Info("plugin enrichment requested", "url", req.SourceURL)
	*log = append(*log, fmt.Sprintf("Enrichment requested for URL: %s", req.SourceURL))
	*log = append(*log, fmt.Sprintf("Available plugins: %v", s.manager.AvailablePlugins()))

	isLinkedIn := strings.Contains(req.SourceURL, "linkedin.com")

	var linkedinData map[string]any
	if isLinkedIn {
		linkedinData, linkedinJSON = s.enrichLinkedIn(ctx, req.SourceURL, log)
	}

	var pdfData map[string]any
	switch {
	case req.PDFURL != "":
		*log = append(*log, fmt.Sprintf("Processing PDF URL from pdf_url field: %s", req.PDFURL))
		pdfData, pdfJSON = s.enrichPDF(ctx, req.PDFURL, req.Provider, req.Model, log)
	case !isLinkedIn:
		pdfData, pdfJSON = s.enrichPDF(ctx, req.SourceURL, req.Provider, req.Model, log)
	}

	switch {
	case linkedinData != nil && pdfData != nil:
		enrichment = map[string]any{
			"type": "combined",
			"data": map[string]any{
				"linkedin": linkedinData["data"],
				"pdf":      pdfData["data"],
			},
		}
	case pdfData != nil:
		enrichment = pdfData
	case linkedinData != nil:
		enrichment = linkedinData
	default:
		s.logger.Warn("no enrichment data extracted", "url", req.SourceURL)
		*log = append(*log, fmt.Sprintf("Unrecognized source URL format: %s", req.SourceURL))
	}
	return enrichment, linkedinJSON, pdfJSON
}
