package resume

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sparhub/sparrow/pkg/config"
	"github.com/sparhub/sparrow/pkg/llm"
	"github.com/sparhub/sparrow/pkg/plugin"
)

const downloadTimeout = 60 * time.Second

// Plugin downloads a PDF resume, extracts its text, and returns structured
// candidate data. Heuristic parsing runs first; the LLM takes over
// exclusively when the heuristics leave key sections empty, so the two
// extraction methods never mix.
type Plugin struct {
	logger   *slog.Logger
	meta     plugin.Metadata
	settings *config.Settings
	factory  *llm.Factory
	client   *http.Client

	llmProvider string
	llmModel    string
}

// New constructs the PDF resume parser plugin.
func New(settings *config.Settings, factory *llm.Factory) plugin.Plugin {
	return &Plugin{
		logger:   slog.Default().With("plugin", "pdf_resume_parser"),
		settings: settings,
		factory:  factory,
		client:   &http.Client{Timeout: downloadTimeout},
		meta: plugin.Metadata{
			Name:         "pdf_resume_parser",
			Version:      "1.0.0",
			Description:  "Extracts text and structured data from PDF resumes",
			Author:       "MCP Team",
			Capabilities: []string{"pdf_parsing", "resume_parsing", "document_extraction"},
			RequiredParams: map[string]string{
				"pdf_url": "URL to the PDF resume to parse",
			},
			OptionalParams: map[string]string{
				"use_llm_fallback": "Whether to use LLM fallback if direct extraction fails (boolean, default: true)",
				"llm_provider":     "LLM provider to use for fallback (string, default: 'anthropic')",
				"llm_model":        "LLM model to use for fallback (string, default: the configured PDF parsing model)",
			},
			Examples: []map[string]any{
				{
					"query":      "Parse resume from URL",
					"parameters": map[string]any{"pdf_url": "https://example.com/resume.pdf"},
				},
				{
					"query":      "Parse resume without LLM fallback",
					"parameters": map[string]any{"pdf_url": "https://example.com/resume.pdf", "use_llm_fallback": false},
				},
			},
		},
	}
}

func (p *Plugin) Initialize(ctx context.Context, pluginConfig map[string]any) error {
	p.logger.Info("initializing PDF resume parser plugin")

	p.llmProvider = "anthropic"
	if provider, ok := pluginConfig["llm_provider"].(string); ok && provider != "" {
		p.llmProvider = provider
	}
	p.llmModel = p.settings.PDFParsingModel(p.llmProvider)
	if model, ok := pluginConfig["llm_model"].(string); ok && model != "" {
		p.llmModel = model
	}

	p.logger.Info("PDF resume parser plugin initialized",
		"llm_provider", p.llmProvider, "llm_model", p.llmModel)
	return nil
}

func (p *Plugin) Execute(ctx context.Context, req *plugin.Request) (*plugin.Response, error) {
	pdfURL, _ := req.Parameters["pdf_url"].(string)
	if pdfURL == "" {
		p.logger.Error("missing required parameter: pdf_url")
		return plugin.NewErrorResponse(req.RequestID, "Missing required parameter: pdf_url"), nil
	}

	useLLMFallback := true
	if v, ok := req.Parameters["use_llm_fallback"].(bool); ok {
		useLLMFallback = v
	}
	llmProvider := p.llmProvider
	if v, ok := req.Parameters["llm_provider"].(string); ok && v != "" {
		llmProvider = v
	}
	llmModel := p.llmModel
	if v, ok := req.Parameters["llm_model"].(string); ok && v != "" {
		llmModel = v
	}

	p.logger.Info("PDF resume plugin execution started",
		"pdf_url", pdfURL, "use_llm_fallback", useLLMFallback,
		"llm_provider", llmProvider, "llm_model", llmModel)

	content, err := DownloadPDF(ctx, p.client, pdfURL)
	if err != nil {
		p.logger.Error("PDF resume parsing failed", "error", err)
		return plugin.NewErrorResponse(req.RequestID,
			fmt.Sprintf("PDF resume parsing failed: %v", err)), nil
	}

	text, err := ExtractText(content)
	if err != nil {
		p.logger.Error("PDF resume parsing failed", "error", err)
		return plugin.NewErrorResponse(req.RequestID,
			fmt.Sprintf("PDF resume parsing failed: %v", err)), nil
	}
	p.logger.Info("text extraction complete", "text_length", len(text))

	data := Parse(text)
	p.logger.Info("direct extraction results",
		"name_found", data.PersonalInfo.Name != nil,
		"education_entries", len(data.Education),
		"experience_entries", len(data.Experience),
		"skills_found", len(data.Skills))

	needsFallback := NeedsLLMFallback(data)
	usedFallback := false
	switch {
	case needsFallback && useLLMFallback:
		p.logger.Info("direct extraction incomplete, using LLM fallback exclusively",
			"provider", llmProvider, "model", llmModel)
		llmData, err := ParseWithLLM(ctx, text, llmProvider, llmModel, p.settings, p.factory)
		if err != nil {
			// Keep the heuristic result when the model call fails.
			p.logger.Error("LLM fallback parsing failed", "error", err)
		} else {
			data = llmData
			usedFallback = true
		}
	case needsFallback:
		p.logger.Warn("direct extraction incomplete and LLM fallback disabled",
			"personal_info_missing", data.PersonalInfo.Name == nil,
			"education_missing", len(data.Education) == 0,
			"experience_missing", len(data.Experience) == 0,
			"skills_missing", len(data.Skills) == 0)
	}

	resp := plugin.NewSuccessResponse(req.RequestID, map[string]any{
		"parsed_resume": data,
		"text_length":   len(text),
		"source_url":    pdfURL,
	})
	resp.Metadata["plugin"] = "pdf_resume_parser"
	resp.Metadata["version"] = p.meta.Version
	resp.Metadata["used_llm_fallback"] = usedFallback
	return resp, nil
}

func (p *Plugin) ValidateRequest(req *plugin.Request) bool {
	return plugin.HasRequiredParams(p.meta, req)
}

func (p *Plugin) Shutdown(ctx context.Context) error {
	p.logger.Info("shutting down PDF resume parser plugin")
	return nil
}

func (p *Plugin) Metadata() plugin.Metadata { return p.meta }

// NeedsLLMFallback reports whether direct extraction left key sections
// missing or incomplete.
func NeedsLLMFallback(data Data) bool {
	if data.PersonalInfo.Name == nil {
		return true
	}
	if len(data.Education) == 0 || len(data.Experience) == 0 || len(data.Skills) == 0 {
		return true
	}
	for _, exp := range data.Experience {
		if exp.Title == nil || len(exp.Responsibilities) == 0 {
			return true
		}
	}
	return false
}
