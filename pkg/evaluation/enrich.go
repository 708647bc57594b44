package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sparhub/sparrow/pkg/plugin"
)

const (
	linkedInPluginName  = "linkedin_external"
	pdfResumePluginName = "pdf_resume_parser"
)

// enrichLinkedIn fetches a LinkedIn profile through the plugin manager.
// Enrichment failures never abort the evaluation; they are recorded in
// the log and both return values come back empty.
func (s *Service) enrichLinkedIn(ctx context.Context, sourceURL string, log *[]string) (map[string]any, string) {
	s.logger.Info("detected LinkedIn profile URL", "url", sourceURL)
	*log = append(*log, fmt.Sprintf("Detected LinkedIn profile URL: %s", sourceURL))

	// Full profile URLs collapse to the username segment.
	username := sourceURL
	if idx := strings.Index(sourceURL, "linkedin.com/in/"); idx >= 0 {
		rest := sourceURL[idx+len("linkedin.com/in/"):]
		username = strings.SplitN(rest, "/", 2)[0]
		s.logger.Info("extracted LinkedIn username", "username", username)
		*log = append(*log, fmt.Sprintf("Extracted LinkedIn username: %s", username))
	}

	*log = append(*log, fmt.Sprintf("Executing LinkedIn plugin for username: %s", username))

	resp, err := s.manager.Execute(ctx, linkedInPluginName, newEnrichmentRequest(
		"get_person_profile", map[string]any{"linkedin_username": username}))
	if err != nil {
		msg := fmt.Sprintf("LinkedIn plugin execution error: %v", err)
		s.logger.Error("linkedin enrichment failed", "error", err)
		*log = append(*log, msg)
		return nil, ""
	}

	data, dataJSON := normalizeData(resp.Data)
	if resp.Status == plugin.StatusSuccess && data != nil {
		s.logger.Info("linkedin enrichment successful")
		*log = append(*log, "LinkedIn enrichment successful")
		*log = append(*log, fmt.Sprintf("Retrieved profile data: %d characters", len(dataJSON)))
		return map[string]any{"type": "linkedin", "data": data}, dataJSON
	}

	if str(data, "error") == "login_timeout" {
		msg := fmt.Sprintf("LinkedIn authentication failed: %s",
			strDefault(data, "message", "Cookie may be expired"))
		s.logger.Error("linkedin authentication failed", "detail", data["message"])
		*log = append(*log, msg)
		*log = append(*log, "IMPORTANT: Update the LINKEDIN_COOKIE environment variable with a fresh cookie")
	} else {
		msg := fmt.Sprintf("LinkedIn plugin failed: %s", responseFailure(resp))
		s.logger.Error("linkedin plugin failed", "status", resp.Status, "error", resp.Error)
		*log = append(*log, msg)
	}
	return nil, ""
}

// enrichPDF parses a PDF resume through the plugin manager, passing the
// evaluation's provider and model down for the LLM parsing fallback.
func (s *Service) enrichPDF(ctx context.Context, pdfURL, provider, model string, log *[]string) (map[string]any, string) {
	s.logger.Info("detected document URL, using PDF resume parser", "url", pdfURL)
	*log = append(*log, fmt.Sprintf("Detected document URL - Using PDF resume parser: %s", pdfURL))
	*log = append(*log, fmt.Sprintf("Executing PDF Resume plugin for URL: %s", pdfURL))

	resp, err := s.manager.Execute(ctx, pdfResumePluginName, newEnrichmentRequest(
		"parse_resume", map[string]any{
			"pdf_url":          pdfURL,
			"use_llm_fallback": true,
			"llm_provider":     provider,
			"llm_model":        model,
		}))
	if err != nil {
		msg := fmt.Sprintf("PDF resume plugin execution error: %v", err)
		s.logger.Error("pdf enrichment failed", "error", err)
		*log = append(*log, msg)
		return nil, ""
	}

	data, dataJSON := normalizeData(resp.Data)
	if resp.Status == plugin.StatusSuccess && data != nil {
		s.logger.Info("pdf resume enrichment successful")
		*log = append(*log, "PDF resume enrichment successful")
		*log = append(*log, fmt.Sprintf("Retrieved resume data: %d characters", len(dataJSON)))
		return map[string]any{"type": "pdf", "data": data}, dataJSON
	}

	msg := fmt.Sprintf("PDF resume plugin failed: %s", responseFailure(resp))
	s.logger.Error("pdf resume plugin failed", "status", resp.Status, "error", resp.Error)
	*log = append(*log, msg)
	return nil, ""
}

func newEnrichmentRequest(action string, params map[string]any) *plugin.Request {
	return &plugin.Request{
		RequestID:  fmt.Sprintf("req_%d", time.Now().UnixMilli()),
		Action:     action,
		Parameters: params,
		Timestamp:  time.Now().UTC(),
	}
}

// normalizeData round-trips plugin data through JSON so typed payloads
// (like the resume plugin's parsed structs) become plain maps the
// formatter can walk. The indented JSON doubles as the diagnostic block
// appended to the evaluation result.
func normalizeData(data any) (map[string]any, string) {
	if data == nil {
		return nil, ""
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, ""
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, ""
	}
	return m, string(raw)
}

func responseFailure(resp *plugin.Response) string {
	if resp.Error != "" {
		return resp.Error
	}
	return fmt.Sprintf("%v", resp.Data)
}
