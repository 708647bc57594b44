package resume

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sparhub/sparrow/pkg/config"
	"github.com/sparhub/sparrow/pkg/llm"
)

// LLM pass for resumes the heuristics cannot handle: scanned layouts,
// multi-column PDFs, unconventional section names. The model gets the raw
// text and a strict JSON schema; its output is normalized and decoded into
// the same Data structure.

const maxLLMTextLength = 50000

var fallbackLogger = slog.With("component", "resume_llm_fallback")

const parserSystemMessage = "You are an expert resume parser. Output ONLY valid JSON. No explanations, no text before or after the JSON."

// ParseWithLLM asks the configured model to parse the resume text. On any
// failure the zero-value Data comes back with the error so the caller can
// keep the heuristic result instead.
func ParseWithLLM(ctx context.Context, text, providerName, modelName string, settings *config.Settings, factory *llm.Factory) (Data, error) {
	truncated := text
	if len(truncated) > maxLLMTextLength {
		truncated = truncated[:maxLLMTextLength]
	}

	apiKey, err := settings.GetAPIKey(providerName)
	if err != nil {
		return NewData(), err
	}
	provider, err := factory.Get(providerName, settings.TimeoutFor(providerName))
	if err != nil {
		return NewData(), err
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: parserSystemMessage},
		{Role: llm.RoleUser, Content: BuildParsePrompt(truncated)},
	}
	// Prefill forces Anthropic models straight into the JSON object.
	if providerName == "anthropic" {
		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: "{"})
	}

	fallbackLogger.Info("Calling LLM for resume parsing", "provider", providerName, "model", modelName)
	resp, err := provider.Complete(ctx, llm.CompletionRequest{
		APIKey:      apiKey,
		Model:       modelName,
		Messages:    messages,
		Temperature: llm.Float64(0.1),
		MaxTokens:   2000,
	})
	if err != nil {
		return NewData(), err
	}

	content := resp.Content
	// The prefilled "{" is not part of the completion; put it back.
	if providerName == "anthropic" && !strings.HasPrefix(strings.TrimSpace(content), "{") {
		content = "{" + content
	}

	parsed, err := ParseResponse(content)
	if err != nil {
		return NewData(), err
	}
	if err := checkMinimumContent(parsed); err != nil {
		fallbackLogger.Warn("LLM output below minimum content threshold", "error", err)
		return NewData(), err
	}

	fallbackLogger.Info("LLM parsing successful")
	return Normalize(text, parsed), nil
}

// Degenerate model output (an empty or near-empty JSON skeleton) must not
// replace the heuristic result.
const (
	minParsedContentChars = 100
	minPopulatedSections  = 3
)

// checkMinimumContent rejects parsed output with fewer than three
// populated sections or under 100 characters of extracted text across all
// of them.
func checkMinimumContent(data Data) error {
	sections := 0
	chars := 0
	add := func(n int) {
		if n > 0 {
			sections++
			chars += n
		}
	}

	add(ptrLen(data.PersonalInfo.Name) + ptrLen(data.PersonalInfo.Email) +
		ptrLen(data.PersonalInfo.Phone) + ptrLen(data.PersonalInfo.Location))

	education := 0
	for _, entry := range data.Education {
		education += ptrLen(entry.Institution) + ptrLen(entry.Degree) +
			ptrLen(entry.Period) + ptrLen(entry.Details)
	}
	add(education)

	experience := 0
	for _, entry := range data.Experience {
		experience += ptrLen(entry.Company) + ptrLen(entry.Title) + ptrLen(entry.Period)
		for _, line := range entry.Responsibilities {
			experience += len(strings.TrimSpace(line))
		}
	}
	add(experience)

	skills := 0
	for _, skill := range data.Skills {
		skills += len(strings.TrimSpace(skill))
	}
	add(skills)

	projects := 0
	for _, project := range data.Projects {
		projects += ptrLen(project.Name) + ptrLen(project.Description) + ptrLen(project.URL)
		for _, tech := range project.Technologies {
			projects += len(strings.TrimSpace(tech))
		}
	}
	add(projects)

	languages := 0
	for _, language := range data.Languages {
		languages += len(strings.TrimSpace(language.Language)) + ptrLen(language.Proficiency)
	}
	add(languages)

	if sections < minPopulatedSections {
		return fmt.Errorf("parsed resume has %d populated sections, need at least %d", sections, minPopulatedSections)
	}
	if chars < minParsedContentChars {
		return fmt.Errorf("parsed resume has %d characters of content, need at least %d", chars, minParsedContentChars)
	}
	return nil
}

func ptrLen(value *string) int {
	if value == nil {
		return 0
	}
	return len(strings.TrimSpace(*value))
}

// BuildParsePrompt renders the parsing instruction with the resume text
// inlined.
func BuildParsePrompt(text string) string {
	return fmt.Sprintf(`
Parse the following resume text into a structured JSON format that follows this exact schema:

`+"```json"+`
{
  "personal_info": {
    "name": "string or null",
    "email": "string or null",
    "phone": "string or null",
    "location": "string or null"
  },
  "education": [
    {
      "institution": "string",
      "degree": "string or null",
      "period": "string or null",
      "details": "string or null"
    }
  ],
  "experience": [
    {
      "company": "string",
      "title": "string or null",
      "period": "string or null",
      "responsibilities": ["string"]
    }
  ],
  "skills": ["string"],
  "projects": [
    {
      "name": "string or null",
      "description": "string or null",
      "technologies": ["string"],
      "url": "string or null"
    }
  ],
  "languages": [
    {
      "language": "string",
      "proficiency": "string or null"
    }
  ]
}
`+"```"+`

STRICT REQUIREMENTS:
1. Output MUST be valid, parseable JSON. Return ONLY the JSON object with no additional text.
2. Preserve Unicode accents/diacritics exactly (UTF-8). Do NOT replace characters like á, é, í, ó, ú, ü, ñ, ç.
3. Periods must be extracted from the same section as company/title. Recognize and preserve Present/Currently (e.g., "May 2025 – Present"). Accept formats like "Jan. 2024 – Present", "July 2023 – Oct. 2023", or "2021–2023".
4. Retain symbols and units (%%, $, k, M) exactly as written.
5. Include ONLY 2–3 most recent education entries, 3–4 most recent experience entries, and 5–10 key skills.
6. Keep responsibility descriptions very brief (1–2 sentences max).
7. Include ONLY information explicitly present in the text. If information is not present, use null (for scalars) or an empty array (for lists). Do NOT guess or infer.
8. Use only the keys defined in the schema above. Do not add extra keys.
9. LIMIT TOTAL OUTPUT to 1500 words maximum
10. Return ONLY the JSON object. No explanations, no additional text.

RESUME TEXT:
%s
`, text)
}

var (
	jsonFencePattern   = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	stringLanguageForm = regexp.MustCompile(`^(.*?)\s*\((.*?)\)$`)
)

// ParseResponse extracts the JSON object from the model output and decodes
// it. Tolerates code fences, surrounding prose, and a few common model
// mistakes like string-typed language entries.
func ParseResponse(responseText string) (Data, error) {
	jsonStr := extractJSONObject(responseText)
	if jsonStr == "" {
		return NewData(), fmt.Errorf("no JSON object found in response")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		preview := responseText
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		fallbackLogger.Error("JSON parsing failed", "error", err, "response_preview", preview)
		return NewData(), err
	}

	for _, key := range []string{"personal_info", "education", "experience", "skills", "projects", "languages"} {
		if _, ok := raw[key]; !ok {
			fallbackLogger.Warn("Parsed JSON missing expected key", "key", key)
		}
	}

	fixLanguageEntries(raw)

	normalized, err := json.Marshal(raw)
	if err != nil {
		return NewData(), err
	}
	data := NewData()
	if err := json.Unmarshal(normalized, &data); err != nil {
		return NewData(), err
	}
	return data, nil
}

// extractJSONObject prefers a fenced ```json block, then balanced-brace
// scanning from the first '{', then the whole text.
func extractJSONObject(text string) string {
	if match := jsonFencePattern.FindStringSubmatch(text); match != nil {
		return strings.TrimSpace(match[1])
	}

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return strings.TrimSpace(text)
}

// Models sometimes return languages as plain strings, optionally in the
// "Language (Proficiency)" form.
func fixLanguageEntries(raw map[string]any) {
	languages, ok := raw["languages"].([]any)
	if !ok {
		return
	}
	fixed := make([]any, 0, len(languages))
	for _, entry := range languages {
		str, ok := entry.(string)
		if !ok {
			fixed = append(fixed, entry)
			continue
		}
		if match := stringLanguageForm.FindStringSubmatch(str); match != nil {
			fixed = append(fixed, map[string]any{
				"language":    strings.TrimSpace(match[1]),
				"proficiency": strings.TrimSpace(match[2]),
			})
		} else {
			fixed = append(fixed, map[string]any{"language": str, "proficiency": nil})
		}
	}
	raw["languages"] = fixed
}

var (
	// Spacing acute accent U+00B4 before vowels, a frequent PDF artifact.
	acuteRepairs = []struct{ from, to string }{
		{"´a", "á"}, {"´e", "é"}, {"´i", "í"}, {"´o", "ó"}, {"´u", "ú"},
		{"´A", "Á"}, {"´E", "É"}, {"´I", "Í"}, {"´O", "Ó"}, {"´U", "Ú"},
	}
	percentNumber = regexp.MustCompile(`(\d{1,3})%`)
	bareNumber    = regexp.MustCompile(`\b(\d{1,3})\b`)
)

// Normalize applies NFC, repairs spacing accents, collapses internal
// whitespace, and conservatively restores % signs the model dropped when
// the original text carries the same number with one.
func Normalize(originalText string, data Data) Data {
	data.PersonalInfo.Name = normalizePtr(data.PersonalInfo.Name)
	data.PersonalInfo.Email = normalizePtr(data.PersonalInfo.Email)
	data.PersonalInfo.Phone = normalizePtr(data.PersonalInfo.Phone)
	data.PersonalInfo.Location = normalizePtr(data.PersonalInfo.Location)

	for i := range data.Education {
		data.Education[i].Institution = normalizePtr(data.Education[i].Institution)
		data.Education[i].Degree = normalizePtr(data.Education[i].Degree)
		data.Education[i].Period = normalizePtr(data.Education[i].Period)
		data.Education[i].Details = normalizePtr(data.Education[i].Details)
	}
	for i := range data.Experience {
		data.Experience[i].Company = normalizePtr(data.Experience[i].Company)
		data.Experience[i].Title = normalizePtr(data.Experience[i].Title)
		data.Experience[i].Period = normalizePtr(data.Experience[i].Period)
		for j, line := range data.Experience[i].Responsibilities {
			data.Experience[i].Responsibilities[j] = normalizeString(line)
		}
	}
	for i := range data.Skills {
		data.Skills[i] = normalizeString(data.Skills[i])
	}
	for i := range data.Projects {
		data.Projects[i].Name = normalizePtr(data.Projects[i].Name)
		data.Projects[i].Description = normalizePtr(data.Projects[i].Description)
		data.Projects[i].URL = normalizePtr(data.Projects[i].URL)
		for j, tech := range data.Projects[i].Technologies {
			data.Projects[i].Technologies[j] = normalizeString(tech)
		}
	}
	for i := range data.Languages {
		data.Languages[i].Language = normalizeString(data.Languages[i].Language)
		data.Languages[i].Proficiency = normalizePtr(data.Languages[i].Proficiency)
	}

	restorePercentSigns(originalText, data.Experience)
	return data
}

func normalizePtr(value *string) *string {
	if value == nil {
		return nil
	}
	normalized := normalizeString(*value)
	return &normalized
}

func normalizeString(value string) string {
	normalized := norm.NFC.String(value)
	for _, repair := range acuteRepairs {
		normalized = strings.ReplaceAll(normalized, repair.from, repair.to)
	}
	return strings.Join(strings.Fields(normalized), " ")
}

func restorePercentSigns(originalText string, experience []Experience) {
	percents := map[string]bool{}
	for _, match := range percentNumber.FindAllStringSubmatch(originalText, -1) {
		percents[match[1]] = true
	}
	if len(percents) == 0 {
		return
	}

	for i := range experience {
		for j, line := range experience[i].Responsibilities {
			if strings.Contains(line, "%") {
				continue
			}
			num := bareNumber.FindString(line)
			if num != "" && percents[num] {
				experience[i].Responsibilities[j] = strings.Replace(line, num, num+"%", 1)
			}
		}
	}
}
