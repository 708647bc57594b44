package resume

import (
	"regexp"
	"strings"
)

// Direct heuristic parsing. Works well on conventionally structured,
// text-based resumes; anything it cannot fill triggers the LLM pass.

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\b(?:\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	// City, ST form, e.g. "San Francisco, CA".
	cityStatePattern = regexp.MustCompile(`[A-Z][a-zA-Z\s]+,\s+[A-Z]{2}\b`)

	datePattern = regexp.MustCompile(`(?i)(?:19|20)\d{2}\s*(?:-|–|to)\s*(?:(?:19|20)\d{2}|present|current|now)`)
	yearPattern = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

	degreePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Bachelor|Master|Ph\.?D\.?|B\.S\.|M\.S\.|M\.B\.A\.|B\.A\.|M\.A\.|B\.Tech|M\.Tech)[\s.]+(?:of|in|on)?[\s.]+(?:Science|Arts|Engineering|Business|Administration|Technology|Computer Science|[A-Za-z\s]+)`),
		regexp.MustCompile(`(?i)(?:BS|MS|BA|MA|MBA|PhD)[\s.]+(?:in|on)?[\s.]+[A-Za-z\s]+`),
	}
	titlePattern = regexp.MustCompile(`(?i)(?:Senior|Junior|Lead|Principal|Staff|Chief|Director|Manager|Engineer|Developer|Analyst|Consultant|Intern|Associate)\s+[A-Za-z\s]+`)

	urlPattern  = regexp.MustCompile(`https?://\S+`)
	techPattern = regexp.MustCompile(`(?is)(?:Technologies|Tech Stack|Tools|Built with):\s*(.*?)(?:\n\n|\z)`)

	bulletMarker    = regexp.MustCompile(`[•\-*]\s*`)
	blankLineGap    = regexp.MustCompile(`\n\s*\n`)
	sectionLabel    = regexp.MustCompile(`^[^:\n]*:`)
	sentenceBreak   = regexp.MustCompile(`[.!?]\s+`)
	skillsHeading   = regexp.MustCompile(`(?i)^skills|^technical\s+skills`)
	languageHeading = regexp.MustCompile(`(?i)^languages`)
	parenthesized   = regexp.MustCompile(`(.*?)\s*\((.*?)\)`)
)

// Parse runs all section extractors over cleaned resume text.
func Parse(text string) Data {
	data := NewData()
	data.PersonalInfo = extractPersonalInfo(text)
	data.Education = extractEducation(text)
	data.Experience = extractExperience(text)
	data.Skills = extractSkills(text)
	data.Projects = extractProjects(text)
	data.Languages = extractLanguages(text)
	return data
}

func extractPersonalInfo(text string) PersonalInfo {
	var info PersonalInfo
	lines := strings.Split(text, "\n")

	// The name is usually the first early line that is not contact or
	// heading noise.
	for i, line := range lines {
		if i >= 5 {
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if strings.Contains(lower, "@") || strings.Contains(lower, "http") ||
			strings.Contains(lower, ".com") || strings.Contains(lower, "resume") ||
			strings.Contains(lower, "cv") {
			continue
		}
		info.Name = strPtr(trimmed)
		break
	}

	if email := emailPattern.FindString(text); email != "" {
		info.Email = strPtr(email)
	}
	if phone := phonePattern.FindString(text); phone != "" {
		info.Phone = strPtr(phone)
	}

	location := ExtractSection(text, "location", nil)
	if location == "" {
		location = ExtractSection(text, "address", nil)
	}
	if location != "" {
		info.Location = strPtr(location)
	} else {
		header := strings.Join(lines[:min(len(lines), 10)], "\n")
		if match := cityStatePattern.FindString(header); match != "" {
			info.Location = strPtr(match)
		}
	}
	return info
}

func extractEducation(text string) []Education {
	entries := []Education{}
	section := ExtractSection(text, "education", nil)
	if section == "" {
		return entries
	}

	for _, entry := range splitIntoEntries(section) {
		if len(strings.TrimSpace(entry)) < 10 {
			continue
		}
		var education Education
		lines := strings.Split(entry, "\n")

		education.Institution = strPtr(strings.TrimSpace(lines[0]))

		for _, pattern := range degreePatterns {
			if match := pattern.FindString(entry); match != "" {
				education.Degree = strPtr(strings.TrimSpace(match))
				break
			}
		}
		if education.Degree == nil && len(lines) > 1 {
			education.Degree = strPtr(strings.TrimSpace(lines[1]))
		}

		if match := datePattern.FindString(entry); match != "" {
			education.Period = strPtr(strings.TrimSpace(match))
		}

		if len(lines) > 2 {
			var details []string
			for _, line := range lines[2:] {
				trimmed := strings.TrimSpace(line)
				if trimmed == "" {
					continue
				}
				if education.Period != nil && strings.Contains(line, *education.Period) {
					continue
				}
				details = append(details, trimmed)
			}
			if len(details) > 0 {
				education.Details = strPtr(strings.Join(details, " "))
			}
		}

		entries = append(entries, education)
	}
	return entries
}

func extractExperience(text string) []Experience {
	entries := []Experience{}
	section := ExtractSection(text, "experience", nil)
	if section == "" {
		section = ExtractSection(text, "employment", nil)
	}
	if section == "" {
		section = ExtractSection(text, "work", nil)
	}
	if section == "" {
		return entries
	}

	for _, entry := range splitIntoEntries(section) {
		if len(strings.TrimSpace(entry)) < 10 {
			continue
		}
		var experience Experience
		lines := strings.Split(entry, "\n")

		experience.Company = strPtr(strings.TrimSpace(lines[0]))

		if match := titlePattern.FindString(entry); match != "" {
			experience.Title = strPtr(strings.TrimSpace(match))
		}
		if experience.Title == nil && len(lines) > 1 {
			experience.Title = strPtr(strings.TrimSpace(lines[1]))
		}

		if match := datePattern.FindString(entry); match != "" {
			experience.Period = strPtr(strings.TrimSpace(match))
		}

		responsibilities := extractBullets(entry)

		// No bullets: fall back to sentences from the remaining text.
		if len(responsibilities) == 0 {
			mainText := entry
			if experience.Title != nil {
				mainText = strings.Replace(mainText, *experience.Title, "", 1)
			}
			if experience.Period != nil {
				mainText = strings.Replace(mainText, *experience.Period, "", 1)
			}
			if experience.Company != nil {
				mainText = strings.Replace(mainText, *experience.Company, "", 1)
			}
			for _, sentence := range splitSentences(mainText) {
				trimmed := strings.TrimSpace(sentence)
				if len(trimmed) > 20 {
					responsibilities = append(responsibilities, trimmed)
				}
			}
		}

		experience.Responsibilities = responsibilities
		entries = append(entries, experience)
	}
	return entries
}

func extractSkills(text string) []string {
	skills := []string{}
	section := ExtractSection(text, "skills", nil)
	if section == "" {
		section = ExtractSection(text, "technical skills", nil)
	}
	if section == "" {
		return skills
	}

	skills = append(skills, extractBullets(section)...)

	if len(skills) == 0 {
		body := stripSectionLabel(section)
		for _, part := range strings.Split(body, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				skills = append(skills, trimmed)
			}
		}
	}

	if len(skills) == 0 {
		for _, line := range strings.Split(section, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && !skillsHeading.MatchString(trimmed) {
				skills = append(skills, trimmed)
			}
		}
	}
	return skills
}

func extractProjects(text string) []Project {
	entries := []Project{}
	section := ExtractSection(text, "projects", nil)
	if section == "" {
		return entries
	}

	for _, entry := range splitIntoEntries(section) {
		if len(strings.TrimSpace(entry)) < 10 {
			continue
		}
		project := Project{Technologies: []string{}}
		lines := strings.Split(entry, "\n")

		project.Name = strPtr(strings.TrimSpace(lines[0]))

		if match := urlPattern.FindString(entry); match != "" {
			project.URL = strPtr(strings.TrimSpace(match))
		}

		if len(lines) > 1 {
			var description []string
			for _, line := range lines[1:] {
				trimmed := strings.TrimSpace(line)
				if trimmed == "" {
					continue
				}
				if project.URL != nil && strings.Contains(line, *project.URL) {
					continue
				}
				description = append(description, trimmed)
			}
			if len(description) > 0 {
				project.Description = strPtr(strings.Join(description, " "))
			}
		}

		if match := techPattern.FindStringSubmatch(entry); match != nil {
			for _, tech := range strings.Split(match[1], ",") {
				if trimmed := strings.TrimSpace(tech); trimmed != "" {
					project.Technologies = append(project.Technologies, trimmed)
				}
			}
		}

		entries = append(entries, project)
	}
	return entries
}

func extractLanguages(text string) []Language {
	entries := []Language{}
	section := ExtractSection(text, "languages", nil)
	if section == "" {
		return entries
	}

	for _, bullet := range extractBullets(section) {
		entries = append(entries, parseLanguageLine(bullet, false))
	}

	if len(entries) == 0 {
		for _, line := range strings.Split(section, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || languageHeading.MatchString(trimmed) {
				continue
			}
			entries = append(entries, parseLanguageLine(trimmed, true))
		}
	}
	return entries
}

// parseLanguageLine handles "Spanish: Fluent", "Spanish - Fluent" and
// "Spanish (Fluent)". Bullet entries only split on the colon form.
func parseLanguageLine(line string, allowAllForms bool) Language {
	if lang, prof, ok := strings.Cut(line, ":"); ok {
		return Language{Language: strings.TrimSpace(lang), Proficiency: strPtr(strings.TrimSpace(prof))}
	}
	if allowAllForms {
		if lang, prof, ok := strings.Cut(line, "-"); ok {
			return Language{Language: strings.TrimSpace(lang), Proficiency: strPtr(strings.TrimSpace(prof))}
		}
		if strings.Contains(line, "(") && strings.Contains(line, ")") {
			if match := parenthesized.FindStringSubmatch(line); match != nil {
				return Language{Language: strings.TrimSpace(match[1]), Proficiency: strPtr(strings.TrimSpace(match[2]))}
			}
		}
	}
	return Language{Language: line}
}

// splitIntoEntries breaks a section body into entries: blank-line gaps
// first, then lines carrying a year, then bullet lines.
func splitIntoEntries(sectionText string) []string {
	sectionText = stripSectionLabel(sectionText)

	entries := splitNonEmpty(blankLineGap.Split(sectionText, -1))
	if len(entries) > 1 {
		return entries
	}

	entries = splitNonEmpty(splitBeforeLines(sectionText, func(line string) bool {
		return yearPattern.MatchString(line)
	}))
	if len(entries) > 1 {
		return entries
	}

	return splitNonEmpty(splitBeforeLines(sectionText, func(line string) bool {
		return len(line) > 0 && strings.ContainsRune("•-*", rune(line[0]))
	}))
}

// splitBeforeLines starts a new chunk at every line the predicate accepts.
func splitBeforeLines(text string, startsEntry func(string) bool) []string {
	lines := strings.Split(text, "\n")
	var chunks []string
	var current []string
	for _, line := range lines {
		if len(current) > 0 && startsEntry(line) {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = current[:0]
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks
}

func splitNonEmpty(parts []string) []string {
	var out []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// extractBullets returns the text between bullet markers, each bullet
// ending at the next marker or blank line.
func extractBullets(text string) []string {
	locs := bulletMarker.FindAllStringIndex(text, -1)
	var bullets []string
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		segment := text[loc[1]:end]
		if gap := strings.Index(segment, "\n\n"); gap >= 0 {
			segment = segment[:gap]
		}
		if trimmed := strings.TrimSpace(segment); trimmed != "" {
			bullets = append(bullets, trimmed)
		}
	}
	return bullets
}

// stripSectionLabel drops a leading "Heading:" from the first line.
func stripSectionLabel(text string) string {
	if loc := sectionLabel.FindStringIndex(text); loc != nil {
		return text[loc[1]:]
	}
	return text
}

// splitSentences splits on sentence-ending punctuation followed by
// whitespace, keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	locs := sentenceBreak.FindAllStringIndex(text, -1)
	var sentences []string
	start := 0
	for _, loc := range locs {
		// Keep everything through the punctuation rune.
		sentences = append(sentences, text[start:loc[0]+1])
		start = loc[1]
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}
