package evaluation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatEnrichmentData renders plugin enrichment data as the markdown
// block injected into the applicant data before prompting. The shape is
// {"type": ..., "data": ...} with types "linkedin", "pdf", or "combined"
// (both sources merged); unknown types fall back to a JSON dump.
func FormatEnrichmentData(enrichment map[string]any) string {
	var b strings.Builder
	b.WriteString("### CANDIDATE PROFILE INFORMATION\n\n")

	dataType, _ := enrichment["type"].(string)
	if dataType == "" {
		dataType = "unknown"
	}
	data := asMap(enrichment["data"])

	switch dataType {
	case "combined":
		if linkedin := asMap(data["linkedin"]); len(linkedin) > 0 {
			writeLinkedInProfile(&b, linkedin, false)
		}
		if parsed := asMap(asMap(data["pdf"])["parsed_resume"]); len(parsed) > 0 {
			b.WriteString("\n## PDF Resume Information\n")
			writeParsedResume(&b, parsed, false)
		}
	case "linkedin":
		writeLinkedInProfile(&b, data, true)
	case "pdf":
		b.WriteString("## PDF Resume Information\n")
		writeParsedResume(&b, asMap(data["parsed_resume"]), true)
	default:
		fmt.Fprintf(&b, "## Data from %s:\n", dataType)
		dump, _ := json.MarshalIndent(data, "", "  ")
		b.Write(dump)
	}

	return b.String()
}

// writeLinkedInProfile covers both the standalone linkedin enrichment and
// the linkedin half of a combined one. Standalone output prints the
// headline alongside the name and substitutes Unknown placeholders for
// missing experience fields; the combined form derives a Current Position
// line from the most recent experience instead.
func writeLinkedInProfile(b *strings.Builder, data map[string]any, standalone bool) {
	b.WriteString("## LinkedIn Profile\n")

	if v, ok := data["name"]; ok {
		fmt.Fprintf(b, "Name: %v\n", v)
	}

	experience := asList(data["experience"])
	if standalone {
		if v, ok := data["headline"]; ok {
			fmt.Fprintf(b, "Headline: %v\n", v)
		}
	} else {
		var position, company string
		if len(experience) > 0 {
			first := asMap(experience[0])
			position = str(first, "title")
			company = str(first, "company")
		}
		if position != "" && company != "" {
			fmt.Fprintf(b, "Current Position: %s at %s\n", position, company)
		} else if v, ok := data["headline"]; ok {
			fmt.Fprintf(b, "Headline: %v\n", v)
		}
	}

	if about := str(data, "about"); about != "" {
		fmt.Fprintf(b, "About: %s\n", truncate(about, 200))
	}

	if len(experience) > 0 {
		b.WriteString("\n### Work Experience\n")
		for _, item := range head(experience, 3) {
			exp := asMap(item)
			title := str(exp, "title")
			company := str(exp, "company")
			if standalone {
				if title == "" {
					title = "Unknown Title"
				}
				if company == "" {
					company = "Unknown Company"
				}
			}
			fromDate := str(exp, "from_date")
			toDate := strDefault(exp, "to_date", "Present")

			fmt.Fprintf(b, "- %s at %s", title, company)
			if fromDate != "" || toDate != "" {
				fmt.Fprintf(b, " (%s - %s)", fromDate, toDate)
			}
			b.WriteString("\n")

			if desc := str(exp, "description"); desc != "" {
				fmt.Fprintf(b, "  %s\n", truncate(desc, 200))
			}
		}
		if len(experience) > 3 {
			fmt.Fprintf(b, "  ... and %d more positions\n", len(experience)-3)
		}
	}

	if education := asList(data["education"]); len(education) > 0 {
		b.WriteString("\n### Education\n")
		for _, item := range education {
			edu := asMap(item)
			degree := str(edu, "degree")
			if standalone {
				institution := str(edu, "institution")
				if institution == "" {
					institution = strDefault(edu, "school", "Unknown Institution")
				}
				fmt.Fprintf(b, "- %s at %s", degree, institution)
				if dateRange := str(edu, "date_range"); dateRange != "" {
					fmt.Fprintf(b, " (%s)", dateRange)
				}
				b.WriteString("\n")
			} else {
				fmt.Fprintf(b, "- %s at %s\n", degree, str(edu, "institution"))
				if desc := str(edu, "description"); desc != "" {
					fmt.Fprintf(b, "  %s\n", truncate(desc, 150))
				}
			}
		}
	}

	if skills := asList(data["skills"]); len(skills) > 0 {
		b.WriteString("\n### Skills\n")
		b.WriteString(joinSkills(skills))
		b.WriteString("\n")
	}
}

// writeParsedResume renders the parsed_resume payload from the PDF resume
// plugin. The combined form drops the name (the LinkedIn half already has
// it) and suffixes the section headings with "from Resume"; the
// standalone form keeps plain headings and Unknown placeholders.
func writeParsedResume(b *strings.Builder, parsed map[string]any, standalone bool) {
	personal := asMap(parsed["personal_info"])
	if standalone {
		if name := str(personal, "name"); name != "" {
			fmt.Fprintf(b, "Name: %s\n", name)
		}
	}
	if email := str(personal, "email"); email != "" {
		fmt.Fprintf(b, "Email: %s\n", email)
	}
	if phone := str(personal, "phone"); phone != "" {
		fmt.Fprintf(b, "Phone: %s\n", phone)
	}
	if location := str(personal, "location"); location != "" {
		fmt.Fprintf(b, "Location: %s\n", location)
	}

	if education := asList(parsed["education"]); len(education) > 0 {
		if standalone {
			b.WriteString("\n### Education\n")
		} else {
			b.WriteString("\n### Education from Resume\n")
		}
		for _, item := range head(education, 3) {
			edu := asMap(item)
			institution := str(edu, "institution")
			if standalone && institution == "" {
				institution = "Unknown Institution"
			}
			degree := str(edu, "degree")
			if degree == "" {
				degree = "Degree not specified"
			}
			fmt.Fprintf(b, "- %s at %s", degree, institution)
			if period := str(edu, "period"); period != "" {
				fmt.Fprintf(b, " (%s)", period)
			}
			b.WriteString("\n")
			if details := str(edu, "details"); details != "" {
				fmt.Fprintf(b, "  %s\n", details)
			}
		}
		if len(education) > 3 {
			fmt.Fprintf(b, "  ... and %d more education entries\n", len(education)-3)
		}
	}

	if experience := asList(parsed["experience"]); len(experience) > 0 {
		if standalone {
			b.WriteString("\n### Work Experience\n")
		} else {
			b.WriteString("\n### Work Experience from Resume\n")
		}
		for _, item := range head(experience, 3) {
			exp := asMap(item)
			company := str(exp, "company")
			if standalone && company == "" {
				company = "Unknown Company"
			}
			title := str(exp, "title")
			if title == "" {
				title = "Role not specified"
			}
			fmt.Fprintf(b, "- %s at %s", title, company)
			if period := str(exp, "period"); period != "" {
				fmt.Fprintf(b, " (%s)", period)
			}
			b.WriteString("\n")

			responsibilities := asList(exp["responsibilities"])
			for _, r := range head(responsibilities, 2) {
				fmt.Fprintf(b, "  - %v\n", r)
			}
			if len(responsibilities) > 2 {
				fmt.Fprintf(b, "  - ... and %d more responsibilities\n", len(responsibilities)-2)
			}
		}
		if len(experience) > 3 {
			fmt.Fprintf(b, "  ... and %d more experience entries\n", len(experience)-3)
		}
	}

	if skills := asList(parsed["skills"]); len(skills) > 0 {
		if standalone {
			b.WriteString("\n### Skills\n")
		} else {
			b.WriteString("\n### Skills from Resume\n")
		}
		b.WriteString(joinSkills(skills))
		b.WriteString("\n")
	}

	if languages := asList(parsed["languages"]); len(languages) > 0 {
		b.WriteString("\n### Languages\n")
		for _, item := range languages {
			lang := asMap(item)
			language := str(lang, "language")
			if language == "" {
				continue
			}
			fmt.Fprintf(b, "- %s", language)
			if proficiency := str(lang, "proficiency"); proficiency != "" {
				fmt.Fprintf(b, " (%s)", proficiency)
			}
			b.WriteString("\n")
		}
	}
}

func joinSkills(skills []any) string {
	names := make([]string, 0, 15)
	for _, s := range head(skills, 15) {
		names = append(names, fmt.Sprintf("%v", s))
	}
	joined := strings.Join(names, ", ")
	if len(skills) > 15 {
		joined += fmt.Sprintf(", and %d more", len(skills)-15)
	}
	return joined
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func strDefault(m map[string]any, key, fallback string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return fallback
}

func head(items []any, n int) []any {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
