// Package scoring locates integer ratings in free-form LLM output. Models
// announce scores with ranking keywords but the formatting varies wildly,
// so extraction runs a cascade of patterns ordered from most specific to
// most permissive and stops at the first hit in range.
package scoring

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sparhub/sparrow/pkg/prompt"
)

// AxisScore is the extracted rating for one evaluation axis. Score is nil
// when no pattern matched.
type AxisScore struct {
	Name  string `json:"name"`
	Score *int   `json:"score"`
}

// AxisKeyword pairs an axis name with its ranking keyword. Order is
// significant: extraction emits one AxisScore per entry in input order.
type AxisKeyword struct {
	Name    string
	Keyword string
}

// KeywordsFromTemplate flattens a multi-axis template into the ordered
// keyword list the extractor consumes.
func KeywordsFromTemplate(m prompt.MultiAxis) []AxisKeyword {
	keywords := make([]AxisKeyword, 0, len(m.Axes))
	for _, axis := range m.Axes {
		keywords = append(keywords, AxisKeyword{Name: axis.Name, Keyword: axis.RankingKeyword})
	}
	return keywords
}

// ExtractScore finds a single rating announced by the ranking keyword.
// Returns nil when no digit in [1,5] follows the keyword.
func ExtractScore(text, rankingKeyword string) *int {
	return matchScore(text, regexp.QuoteMeta(rankingKeyword)+`[^0-9]*([1-5])`)
}

// ExtractMultiAxisScores extracts one score per axis, in input order.
// Each axis runs the full cascade independently; a miss records a nil
// score rather than failing the extraction.
func ExtractMultiAxisScores(text string, axes []AxisKeyword) []AxisScore {
	scores := make([]AxisScore, 0, len(axes))
	for _, axis := range axes {
		scores = append(scores, AxisScore{Name: axis.Name, Score: extractAxisScore(text, axis)})
	}
	return scores
}

func extractAxisScore(text string, axis AxisKeyword) *int {
	// Exact keyword first.
	if score := ExtractScore(text, axis.Keyword); score != nil {
		return score
	}

	keyword := regexp.QuoteMeta(axis.Keyword)
	name := regexp.QuoteMeta(axis.Name)
	upperName := regexp.QuoteMeta(strings.ToUpper(axis.Name))

	// Keyword and axis-name variants, most specific first.
	patterns := []string{
		keyword + `\s*=\s*([1-5])`,
		keyword + `:\s*([1-5])`,
		keyword + `\s*-\s*([1-5])`,
		keyword + `.*?([1-5])/5`,
		upperName + `_RATING\s*=\s*([1-5])`,
		upperName + `_RATING:\s*([1-5])`,
		name + `_RATING\s*=\s*([1-5])`,
		name + `_RATING:\s*([1-5])`,
		upperName + `\s*=\s*([1-5])`,
		upperName + `:\s*([1-5])`,
		`FINAL_RANKING for ` + name + `\s*=\s*([1-5])`,
		name + `\s*=\s*([1-5])`,
		name + `:\s*([1-5])`,
		name + ` Rating\s*=\s*([1-5])`,
		name + ` Rating:\s*([1-5])`,
		name + `.*?([1-5])\s*(?:/5|out of 5)?`,
		`(?i)` + name + `.*?([1-5])`,
		`(?i)\b` + name + `\b.*?([1-5])\b`,
		`(?i)score for ` + name + `.*?([1-5])`,
	}
	for _, pattern := range patterns {
		if score := matchScore(text, pattern); score != nil {
			return score
		}
	}

	// Section-based extraction: find the axis discussed under a heading or
	// near the words "score"/"rating" and take the nearest digit.
	sectionPatterns := []string{
		`(?i)##\s*` + name + `[\s\S]*?([1-5])(?:[^0-9]|$)`,
		`(?i)###\s*` + name + `[\s\S]*?([1-5])(?:[^0-9]|$)`,
		`(?i)\*\*` + name + `\*\*[\s\S]*?([1-5])(?:[^0-9]|$)`,
		`(?i)\*\*` + name + `:[^*]*\*\*[\s\S]*?([1-5])(?:[^0-9]|$)`,
		`(?i)` + name + `\s*assessment[\s\S]*?([1-5])(?:[^0-9]|$)`,
		`(?i)` + name + `\s*evaluation[\s\S]*?([1-5])(?:[^0-9]|$)`,
		`(?i)` + name + `[^#\*]*?\b([1-5])\b`,
		`(?i)\b` + name + `\b[\s\S]{0,500}?\bscore\b[\s\S]{0,50}?([1-5])`,
		`(?i)\b` + name + `\b[\s\S]{0,500}?\brating\b[\s\S]{0,50}?([1-5])`,
		`(?i)\b` + name + `\b[\s\S]{0,500}?\b([1-5])/5\b`,
	}
	for _, pattern := range sectionPatterns {
		if score := matchScore(text, pattern); score != nil {
			return score
		}
	}

	// Last resort: first paragraph mentioning the axis, first bare digit.
	lowerName := strings.ToLower(axis.Name)
	for _, paragraph := range regexp.MustCompile(`\n\n+`).Split(text, -1) {
		if !strings.Contains(strings.ToLower(paragraph), lowerName) {
			continue
		}
		if score := matchScore(paragraph, `\b([1-5])\b`); score != nil {
			return score
		}
	}
	return nil
}

func matchScore(text, pattern string) *int {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	match := re.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	score, err := strconv.Atoi(match[1])
	if err != nil || score < 1 || score > 5 {
		return nil
	}
	return &score
}

// FormatScores renders the diagnostic block appended to evaluation output.
func FormatScores(scores []AxisScore) string {
	lines := make([]string, 0, len(scores))
	for _, s := range scores {
		if s.Score != nil {
			lines = append(lines, fmt.Sprintf("%s: %d", s.Name, *s.Score))
		} else {
			lines = append(lines, s.Name+": Not found")
		}
	}
	return "[MULTI_AXIS_SCORES]\n" + strings.Join(lines, "\n") + "\n[END_MULTI_AXIS_SCORES]"
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }
