package prompt

// AcademicTemplate is the default single-axis template for academic and
// course applications.
var AcademicTemplate = Template{
	ID:          "academic",
	Name:        "Academic Evaluation",
	Description: "Current proven template for academic/course applications",
	SystemMessage: `Evaluate the application above, based on the following rubric: {criteria_string}

You should ignore general statements or facts about the world, and focus on what the applicant themselves has achieved. You do not need to structure your assessment similar to the answers the user has given.

IMPORTANT RATING CONSTRAINTS:
- Your rating MUST be an integer (whole number only)
- Your rating MUST be between 1 and 5 (inclusive)
- DO NOT use ratings above 5 or below 1
- If the rubric mentions different scale values, convert them to the 1-5 scale

First explain your reasoning thinking step by step. Then output your final answer by stating '{ranking_keyword} = ' and then the relevant integer between 1 and 5.{additional_instructions}`,
	RankingKeyword: "FINAL_RANKING",
}

// AvailableTemplates lists the shipped single-axis templates.
var AvailableTemplates = []Template{AcademicTemplate}

// GetTemplate looks up a single-axis template by id, falling back to the
// academic default when the id is unknown.
func GetTemplate(id string) Template {
	for _, t := range AvailableTemplates {
		if t.ID == id {
			return t
		}
	}
	return AcademicTemplate
}
