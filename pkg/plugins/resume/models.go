// Package resume parses PDF resumes into structured candidate data.
// Direct heuristic extraction runs first; an LLM pass takes over when the
// heuristics leave key sections empty.
package resume

// PersonalInfo is the contact block of a resume.
type PersonalInfo struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`
}

// Education is one education entry.
type Education struct {
	Institution *string `json:"institution"`
	Degree      *string `json:"degree"`
	Period      *string `json:"period"`
	Details     *string `json:"details"`
}

// Experience is one work experience entry.
type Experience struct {
	Company          *string  `json:"company"`
	Title            *string  `json:"title"`
	Period           *string  `json:"period"`
	Responsibilities []string `json:"responsibilities"`
}

// Project is one project entry.
type Project struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	Technologies []string `json:"technologies"`
	URL          *string  `json:"url"`
}

// Language is one spoken language entry.
type Language struct {
	Language    string  `json:"language"`
	Proficiency *string `json:"proficiency"`
}

// Data is the full structured resume. Nullable scalars are pointers so the
// JSON keeps explicit nulls for absent fields.
type Data struct {
	PersonalInfo PersonalInfo `json:"personal_info"`
	Education    []Education  `json:"education"`
	Experience   []Experience `json:"experience"`
	Skills       []string     `json:"skills"`
	Projects     []Project    `json:"projects"`
	Languages    []Language   `json:"languages"`
}

// NewData returns an empty resume with all lists initialized, so the JSON
// shows empty arrays instead of nulls.
func NewData() Data {
	return Data{
		Education:  []Education{},
		Experience: []Experience{},
		Skills:     []string{},
		Projects:   []Project{},
		Languages:  []Language{},
	}
}

func strPtr(s string) *string { return &s }
