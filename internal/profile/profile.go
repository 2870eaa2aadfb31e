package profile

import (
	"sort"
	"strings"
)

// Profile is the normalized candidate profile derived from raw resume data.
// Skills and JobTitles are kept sorted so iteration order is deterministic.
type Profile struct {
	Skills             []string `json:"skills"`
	ExperienceYears    int      `json:"experience_years"`
	EducationLevel     string   `json:"education_level"`
	PreferredLocations []string `json:"preferred_locations"`
	JobTitles          []string `json:"job_titles"`
}

const defaultDegree = "B.Tech"

// defaultLocations is a fixed seed; location preferences are not inferred from
// the resume yet.
var defaultLocations = []string{"Remote", "India"}

// titleGroups maps project title keywords to the job titles they imply.
var titleGroups = []struct {
	keywords []string
	titles   []string
}{
	{
		keywords: []string{"ml", "machine learning", "data"},
		titles:   []string{"ML Engineer", "Data Scientist"},
	},
	{
		keywords: []string{"ai", "nlp", "rag", "llm", "langchain"},
		titles:   []string{"AI Engineer", "NLP Engineer"},
	},
	{
		keywords: []string{"full stack", "backend", "web"},
		titles:   []string{"Software Engineer", "Backend Engineer"},
	},
}

// fallbackTitles is used when no project title matches any group, keeping the
// invariant that JobTitles is never empty.
var fallbackTitles = []string{"Software Engineer", "AI Engineer"}

// Extract derives a Profile from raw candidate data. It is a pure function:
// absent or malformed fields degrade to empty defaults, never to an error.
func Extract(data map[string]any) *Profile {
	p := &Profile{
		PreferredLocations: append([]string(nil), defaultLocations...),
	}

	p.Skills = collectSkills(data)
	p.ExperienceYears = len(anySlice(data["experience"]))
	p.EducationLevel = educationLevel(data)
	p.JobTitles = inferTitles(data)

	return p
}

// TopTitles returns up to n inferred job titles used as search keywords.
func (p *Profile) TopTitles(n int) []string {
	if n <= 0 || n > len(p.JobTitles) {
		n = len(p.JobTitles)
	}
	return p.JobTitles[:n]
}

// HasSkill reports whether the normalized skill is present in the profile.
func (p *Profile) HasSkill(skill string) bool {
	skill = strings.ToLower(strings.TrimSpace(skill))
	for _, s := range p.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

func collectSkills(data map[string]any) []string {
	seen := make(map[string]struct{})

	add := func(v any) {
		s, ok := v.(string)
		if !ok {
			return
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			return
		}
		seen[s] = struct{}{}
	}

	for _, field := range []string{"languages", "tools", "coursework"} {
		for _, v := range anySlice(data[field]) {
			add(v)
		}
	}

	for _, v := range anySlice(data["projects"]) {
		project, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for _, tech := range anySlice(project["technologies"]) {
			add(tech)
		}
	}

	// Word-tokenized experience bullets. Tokens of 3 runes or fewer carry
	// too little signal and are skipped.
	for _, v := range anySlice(data["experience"]) {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for _, item := range anySlice(entry["items"]) {
			bullet, ok := item.(string)
			if !ok {
				continue
			}
			for _, word := range strings.Fields(bullet) {
				if len([]rune(word)) > 3 {
					add(word)
				}
			}
		}
	}

	skills := make([]string, 0, len(seen))
	for s := range seen {
		skills = append(skills, s)
	}
	sort.Strings(skills)

	return skills
}

func educationLevel(data map[string]any) string {
	education := anySlice(data["education"])
	if len(education) == 0 {
		return ""
	}

	first, ok := education[0].(map[string]any)
	if !ok {
		return defaultDegree
	}

	if degree, ok := first["degree"].(string); ok && degree != "" {
		return degree
	}

	return defaultDegree
}

func inferTitles(data map[string]any) []string {
	seen := make(map[string]struct{})

	for _, v := range anySlice(data["projects"]) {
		project, ok := v.(map[string]any)
		if !ok {
			continue
		}
		title, _ := project["title"].(string)
		title = strings.ToLower(title)
		if title == "" {
			continue
		}

		for _, group := range titleGroups {
			for _, keyword := range group.keywords {
				if strings.Contains(title, keyword) {
					for _, t := range group.titles {
						seen[t] = struct{}{}
					}
					break
				}
			}
		}
	}

	if len(seen) == 0 {
		return append([]string(nil), fallbackTitles...)
	}

	titles := make([]string, 0, len(seen))
	for t := range seen {
		titles = append(titles, t)
	}
	sort.Strings(titles)

	return titles
}

func anySlice(v any) []any {
	items, _ := v.([]any)
	return items
}
