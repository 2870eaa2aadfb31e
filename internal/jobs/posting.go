package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Posting is the common job record shape all source adapters normalize into.
// MatchedSkills and RelevanceScore are populated by ranking only.
type Posting struct {
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	Location       string   `json:"location"`
	Description    string   `json:"description"`
	ApplyLink      string   `json:"apply_link"`
	PostedDate     string   `json:"posted_date"`
	Source         string   `json:"source"`
	MatchedSkills  []string `json:"matched_skills,omitempty"`
	RelevanceScore int      `json:"relevance_score,omitempty"`
}

// Key is the deduplication identity of a posting.
func (p *Posting) Key() string {
	return strings.ToLower(p.Title) + "\x00" + strings.ToLower(p.Company)
}

// Dedupe removes postings sharing the same (title, company) identity,
// keeping the first-seen posting per key even when a later duplicate carries
// a richer description or apply link.
func Dedupe(postings []*Posting) []*Posting {
	seen := make(map[string]struct{}, len(postings))
	unique := make([]*Posting, 0, len(postings))

	for _, p := range postings {
		key := p.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, p)
	}

	return unique
}

// ReportBySource groups ranked postings per source for display.
func ReportBySource(postings []*Posting) map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, p := range postings {
		report[p.Source] = append(report[p.Source], map[string]string{
			"title":    p.Title,
			"company":  p.Company,
			"location": p.Location,
			"link":     p.ApplyLink,
			"score":    fmt.Sprintf("%d", p.RelevanceScore),
			"skills":   strings.Join(p.MatchedSkills, ", "),
		})
	}
	return report
}

// DumpToTmpFile writes the postings to a temporary JSON file and returns its path.
func DumpToTmpFile(postings []*Posting) (string, error) {
	file, err := os.CreateTemp("", "jobs_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(postings); err != nil {
		return "", err
	}
	return file.Name(), nil
}
