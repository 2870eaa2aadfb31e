package ranking

import (
	"sort"
	"strings"

	"github.com/harsh16kumar/jobpilot/internal/jobs"
	"github.com/harsh16kumar/jobpilot/internal/profile"
)

// Weights holds the point values of the three scoring signals. The defaults
// are tuning choices carried over from production behavior, not principled
// calculations; change them via configuration, not here.
type Weights struct {
	Exact int
	Fuzzy int
	Title int
}

// DefaultWeights returns the observed production point values.
func DefaultWeights() Weights {
	return Weights{Exact: 10, Fuzzy: 5, Title: 15}
}

// synonyms maps a canonical concept key to the substrings that count as a
// match for it. A concept scores once no matter how many of its synonyms
// appear in the job text.
var synonyms = map[string][]string{
	"python":           {"python", "pandas", "numpy", "fastapi", "flask"},
	"docker":           {"docker", "container", "kubernetes", "k8s"},
	"machine learning": {"ml", "machine learning", "deep learning", "neural"},
	"ai":               {"ai", "llm", "rag", "gpt", "bert"},
	"nlp":              {"nlp", "transformer", "token"},
	"cloud":            {"aws", "azure", "gcp", "cloud"},
	"database":         {"postgres", "mysql", "mongodb", "sql"},
}

// Scorer assigns relevance scores to job postings against a candidate profile.
type Scorer struct {
	weights Weights
}

func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Rank scores every posting in place and returns the slice sorted descending
// by score. The sort is stable: postings with equal scores keep their input
// order, and no posting is ever dropped or added.
func (s *Scorer) Rank(postings []*jobs.Posting, prof *profile.Profile) []*jobs.Posting {
	for _, p := range postings {
		s.score(p, prof)
	}

	sort.SliceStable(postings, func(i, j int) bool {
		return postings[i].RelevanceScore > postings[j].RelevanceScore
	})

	return postings
}

func (s *Scorer) score(p *jobs.Posting, prof *profile.Profile) {
	text := strings.ToLower(p.Title + " " + p.Description)
	score := 0
	matched := make(map[string]struct{})

	// Exact skill substrings.
	for _, skill := range prof.Skills {
		if strings.Contains(text, skill) {
			score += s.weights.Exact
			matched[skill] = struct{}{}
		}
	}

	// Synonym concepts, once per concept regardless of synonym count.
	for concept, words := range synonyms {
		for _, w := range words {
			if strings.Contains(text, w) {
				score += s.weights.Fuzzy
				matched[concept] = struct{}{}
				break
			}
		}
	}

	// Inferred title containment against the job's own title.
	jobTitle := strings.ToLower(p.Title)
	for _, title := range prof.JobTitles {
		if strings.Contains(jobTitle, strings.ToLower(title)) {
			score += s.weights.Title
		}
	}

	skills := make([]string, 0, len(matched))
	for skill := range matched {
		skills = append(skills, skill)
	}
	sort.Strings(skills)

	p.MatchedSkills = skills
	p.RelevanceScore = score
}
