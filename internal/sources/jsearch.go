package sources

import (
	"context"
	"net/http"
	"net/url"

	"github.com/harsh16kumar/jobpilot/internal/jobs"
	"go.uber.org/zap"
)

const (
	jsearchAPIURL = "https://jsearch.p.rapidapi.com/search"
	jsearchHost   = "jsearch.p.rapidapi.com"
)

// JSearch queries the JSearch API on RapidAPI. Without an API key the
// adapter short-circuits to empty results instead of attempting the call.
type JSearch struct {
	APIURL     string
	HTTPClient *http.Client

	apiKey string
	limit  int
	logger *zap.Logger
}

func NewJSearch(apiKey string, limit int, logger *zap.Logger) *JSearch {
	return &JSearch{
		APIURL:     jsearchAPIURL,
		HTTPClient: newHTTPClient(),
		apiKey:     apiKey,
		limit:      limit,
		logger:     logger,
	}
}

func (s *JSearch) Name() string { return "JSearch" }

type jsearchJob struct {
	Title       string `json:"job_title"`
	Employer    string `json:"employer_name"`
	City        string `json:"job_city"`
	Country     string `json:"job_country"`
	Description string `json:"job_description"`
	ApplyLink   string `json:"job_apply_link"`
	PostedAt    string `json:"job_posted_at_datetime_utc"`
}

func (s *JSearch) Search(ctx context.Context, keyword string) ([]*jobs.Posting, error) {
	if s.apiKey == "" {
		s.logger.Info("rapidapi key missing, skipping JSearch")
		return nil, nil
	}

	var envelope struct {
		Data []any `json:"data"`
	}

	q := url.Values{}
	q.Set("query", keyword)
	q.Set("page", "1")

	headers := map[string]string{
		"X-RapidAPI-Key":  s.apiKey,
		"X-RapidAPI-Host": jsearchHost,
	}

	if err := getJSON(ctx, s.HTTPClient, s.APIURL, q, headers, &envelope); err != nil {
		return nil, err
	}

	rows, err := decodeItems[jsearchJob](envelope.Data)
	if err != nil {
		return nil, err
	}

	postings := make([]*jobs.Posting, 0, len(rows))
	for _, row := range rows {
		postings = append(postings, &jobs.Posting{
			Title:       row.Title,
			Company:     row.Employer,
			Location:    firstNonEmpty(row.City, row.Country),
			Description: row.Description,
			ApplyLink:   row.ApplyLink,
			PostedDate:  row.PostedAt,
			Source:      s.Name(),
		})
		if s.limit > 0 && len(postings) >= s.limit {
			break
		}
	}

	return postings, nil
}
