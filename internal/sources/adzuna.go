package sources

import (
	"context"
	"net/http"
	"net/url"

	"github.com/harsh16kumar/jobpilot/internal/jobs"
	"go.uber.org/zap"
)

const adzunaAPIURL = "https://api.adzuna.com/v1/api/jobs/in/search/1"

// Adzuna queries the Adzuna job search API. Both the app id and the api key
// are required; when either is missing the adapter short-circuits to empty
// results.
type Adzuna struct {
	APIURL     string
	HTTPClient *http.Client

	appID  string
	apiKey string
	logger *zap.Logger
}

func NewAdzuna(appID, apiKey string, logger *zap.Logger) *Adzuna {
	return &Adzuna{
		APIURL:     adzunaAPIURL,
		HTTPClient: newHTTPClient(),
		appID:      appID,
		apiKey:     apiKey,
		logger:     logger,
	}
}

func (s *Adzuna) Name() string { return "Adzuna" }

type adzunaJob struct {
	Title   string `json:"title"`
	Company struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	Description string `json:"description"`
	RedirectURL string `json:"redirect_url"`
	Created     string `json:"created"`
}

func (s *Adzuna) Search(ctx context.Context, keyword string) ([]*jobs.Posting, error) {
	if s.appID == "" || s.apiKey == "" {
		s.logger.Info("adzuna credentials missing, skipping Adzuna")
		return nil, nil
	}

	var envelope struct {
		Results []any `json:"results"`
	}

	q := url.Values{}
	q.Set("app_id", s.appID)
	q.Set("app_key", s.apiKey)
	q.Set("what", keyword)
	q.Set("content-type", contentType)

	if err := getJSON(ctx, s.HTTPClient, s.APIURL, q, nil, &envelope); err != nil {
		return nil, err
	}

	rows, err := decodeItems[adzunaJob](envelope.Results)
	if err != nil {
		return nil, err
	}

	postings := make([]*jobs.Posting, 0, len(rows))
	for _, row := range rows {
		postings = append(postings, &jobs.Posting{
			Title:       row.Title,
			Company:     row.Company.DisplayName,
			Location:    row.Location.DisplayName,
			Description: row.Description,
			ApplyLink:   row.RedirectURL,
			PostedDate:  row.Created,
			Source:      s.Name(),
		})
	}

	return postings, nil
}
