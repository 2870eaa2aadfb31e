package sources

import (
	"context"
	"net/http"
	"strings"

	"github.com/harsh16kumar/jobpilot/internal/jobs"
	"go.uber.org/zap"
)

const remoteOKAPIURL = "https://remoteok.com/api"

// RemoteOK queries the keyless RemoteOK feed. The upstream has no server-side
// search, so the keyword is matched against position titles client-side.
type RemoteOK struct {
	APIURL     string
	HTTPClient *http.Client

	logger *zap.Logger
}

func NewRemoteOK(logger *zap.Logger) *RemoteOK {
	return &RemoteOK{
		APIURL:     remoteOKAPIURL,
		HTTPClient: newHTTPClient(),
		logger:     logger,
	}
}

func (s *RemoteOK) Name() string { return "RemoteOK" }

type remoteOKJob struct {
	Position    string `json:"position"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Date        string `json:"date"`
}

func (s *RemoteOK) Search(ctx context.Context, keyword string) ([]*jobs.Posting, error) {
	var payload []any
	if err := getJSON(ctx, s.HTTPClient, s.APIURL, nil, nil, &payload); err != nil {
		return nil, err
	}

	// The first element of the feed is legal/metadata, not a job.
	if len(payload) > 0 {
		payload = payload[1:]
	}

	rows, err := decodeItems[remoteOKJob](payload)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(keyword)
	var postings []*jobs.Posting
	for _, row := range rows {
		if !strings.Contains(strings.ToLower(row.Position), needle) {
			continue
		}
		postings = append(postings, &jobs.Posting{
			Title:       row.Position,
			Company:     row.Company,
			Location:    firstNonEmpty(row.Location, "Remote"),
			Description: row.Description,
			ApplyLink:   row.URL,
			PostedDate:  row.Date,
			Source:      s.Name(),
		})
	}

	return postings, nil
}
