package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/harsh16kumar/jobpilot/internal/jobs"
	"go.uber.org/zap"
)

func TestJSearchSearch(t *testing.T) {
	var gotKey, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-RapidAPI-Key")
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(`{"data": [
			{"job_title": "ML Engineer", "employer_name": "Acme", "job_city": "Pune",
			 "job_description": "python", "job_apply_link": "https://a", "job_posted_at_datetime_utc": "2026-01-01"},
			{"job_title": "Data Scientist", "employer_name": "Globex", "job_country": "India"}
		]}`))
	}))
	defer server.Close()

	source := NewJSearch("secret", 0, zap.NewNop())
	source.APIURL = server.URL

	postings, err := source.Search(context.Background(), "ml engineer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotKey != "secret" {
		t.Fatalf("expected rapidapi key header, got %q", gotKey)
	}
	if gotQuery != "ml engineer" {
		t.Fatalf("expected keyword in query, got %q", gotQuery)
	}

	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(postings))
	}
	first := postings[0]
	if first.Title != "ML Engineer" || first.Company != "Acme" || first.Location != "Pune" {
		t.Fatalf("unexpected posting: %+v", first)
	}
	if first.Source != "JSearch" {
		t.Fatalf("expected source tag, got %q", first.Source)
	}
	// Country is the fallback when the city is absent.
	if postings[1].Location != "India" {
		t.Fatalf("expected country fallback, got %q", postings[1].Location)
	}
}

func TestJSearchLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data": [{"job_title": "A"}, {"job_title": "B"}, {"job_title": "C"}]}`))
	}))
	defer server.Close()

	source := NewJSearch("secret", 2, zap.NewNop())
	source.APIURL = server.URL

	postings, err := source.Search(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("expected limit to cap results, got %d", len(postings))
	}
}

func TestJSearchSkipsWithoutKey(t *testing.T) {
	source := NewJSearch("", 0, zap.NewNop())
	source.APIURL = "http://127.0.0.1:0" // must never be dialed

	postings, err := source.Search(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if postings != nil {
		t.Fatalf("expected no results without a key, got %v", postings)
	}
}

func TestRemoteOKSearchFiltersByKeyword(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[
			{"legal": "terms of service"},
			{"position": "Senior Python Developer", "company": "Acme", "url": "https://a", "date": "2026-01-02"},
			{"position": "Rust Developer", "company": "Globex"},
			{"position": "python intern", "company": "Initech", "location": "Berlin"}
		]`))
	}))
	defer server.Close()

	source := NewRemoteOK(zap.NewNop())
	source.APIURL = server.URL

	postings, err := source.Search(context.Background(), "Python")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(postings) != 2 {
		t.Fatalf("expected 2 python postings, got %d", len(postings))
	}
	if postings[0].Location != "Remote" {
		t.Fatalf("expected default Remote location, got %q", postings[0].Location)
	}
	if postings[1].Location != "Berlin" {
		t.Fatalf("expected upstream location to win, got %q", postings[1].Location)
	}
	if postings[0].Source != "RemoteOK" {
		t.Fatalf("expected source tag, got %q", postings[0].Source)
	}
}

func TestAdzunaSearch(t *testing.T) {
	var gotAppID, gotAppKey, gotWhat string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAppID = r.URL.Query().Get("app_id")
		gotAppKey = r.URL.Query().Get("app_key")
		gotWhat = r.URL.Query().Get("what")
		w.Write([]byte(`{"results": [
			{"title": "Backend Engineer",
			 "company": {"display_name": "Acme"},
			 "location": {"display_name": "Bengaluru"},
			 "redirect_url": "https://a", "created": "2026-02-03"}
		]}`))
	}))
	defer server.Close()

	source := NewAdzuna("id", "key", zap.NewNop())
	source.APIURL = server.URL

	postings, err := source.Search(context.Background(), "backend")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAppID != "id" || gotAppKey != "key" || gotWhat != "backend" {
		t.Fatalf("unexpected query: app_id=%q app_key=%q what=%q", gotAppID, gotAppKey, gotWhat)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}
	p := postings[0]
	if p.Company != "Acme" || p.Location != "Bengaluru" || p.Source != "Adzuna" {
		t.Fatalf("unexpected posting: %+v", p)
	}
}

func TestAdzunaSkipsWithoutCredentials(t *testing.T) {
	for _, tc := range []struct {
		name   string
		appID  string
		apiKey string
	}{
		{name: "no app id", apiKey: "key"},
		{name: "no api key", appID: "id"},
		{name: "neither"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			source := NewAdzuna(tc.appID, tc.apiKey, zap.NewNop())
			postings, err := source.Search(context.Background(), "x")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if postings != nil {
				t.Fatalf("expected short-circuit, got %v", postings)
			}
		})
	}
}

func TestSearchBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	source := NewJSearch("secret", 0, zap.NewNop())
	source.APIURL = server.URL

	if _, err := source.Search(context.Background(), "x"); err == nil {
		t.Fatalf("expected error on non-200 status")
	}
}

type stubSource struct {
	name     string
	postings []*jobs.Posting
	err      error

	mu    sync.Mutex
	calls []string
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Search(_ context.Context, keyword string) ([]*jobs.Posting, error) {
	s.mu.Lock()
	s.calls = append(s.calls, keyword)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*jobs.Posting, len(s.postings))
	for i, p := range s.postings {
		clone := *p
		clone.Title = clone.Title + " " + keyword
		out[i] = &clone
	}
	return out, nil
}

func TestAggregatorFetchContainsFailures(t *testing.T) {
	good := &stubSource{
		name:     "good",
		postings: []*jobs.Posting{{Title: "Job", Company: "Acme", Source: "good"}},
	}
	bad := &stubSource{name: "bad", err: errors.New("upstream down")}

	aggregator := NewAggregator([]Source{good, bad}, zap.NewNop())
	postings := aggregator.Fetch(context.Background(), []string{"ml", "backend"})

	// One posting per keyword from the healthy source; the failing source
	// contributes nothing and does not abort the cycle.
	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(postings))
	}
	if len(bad.calls) != 2 {
		t.Fatalf("expected failing source to be tried per keyword, got %d calls", len(bad.calls))
	}

	// Results are keyword-major regardless of completion order.
	if postings[0].Title != "Job ml" || postings[1].Title != "Job backend" {
		t.Fatalf("unexpected result order: %q, %q", postings[0].Title, postings[1].Title)
	}
}

func TestAggregatorFetchNoKeywords(t *testing.T) {
	source := &stubSource{name: "any"}
	aggregator := NewAggregator([]Source{source}, zap.NewNop())

	if postings := aggregator.Fetch(context.Background(), nil); len(postings) != 0 {
		t.Fatalf("expected no postings, got %d", len(postings))
	}
	if len(source.calls) != 0 {
		t.Fatalf("expected no calls, got %v", source.calls)
	}
}
