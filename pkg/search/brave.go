package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	braveNewsEndpoint = "https://api.search.brave.com/res/v1/news/search"
	braveWebEndpoint  = "https://api.search.brave.com/res/v1/web/search"
)

// BraveNewsClient queries the Brave news search API with day
// freshness, matching the daily run cadence.
type BraveNewsClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

func NewBraveNewsClient(apiKey string) *BraveNewsClient {
	return &BraveNewsClient{
		apiKey:     apiKey,
		endpoint:   braveNewsEndpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		now:        time.Now,
	}
}

func (c *BraveNewsClient) Name() string {
	return "brave_news"
}

func (c *BraveNewsClient) Search(ctx context.Context, query string, count int) ([]Result, error) {
	reqURL := fmt.Sprintf("%s?q=%s&count=%d&freshness=pd",
		c.endpoint, url.QueryEscape(query), count)

	var raw braveNewsResponse
	if err := c.get(ctx, reqURL, &raw); err != nil {
		return nil, fmt.Errorf("brave news search: %w", err)
	}

	results := make([]Result, 0, len(raw.Results))
	for _, item := range raw.Results {
		results = append(results, Result{
			Title:       item.Title,
			URL:         item.URL,
			Snippet:     item.Description,
			PublishedAt: parseAge(item.Age, c.now().UTC()),
		})
	}
	return results, nil
}

func (c *BraveNewsClient) get(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type braveNewsResponse struct {
	Results []braveNewsItem `json:"results"`
}

type braveNewsItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Age         string `json:"age"`
}

// BraveWebClient queries the Brave web search API; used for the Reddit
// capabilities where posts surface as web results.
type BraveWebClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewBraveWebClient(apiKey string) *BraveWebClient {
	return &BraveWebClient{
		apiKey:     apiKey,
		endpoint:   braveWebEndpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *BraveWebClient) Name() string {
	return "brave_web"
}

func (c *BraveWebClient) Search(ctx context.Context, query string, count int) ([]Result, error) {
	reqURL := fmt.Sprintf("%s?q=%s&count=%d", c.endpoint, url.QueryEscape(query), count)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("brave web search: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave web search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave web search: status %d", resp.StatusCode)
	}

	var raw braveWebResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("brave web decode: %w", err)
	}

	results := make([]Result, 0, len(raw.Web.Results))
	for _, item := range raw.Web.Results {
		results = append(results, Result{
			Title:   item.Title,
			URL:     item.URL,
			Snippet: item.Description,
		})
	}
	return results, nil
}

type braveWebResponse struct {
	Web struct {
		Results []braveNewsItem `json:"results"`
	} `json:"web"`
}

var ageNumber = regexp.MustCompile(`(\d+)`)

// parseAge converts Brave's relative age string ("3 hours ago") to an
// approximate publish time. Unrecognized input maps to now, which the
// scorer treats as fetch time.
func parseAge(age string, now time.Time) time.Time {
	age = strings.ToLower(strings.TrimSpace(age))
	if age == "" {
		return time.Time{}
	}

	m := ageNumber.FindString(age)
	if m == "" {
		return time.Time{}
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return time.Time{}
	}

	switch {
	case strings.Contains(age, "minute") || strings.Contains(age, "min"):
		return now.Add(-time.Duration(n) * time.Minute)
	case strings.Contains(age, "hour") || strings.Contains(age, "hr"):
		return now.Add(-time.Duration(n) * time.Hour)
	case strings.Contains(age, "day"):
		return now.AddDate(0, 0, -n)
	case strings.Contains(age, "week"):
		return now.AddDate(0, 0, -7*n)
	default:
		return time.Time{}
	}
}
