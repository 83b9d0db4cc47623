package search

import (
	"context"
	"fmt"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
)

// FinnhubClient fetches per-ticker company news. It supplements the
// Brave queries for the stock section with a structured feed.
type FinnhubClient struct {
	client *finnhub.DefaultApiService
	now    func() time.Time
}

func NewFinnhubClient(apiKey string) *FinnhubClient {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	return &FinnhubClient{
		client: finnhub.NewAPIClient(cfg).DefaultApi,
		now:    time.Now,
	}
}

func (c *FinnhubClient) Name() string {
	return "finnhub"
}

// CompanyNews returns the last day of news for symbol.
func (c *FinnhubClient) CompanyNews(ctx context.Context, symbol string) ([]Result, error) {
	now := c.now().UTC()
	from := now.AddDate(0, 0, -1).Format("2006-01-02")
	to := now.Format("2006-01-02")

	res, _, err := c.client.CompanyNews(ctx).
		Symbol(symbol).
		From(from).
		To(to).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("finnhub company news %s: %w", symbol, err)
	}

	results := make([]Result, 0, len(res))
	for _, item := range res {
		r := Result{}
		if item.Headline != nil {
			r.Title = *item.Headline
		}
		if item.Url != nil {
			r.URL = *item.Url
		}
		if item.Summary != nil {
			r.Snippet = *item.Summary
		}
		if item.Datetime != nil {
			r.PublishedAt = time.Unix(*item.Datetime, 0).UTC()
		}
		if r.URL == "" || r.Title == "" {
			continue
		}
		results = append(results, r)
	}
	return results, nil
}
