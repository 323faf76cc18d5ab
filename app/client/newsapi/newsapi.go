package newsapi

import (
	"context"
	"ecodigest/app/config"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
	"github.com/samber/oops"
)

// RemovedMarker is what NewsAPI puts in place of articles taken down by the publisher.
const RemovedMarker = "[Removed]"

const MaxHeadlines = 3

type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Article struct {
	Source      Source `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

type everythingResponse struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return New(cfg.News), nil
}

func New(cfg config.News) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		pageSize:   cfg.PageSize,
	}
}

// Headlines searches article titles for keyword and returns at most
// MaxHeadlines articles that were not removed by their publishers.
func (c *Client) Headlines(ctx context.Context, keyword string) ([]Article, error) {
	articles, err := c.Everything(ctx, keyword)
	if err != nil {
		return nil, err
	}

	headlines := FilterArticles(articles, MaxHeadlines)

	slog.Debug("Fetched news",
		"keyword", keyword,
		"articles", len(articles),
		"headlines", len(headlines),
	)

	return headlines, nil
}

func (c *Client) Everything(ctx context.Context, keyword string) ([]Article, error) {
	query := url.Values{}
	query.Set("q", keyword)
	query.Set("pageSize", strconv.Itoa(c.pageSize))
	query.Set("searchIn", "title")
	query.Set("sortBy", "relevancy,publishedAt")
	query.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/everything?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, oops.In("newsapi").With("keyword", keyword).Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, oops.In("newsapi").With("keyword", keyword).Errorf("failed to read body: %w", err)
	}

	var result everythingResponse
	if resp.StatusCode != http.StatusOK {
		_ = json.Unmarshal(body, &result)

		return nil, oops.In("newsapi").
			With("keyword", keyword, "status", resp.StatusCode, "code", result.Code).
			Errorf("unexpected status %d: %s", resp.StatusCode, result.Message)
	}

	if err = json.Unmarshal(body, &result); err != nil {
		return nil, oops.In("newsapi").With("keyword", keyword).Errorf("failed to decode response: %w", err)
	}

	return result.Articles, nil
}

// FilterArticles drops removed articles and keeps the first limit of the rest.
func FilterArticles(articles []Article, limit int) []Article {
	valid := pie.Filter(articles, func(a Article) bool {
		return a.Source.Name != RemovedMarker && a.Title != RemovedMarker
	})

	if limit >= 0 && len(valid) > limit {
		valid = valid[:limit]
	}

	return valid
}
