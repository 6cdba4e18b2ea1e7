// Package websearch implements the external search fallback against a
// Tavily-compatible search API. All calls share one rate limiter so bursts
// of low-confidence sessions cannot exhaust the provider quota.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/cleitonmarx/symbiont/depend"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// SearchClient is a client for a Tavily-compatible search/extract API.
type SearchClient struct {
	baseURL    string
	apiKey     string
	http       *http.Client
	limiter    *rate.Limiter
	maxResults int
}

// NewSearchClient creates a new SearchClient.
func NewSearchClient(baseURL, apiKey string, httpClient *http.Client, limiter *rate.Limiter, maxResults int) SearchClient {
	return SearchClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		http:       httpClient,
		limiter:    limiter,
		maxResults: maxResults,
	}
}

type searchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type searchResult struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Content string   `json:"content"`
	Price   *float64 `json:"price,omitempty"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type extractRequest struct {
	APIKey string   `json:"api_key"`
	URLs   []string `json:"urls"`
	Fields []string `json:"fields,omitempty"`
}

type extractResult struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       *float64 `json:"price,omitempty"`
	ImageURL    string   `json:"image_url"`
}

type extractResponse struct {
	Results []extractResult `json:"results"`
}

// Search runs a web search for the query.
func (sc SearchClient) Search(ctx context.Context, query string) ([]domain.ExternalResult, error) {
	spanCtx, span := telemetry.Start(ctx, trace.WithAttributes(
		attribute.Int("maxResults", sc.maxResults),
	))
	defer span.End()

	if query == "" {
		return nil, domain.NewValidationErr("search query must not be empty")
	}

	if err := sc.limiter.Wait(spanCtx); telemetry.RecordErrorAndStatus(span, err) {
		return nil, err
	}

	var out searchResponse
	err := sc.post(spanCtx, "/search", searchRequest{
		APIKey:     sc.apiKey,
		Query:      query,
		MaxResults: sc.maxResults,
	}, &out)
	if telemetry.RecordErrorAndStatus(span, err) {
		return nil, err
	}

	results := make([]domain.ExternalResult, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, domain.ExternalResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
			Price:   r.Price,
		})
	}
	return results, nil
}

// Extract pulls structured records for the named fields out of the URLs.
func (sc SearchClient) Extract(ctx context.Context, urls []string, fields []string) ([]domain.ExternalRecord, error) {
	spanCtx, span := telemetry.Start(ctx, trace.WithAttributes(
		attribute.Int("urls", len(urls)),
	))
	defer span.End()

	if len(urls) == 0 {
		return nil, domain.NewValidationErr("at least one url is required")
	}

	if err := sc.limiter.Wait(spanCtx); telemetry.RecordErrorAndStatus(span, err) {
		return nil, err
	}

	var out extractResponse
	err := sc.post(spanCtx, "/extract", extractRequest{
		APIKey: sc.apiKey,
		URLs:   urls,
		Fields: fields,
	}, &out)
	if telemetry.RecordErrorAndStatus(span, err) {
		return nil, err
	}

	records := make([]domain.ExternalRecord, 0, len(out.Results))
	for _, r := range out.Results {
		records = append(records, domain.ExternalRecord{
			URL:         r.URL,
			Title:       r.Title,
			Description: r.Description,
			Price:       r.Price,
			ImageURL:    r.ImageURL,
		})
	}
	return records, nil
}

func (sc SearchClient) post(ctx context.Context, path string, body any, out any) error {
	endpoint, err := url.JoinPath(sc.baseURL, path)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := sc.http.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("non-2xx response: %s: %s", resp.Status, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// InitExternalSearcher initializes the ExternalSearcher dependency.
type InitExternalSearcher struct {
	HttpClient *http.Client `resolve:""`
	APIURL     string       `config:"WEBSEARCH_API_URL"`
	APIKey     string       `config:"WEBSEARCH_API_KEY"`
	RatePerSec int          `config:"WEBSEARCH_RATE_PER_SEC" default:"2"`
	Burst      int          `config:"WEBSEARCH_RATE_BURST" default:"4"`
	MaxResults int          `config:"WEBSEARCH_MAX_RESULTS" default:"5"`
}

// Initialize registers the ExternalSearcher in the dependency container.
func (i InitExternalSearcher) Initialize(ctx context.Context) (context.Context, error) {
	depend.Register[domain.ExternalSearcher](NewSearchClient(
		i.APIURL,
		i.APIKey,
		i.HttpClient,
		rate.NewLimiter(rate.Limit(float64(i.RatePerSec)), i.Burst),
		i.MaxResults,
	))
	return ctx, nil
}
