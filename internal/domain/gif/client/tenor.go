package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"klaus/internal/domain/gif/model"
)

const defaultGifLimit = 20

// TenorClient queries the Tenor v1 API for trending and searched GIFs.
type TenorClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewTenorClient creates the client.
func NewTenorClient(baseURL, apiKey string) *TenorClient {
	return &TenorClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type tenorMedia struct {
	Gif struct {
		URL string `json:"url"`
	} `json:"gif"`
	TinyGif struct {
		URL string `json:"url"`
	} `json:"tinygif"`
}

type tenorResult struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	Media []tenorMedia `json:"media"`
}

type tenorResponse struct {
	Results []tenorResult `json:"results"`
}

// Trending returns the current trending GIFs.
func (c *TenorClient) Trending(ctx context.Context, limit int) ([]model.Gif, error) {
	return c.fetch(ctx, "trending", "", limit)
}

// Search returns GIFs matching the query.
func (c *TenorClient) Search(ctx context.Context, query string, limit int) ([]model.Gif, error) {
	return c.fetch(ctx, "search", query, limit)
}

func (c *TenorClient) fetch(ctx context.Context, endpoint, query string, limit int) ([]model.Gif, error) {
	if limit <= 0 || limit > 50 {
		limit = defaultGifLimit
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("media_filter", "minimal")
	if query != "" {
		params.Set("q", query)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tenor %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tenor %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	var out tenorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("tenor %s: decoding response: %w", endpoint, err)
	}

	gifs := make([]model.Gif, 0, len(out.Results))
	for _, r := range out.Results {
		if len(r.Media) == 0 {
			continue
		}
		title := r.Title
		if title == "" {
			title = "GIF"
		}
		gifs = append(gifs, model.Gif{
			ID:         r.ID,
			Title:      title,
			URL:        r.Media[0].Gif.URL,
			PreviewURL: r.Media[0].TinyGif.URL,
		})
	}
	return gifs, nil
}
