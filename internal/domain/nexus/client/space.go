package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"klaus/internal/domain/nexus/model"

	"golang.org/x/time/rate"
)

// spaceItemCap bounds how many space items join one feed page.
const spaceItemCap = 10

// SpaceClient queries the NASA image and video library.
type SpaceClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewSpaceClient creates the client.
func NewSpaceClient(baseURL string, rps float64) *SpaceClient {
	if rps <= 0 {
		rps = 5
	}
	return &SpaceClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}
}

type spaceResponse struct {
	Collection struct {
		Items []struct {
			Data []struct {
				NasaID      string `json:"nasa_id"`
				Title       string `json:"title"`
				Description string `json:"description"`
				MediaType   string `json:"media_type"`
				DateCreated string `json:"date_created"`
			} `json:"data"`
			Links []struct {
				Href string `json:"href"`
				Rel  string `json:"rel"`
			} `json:"links"`
		} `json:"items"`
	} `json:"collection"`
}

// Fetch searches the space library. Video-only modes drop items without
// a playable asset link.
func (c *SpaceClient) Fetch(ctx context.Context, mode model.Mode, search string) ([]model.ContentItem, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := strings.TrimSpace(search)
	if q == "" {
		q = "nebula"
	}

	params := url.Values{}
	params.Set("q", q)
	if mode == model.ModeKlips {
		params.Set("media_type", "video")
	} else {
		params.Set("media_type", "image,video")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("space request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("space library returned status %d", resp.StatusCode)
	}

	var payload spaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("space decode: %w", err)
	}

	items := make([]model.ContentItem, 0, spaceItemCap)
	for _, raw := range payload.Collection.Items {
		if len(items) >= spaceItemCap {
			break
		}
		if len(raw.Data) == 0 {
			continue
		}
		data := raw.Data[0]

		var thumb, video string
		for _, link := range raw.Links {
			if strings.HasSuffix(link.Href, ".mp4") {
				video = link.Href
			} else if thumb == "" {
				thumb = link.Href
			}
		}

		// Klips promises playable video on every item.
		if mode == model.ModeKlips && video == "" {
			continue
		}

		year := "2025"
		if len(data.DateCreated) >= 4 {
			year = data.DateCreated[:4]
		}

		itemType := model.TypeImage
		if data.MediaType == "video" {
			itemType = model.TypeVideo
		}

		items = append(items, model.ContentItem{
			ID:           data.NasaID,
			Title:        data.Title,
			Description:  data.Description,
			FullText:     data.Description,
			Type:         itemType,
			Source:       "NASA",
			Author:       "NASA JPL",
			Year:         year,
			ThumbnailURL: thumb,
			VideoURL:     video,
			ExternalLink: "https://images.nasa.gov/details-" + data.NasaID,
		})
	}
	return items, nil
}
