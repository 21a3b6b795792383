package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klaus/internal/domain/nexus/model"
)

const sampleSpaceResponse = `{
	"collection": {
		"items": [
			{
				"data": [{
					"nasa_id": "PIA12345",
					"title": "Orion Nebula",
					"description": "A stellar nursery.",
					"media_type": "image",
					"date_created": "2019-04-01T00:00:00Z"
				}],
				"links": [{"href": "https://images-assets.nasa.gov/PIA12345/thumb.jpg", "rel": "preview"}]
			},
			{
				"data": [{
					"nasa_id": "VID-001",
					"title": "Launch Highlights",
					"media_type": "video"
				}],
				"links": [
					{"href": "https://images-assets.nasa.gov/VID-001/thumb.jpg", "rel": "preview"},
					{"href": "https://images-assets.nasa.gov/VID-001/clip.mp4", "rel": "captions"}
				]
			},
			{
				"data": [{
					"nasa_id": "VID-002",
					"title": "Video Without Asset",
					"media_type": "video"
				}],
				"links": [{"href": "https://images-assets.nasa.gov/VID-002/thumb.jpg", "rel": "preview"}]
			},
			{
				"data": [],
				"links": []
			}
		]
	}
}`

func newSpaceTestServer(t *testing.T, capture *url.Values) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			*capture = r.URL.Query()
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleSpaceResponse))
	}))
}

func TestSpaceFetch_DefaultsAndMapping(t *testing.T) {
	var got url.Values
	srv := newSpaceTestServer(t, &got)
	defer srv.Close()

	c := NewSpaceClient(srv.URL, 100)
	items, err := c.Fetch(context.Background(), model.ModeFeed, "")
	require.NoError(t, err)

	assert.Equal(t, "nebula", got.Get("q"), "empty search falls back to the default topic")
	assert.Equal(t, "image,video", got.Get("media_type"))

	require.Len(t, items, 3, "items without data are dropped")

	nebula := items[0]
	assert.Equal(t, "PIA12345", nebula.ID)
	assert.Equal(t, model.TypeImage, nebula.Type)
	assert.Equal(t, "NASA", nebula.Source)
	assert.Equal(t, "NASA JPL", nebula.Author)
	assert.Equal(t, "2019", nebula.Year)
	assert.Equal(t, "https://images-assets.nasa.gov/PIA12345/thumb.jpg", nebula.ThumbnailURL)
	assert.Equal(t, "https://images.nasa.gov/details-PIA12345", nebula.ExternalLink)

	launch := items[1]
	assert.Equal(t, model.TypeVideo, launch.Type)
	assert.Equal(t, "https://images-assets.nasa.gov/VID-001/clip.mp4", launch.VideoURL)
	assert.Equal(t, "2025", launch.Year, "missing date falls back to the default year")
}

func TestSpaceFetch_KlipsRequiresPlayableVideo(t *testing.T) {
	var got url.Values
	srv := newSpaceTestServer(t, &got)
	defer srv.Close()

	c := NewSpaceClient(srv.URL, 100)
	items, err := c.Fetch(context.Background(), model.ModeKlips, "launch")
	require.NoError(t, err)

	assert.Equal(t, "video", got.Get("media_type"))
	assert.Equal(t, "launch", got.Get("q"))

	for _, item := range items {
		assert.NotEmpty(t, item.VideoURL, "klips never serves an unplayable item")
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	assert.NotContains(t, ids, "VID-002")
}

func TestSpaceFetch_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewSpaceClient(srv.URL, 100)
	_, err := c.Fetch(context.Background(), model.ModeFeed, "mars")
	assert.Error(t, err)
}
