package client

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
	"unicode/utf8"

	"klaus/internal/domain/nexus/model"

	"golang.org/x/time/rate"
)

// curatedCollections is the browse allow-list applied to general mode
// when no search text is given.
var curatedCollections = []string{
	"computer_chronicles", "prelinger", "vintagetechnology", "siggraph",
	"scifi_pulp", "folkscanomy_electronics", "tedtalks", "smithsonian",
	"noaa", "europeana", "gutenberg", "open_verse", "fedflix", "nasa",
}

// sourceLabels maps collection membership to a display source.
var sourceLabels = map[string]string{
	"tedtalks":    "TED Open Data",
	"smithsonian": "Smithsonian",
	"noaa":        "NOAA",
	"europeana":   "Europeana",
	"gutenberg":   "Project Gutenberg",
}

var nonWord = regexp.MustCompile(`[^\w\s]`)

// ArchiveClient queries the archive.org advanced search API.
type ArchiveClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewArchiveClient creates the client. rps bounds outbound request rate.
func NewArchiveClient(baseURL string, rps float64) *ArchiveClient {
	if rps <= 0 {
		rps = 5
	}
	return &ArchiveClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}
}

type archiveDoc struct {
	Identifier  string      `json:"identifier"`
	Title       interface{} `json:"title"`
	Description interface{} `json:"description"`
	Year        interface{} `json:"year"`
	Downloads   int64       `json:"downloads"`
	Format      []string    `json:"format"`
	Collection  []string    `json:"collection"`
	MediaType   string      `json:"mediatype"`
	Creator     interface{} `json:"creator"`
}

type archiveResponse struct {
	Response struct {
		Docs []archiveDoc `json:"docs"`
	} `json:"response"`
}

// Fetch runs a paged search for the given mode.
func (c *ArchiveClient) Fetch(ctx context.Context, mode model.Mode, search string, page, limit int) ([]model.ContentItem, error) {
	return c.fetchQuery(ctx, c.buildQuery(mode, search), page, limit)
}

// FetchCollection pulls items from a single collection, used for rails
// and topic sampling.
func (c *ArchiveClient) FetchCollection(ctx context.Context, collection string, limit int) ([]model.ContentItem, error) {
	return c.fetchQuery(ctx, "collection:"+collection, 1, limit)
}

func (c *ArchiveClient) fetchQuery(ctx context.Context, query string, page, limit int) ([]model.ContentItem, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("fl", "identifier,title,description,year,downloads,format,collection,mediatype,creator")
	params.Set("sort", "downloads desc")
	params.Set("rows", strconv.Itoa(limit))
	params.Set("page", strconv.Itoa(page))
	params.Set("output", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("archive returned status %d", resp.StatusCode)
	}

	var payload archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("archive decode: %w", err)
	}

	items := make([]model.ContentItem, 0, len(payload.Response.Docs))
	for _, doc := range payload.Response.Docs {
		if doc.Identifier == "" {
			continue
		}
		items = append(items, mapDoc(doc))
	}
	return items, nil
}

// buildQuery assembles the advanced-search expression for a mode.
func (c *ArchiveClient) buildQuery(mode model.Mode, search string) string {
	var base string
	switch mode {
	case model.ModeKlips:
		base = "(mediatype:movies) AND (format:MPEG4 OR format:h.264 OR format:WebM OR format:Matroska OR format:QuickTime) AND NOT (format:ogv)"
	case model.ModeLibrary:
		base = "(mediatype:texts) AND (format:pdf OR format:epub)"
	case model.ModeFeed:
		base = "(mediatype:texts OR mediatype:image) AND NOT (format:pdf OR format:epub OR format:djvu)"
	default:
		base = "(mediatype:movies OR mediatype:texts OR mediatype:image)"
	}

	if q := sanitizeSearch(search); q != "" {
		return base + fmt.Sprintf(" AND (title:(%s) OR description:(%s))", q, q)
	}

	if mode == model.ModeGeneral {
		// No search text: browse the curated collections only.
		parts := make([]string, len(curatedCollections))
		for i, col := range curatedCollections {
			parts[i] = "collection:" + col
		}
		return base + " AND (" + strings.Join(parts, " OR ") + ")"
	}
	return base
}

// sanitizeSearch strips everything but word characters and spaces, so
// user text cannot alter the query structure.
func sanitizeSearch(s string) string {
	return strings.TrimSpace(nonWord.ReplaceAllString(s, ""))
}

func mapDoc(doc archiveDoc) model.ContentItem {
	id := doc.Identifier

	item := model.ContentItem{
		ID:           id,
		Title:        firstString(doc.Title, "Untitled"),
		Description:  truncate(firstString(doc.Description, ""), 300),
		FullText:     firstString(doc.Description, ""),
		Source:       sourceFor(doc.Collection),
		Author:       firstString(doc.Creator, "Archive"),
		Year:         firstString(doc.Year, ""),
		Views:        doc.Downloads,
		Likes:        doc.Downloads / 50,
		ThumbnailURL: "https://archive.org/services/img/" + id,
		ExternalLink: "https://archive.org/details/" + id,
	}

	switch {
	case doc.MediaType == "movies":
		item.Type = model.TypeVideo
		item.VideoURL = fmt.Sprintf("https://archive.org/download/%s/%s.mp4", id, id)
	case doc.MediaType == "image":
		item.Type = model.TypeImage
	case doc.MediaType == "audio":
		item.Type = model.TypeAudio
	case hasBookFormat(doc.Format):
		item.Type = model.TypeBook
	default:
		item.Type = model.TypeText
	}
	return item
}

func hasBookFormat(formats []string) bool {
	for _, f := range formats {
		lower := strings.ToLower(f)
		if strings.Contains(lower, "pdf") || strings.Contains(lower, "epub") {
			return true
		}
	}
	return false
}

func sourceFor(collections []string) string {
	for _, col := range collections {
		if label, ok := sourceLabels[col]; ok {
			return label
		}
	}
	return "Internet Archive"
}

// firstString flattens the loosely typed archive fields, which arrive as
// either a string or an array of strings.
func firstString(v interface{}, fallback string) string {
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case []interface{}:
		for _, e := range t {
			if s, ok := e.(string); ok && s != "" {
				return s
			}
		}
	case float64:
		return strconv.FormatInt(int64(t), 10)
	}
	return fallback
}

// truncate caps s at max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
