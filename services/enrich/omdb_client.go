package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cinebay/models"
)

const omdbBaseURL = "https://www.omdbapi.com"

type omdbClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func newOMDBClient(apiKey string, httpc *http.Client) *omdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &omdbClient{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: omdbBaseURL,
		httpc:   httpc,
	}
}

func (c *omdbClient) tag() string { return models.SourceOMDb }

func (c *omdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

// omdbTitleResponse mirrors the OMDb "by id" payload. OMDb reports absent
// values as the literal string "N/A" and failure as Response:"False".
type omdbTitleResponse struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	IMDBRating string `json:"imdbRating"`
	IMDBID     string `json:"imdbID"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

func (c *omdbClient) lookup(ctx context.Context, imdbID string) (*models.Enrichment, error) {
	if !c.isConfigured() {
		return nil, errors.New("omdb api key not configured")
	}

	endpoint := fmt.Sprintf("%s/?apikey=%s&i=%s", c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(imdbID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("omdb lookup %s failed: %s", imdbID, resp.Status)
	}

	var payload omdbTitleResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	if !strings.EqualFold(payload.Response, "True") {
		return nil, models.ErrNotFound
	}

	return normalizeOMDB(payload), nil
}

func normalizeOMDB(payload omdbTitleResponse) *models.Enrichment {
	e := &models.Enrichment{
		Provider:  models.SourceOMDb,
		IMDBCode:  strings.TrimSpace(payload.IMDBID),
		Title:     omdbString(payload.Title),
		Synopsis:  omdbString(payload.Plot),
		MPARating: omdbString(payload.Rated),
		Thumbnail: omdbString(payload.Poster),
	}
	// OMDb has no separate backdrop; reuse the poster.
	e.BackgroundImage = e.Thumbnail

	if year := omdbString(payload.Year); len(year) >= 4 {
		if y, err := strconv.Atoi(year[:4]); err == nil {
			e.Year = y
		}
	}
	if rating := omdbString(payload.IMDBRating); rating != "" {
		if r, err := strconv.ParseFloat(rating, 64); err == nil {
			e.Rating = r
		}
	}
	// Runtime arrives as "108 min".
	if runtime := omdbString(payload.Runtime); runtime != "" {
		fields := strings.Fields(runtime)
		if len(fields) > 0 {
			if mins, err := strconv.Atoi(fields[0]); err == nil {
				e.Runtime = mins
			}
		}
	}
	if genre := omdbString(payload.Genre); genre != "" {
		for _, g := range strings.Split(genre, ",") {
			if trimmed := strings.TrimSpace(g); trimmed != "" {
				e.Genres = append(e.Genres, trimmed)
			}
		}
	}
	return e
}

// omdbString collapses OMDb's "N/A" placeholder to an empty string.
func omdbString(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "N/A") {
		return ""
	}
	return v
}
