package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cinebay/models"
)

const (
	defaultYTSBaseURL = "https://yts.lt"
	ytsTrendingLimit  = 50
)

// ytsClient talks to a YTS mirror's list_movies endpoint. YTS groups
// torrents under one record per film, so its payloads map cleanly onto
// the catalog shape.
type ytsClient struct {
	baseURL string
	httpc   *http.Client
}

func newYTSClient(baseURL string, httpc *http.Client) *ytsClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultYTSBaseURL
	}
	return &ytsClient{baseURL: baseURL, httpc: httpc}
}

type ytsTorrent struct {
	URL       string `json:"url"`
	Hash      string `json:"hash"`
	Quality   string `json:"quality"`
	Seeds     int    `json:"seeds"`
	Peers     int    `json:"peers"`
	SizeBytes int64  `json:"size_bytes"`
}

type ytsMovie struct {
	ID               int          `json:"id"`
	IMDBCode         string       `json:"imdb_code"`
	Title            string       `json:"title"`
	TitleLong        string       `json:"title_long"`
	Year             int          `json:"year"`
	Rating           float64      `json:"rating"`
	Runtime          int          `json:"runtime"`
	Genres           []string     `json:"genres"`
	Summary          string       `json:"summary"`
	MPARating        string       `json:"mpa_rating"`
	BackgroundImage  string       `json:"background_image"`
	MediumCoverImage string       `json:"medium_cover_image"`
	LargeCoverImage  string       `json:"large_cover_image"`
	Torrents         []ytsTorrent `json:"torrents"`
}

type ytsListResponse struct {
	Status        string `json:"status"`
	StatusMessage string `json:"status_message"`
	Data          struct {
		MovieCount int        `json:"movie_count"`
		Limit      int        `json:"limit"`
		PageNumber int        `json:"page_number"`
		Movies     []ytsMovie `json:"movies"`
	} `json:"data"`
}

func (c *ytsClient) listMovies(ctx context.Context, params url.Values) (*ytsListResponse, error) {
	endpoint := fmt.Sprintf("%s/api/v2/list_movies.json", c.baseURL)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

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
		return nil, fmt.Errorf("yts request failed: %s", resp.Status)
	}

	var payload ytsListResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("yts decode: %w", err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("yts status %q: %s", payload.Status, payload.StatusMessage)
	}
	return &payload, nil
}

// trending returns the mirror's most-downloaded titles.
func (c *ytsClient) trending(ctx context.Context) ([]ytsMovie, error) {
	params := url.Values{}
	params.Set("sort_by", "download_count")
	params.Set("limit", strconv.Itoa(ytsTrendingLimit))

	payload, err := c.listMovies(ctx, params)
	if err != nil {
		return nil, err
	}
	return payload.Data.Movies, nil
}

func (c *ytsClient) search(ctx context.Context, query string) ([]ytsMovie, error) {
	params := url.Values{}
	params.Set("query_term", query)

	payload, err := c.listMovies(ctx, params)
	if err != nil {
		return nil, err
	}
	return payload.Data.Movies, nil
}

// library delegates filtering, sorting and pagination to the provider's
// native parameters. The returned order is authoritative.
func (c *ytsClient) library(ctx context.Context, f models.LibraryFilters) ([]ytsMovie, int, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(f.Page))
	params.Set("limit", strconv.Itoa(f.Limit))
	params.Set("sort_by", f.SortBy)
	params.Set("order_by", f.OrderBy)
	if f.MinimumRating > 0 {
		params.Set("minimum_rating", strconv.Itoa(f.MinimumRating))
	}
	if f.QueryTerm != "" {
		params.Set("query_term", f.QueryTerm)
	}
	if f.Genre != "" {
		params.Set("genre", f.Genre)
	}

	payload, err := c.listMovies(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return payload.Data.Movies, payload.Data.MovieCount, nil
}
