package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"cinebay/models"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	// Optimized image sizes instead of "original": posters render in cards,
	// backdrops behind 1080p layouts.
	tmdbPosterSize   = "w500"
	tmdbBackdropSize = "w1280"
)

type tmdbClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func newTMDBClient(apiKey string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: tmdbBaseURL,
		httpc:   httpc,
	}
}

func (c *tmdbClient) tag() string { return models.SourceTMDB }

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

func (c *tmdbClient) doGET(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("tmdb request failed: %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

type tmdbMovieDetails struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
	Runtime      int     `json:"runtime"`
	IMDBId       string  `json:"imdb_id"`
	Genres       []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

// lookup resolves the TMDB movie id for an IMDB id, then fetches the full
// movie details. Both steps are single attempts; the fallback chain owns
// what happens on failure.
func (c *tmdbClient) lookup(ctx context.Context, imdbID string) (*models.Enrichment, error) {
	if !c.isConfigured() {
		return nil, errors.New("tmdb api key not configured")
	}
	if !strings.HasPrefix(imdbID, "tt") {
		imdbID = "tt" + imdbID
	}

	endpoint := fmt.Sprintf("%s/find/%s?api_key=%s&external_source=imdb_id", c.baseURL, imdbID, c.apiKey)

	var found struct {
		MovieResults []struct {
			ID int64 `json:"id"`
		} `json:"movie_results"`
	}
	if err := c.doGET(ctx, endpoint, &found); err != nil {
		return nil, err
	}
	if len(found.MovieResults) == 0 {
		return nil, models.ErrNotFound
	}

	endpoint = fmt.Sprintf("%s/movie/%d?api_key=%s&language=en-US", c.baseURL, found.MovieResults[0].ID, c.apiKey)

	var details tmdbMovieDetails
	if err := c.doGET(ctx, endpoint, &details); err != nil {
		return nil, err
	}

	return normalizeTMDB(details, imdbID), nil
}

func normalizeTMDB(details tmdbMovieDetails, imdbID string) *models.Enrichment {
	e := &models.Enrichment{
		Provider:        models.SourceTMDB,
		IMDBCode:        imdbID,
		Title:           strings.TrimSpace(details.Title),
		Synopsis:        strings.TrimSpace(details.Overview),
		Rating:          details.VoteAverage,
		Runtime:         details.Runtime,
		Thumbnail:       buildTMDBImage(details.PosterPath, tmdbPosterSize),
		BackgroundImage: buildTMDBImage(details.BackdropPath, tmdbBackdropSize),
	}
	if imdb := strings.TrimSpace(details.IMDBId); imdb != "" {
		e.IMDBCode = imdb
	}
	if len(details.ReleaseDate) >= 4 {
		if t, err := time.Parse("2006-01-02", details.ReleaseDate); err == nil {
			e.Year = t.Year()
		}
	}
	for _, g := range details.Genres {
		if name := strings.TrimSpace(g.Name); name != "" {
			e.Genres = append(e.Genres, name)
		}
	}
	return e
}

func buildTMDBImage(imagePath, size string) string {
	trimmed := strings.TrimSpace(imagePath)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", tmdbImageBaseURL, path.Join(size, strings.TrimPrefix(trimmed, "/")))
}
