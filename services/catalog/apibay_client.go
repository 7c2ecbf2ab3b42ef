package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAPIBayBaseURL = "https://apibay.org"
	// Category 207: HD movies.
	apibayMovieCategory = "207"
)

// apibayClient talks to the apibay.org JSON endpoints. Records are flat
// torrent entries, one per release, keyed to a film only by the optional
// imdb field.
type apibayClient struct {
	baseURL string
	httpc   *http.Client
}

func newAPIBayClient(baseURL string, httpc *http.Client) *apibayClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultAPIBayBaseURL
	}
	return &apibayClient{baseURL: baseURL, httpc: httpc}
}

// flexInt64 accepts both JSON numbers and numeric strings. The precompiled
// trending feed uses numbers while q.php quotes every field.
type flexInt64 int64

func (n *flexInt64) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	*n = flexInt64(v)
	return nil
}

type apibayTorrent struct {
	ID       flexInt64 `json:"id"`
	InfoHash string    `json:"info_hash"`
	Name     string    `json:"name"`
	Size     flexInt64 `json:"size"`
	Seeders  flexInt64 `json:"seeders"`
	Leechers flexInt64 `json:"leechers"`
	IMDB     string    `json:"imdb"`
}

func (c *apibayClient) fetch(ctx context.Context, endpoint string) ([]apibayTorrent, error) {
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
		return nil, fmt.Errorf("apibay request failed: %s", resp.Status)
	}

	var items []apibayTorrent
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("apibay decode: %w", err)
	}
	return items, nil
}

// trending returns the precompiled top-100 HD movie feed.
func (c *apibayClient) trending(ctx context.Context) ([]apibayTorrent, error) {
	return c.fetch(ctx, fmt.Sprintf("%s/precompiled/data_top100_%s.json", c.baseURL, apibayMovieCategory))
}

func (c *apibayClient) search(ctx context.Context, query string) ([]apibayTorrent, error) {
	return c.fetch(ctx, fmt.Sprintf("%s/q.php?q=%s&cat=%s", c.baseURL, url.QueryEscape(query), apibayMovieCategory))
}
