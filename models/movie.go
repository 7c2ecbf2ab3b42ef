package models

import "errors"

// ErrNotFound is returned when a title cannot be located in the cache or
// any upstream provider.
var ErrNotFound = errors.New("movie not found")

// Provenance tags for the title-level fields of a Movie. Listing tags also
// mark the origin of torrent data; enrichment tags appear only on records
// built without a listing source.
const (
	SourceYTS    = "YTS"
	SourceAPIBay = "APIBay"
	SourceOMDb   = "OMDb"
	SourceTMDB   = "TMDB"
)

// Torrent is a single downloadable variant of a title. Torrent data always
// originates from a listing provider and is never touched by enrichment.
type Torrent struct {
	URL       string `json:"url"`
	Hash      string `json:"hash"`
	Quality   string `json:"quality"`
	Seeds     int    `json:"seeds"`
	Peers     int    `json:"peers"`
	SizeBytes int64  `json:"size_bytes"`
}

// Movie is the normalized, provider-agnostic catalog record.
type Movie struct {
	Source          string    `json:"source"`
	IMDBCode        string    `json:"imdb_code"`
	Title           string    `json:"title"`
	Year            int       `json:"year"`
	Rating          float64   `json:"rating"`
	Thumbnail       string    `json:"thumbnail"`
	BackgroundImage string    `json:"background_image"`
	Synopsis        string    `json:"synopsis"`
	Runtime         int       `json:"runtime"`
	MPARating       string    `json:"mpa_rating"`
	Genres          []string  `json:"genres"`
	Torrents        []Torrent `json:"torrents"`

	// Watched is only populated when a request carries a user identity.
	// It is never written to the cache; nil means "not applicable".
	Watched *bool `json:"watched,omitempty"`
}

// Enrichment carries descriptive metadata for a title from a single
// enrichment provider. It never carries torrent data.
type Enrichment struct {
	Provider        string   `json:"provider"`
	IMDBCode        string   `json:"imdb_code"`
	Title           string   `json:"title"`
	Year            int      `json:"year"`
	Rating          float64  `json:"rating"`
	Thumbnail       string   `json:"thumbnail"`
	BackgroundImage string   `json:"background_image"`
	Synopsis        string   `json:"synopsis"`
	Runtime         int      `json:"runtime"`
	MPARating       string   `json:"mpa_rating"`
	Genres          []string `json:"genres"`
}

// LibrarySortFields are the sort_by values accepted by the library listing.
// They mirror the primary listing provider's native sort parameters since
// pagination and ordering are delegated upstream.
var LibrarySortFields = []string{
	"title", "year", "rating", "peers", "seeds",
	"download_count", "like_count", "date_added",
}

// LibraryFilters are the provider-delegated query parameters for the
// library listing.
type LibraryFilters struct {
	Page          int
	Limit         int
	MinimumRating int
	QueryTerm     string
	Genre         string
	SortBy        string
	OrderBy       string
}

// Normalize clamps and defaults filter values the way the upstream
// provider documents them.
func (f *LibraryFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 50 {
		f.Limit = 50
	}
	if f.MinimumRating < 0 {
		f.MinimumRating = 0
	}
	if f.MinimumRating > 9 {
		f.MinimumRating = 9
	}
	if !validSortField(f.SortBy) {
		f.SortBy = "date_added"
	}
	if f.OrderBy != "asc" && f.OrderBy != "desc" {
		f.OrderBy = "desc"
	}
}

func validSortField(field string) bool {
	for _, s := range LibrarySortFields {
		if s == field {
			return true
		}
	}
	return false
}

// SearchResponse is the payload returned by the search endpoint.
type SearchResponse struct {
	Query   string  `json:"query"`
	Count   int     `json:"count"`
	Results []Movie `json:"results"`
}
