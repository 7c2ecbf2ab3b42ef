package catalog

import (
	"fmt"
	"log"
	"net/url"
	"strings"

	"cinebay/models"
)

// normalizeYTS maps YTS records onto the catalog shape. Records without an
// IMDB identifier are dropped: the id is the join key for enrichment, the
// watched overlay and the single-title route, so a record without one is
// unreachable downstream.
func normalizeYTS(items []ytsMovie) []models.Movie {
	movies := make([]models.Movie, 0, len(items))
	for _, item := range items {
		if !validIMDBCode(item.IMDBCode) {
			log.Printf("[catalog] dropping YTS record %q: missing imdb code", item.Title)
			continue
		}

		torrents := make([]models.Torrent, 0, len(item.Torrents))
		for _, t := range item.Torrents {
			torrents = append(torrents, models.Torrent{
				URL:       t.URL,
				Hash:      t.Hash,
				Quality:   t.Quality,
				Seeds:     t.Seeds,
				Peers:     t.Peers,
				SizeBytes: t.SizeBytes,
			})
		}

		thumbnail := item.LargeCoverImage
		if thumbnail == "" {
			thumbnail = item.MediumCoverImage
		}

		genres := item.Genres
		if genres == nil {
			genres = []string{}
		}

		movies = append(movies, models.Movie{
			Source:          models.SourceYTS,
			IMDBCode:        item.IMDBCode,
			Title:           item.Title,
			Year:            item.Year,
			Rating:          item.Rating,
			Thumbnail:       thumbnail,
			BackgroundImage: item.BackgroundImage,
			Synopsis:        item.Summary,
			Runtime:         item.Runtime,
			MPARating:       item.MPARating,
			Genres:          genres,
			Torrents:        torrents,
		})
	}
	return movies
}

// normalizeAPIBay maps flat torrent records onto the catalog shape, one
// movie per record with a single torrent built from the info hash.
// Descriptive fields start from the raw release name; enrichment replaces
// them when a provider knows the title.
func normalizeAPIBay(items []apibayTorrent) []models.Movie {
	movies := make([]models.Movie, 0, len(items))
	for _, item := range items {
		if !validIMDBCode(item.IMDB) {
			log.Printf("[catalog] dropping APIBay record %q: missing imdb code", item.Name)
			continue
		}

		movies = append(movies, models.Movie{
			Source:   models.SourceAPIBay,
			IMDBCode: item.IMDB,
			Title:    item.Name,
			Genres:   []string{},
			Torrents: []models.Torrent{{
				URL:       buildMagnet(item.InfoHash, item.Name),
				Hash:      item.InfoHash,
				Quality:   qualityFromName(item.Name),
				Seeds:     int(item.Seeders),
				Peers:     int(item.Leechers),
				SizeBytes: int64(item.Size),
			}},
		})
	}
	return movies
}

func validIMDBCode(id string) bool {
	return strings.HasPrefix(id, "tt") && len(id) > 2
}

func buildMagnet(infoHash, name string) string {
	return fmt.Sprintf("magnet:?xt=urn:btih:%s&dn=%s", infoHash, url.QueryEscape(name))
}

// qualityFromName guesses a quality label from a raw release name.
func qualityFromName(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "2160p"), strings.Contains(lower, "4k"):
		return "2160p"
	case strings.Contains(lower, "720p"):
		return "720p"
	case strings.Contains(lower, "480p"):
		return "480p"
	default:
		return "1080p"
	}
}
