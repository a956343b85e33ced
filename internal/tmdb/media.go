// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package tmdb

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

// Kind is the TMDB media type.
type Kind string

const (
	KindMovie Kind = "movie"
	KindTV    Kind = "tv"
)

// ParseKind accepts "movie" and "tv".
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindMovie, KindTV:
		return Kind(s), true
	default:
		return "", false
	}
}

// Genre is one entry of a genre list.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Video is one entry of the appended videos resource.
type Video struct {
	ID          string `json:"id,omitempty"`
	Key         string `json:"key"`
	Name        string `json:"name,omitempty"`
	Site        string `json:"site"`
	Type        string `json:"type"`
	Official    bool   `json:"official,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

type VideoList struct {
	Results []Video `json:"results"`
}

type ContentRating struct {
	Country string  `json:"iso_3166_1"`
	Rating  *string `json:"rating"`
}

type ContentRatings struct {
	Results []ContentRating `json:"results"`
}

type ReleaseDate struct {
	Certification *string `json:"certification"`
	ReleaseDate   string  `json:"release_date,omitempty"`
	Type          int     `json:"type,omitempty"`
	Note          string  `json:"note,omitempty"`
}

type CountryReleases struct {
	Country      string        `json:"iso_3166_1"`
	ReleaseDates []ReleaseDate `json:"release_dates"`
}

type ReleaseDates struct {
	Results []CountryReleases `json:"results"`
}

// Season is a season summary of a show. Episodes is filled by EnrichShow.
// Fields not listed here are kept in Extra and written back out.
type Season struct {
	ID           int               `json:"id,omitempty"`
	Name         string            `json:"name,omitempty"`
	Overview     string            `json:"overview,omitempty"`
	AirDate      string            `json:"air_date,omitempty"`
	EpisodeCount int               `json:"episode_count,omitempty"`
	PosterPath   string            `json:"poster_path,omitempty"`
	SeasonNumber int               `json:"season_number"`
	VoteAverage  *float64          `json:"vote_average,omitempty"`
	Episodes     []json.RawMessage `json:"episodes"`

	Extra map[string]json.RawMessage `json:"-"`
}

type seasonFields Season

func (s *Season) UnmarshalJSON(b []byte) error {
	extra, err := decodeWithExtra(b, (*seasonFields)(s))
	if err != nil {
		return err
	}
	s.Extra = extra
	return nil
}

func (s Season) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(seasonFields(s), s.Extra)
}

// SeasonDetail is the /tv/{id}/season/{n} payload.
type SeasonDetail struct {
	ID           int               `json:"id,omitempty"`
	Name         string            `json:"name,omitempty"`
	SeasonNumber int               `json:"season_number"`
	Episodes     []json.RawMessage `json:"episodes"`
}

// Media is the typed subset of a movie or show that the service uses, plus
// the enriched fields. The full upstream object is kept in Extra, so fields
// not listed here pass through untouched.
type Media struct {
	ID               int             `json:"id,omitempty"`
	Title            string          `json:"title,omitempty"`
	Name             string          `json:"name,omitempty"`
	OriginalTitle    string          `json:"original_title,omitempty"`
	OriginalName     string          `json:"original_name,omitempty"`
	Overview         string          `json:"overview,omitempty"`
	Tagline          string          `json:"tagline,omitempty"`
	Status           string          `json:"status,omitempty"`
	Homepage         string          `json:"homepage,omitempty"`
	IMDBID           string          `json:"imdb_id,omitempty"`
	Runtime          int             `json:"runtime,omitempty"`
	EpisodeRunTime   []int           `json:"episode_run_time,omitempty"`
	Genres           []Genre         `json:"genres,omitempty"`
	BackdropPath     string          `json:"backdrop_path,omitempty"`
	PosterPath       string          `json:"poster_path,omitempty"`
	ReleaseDate      string          `json:"release_date,omitempty"`
	FirstAirDate     string          `json:"first_air_date,omitempty"`
	LastAirDate      string          `json:"last_air_date,omitempty"`
	NumberOfSeasons  int             `json:"number_of_seasons,omitempty"`
	NumberOfEpisodes int             `json:"number_of_episodes,omitempty"`
	VoteAverage      *float64        `json:"vote_average,omitempty"`
	VoteCount        int             `json:"vote_count,omitempty"`
	Popularity       float64         `json:"popularity,omitempty"`
	ContentRatings   *ContentRatings `json:"content_ratings,omitempty"`
	ReleaseDates     *ReleaseDates   `json:"release_dates,omitempty"`
	Videos           *VideoList      `json:"videos,omitempty"`
	WatchProviders   json.RawMessage `json:"watch/providers,omitempty"`
	Images           json.RawMessage `json:"images,omitempty"`
	Seasons          []Season        `json:"seasons,omitempty"`

	CertificationRating *string `json:"certification_rating"`
	Trailers            []Video `json:"trailers"`
	MediaType           Kind    `json:"media_type,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type mediaFields Media

func (m *Media) UnmarshalJSON(b []byte) error {
	extra, err := decodeWithExtra(b, (*mediaFields)(m))
	if err != nil {
		return err
	}
	m.Extra = extra
	return nil
}

// MarshalJSON writes the typed fields over the upstream object.
func (m Media) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(mediaFields(m), m.Extra)
}

// decodeWithExtra decodes b into typed and returns every member of b.
func decodeWithExtra(b []byte, typed any) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(b, typed); err != nil {
		return nil, err
	}
	var extra map[string]json.RawMessage
	if err := json.Unmarshal(b, &extra); err != nil {
		return nil, err
	}
	return extra, nil
}

// encodeWithExtra encodes typed and, when extra is set, merges it over a
// copy of extra. Typed members win.
func encodeWithExtra(typed any, extra map[string]json.RawMessage) ([]byte, error) {
	b, err := json.Marshal(typed)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	merged := make(map[string]json.RawMessage, len(extra)+len(fields))
	for k, v := range extra {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Lite is the small card payload.
type Lite struct {
	TMDBID              string   `json:"tmdbId"`
	PosterPath          string   `json:"poster_path,omitempty"`
	Overview            string   `json:"overview,omitempty"`
	VoteAverage         *float64 `json:"vote_average,omitempty"`
	Year                string   `json:"year,omitempty"`
	CertificationRating *string  `json:"certification_rating"`
	MediaType           Kind     `json:"media_type"`
}

// ExtractCertification returns the US certification for media, or nil.
//
// Movies read the first release date of the US release_dates entry; shows
// read the US content rating. Empty strings count as absent.
func ExtractCertification(m *Media, kind Kind) *string {
	if m == nil {
		return nil
	}
	if kind == KindMovie {
		if m.ReleaseDates == nil {
			return nil
		}
		for _, r := range m.ReleaseDates.Results {
			if r.Country != "US" {
				continue
			}
			if len(r.ReleaseDates) == 0 {
				return nil
			}
			return nonEmpty(r.ReleaseDates[0].Certification)
		}
		return nil
	}

	if m.ContentRatings == nil {
		return nil
	}
	for _, r := range m.ContentRatings.Results {
		if r.Country == "US" {
			return nonEmpty(r.Rating)
		}
	}
	return nil
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

// ExtractTrailers returns the YouTube trailers of media. The result is
// never nil.
func ExtractTrailers(m *Media) []Video {
	out := []Video{}
	if m == nil || m.Videos == nil {
		return out
	}
	for _, v := range m.Videos.Results {
		if v.Type == "Trailer" && v.Site == "YouTube" {
			out = append(out, v)
		}
	}
	return out
}

// EnrichMovie sets the certification, trailers and media type of a movie.
func EnrichMovie(m *Media) *Media {
	m.CertificationRating = ExtractCertification(m, KindMovie)
	m.Trailers = ExtractTrailers(m)
	m.MediaType = KindMovie
	return m
}

// SeasonFetcher loads one season of a show.
type SeasonFetcher interface {
	Season(ctx context.Context, showID string, number int) (*SeasonDetail, error)
}

// EnrichShow sets the certification, trailers and media type of a show and
// attaches the episodes of every season.
//
// Seasons are fetched in parallel and kept in their original order. Any
// season failure fails the enrichment.
func EnrichShow(ctx context.Context, sf SeasonFetcher, m *Media) (*Media, error) {
	m.CertificationRating = ExtractCertification(m, KindTV)
	m.Trailers = ExtractTrailers(m)
	m.MediaType = KindTV

	if len(m.Seasons) == 0 || m.ID == 0 {
		return m, nil
	}

	showID := strconv.Itoa(m.ID)
	seasons := make([]Season, len(m.Seasons))
	copy(seasons, m.Seasons)

	g, gctx := errgroup.WithContext(ctx)
	for i := range seasons {
		g.Go(func() error {
			detail, err := sf.Season(gctx, showID, seasons[i].SeasonNumber)
			if err != nil {
				return fmt.Errorf("season %d of show %s: %w", seasons[i].SeasonNumber, showID, err)
			}
			eps := detail.Episodes
			if eps == nil {
				eps = []json.RawMessage{}
			}
			seasons[i].Episodes = eps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	m.Seasons = seasons
	return m, nil
}

// ToLite reduces media to its card payload. year is the first four
// characters of the release (movie) or first air (tv) date.
func ToLite(m *Media, id string, kind Kind) *Lite {
	src := m.FirstAirDate
	if kind == KindMovie {
		src = m.ReleaseDate
	}
	lite := &Lite{
		TMDBID:              id,
		PosterPath:          m.PosterPath,
		Overview:            m.Overview,
		VoteAverage:         m.VoteAverage,
		CertificationRating: ExtractCertification(m, kind),
		MediaType:           kind,
	}
	if len(src) >= 4 {
		lite.Year = src[:4]
	}
	return lite
}
