package mediainfo

import (
	"encoding/json"
	"slices"
	"strings"
)

// Rating is one third-party score, e.g. {"Internet Movie Database", "7.8/10"}.
type Rating struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

// VideoMetadata holds filename-derived and catalog-derived facts about a video.
// IsTVEpisode is true exactly when TVEpisode is set.
type VideoMetadata struct {
	Title             string `json:"title,omitempty"`
	SeriesTitle       string `json:"series_title,omitempty"`
	SimplifiedTitle   string `json:"simplified_title,omitempty"`
	Year              int    `json:"year,omitempty"`
	ExtraInformation  string `json:"extra_information,omitempty"`
	IsTVEpisode       bool   `json:"is_tv_episode,omitempty"`
	TVSeason          int    `json:"tv_season,omitempty"`
	TVEpisode         string `json:"tv_episode,omitempty"`
	TVSeriesStartYear int    `json:"tv_series_start_year,omitempty"`
	TVSeriesID        int64  `json:"tv_series_id,omitempty"`

	IMDbID   string `json:"imdb_id,omitempty"`
	TMDbID   int64  `json:"tmdb_id,omitempty"`
	TMDbTVID int64  `json:"tmdb_tv_id,omitempty"`

	Actors              []string        `json:"actors,omitempty"`
	Awards              string          `json:"awards,omitempty"`
	Budget              int64           `json:"budget,omitempty"`
	Countries           []string        `json:"countries,omitempty"`
	Credits             json.RawMessage `json:"credits,omitempty"`
	Directors           []string        `json:"directors,omitempty"`
	ExternalIDs         json.RawMessage `json:"external_ids,omitempty"`
	Genres              []string        `json:"genres,omitempty"`
	Homepage            string          `json:"homepage,omitempty"`
	Images              json.RawMessage `json:"images,omitempty"`
	OriginalLanguage    string          `json:"original_language,omitempty"`
	OriginalTitle       string          `json:"original_title,omitempty"`
	Overview            string          `json:"overview,omitempty"`
	Poster              string          `json:"poster,omitempty"`
	ProductionCompanies json.RawMessage `json:"production_companies,omitempty"`
	ProductionCountries json.RawMessage `json:"production_countries,omitempty"`
	Rated               string          `json:"rated,omitempty"`
	Rating              float64         `json:"rating,omitempty"`
	Ratings             []Rating        `json:"ratings,omitempty"`
	Released            string          `json:"released,omitempty"`
	Revenue             int64           `json:"revenue,omitempty"`
	Tagline             string          `json:"tagline,omitempty"`
	Votes               string          `json:"votes,omitempty"`

	APIVersion string `json:"api_version,omitempty"`
}

// Clone returns a deep copy of vm.
func (vm *VideoMetadata) Clone() *VideoMetadata {
	if vm == nil {
		return nil
	}
	c := *vm
	c.Actors = slices.Clone(vm.Actors)
	c.Countries = slices.Clone(vm.Countries)
	c.Credits = slices.Clone(vm.Credits)
	c.Directors = slices.Clone(vm.Directors)
	c.ExternalIDs = slices.Clone(vm.ExternalIDs)
	c.Genres = slices.Clone(vm.Genres)
	c.Images = slices.Clone(vm.Images)
	c.ProductionCompanies = slices.Clone(vm.ProductionCompanies)
	c.ProductionCountries = slices.Clone(vm.ProductionCountries)
	c.Ratings = slices.Clone(vm.Ratings)
	return &c
}

// LookupTitle is the title sent to the catalog: the show name for episodes,
// the movie title otherwise.
func (vm *VideoMetadata) LookupTitle() string {
	if vm.IsTVEpisode && vm.SeriesTitle != "" {
		return vm.SeriesTitle
	}
	return vm.Title
}

// TVEpisodeUnpadded strips leading zeros from the episode number, keeping at
// least one digit.
func (vm *VideoMetadata) TVEpisodeUnpadded() string {
	episode := vm.TVEpisode
	if episode == "" {
		return ""
	}
	trimmed := strings.TrimLeft(episode, "0")
	if trimmed == "" || !isDigit(trimmed[0]) {
		return "0" + trimmed
	}
	return trimmed
}

// HasExternalID reports whether a movie or series identifier is known.
func (vm *VideoMetadata) HasExternalID() bool {
	return vm.IMDbID != "" || vm.TMDbID > 0
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// TvSeriesMetadata is the catalog record for a TV series shared by its episodes.
type TvSeriesMetadata struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	SimplifiedTitle string `json:"simplified_title,omitempty"`
	StartYear       int    `json:"start_year,omitempty"`
	EndYear         int    `json:"end_year,omitempty"`
	IMDbID          string `json:"imdb_id,omitempty"`
	TMDbID          int64  `json:"tmdb_id,omitempty"`

	Actors              []string        `json:"actors,omitempty"`
	Awards              string          `json:"awards,omitempty"`
	CreatedBy           json.RawMessage `json:"created_by,omitempty"`
	Credits             json.RawMessage `json:"credits,omitempty"`
	Directors           []string        `json:"directors,omitempty"`
	ExternalIDs         json.RawMessage `json:"external_ids,omitempty"`
	FirstAirDate        string          `json:"first_air_date,omitempty"`
	Genres              []string        `json:"genres,omitempty"`
	Homepage            string          `json:"homepage,omitempty"`
	Images              json.RawMessage `json:"images,omitempty"`
	InProduction        bool            `json:"in_production,omitempty"`
	Languages           []string        `json:"languages,omitempty"`
	LastAirDate         string          `json:"last_air_date,omitempty"`
	Networks            json.RawMessage `json:"networks,omitempty"`
	NumberOfEpisodes    int             `json:"number_of_episodes,omitempty"`
	NumberOfSeasons     int             `json:"number_of_seasons,omitempty"`
	OriginCountry       []string        `json:"origin_country,omitempty"`
	OriginalLanguage    string          `json:"original_language,omitempty"`
	OriginalTitle       string          `json:"original_title,omitempty"`
	Overview            string          `json:"overview,omitempty"`
	Poster              string          `json:"poster,omitempty"`
	ProductionCompanies json.RawMessage `json:"production_companies,omitempty"`
	ProductionCountries json.RawMessage `json:"production_countries,omitempty"`
	Rated               string          `json:"rated,omitempty"`
	Rating              float64         `json:"rating,omitempty"`
	Ratings             []Rating        `json:"ratings,omitempty"`
	Seasons             json.RawMessage `json:"seasons,omitempty"`
	SeriesType          string          `json:"series_type,omitempty"`
	SpokenLanguages     json.RawMessage `json:"spoken_languages,omitempty"`
	Status              string          `json:"status,omitempty"`
	Tagline             string          `json:"tagline,omitempty"`
	TotalSeasons        float64         `json:"total_seasons,omitempty"`
	Votes               string          `json:"votes,omitempty"`

	ThumbnailID int64  `json:"thumbnail_id,omitempty"`
	APIVersion  string `json:"api_version,omitempty"`
}

// AudioMetadata carries tags read from audio files.
type AudioMetadata struct {
	Title       string `json:"title,omitempty"`
	Album       string `json:"album,omitempty"`
	Artist      string `json:"artist,omitempty"`
	AlbumArtist string `json:"album_artist,omitempty"`
	Composer    string `json:"composer,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Year        int    `json:"year,omitempty"`
	Track       int    `json:"track,omitempty"`
	Disc        int    `json:"disc,omitempty"`
	HasArtwork  bool   `json:"has_artwork,omitempty"`
}
