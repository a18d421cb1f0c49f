package enrichment

import (
	"encoding/json"
	"slices"

	"mediahub/internal/catalog"
	"mediahub/internal/mediainfo"
)

// Each setter leaves dst untouched when the response omits key or carries an
// empty value, so a partial response never clears stored data.

func setString(dst *string, o catalog.Object, key string) {
	if v := o.String(key); v != "" {
		*dst = v
	}
}

func setStrings(dst *[]string, o catalog.Object, key string) {
	if v := o.Strings(key); len(v) > 0 {
		*dst = v
	}
}

func setList(dst *[]string, o catalog.Object, key string) {
	if v := o.List(key); len(v) > 0 {
		*dst = v
	}
}

func setRaw(dst *json.RawMessage, o catalog.Object, key string) {
	if raw := o.Raw(key); raw != nil {
		*dst = slices.Clone(raw)
	}
}

func setInt64(dst *int64, o catalog.Object, key string) {
	if v, ok := o.Int64(key); ok && v != 0 {
		*dst = v
	}
}

func setInt(dst *int, o catalog.Object, key string) {
	if v, ok := o.Int(key); ok && v != 0 {
		*dst = v
	}
}

func setFloat(dst *float64, o catalog.Object, key string) {
	if v, ok := o.Float(key); ok && v != 0 {
		*dst = v
	}
}

func setBool(dst *bool, o catalog.Object, key string) {
	if v, ok := o.Bool(key); ok {
		*dst = v
	}
}

func setRatings(dst *[]mediainfo.Rating, o catalog.Object, key string) {
	raw := o.Raw(key)
	if raw == nil {
		return
	}
	var ratings []mediainfo.Rating
	if err := json.Unmarshal(raw, &ratings); err != nil || len(ratings) == 0 {
		return
	}
	*dst = ratings
}

// applyVideoFields copies descriptive catalog fields onto vm.
func applyVideoFields(vm *mediainfo.VideoMetadata, o catalog.Object) {
	setStrings(&vm.Actors, o, "actors")
	setString(&vm.Awards, o, "awards")
	setInt64(&vm.Budget, o, "budget")
	setList(&vm.Countries, o, "country")
	setRaw(&vm.Credits, o, "credits")
	setStrings(&vm.Directors, o, "directors")
	setRaw(&vm.ExternalIDs, o, "externalIDs")
	setStrings(&vm.Genres, o, "genres")
	setString(&vm.Homepage, o, "homepage")
	setRaw(&vm.Images, o, "images")
	setString(&vm.OriginalLanguage, o, "originalLanguage")
	setString(&vm.OriginalTitle, o, "originalTitle")
	setString(&vm.Overview, o, "plot")
	setRaw(&vm.ProductionCompanies, o, "productionCompanies")
	setRaw(&vm.ProductionCountries, o, "productionCountries")
	setString(&vm.Rated, o, "rated")
	setFloat(&vm.Rating, o, "rating")
	setRatings(&vm.Ratings, o, "ratings")
	setString(&vm.Released, o, "released")
	setInt64(&vm.Revenue, o, "revenue")
	setString(&vm.Tagline, o, "tagline")
	setString(&vm.Votes, o, "votes")
}

// applySeriesFields copies descriptive catalog fields onto series.
func applySeriesFields(series *mediainfo.TvSeriesMetadata, o catalog.Object) {
	setStrings(&series.Actors, o, "actors")
	setString(&series.Awards, o, "awards")
	setRaw(&series.CreatedBy, o, "createdBy")
	setRaw(&series.Credits, o, "credits")
	setStrings(&series.Directors, o, "directors")
	setInt(&series.EndYear, o, "endYear")
	setRaw(&series.ExternalIDs, o, "externalIDs")
	setString(&series.FirstAirDate, o, "released")
	setString(&series.FirstAirDate, o, "firstAirDate")
	setStrings(&series.Genres, o, "genres")
	setString(&series.Homepage, o, "homepage")
	setRaw(&series.Images, o, "images")
	setString(&series.IMDbID, o, "imdbID")
	setBool(&series.InProduction, o, "inProduction")
	setList(&series.Languages, o, "languages")
	setString(&series.LastAirDate, o, "lastAirDate")
	setRaw(&series.Networks, o, "networks")
	setInt(&series.NumberOfEpisodes, o, "numberOfEpisodes")
	setInt(&series.NumberOfSeasons, o, "numberOfSeasons")
	setList(&series.OriginCountry, o, "originCountry")
	setString(&series.OriginalLanguage, o, "originalLanguage")
	setString(&series.OriginalTitle, o, "originalTitle")
	setString(&series.Overview, o, "plot")
	setRaw(&series.ProductionCompanies, o, "productionCompanies")
	setRaw(&series.ProductionCountries, o, "productionCountries")
	setString(&series.Rated, o, "rated")
	setFloat(&series.Rating, o, "rating")
	setRatings(&series.Ratings, o, "ratings")
	setRaw(&series.Seasons, o, "seasons")
	setString(&series.SeriesType, o, "seriesType")
	setRaw(&series.SpokenLanguages, o, "spokenLanguages")
	setInt(&series.StartYear, o, "startYear")
	setString(&series.Status, o, "status")
	setString(&series.Tagline, o, "tagline")
	setInt64(&series.TMDbID, o, "tmdbID")
	setFloat(&series.TotalSeasons, o, "totalSeasons")
	setString(&series.Votes, o, "votes")
	if countries := o.List("country"); len(countries) > 0 && len(series.OriginCountry) == 0 {
		series.OriginCountry = countries
	}
}
