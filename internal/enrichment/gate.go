package enrichment

import (
	"fmt"
	"strconv"
	"strings"

	"mediahub/internal/catalog"
	"mediahub/internal/mediainfo"
	"mediahub/internal/services"
)

// ReasonDataMismatch is recorded when a catalog result fails the gate.
const ReasonDataMismatch = "Data mismatch"

// GateInput pairs the filename-derived metadata with a catalog video result.
type GateInput struct {
	File     *mediainfo.VideoMetadata
	Response catalog.Object
}

// Gate decides whether a catalog result describes the same video as the
// file. It returns nil on acceptance and a validation error naming the first
// failed check otherwise.
func Gate(in GateInput) error {
	if in.File == nil || in.Response == nil {
		return reject("no data to compare")
	}
	file := in.File
	resp := in.Response

	remoteType := resp.String("type")
	if file.IsTVEpisode != (remoteType == "episode") {
		return reject(fmt.Sprintf("type mismatch: file episode=%t, catalog type %q", file.IsTVEpisode, remoteType))
	}
	if file.IsTVEpisode {
		season, ok := resp.Int("season")
		if !ok || season != file.TVSeason {
			return reject(fmt.Sprintf("season mismatch: expected %d, got %q", file.TVSeason, resp.String("season")))
		}
		remoteEpisode := NormalizeEpisode(resp.String("episode"))
		if file.TVEpisode == "" || remoteEpisode == "" {
			return reject("episode number missing")
		}
		if !strings.HasPrefix(file.TVEpisode, remoteEpisode) {
			return reject(fmt.Sprintf("episode mismatch: expected %s, got %s", file.TVEpisode, remoteEpisode))
		}
		if resp.String("seriesIMDbID") == "" && !positive(resp, "tmdbTvID") {
			return reject("catalog returned no series id")
		}
		return nil
	}
	if file.Year > 0 {
		remoteYear := resp.String("year")
		if remoteYear != "" && remoteYear != strconv.Itoa(file.Year) {
			return reject(fmt.Sprintf("year mismatch: expected %d, got %s", file.Year, remoteYear))
		}
	}
	return nil
}

// NormalizeEpisode zero-pads a single-digit episode number.
func NormalizeEpisode(episode string) string {
	episode = strings.TrimSpace(episode)
	if len(episode) == 1 {
		return "0" + episode
	}
	return episode
}

func positive(o catalog.Object, key string) bool {
	v, ok := o.Int64(key)
	return ok && v > 0
}

func reject(detail string) error {
	return services.Wrap(services.ErrValidation, "enrichment", "gate", detail, nil)
}
