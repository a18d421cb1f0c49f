package mediainfo

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"mediahub/internal/format"
	"mediahub/internal/textutil"
)

var (
	imdbIDPattern     = regexp.MustCompile(`tt\d{7,8}`)
	seasonEpPattern   = regexp.MustCompile(`(?i)\bS(\d{1,4})[ ._-]?E(\d{1,4})(?:(?:-?E|-)(\d{1,4})\b)?`)
	crossEpPattern    = regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{2,3})\b`)
	yearPattern       = regexp.MustCompile(`[\(\[\{]?\b((?:19|20)\d{2})\b[\)\]\}]?`)
	parenYearPattern  = regexp.MustCompile(`\s\(((?:19|20)\d{2})\)`)
	releaseTagPattern = regexp.MustCompile(`(?i)\b(2160p|1080p|1080i|720p|576p|480p|4k|uhd|hdr10?|x264|x265|h\.?26[45]|hevc|avc|av1|bluray|blu-ray|bdrip|brrip|webrip|web-dl|webdl|hdtv|dvdrip|remux|proper|repack|extended|unrated|directors?.?cut|aac|ac3|eac3|dts|truehd|atmos)\b`)
	bracketPattern    = regexp.MustCompile(`\[[^\]]*\]|\{[^\}]*\}`)
)

// FromFilename derives VideoMetadata from a file path. Episodes recognised by
// SxxEyy or NxNN markers have SeriesTitle, TVSeason and a zero-padded TVEpisode
// set; a year in parentheses after the show name becomes TVSeriesStartYear and
// stays in the series title. Anything else is treated as a movie.
func FromFilename(path string) *VideoMetadata {
	name := filepath.Base(path)
	if format.Protocol(path) == "" {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	vm := &VideoMetadata{}

	if id := imdbIDPattern.FindString(name); id != "" {
		vm.IMDbID = id
		name = strings.Replace(name, id, " ", 1)
	}
	name = bracketPattern.ReplaceAllString(name, " ")

	if loc := seasonEpPattern.FindStringSubmatchIndex(name); loc != nil {
		season, _ := strconv.Atoi(name[loc[2]:loc[3]])
		first, _ := strconv.Atoi(name[loc[4]:loc[5]])
		episode := padEpisode(first)
		if loc[6] >= 0 {
			if last, err := strconv.Atoi(name[loc[6]:loc[7]]); err == nil && last > first {
				episode = episode + "-" + padEpisode(last)
			}
		}
		applyEpisode(vm, name[:loc[0]], name[loc[1]:], season, episode)
	} else if loc := crossEpPattern.FindStringSubmatchIndex(name); loc != nil {
		season, _ := strconv.Atoi(name[loc[2]:loc[3]])
		first, _ := strconv.Atoi(name[loc[4]:loc[5]])
		applyEpisode(vm, name[:loc[0]], name[loc[1]:], season, padEpisode(first))
	} else {
		applyMovie(vm, name)
	}

	vm.SimplifiedTitle = textutil.SimplifiedName(vm.LookupTitle())
	return vm
}

func applyEpisode(vm *VideoMetadata, show, rest string, season int, episode string) {
	vm.IsTVEpisode = true
	vm.TVSeason = season
	vm.TVEpisode = episode

	show = textutil.CleanTitle(show)
	if m := yearPattern.FindStringSubmatchIndex(show); m != nil {
		year, _ := strconv.Atoi(show[m[2]:m[3]])
		base := strings.TrimSpace(show[:m[0]])
		if base != "" {
			vm.TVSeriesStartYear = year
			show = fmt.Sprintf("%s (%d)", base, year)
		}
	}
	vm.SeriesTitle = show

	if cut := releaseTagCut(rest); cut >= 0 {
		rest = rest[:cut]
	}
	vm.Title = textutil.CleanTitle(strings.Trim(rest, " -._"))
}

func applyMovie(vm *VideoMetadata, name string) {
	title := name
	if m := lastYearIndex(name); m != nil {
		candidate := strings.TrimSpace(name[:m[0]])
		if candidate != "" {
			vm.Year, _ = strconv.Atoi(name[m[2]:m[3]])
			vm.ExtraInformation = textutil.CleanTitle(releaseTagPattern.ReplaceAllString(name[m[1]:], " "))
			title = candidate
		}
	}
	if cut := releaseTagCut(title); cut > 0 {
		title = title[:cut]
	}
	vm.Title = textutil.TitleCase(textutil.CleanTitle(strings.TrimRight(title, " ([{-._")))
}

// lastYearIndex returns the submatch index of the last plausible year so
// titles such as "2001 A Space Odyssey (1968)" keep their leading number.
func lastYearIndex(name string) []int {
	all := yearPattern.FindAllStringSubmatchIndex(name, -1)
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

func releaseTagCut(value string) int {
	if loc := releaseTagPattern.FindStringIndex(value); loc != nil {
		return loc[0]
	}
	return -1
}

func padEpisode(n int) string {
	return fmt.Sprintf("%02d", n)
}

// StartYearFromTitle returns year when the title literally carries " (year)",
// otherwise 0. A stored start year that is absent from the title is stale.
func StartYearFromTitle(title string, year int) int {
	if year <= 0 {
		return 0
	}
	if strings.Contains(title, fmt.Sprintf(" (%d)", year)) {
		return year
	}
	return 0
}

// StripYear removes a parenthesised year from title. When year is positive only
// that year is removed; otherwise any 19xx/20xx year is.
func StripYear(title string, year int) string {
	if year > 0 {
		return strings.TrimSpace(strings.Replace(title, fmt.Sprintf(" (%d)", year), "", 1))
	}
	return strings.TrimSpace(parenYearPattern.ReplaceAllString(title, ""))
}

// WithStartYear appends " (year)" to title unless it is already present.
func WithStartYear(title string, year int) string {
	if year <= 0 || strings.Contains(title, fmt.Sprintf("(%d)", year)) {
		return title
	}
	return fmt.Sprintf("%s (%d)", title, year)
}
