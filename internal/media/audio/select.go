package audio

import (
	"strconv"
	"strings"

	"mediahub/internal/language"
	"mediahub/internal/media/ffprobe"
)

// Selection names the audio stream a renderer should play when it does not
// choose one itself.
type Selection struct {
	Stream ffprobe.Stream
	// Index is the ffprobe stream index, or -1 when no audio exists.
	Index int
}

// Label returns a human-readable summary of the selected stream.
func (s Selection) Label() string {
	if s.Index < 0 {
		return ""
	}
	return formatStreamSummary(s.Stream)
}

// SelectDefault picks the default audio stream. A stream already flagged
// default by the container wins. Otherwise streams in the preferred language
// (an IETF tag such as "en-US") are ranked by channel count and then lossless
// codecs; with no language match every stream is ranked.
func SelectDefault(streams []ffprobe.Stream, preferredLanguage string) Selection {
	candidates := buildCandidates(streams, preferredLanguage)
	if len(candidates) == 0 {
		return Selection{Index: -1}
	}
	for _, cand := range candidates {
		if cand.defaultFlagged {
			return Selection{Stream: cand.stream, Index: cand.stream.Index}
		}
	}
	pool := candidates.preferred()
	if len(pool) == 0 {
		pool = candidates
	}
	best := choosePrimary(pool)
	return Selection{Stream: best.stream, Index: best.stream.Index}
}

type candidate struct {
	stream         ffprobe.Stream
	order          int
	language       string
	isPreferred    bool
	isLossless     bool
	channels       int
	defaultFlagged bool
}

type candidateList []candidate

func (c candidateList) preferred() candidateList {
	result := make(candidateList, 0, len(c))
	for _, cand := range c {
		if cand.isPreferred {
			result = append(result, cand)
		}
	}
	return result
}

func choosePrimary(candidates candidateList) candidate {
	best := candidates[0]
	bestScore := scorePrimary(best)
	for i := 1; i < len(candidates); i++ {
		if score := scorePrimary(candidates[i]); score > bestScore {
			best = candidates[i]
			bestScore = score
		}
	}
	return best
}

func scorePrimary(cand candidate) float64 {
	score := 0.0
	switch {
	case cand.channels >= 8:
		score += 1000
	case cand.channels >= 6:
		score += 800
	case cand.channels >= 4:
		score += 600
	case cand.channels >= 2:
		score += 400
	default:
		score += 200
	}
	if cand.isLossless {
		score += 100
	} else {
		score += 50
	}
	// Earlier tracks win ties.
	score -= float64(cand.order) * 0.1
	return score
}

func buildCandidates(streams []ffprobe.Stream, preferredLanguage string) candidateList {
	prefixes := language.Prefixes(preferredLanguage)
	result := make(candidateList, 0)
	order := 0
	for _, stream := range streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		cand := candidate{
			stream:         stream,
			order:          order,
			language:       strings.ToLower(stream.Tag("language", "language_ietf", "lang")),
			channels:       channelCount(stream),
			defaultFlagged: stream.IsDefault(),
			isLossless:     detectLossless(stream),
		}
		for _, prefix := range prefixes {
			if cand.language != "" && strings.HasPrefix(cand.language, prefix) {
				cand.isPreferred = true
				break
			}
		}
		result = append(result, cand)
		order++
	}
	return result
}

func channelCount(stream ffprobe.Stream) int {
	if stream.Channels > 0 {
		return stream.Channels
	}
	layout := strings.ToLower(strings.TrimSpace(stream.ChannelLayout))
	switch {
	case layout == "":
		return 0
	case strings.HasPrefix(layout, "7.1"):
		return 8
	case strings.HasPrefix(layout, "6.1"):
		return 7
	case strings.HasPrefix(layout, "5.1"):
		return 6
	case strings.HasPrefix(layout, "4.0"), layout == "quad":
		return 4
	case strings.HasPrefix(layout, "stereo"), strings.HasPrefix(layout, "2.0"):
		return 2
	case strings.HasPrefix(layout, "mono"), strings.HasPrefix(layout, "1.0"):
		return 1
	}
	return 0
}

func detectLossless(stream ffprobe.Stream) bool {
	name := strings.ToLower(stream.CodecName)
	switch name {
	case "truehd", "flac", "mlp", "alac", "wavpack", "ape", "tta":
		return true
	}
	if strings.HasPrefix(name, "pcm_") {
		return true
	}
	long := strings.ToLower(stream.CodecLong)
	return strings.Contains(long, "lossless") || strings.Contains(long, "master audio") || strings.Contains(stream.Profile, "DTS-HD MA")
}

func formatStreamSummary(stream ffprobe.Stream) string {
	parts := make([]string, 0, 4)
	if lang := stream.Tag("language"); lang != "" {
		parts = append(parts, strings.ToLower(lang))
	}
	codec := stream.CodecLong
	if codec == "" {
		codec = stream.CodecName
	}
	if codec != "" {
		parts = append(parts, codec)
	}
	if stream.Channels > 0 {
		parts = append(parts, strconv.Itoa(stream.Channels)+"ch")
	}
	if title := stream.Tag("title"); title != "" {
		parts = append(parts, title)
	}
	if len(parts) == 0 {
		return "audio"
	}
	return strings.Join(parts, " | ")
}
