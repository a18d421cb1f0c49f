package mediainfo

import (
	"strings"

	"mediahub/internal/format"
)

var containerMimeTypes = map[string]string{
	"avi":     "video/avi",
	"asf":     "video/x-ms-asf",
	"flv":     "video/x-flv",
	"m4v":     "video/x-m4v",
	"mp4":     "video/mp4",
	"mpegps":  "video/mpeg",
	"mpegts":  "video/vnd.dlna.mpeg-tts",
	"hls":     "application/vnd.apple.mpegurl",
	"wmv":     "video/x-ms-wmv",
	"mov":     "video/quicktime",
	"adts":    "audio/vnd.dlna.adts",
	"m4a":     "audio/x-m4a",
	"ac3":     "audio/vnd.dolby.dd-raw",
	"au":      "audio/basic",
	"eac3":    "audio/eac3",
	"mpa":     "audio/mpeg",
	"mp2":     "audio/mpeg",
	"aiff":    "audio/aiff",
	"mka":     "audio/x-matroska",
	"ape":     "audio/x-ape",
	"ogg":     "video/ogg",
	"oga":     "audio/ogg",
	"wavpack": "audio/x-wavpack",
	"webp":    "image/webp",
	"wma":     "audio/x-ms-wma",
	"dsf":     "audio/x-dsf",
	"dff":     "audio/x-dff",
	"truehd":  "audio/vnd.dolby.mlp",
	"tta":     "audio/x-tta",
	"ra":      "audio/vnd.rn-realaudio",
}

// InferMimeType derives a MIME type from the container and codecs, falling
// back to the default for the format type.
func InferMimeType(container, codecV, codecA string, t format.Type) string {
	container = strings.ToLower(container)
	codecV = strings.ToLower(codecV)
	codecA = strings.ToLower(codecA)
	if mime, ok := containerMimeTypes[container]; ok {
		return mime
	}
	hasVideo := codecV != "" && codecV != "und"
	switch {
	case hasVideo:
		switch {
		case container == "matroska" || container == "mkv":
			return "video/x-matroska"
		case container == "3gp":
			return "video/3gpp"
		case container == "3g2":
			return "video/3gpp2"
		case container == "webm":
			return "video/webm"
		case strings.HasPrefix(container, "flash"):
			return "video/x-flv"
		case codecV == "mjpeg" || container == "jpg":
			return "image/jpeg"
		case codecV == "png" || container == "png":
			return "image/png"
		case codecV == "gif" || container == "gif":
			return "image/gif"
		case codecV == "tiff" || container == "tiff":
			return "image/tiff"
		case codecV == "bmp" || container == "bmp":
			return "image/bmp"
		case strings.HasPrefix(codecV, "h264") || codecV == "h263" || codecV == "mpeg4" || codecV == "mp4":
			return "video/mp4"
		case strings.Contains(codecV, "mpeg") || strings.Contains(codecV, "mpg"):
			return "video/mpeg"
		}
	case codecA != "":
		switch {
		case container == "3gp":
			return "audio/3gpp"
		case container == "3g2":
			return "audio/3gpp2"
		case container == "matroska" || container == "mkv":
			return "audio/x-matroska"
		case container == "webm":
			return "audio/webm"
		case strings.Contains(codecA, "mp3"):
			return "audio/mpeg"
		case strings.Contains(codecA, "flac"):
			return "audio/flac"
		case strings.Contains(codecA, "vorbis") || strings.Contains(codecA, "opus"):
			return "audio/ogg"
		case strings.HasPrefix(codecA, "wm"):
			return "audio/x-ms-wma"
		case strings.Contains(codecA, "pcm") || strings.Contains(codecA, "wav"):
			return "audio/wav"
		case strings.HasPrefix(codecA, "dts"):
			return "audio/vnd.dts"
		case codecA == "aac":
			return "audio/mp4"
		}
	}
	return format.DefaultMimeType(t)
}
