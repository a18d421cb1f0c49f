package format

// Builtin returns fresh descriptors for the formats known out of the box, in
// match order. Each call allocates new values.
func Builtin() []*Format {
	audioAsVideo := func() *Format {
		return &Format{ID: AudioAsVideo, Type: Video, MimeType: "video/x-matroska"}
	}
	return []*Format{
		{
			ID:        WEB,
			Type:      Video,
			Protocols: []string{"http", "https", "mms", "mmsh", "rtmp", "rtp", "rtsp", "udp", "ftp"},
		},
		{ID: GIF, Type: Image, Extensions: []string{"gif"}, MimeType: "image/gif"},
		{ID: JPG, Type: Image, Extensions: []string{"jpg", "jpe", "jpeg", "jfif"}, MimeType: "image/jpeg"},
		{ID: PNG, Type: Image, Extensions: []string{"png"}, MimeType: "image/png"},
		{ID: TIF, Type: Image, Extensions: []string{"tif", "tiff"}, MimeType: "image/tiff"},
		{ID: BMP, Type: Image, Extensions: []string{"bmp"}, MimeType: "image/bmp"},
		{
			ID:   RAW,
			Type: Image,
			Extensions: []string{
				"3fr", "ari", "arw", "bay", "cap", "cr2", "cr3", "crw", "dcr", "dng", "erf",
				"iiq", "k25", "kdc", "mef", "mos", "mrw", "nef", "nrw", "orf", "pef", "raf",
				"rw2", "rwl", "sr2", "srf", "srw", "x3f",
			},
		},
		{
			ID:         M4A,
			Type:       Audio,
			Extensions: []string{"3ga", "aac", "aa3", "adts", "m4a", "m4b", "m4r", "oma"},
			MimeType:   "audio/mp4",
			Secondary:  audioAsVideo(),
		},
		{ID: MP3, Type: Audio, Extensions: []string{"mp3"}, MimeType: "audio/mpeg", Secondary: audioAsVideo()},
		{
			ID:         OGG,
			Type:       Audio,
			Extensions: []string{"ogg", "oga", "opus", "spx"},
			MimeType:   "audio/ogg",
			Secondary:  audioAsVideo(),
		},
		{ID: WAV, Type: Audio, Extensions: []string{"wav"}, MimeType: "audio/wav", Secondary: audioAsVideo()},
		{
			ID:         FLAC,
			Type:       Audio,
			Extensions: []string{"flac", "alac", "ape", "aif", "aiff", "aifc", "dff", "dsf", "mka", "mpc", "shn", "tta", "wv", "wma"},
			MimeType:   "audio/flac",
			Secondary:  audioAsVideo(),
		},
		{ID: ISOImage, Type: ISO, Extensions: []string{"iso", "img"}},
		{
			ID:   MPG,
			Type: Video,
			Extensions: []string{
				"avi", "div", "divx", "m2p", "m2t", "m2ts", "m4v", "mod", "mp4", "mpe", "mpeg",
				"mpg", "mts", "tivo", "tmf", "tp", "ts", "vdr", "vob", "vro", "wtv",
			},
			MimeType: "video/mpeg",
		},
		{
			ID:   MKV,
			Type: Video,
			Extensions: []string{
				"3g2", "3gp", "3gp2", "3gpp", "asf", "asx", "dv", "evo", "flv", "hdm", "hdmov",
				"m2v", "mk3d", "mkv", "mov", "ogm", "ogv", "rm", "rmv", "rmvb", "ty", "webm", "wmv",
			},
			MimeType: "video/x-matroska",
		},
		{ID: DVRMS, Type: Video, Extensions: []string{"dvr-ms", "dvr"}, MimeType: "video/x-ms-dvr"},
		{ID: PlaylistFile, Type: Playlist, Extensions: []string{"m3u", "m3u8", "pls", "cue", "ups"}},
		{ID: SUB, Type: Subtitle, Extensions: []string{"srt", "ass", "ssa", "sub", "idx", "smi", "vtt", "sup"}},
		audioAsVideo(),
	}
}
