package probe

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dhowden/tag"

	"mediahub/internal/mediainfo"
)

// readAudioTags extracts embedded tags. Files without a tag block return nil
// without error.
func readAudioTags(path string) (*mediainfo.AudioMetadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read audio tags: %w", err)
	}

	am := &mediainfo.AudioMetadata{
		Title:       strings.TrimSpace(meta.Title()),
		Album:       strings.TrimSpace(meta.Album()),
		Artist:      strings.TrimSpace(meta.Artist()),
		AlbumArtist: strings.TrimSpace(meta.AlbumArtist()),
		Composer:    strings.TrimSpace(meta.Composer()),
		Genre:       strings.TrimSpace(meta.Genre()),
		Year:        meta.Year(),
		HasArtwork:  meta.Picture() != nil,
	}
	am.Track, _ = meta.Track()
	am.Disc, _ = meta.Disc()
	return am, nil
}
