package media

import (
	"encoding/json"
	"fmt"
)

// StatusMedia marks a payload as a playlist.
const StatusMedia = "media"

// Playlist is the ordered list of descriptors a parent dispatches in one go.
// Loop is fixed at creation.
type Playlist struct {
	Status string       `json:"status" jsonschema:"enum=media"`
	Track  string       `json:"track,omitempty"`
	Items  []Descriptor `json:"mediaObjs"`
	Loop   bool         `json:"loop"`
}

// Single wraps one descriptor into a playlist that loops when the descriptor asks for it.
func Single(d Descriptor) Playlist {
	return Playlist{
		Status: StatusMedia,
		Items:  []Descriptor{d},
		Loop:   d.Loop,
	}
}

// ParsePlaylist decodes either a playlist payload or a bare descriptor.
func ParsePlaylist(data []byte) (Playlist, error) {
	var head struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Playlist{}, fmt.Errorf("decode playlist: %w", err)
	}

	if head.Status != StatusMedia {
		d, err := Parse(data)
		if err != nil {
			return Playlist{}, err
		}
		return Single(d), nil
	}

	var p Playlist
	if err := json.Unmarshal(data, &p); err != nil {
		return Playlist{}, fmt.Errorf("decode playlist: %w", err)
	}
	return p, nil
}
