// Package media describes the unit of playable work handed to a track: what to play, where it lives and which part of it.
package media

import "github.com/samber/lo"

// Format tells a track which backend should render a descriptor's source.
type Format string

const (
	Video      Format = "video"
	Audio      Format = "audio"
	Image      Format = "img"
	Web        Format = "web"
	YouTube    Format = "youtube"
	Vimeo      Format = "vimeo"
	SoundCloud Format = "soundcloud"
)

// Formats returns every format a track knows how to render.
func Formats() []Format {
	return []Format{Video, Audio, Image, Web, YouTube, Vimeo, SoundCloud}
}

// Known reports whether a backend exists for the format.
func (f Format) Known() bool {
	return lo.Contains(Formats(), f)
}

// Visual reports whether content of this format occupies the screen while it plays.
func (f Format) Visual() bool {
	return f != Audio && f != SoundCloud
}

func (f Format) String() string {
	return string(f)
}
