package adapter

import (
	"fmt"
	"math"

	"github.com/truveris/track/host"
	"github.com/truveris/track/media"
)

// YouTube player states, as reported by onStateChange.
const (
	youtubeUnstarted = -1
	youtubeEnded     = 0
	youtubePlaying   = 1
)

var youtubeErrors = map[int]string{
	2:   "invalid youtube video parameter",
	5:   "youtube video doesn't work with html5",
	100: "no such youtube video",
	101: "can't embed this youtube video",
	150: "can't embed this youtube video",
}

// YouTube drives an IFrame API player. Nothing is loaded until the player reports ready.
type YouTube struct {
	*base
}

func NewYouTube(env Env, d media.Descriptor) Adapter {
	y := &YouTube{base: newBase(env, d)}
	y.self = y
	return y
}

func (y *YouTube) Spawn() error {
	return y.create(host.KindYouTube, map[string]string{
		"class":          "media",
		"controls":       "0",
		"showinfo":       "0",
		"rel":            "0",
		"modestbranding": "1",
		"iv_load_policy": "3",
		"enablejsapi":    "1",
	})
}

func (y *YouTube) onReady() {
	y.ready = true
	y.applyVolume()
	if y.desc.Muted {
		y.invoke("mute")
	}

	load := map[string]any{
		"videoId":      y.desc.Src,
		"startSeconds": y.startTime,
	}
	if y.hasEnd {
		load["endSeconds"] = y.endTime
	}
	y.invoke("loadVideoById", load)
}

func (y *YouTube) applyVolume() {
	if y.ready {
		y.invoke("setVolume", int(math.Round(y.volume)))
	}
}

func (y *YouTube) SetVolume(level float64) {
	y.volume = level
	y.applyVolume()
}

func (y *YouTube) Play() {
	if y.destroyed || !y.ready {
		return
	}
	y.didEnd = false
	y.invoke("seekTo", y.startTime, true)
	y.invoke("playVideo")
}

// onEnded rewinds the player and either loops in place or reports the end.
func (y *YouTube) onEnded() {
	y.Hide()
	y.invoke("seekTo", y.startTime, true)
	if y.soloLoop {
		y.invoke("playVideo")
		return
	}
	y.HasEnded()
}

func (y *YouTube) SeekToEnd() {
	if y.destroyed {
		return
	}
	if !y.ready {
		y.HasEnded()
		return
	}
	if y.hasEnd {
		y.invoke("seekTo", y.endTime, true)
	}
	y.onEnded()
}

func (y *YouTube) HandleEvent(ev host.Event) {
	if y.destroyed {
		return
	}

	switch ev.Type {
	case host.EventReady:
		y.onReady()
	case host.EventStateChange:
		switch ev.Code {
		case youtubeUnstarted:
			y.invoke("setPlaybackQuality", "highres")
			y.Hide()
			y.invoke("playVideo")
		case youtubePlaying:
			y.didEnd = false
			y.Show()
		case youtubeEnded:
			y.onEnded()
		}
	case host.EventError:
		y.HasErrored(youtubeError(ev.Code))
	}
}

func youtubeError(code int) string {
	if msg, ok := youtubeErrors[code]; ok {
		return msg
	}
	return fmt.Sprintf("unrecognized youtube error code %d", code)
}
