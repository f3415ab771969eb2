package adapter

import (
	"fmt"
	"strconv"

	"github.com/truveris/track/host"
	"github.com/truveris/track/media"
)

// Native drives <video>, <audio> and <img> elements.
// Timed media follows the element's own timeline events; images end only when skipped.
type Native struct {
	*base
	kind     host.Kind
	infinite bool
}

func NewNative(env Env, d media.Descriptor) Adapter {
	n := &Native{base: newBase(env, d)}
	n.self = n

	switch d.Format {
	case media.Audio:
		n.kind = host.KindAudio
	case media.Image:
		n.kind = host.KindImage
	default:
		n.kind = host.KindVideo
	}
	return n
}

func (n *Native) timed() bool {
	return n.kind != host.KindImage
}

// Spawn creates the element; timed media starts playing on its own through autoplay.
func (n *Native) Spawn() error {
	if !n.timed() {
		if err := n.create(n.kind, map[string]string{"class": "media"}); err != nil {
			return err
		}
		n.set("src", n.desc.Src)
		return nil
	}

	attrs := map[string]string{
		"class":    "media",
		"preload":  "auto",
		"autoplay": "autoplay",
	}
	if err := n.create(n.kind, attrs); err != nil {
		return err
	}

	n.ready = true
	n.set("volume", n.volume/100)
	n.set("muted", n.desc.Muted)
	n.set("src", n.fragmentSrc())
	n.invoke("load")
	return nil
}

// fragmentSrc appends a media fragment so the element fetches only the bounded range.
func (n *Native) fragmentSrc() string {
	src := n.desc.Src + "#t=" + strconv.FormatFloat(n.startTime, 'f', -1, 64)
	if n.hasEnd {
		src += "," + strconv.FormatFloat(n.endTime, 'f', -1, 64)
	}
	return src
}

func (n *Native) Play() {
	if n.destroyed {
		return
	}
	n.didEnd = false
	if !n.timed() {
		n.Show()
		return
	}
	n.set("currentTime", n.startTime)
	n.invoke("play")
}

func (n *Native) SetVolume(level float64) {
	n.volume = level
	if n.timed() {
		n.set("volume", level/100)
	}
}

func (n *Native) SeekToEnd() {
	if n.destroyed {
		return
	}
	if !n.timed() || !n.hasEnd || n.infinite {
		n.HasEnded()
		return
	}
	n.set("currentTime", n.endTime)
	n.crossedEnd()
}

// crossedEnd runs when playback reaches the end boundary.
func (n *Native) crossedEnd() {
	if n.soloLoop {
		n.set("currentTime", n.startTime)
		n.invoke("play")
		return
	}
	n.invoke("pause")
	n.set("currentTime", n.startTime)
	n.HasEnded()
}

func (n *Native) HandleEvent(ev host.Event) {
	if n.destroyed {
		return
	}

	switch ev.Type {
	case host.EventLoad:
		if !n.timed() {
			n.Show()
		}
	case host.EventDurationChange:
		n.infinite = ev.Infinite
		if !ev.Infinite {
			n.resolveEnd(ev.Duration)
		}
		n.Show()
	case host.EventPlay:
		n.didEnd = false
		n.Show()
	case host.EventTimeUpdate:
		if n.infinite || !n.hasEnd {
			return
		}
		if ev.Time >= n.endTime {
			n.crossedEnd()
		}
	case host.EventPause:
		// A pause from outside the engine ends the item. Solo loops restart without pausing.
		if n.timed() && !n.soloLoop {
			n.HasEnded()
		}
	case host.EventEnded:
		n.crossedEnd()
	case host.EventError:
		n.HasErrored(n.classify(ev))
	}
}

// classify turns a media error into the message reported to the parent.
func (n *Native) classify(ev host.Event) string {
	if !n.timed() {
		return fmt.Sprintf("image could not be loaded (%s)", n.desc.Src)
	}

	noun := "video file"
	if n.kind == host.KindAudio {
		noun = "audio file"
	}

	switch ev.Code {
	case host.MediaErrAborted:
		return noun + " playback has been aborted"
	case host.MediaErrNetwork:
		return noun + " download halted due to network error"
	case host.MediaErrDecode:
		return noun + " could not be decoded"
	case host.MediaErrSrcNotSupported:
		if ev.NetworkState == host.NetworkNoSource {
			return noun + " could not be found"
		}
		return noun + " format is not supported"
	default:
		return fmt.Sprintf("%s failed with unrecognized error code %d", noun, ev.Code)
	}
}
