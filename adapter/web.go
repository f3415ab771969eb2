package adapter

import (
	"github.com/truveris/track/host"
	"github.com/truveris/track/media"
)

// Web embeds an arbitrary page in an iframe. It has no timeline, so it ends only when skipped.
type Web struct {
	*base
}

func NewWeb(env Env, d media.Descriptor) Adapter {
	w := &Web{base: newBase(env, d)}
	w.self = w
	return w
}

func (w *Web) Spawn() error {
	return w.create(host.KindFrame, map[string]string{
		"class":   "media",
		"src":     w.desc.Src,
		"sandbox": "allow-scripts allow-same-origin",
	})
}

func (w *Web) Play() {
	if w.destroyed {
		return
	}
	w.didEnd = false
	w.Show()
}

// SetVolume only remembers the level; an arbitrary page exposes no volume control.
func (w *Web) SetVolume(level float64) {
	w.volume = level
}

func (w *Web) SeekToEnd() {
	w.HasEnded()
}

func (w *Web) HandleEvent(ev host.Event) {
	if w.destroyed {
		return
	}
	switch ev.Type {
	case host.EventLoad:
		w.ready = true
		w.Show()
	case host.EventError:
		w.HasErrored("web page could not be loaded (" + w.desc.Src + ")")
	}
}
