package adapter

import (
	"github.com/truveris/track/host"
	"github.com/truveris/track/media"
)

// SoundCloud drives a widget. Positions and durations travel in milliseconds.
type SoundCloud struct {
	*base
}

func NewSoundCloud(env Env, d media.Descriptor) Adapter {
	s := &SoundCloud{base: newBase(env, d)}
	s.self = s
	return s
}

func (s *SoundCloud) Spawn() error {
	return s.create(host.KindSoundCloud, map[string]string{
		"class":     "media",
		"url":       s.desc.Src,
		"auto_play": "false",
		"visual":    "false",
	})
}

func (s *SoundCloud) applyVolume() {
	if !s.ready {
		return
	}
	if s.desc.Muted {
		s.invoke("setVolume", MutedFloor*100)
		return
	}
	s.invoke("setVolume", max(s.volume, MutedFloor*100))
}

func (s *SoundCloud) SetVolume(level float64) {
	s.volume = level
	s.applyVolume()
}

func (s *SoundCloud) onReady() {
	s.ready = true
	for _, event := range []string{host.EventPlay, host.EventPlayProgress, host.EventFinish} {
		s.invoke("bind", event)
	}
	if !s.hasEnd {
		s.invoke("getDuration")
	}
	s.applyVolume()
	s.invoke("seekTo", s.startTime*1000)
	s.invoke("play")
}

func (s *SoundCloud) Play() {
	if s.destroyed || !s.ready {
		return
	}
	s.didEnd = false
	s.invoke("seekTo", s.startTime*1000)
	s.invoke("play")
}

func (s *SoundCloud) finished() {
	if s.soloLoop {
		s.invoke("seekTo", s.startTime*1000)
		s.invoke("play")
		return
	}
	s.invoke("pause")
	s.HasEnded()
}

func (s *SoundCloud) SeekToEnd() {
	if s.destroyed {
		return
	}
	if !s.ready {
		s.HasEnded()
		return
	}
	if s.hasEnd {
		s.invoke("seekTo", s.endTime*1000)
	}
	s.finished()
}

func (s *SoundCloud) HandleEvent(ev host.Event) {
	if s.destroyed {
		return
	}

	switch ev.Type {
	case host.EventReady:
		s.onReady()
	case host.EventDuration:
		s.resolveEnd(ev.Duration / 1000)
	case host.EventPlay:
		s.didEnd = false
		s.Show()
	case host.EventPlayProgress:
		if s.hasEnd && ev.Time/1000 >= s.endTime {
			s.finished()
		}
	case host.EventFinish:
		s.finished()
	case host.EventError:
		s.HasErrored("soundcloud track could not be played (" + s.desc.Src + ")")
	}
}
