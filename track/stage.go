package track

import (
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/truveris/track/adapter"
	"github.com/truveris/track/bridge"
	"github.com/truveris/track/host"
	"github.com/truveris/track/media"
	"github.com/truveris/track/playlist"
)

// stage is the track as its playlists see it. It only ever runs on the loop.
type stage struct {
	t *Track
}

func (s stage) Document() host.Document {
	return s.t.doc
}

func (s stage) Root() string {
	return s.t.root
}

func (s stage) Volume() float64 {
	return s.t.volume.Effective()
}

func (s stage) Attach(a adapter.Adapter) {
	s.t.routes[a.ID()] = a
	if r, ok := a.(adapter.Relayer); ok {
		s.t.bridge.Register(a.ID(), r)
	}
}

func (s stage) Detach(a adapter.Adapter) {
	delete(s.t.routes, a.ID())
	s.t.bridge.Unregister(a.ID())
}

// Started announces audible content unless something is already showing.
func (s stage) Started(p *playlist.Playlist, _ adapter.Adapter) {
	if s.t.vis.Empty() {
		s.t.bridge.Notify(p.Track(), bridge.Playing, "")
	}
}

func (s stage) Shown(p *playlist.Playlist, a adapter.Adapter) {
	if s.t.vis.Show(a) {
		s.t.bridge.Notify(p.Track(), bridge.Playing, "")
	}
}

func (s stage) Hidden(a adapter.Adapter) {
	s.t.vis.Hide(a)
}

func (s stage) Errored(p *playlist.Playlist, submessage string) {
	s.t.bridge.Notify(p.Track(), bridge.Errored, submessage)
}

func (s stage) Drained(p *playlist.Playlist, announce bool) {
	s.t.playlists = lo.Without(s.t.playlists, p)
	if announce && s.t.vis.Empty() {
		s.t.bridge.Notify(p.Track(), bridge.Ended, "")
	}
}

// commands carries out bridge commands. The bridge runs on the loop, so these must not post.
type commands struct {
	t *Track
}

func (c commands) Dispatch(pl media.Playlist) {
	c.t.dispatch(pl)
}

func (c commands) Skip() {
	c.t.skip()
}

func (c commands) Shutup() {
	c.t.shutup(true)
}

func (c commands) SetVolume(level mo.Option[float64]) {
	c.t.volume.SetMaster(level)
}

func (c commands) SetTrackVolume(level float64) {
	c.t.volume.SetTrack(level)
}
