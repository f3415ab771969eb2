// Package track ties playlists, volume, visibility and the bridge together
// and runs them on one cooperative loop.
//
// Every exported method is safe to call from any goroutine: it posts a task
// onto the loop and waits for it to run to completion. Nothing running on the
// loop may call them back.
package track

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/truveris/track/adapter"
	"github.com/truveris/track/bridge"
	"github.com/truveris/track/host"
	"github.com/truveris/track/log"
	"github.com/truveris/track/media"
	"github.com/truveris/track/playlist"
	"github.com/truveris/track/volume"
)

// ErrStopped is returned by calls made after the loop has exited.
var ErrStopped = errors.New("track stopped")

// Options configures a track.
type Options struct {
	// Name is the source reported in every notification.
	Name string
	// Root is the element id playlist containers are created in.
	Root string

	ParentOrigins []string
	PlayerOrigins []string

	MasterVolume float64
	TrackVolume  float64

	Policy playlist.ErrorPolicy
}

// Track is the child frame's playback engine.
type Track struct {
	name   string
	root   string
	policy playlist.ErrorPolicy
	doc    host.Document

	bridge *bridge.Bridge
	volume *volume.Controller
	vis    *playlist.Visibility

	playlists []*playlist.Playlist
	routes    map[string]adapter.Adapter

	tasks   chan func()
	stopped chan struct{}
}

// New builds a track rendering into doc and notifying through sender.
func New(doc host.Document, sender bridge.Sender, opts Options) *Track {
	t := &Track{
		name:    opts.Name,
		root:    opts.Root,
		policy:  opts.Policy,
		doc:     doc,
		vis:     playlist.NewVisibility(),
		routes:  make(map[string]adapter.Adapter),
		tasks:   make(chan func()),
		stopped: make(chan struct{}),
	}
	if t.policy == "" {
		t.policy = playlist.PolicyReport
	}

	t.volume = volume.New(opts.MasterVolume, opts.TrackVolume, t.targets)
	t.bridge = bridge.New(opts.Name, opts.ParentOrigins, opts.PlayerOrigins, commands{t}, sender)
	return t
}

func (t *Track) Name() string {
	return t.name
}

// Run consumes tasks until ctx is done. Live playlists are stopped on the way out.
func (t *Track) Run(ctx context.Context) error {
	defer close(t.stopped)

	log.Infof("track %s: running", t.name)
	for {
		select {
		case <-ctx.Done():
			t.shutup(false)
			log.Infof("track %s: stopped", t.name)
			return ctx.Err()
		case task := <-t.tasks:
			task()
		}
	}
}

// do runs task on the loop and waits for it.
func (t *Track) do(task func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		task()
	}

	select {
	case t.tasks <- wrapped:
	case <-t.stopped:
		return ErrStopped
	}

	<-done
	return nil
}

// Receive handles a window message posted to the track.
func (t *Track) Receive(origin string, data []byte) error {
	return t.do(func() {
		err := t.bridge.Receive(origin, data)
		switch {
		case err == nil:
		case errors.Is(err, bridge.ErrForbiddenOrigin):
			log.Debugf("track %s: dropped message: %v", t.name, err)
		default:
			log.Warnf("track %s: message from %s: %v", t.name, origin, err)
		}
	})
}

// HandleEvent routes a backend event to the adapter owning its target element.
func (t *Track) HandleEvent(ev host.Event) error {
	return t.do(func() {
		a, ok := t.routes[ev.Target]
		if !ok {
			log.Debugf("track %s: %s event for unknown element %q", t.name, ev.Type, ev.Target)
			return
		}
		a.HandleEvent(ev)
	})
}

// Dispatch starts a playlist.
func (t *Track) Dispatch(pl media.Playlist) error {
	return t.do(func() { t.dispatch(pl) })
}

// Skip ends the active item of the newest playlist.
func (t *Track) Skip() error {
	return t.do(t.skip)
}

// Shutup stops every playlist.
func (t *Track) Shutup() error {
	return t.do(func() { t.shutup(true) })
}

// SetVolume changes the master volume. Without a level it re-applies the current one.
func (t *Track) SetVolume(level mo.Option[float64]) error {
	return t.do(func() { t.volume.SetMaster(level) })
}

func (t *Track) SetTrackVolume(level float64) error {
	return t.do(func() { t.volume.SetTrack(level) })
}

// SetOrigins replaces the allow-lists used for inbound messages.
func (t *Track) SetOrigins(parent, players []string) {
	t.bridge.SetOrigins(parent, players)
}

// AllowedParent reports whether origin is an allowed parent.
func (t *Track) AllowedParent(origin string) bool {
	return t.bridge.AllowedParent(origin)
}

// Status is a snapshot of the track taken on the loop.
type Status struct {
	Playlists int
	Players   int
	Visible   int
	Master    float64
	Track     float64
	Effective float64
}

func (t *Track) Status() (Status, error) {
	var s Status
	err := t.do(func() {
		s = Status{
			Playlists: len(t.playlists),
			Players:   len(t.routes),
			Visible:   t.vis.Len(),
			Master:    t.volume.Master(),
			Track:     t.volume.Track(),
			Effective: t.volume.Effective(),
		}
	})
	return s, err
}

func (t *Track) targets() []volume.Target {
	return lo.Map(t.playlists, func(p *playlist.Playlist, _ int) volume.Target { return p })
}

func (t *Track) dispatch(pl media.Playlist) {
	p := playlist.New(stage{t}, pl, t.policy)
	t.playlists = append(t.playlists, p)

	if err := p.Start(); err != nil {
		log.Errorf("track %s: %v", t.name, err)
		t.playlists = lo.Without(t.playlists, p)
		t.bridge.Notify(pl.Track, bridge.Errored, err.Error())
	}
}

func (t *Track) skip() {
	if len(t.playlists) == 0 || !t.playlists[len(t.playlists)-1].Skip() {
		log.Debugf("track %s: nothing to skip", t.name)
	}
}

// shutup stops every playlist and, when asked to, announces a single ENDED
// on behalf of the newest one.
func (t *Track) shutup(announce bool) {
	if len(t.playlists) == 0 {
		return
	}
	source := t.playlists[len(t.playlists)-1].Track()
	for _, p := range append([]*playlist.Playlist(nil), t.playlists...) {
		p.Stop()
	}
	if announce && t.vis.Empty() {
		t.bridge.Notify(source, bridge.Ended, "")
	}
}
