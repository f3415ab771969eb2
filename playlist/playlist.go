// Package playlist sequences descriptors through live adapters.
//
// A playlist starts Filling, moves to Looping once its descriptors are
// exhausted while it loops, and ends Drained once nothing is left to play.
// Drained is terminal.
package playlist

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/truveris/track/adapter"
	"github.com/truveris/track/host"
	"github.com/truveris/track/log"
	"github.com/truveris/track/media"
)

type State int

const (
	Filling State = iota
	Looping
	Drained
)

func (s State) String() string {
	switch s {
	case Filling:
		return "filling"
	case Looping:
		return "looping"
	case Drained:
		return "drained"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Stage is the track a playlist plays on.
type Stage interface {
	Document() host.Document
	// Root is the element id playlist containers are created in.
	Root() string
	Volume() float64

	// Attach and Detach keep the stage's event routes in sync with the live adapters.
	Attach(a adapter.Adapter)
	Detach(a adapter.Adapter)

	// Started, Shown and Errored are reported on behalf of p, whose track name is the notification source.
	Started(p *Playlist, a adapter.Adapter)
	Shown(p *Playlist, a adapter.Adapter)
	Hidden(a adapter.Adapter)
	Errored(p *Playlist, submessage string)
	// Drained is called once. announce is false when the drain must not produce ENDED.
	Drained(p *Playlist, announce bool)
}

// Playlist owns its pending descriptors and its live adapters.
// Adapters are kept oldest first; the last one is the active item.
type Playlist struct {
	id      string
	stage   Stage
	policy  ErrorPolicy
	track   string
	loop    bool
	pending []media.Descriptor
	players []adapter.Adapter

	container   host.Element
	lastErrored bool
	drained     bool
}

// New prepares a playlist. Nothing is created until Start.
func New(stage Stage, pl media.Playlist, policy ErrorPolicy) *Playlist {
	return &Playlist{
		id:      uuid.NewString(),
		stage:   stage,
		policy:  policy,
		track:   pl.Track,
		loop:    pl.Loop,
		pending: append([]media.Descriptor(nil), pl.Items...),
	}
}

func (p *Playlist) ID() string {
	return p.id
}

// Track is the name the parent dispatched the playlist under. It may be empty.
func (p *Playlist) Track() string {
	return p.track
}

func (p *Playlist) Loop() bool {
	return p.loop
}

// Pending returns how many descriptors have not been spawned yet.
func (p *Playlist) Pending() int {
	return len(p.pending)
}

// Players returns the live adapters, oldest first.
func (p *Playlist) Players() []adapter.Adapter {
	return append([]adapter.Adapter(nil), p.players...)
}

func (p *Playlist) State() State {
	switch {
	case p.drained:
		return Drained
	case len(p.pending) == 0 && p.loop && len(p.players) > 0:
		return Looping
	default:
		return Filling
	}
}

// Find returns the live adapter whose element has the given id.
func (p *Playlist) Find(id string) (adapter.Adapter, bool) {
	return lo.Find(p.players, func(a adapter.Adapter) bool { return a.ID() == id })
}

// Start creates the playlist's container and spawns the first playable item.
func (p *Playlist) Start() error {
	el, err := p.stage.Document().Create(host.Spec{
		ID:     p.id,
		Kind:   host.KindContainer,
		Parent: p.stage.Root(),
		Attrs:  map[string]string{"class": "playlist", "data-track": p.track},
	})
	if err != nil {
		return fmt.Errorf("create playlist container: %w", err)
	}
	p.container = el

	log.Infof("playlist %s: starting with %d item(s), loop=%t", p.id, len(p.pending), p.loop)
	p.Advance()
	return nil
}

// Advance moves to the next item: spawn the next descriptor, else rotate a looping
// playlist, else drain.
func (p *Playlist) Advance() {
	if p.drained {
		return
	}

	for len(p.pending) > 0 {
		d := p.pending[0]
		p.pending = p.pending[1:]

		_, err := p.spawn(d)
		if err != nil {
			log.With(log.Fields{"playlist": p.id, "format": d.Format, "src": d.Src}).Warn(err)
			p.lastErrored = true
			p.stage.Errored(p, submessage(err))
			continue
		}

		p.lastErrored = false
		if !p.loop && len(p.players) > 1 {
			p.remove(p.players[len(p.players)-2])
		}
		p.settleSoloLoop()
		return
	}

	if p.loop && len(p.players) > 0 {
		oldest := p.players[0]
		p.players = append(p.players[1:], oldest)
		p.settleSoloLoop()
		oldest.Play()
		return
	}

	p.drain(p.policy != PolicySuppress || !p.lastErrored)
}

func (p *Playlist) spawn(d media.Descriptor) (adapter.Adapter, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	a, err := adapter.New(adapter.Env{Doc: p.stage.Document(), Owner: p}, d)
	if err != nil {
		return nil, err
	}

	p.players = append(p.players, a)
	p.stage.Attach(a)
	if err := a.Spawn(); err != nil {
		p.remove(a)
		return nil, err
	}
	return a, nil
}

// submessage is what the parent is told about a descriptor that could not be played.
func submessage(err error) string {
	switch {
	case errors.Is(err, media.ErrUnknownFormat):
		return media.ErrUnknownFormat.Error()
	default:
		return err.Error()
	}
}

func (p *Playlist) settleSoloLoop() {
	if p.loop && len(p.pending) == 0 && len(p.players) == 1 {
		p.players[0].SetSoloLoop(true)
	}
}

func (p *Playlist) remove(a adapter.Adapter) {
	p.players = lo.Without(p.players, a)
	a.Destroy()
	p.stage.Detach(a)
}

func (p *Playlist) active() (adapter.Adapter, bool) {
	if len(p.players) == 0 {
		return nil, false
	}
	return p.players[len(p.players)-1], true
}

// Skip forces the active item to its end. The adapter's own end handling advances the playlist.
func (p *Playlist) Skip() bool {
	a, ok := p.active()
	if !ok || p.drained {
		return false
	}
	a.SetSoloLoop(false)
	a.SeekToEnd()
	return true
}

// Stop drains the playlist immediately without announcing it.
func (p *Playlist) Stop() {
	p.drain(false)
}

// SetVolume pushes an effective volume to every live adapter.
func (p *Playlist) SetVolume(level float64) {
	for _, a := range p.players {
		a.SetVolume(level)
	}
}

func (p *Playlist) drain(announce bool) {
	if p.drained {
		return
	}
	p.drained = true
	p.pending = nil

	for _, a := range p.players {
		a.Destroy()
		p.stage.Detach(a)
	}
	p.players = nil

	if p.container != nil {
		if err := p.container.Remove(); err != nil {
			log.Debugf("playlist %s: remove container: %v", p.id, err)
		}
	}

	log.Infof("playlist %s: drained", p.id)
	p.stage.Drained(p, announce)
}

// Container implements adapter.Owner.
func (p *Playlist) Container() string {
	return p.id
}

func (p *Playlist) Volume() float64 {
	return p.stage.Volume()
}

func (p *Playlist) Started(a adapter.Adapter) {
	p.stage.Started(p, a)
}

func (p *Playlist) Shown(a adapter.Adapter) {
	p.stage.Shown(p, a)
}

func (p *Playlist) Hidden(a adapter.Adapter) {
	p.stage.Hidden(a)
}

// Ended advances when the active item ends. Ends reported by older retained items are stale.
func (p *Playlist) Ended(a adapter.Adapter) {
	if active, ok := p.active(); !ok || active != a {
		log.Debugf("playlist %s: ignoring end of inactive adapter %s", p.id, a.ID())
		return
	}
	p.lastErrored = false
	p.Advance()
}

// Errored reports the failure, drops the adapter and, if it was the active item, moves on.
func (p *Playlist) Errored(a adapter.Adapter, msg string) {
	if p.drained || !lo.Contains(p.players, a) {
		return
	}

	active, _ := p.active()
	p.lastErrored = true
	p.stage.Errored(p, msg)
	p.remove(a)

	if active == a {
		p.Advance()
	}
}
