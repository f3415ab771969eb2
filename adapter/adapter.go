// Package adapter puts every media backend a track can render behind one lifecycle contract.
//
// An adapter owns exactly one live backend resource. It is created by a
// playlist when a descriptor is dispatched and destroyed when the playlist
// drops it. All methods run on the track loop and are no-ops once the
// adapter has been destroyed, so late backend callbacks are harmless.
package adapter

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/truveris/track/host"
	"github.com/truveris/track/log"
	"github.com/truveris/track/media"
)

// Adapter is the uniform playback contract.
type Adapter interface {
	// ID is the id of the backend element; host events and relayed player events are routed by it.
	ID() string
	Descriptor() media.Descriptor

	// Spawn creates the backend resource and starts loading it.
	Spawn() error
	// Play restarts playback from the start boundary.
	Play()
	// SetVolume applies an effective volume in [0,100]. Safe before the backend is ready.
	SetVolume(level float64)
	Show()
	Hide()
	// HasEnded reports the end of the media once.
	HasEnded()
	// HasErrored reports a classified failure and hands the adapter back to its owner for removal.
	HasErrored(submessage string)
	// SeekToEnd forces the end boundary; the adapter's own end handling follows.
	SeekToEnd()
	SetSoloLoop(solo bool)
	SoloLoop() bool
	// Destroy releases the backend resource. Calling it twice is fine.
	Destroy()
	Destroyed() bool

	HandleEvent(ev host.Event)
}

// Owner is the playlist an adapter reports to.
type Owner interface {
	// Container is the id of the element the adapter's resource is created in.
	Container() string
	// Volume is the effective volume at the time of the call.
	Volume() float64
	// Started reports that content without a visual presence began playing.
	Started(a Adapter)
	// Shown and Hidden report visibility transitions.
	Shown(a Adapter)
	Hidden(a Adapter)
	// Ended asks the owner to move on.
	Ended(a Adapter)
	// Errored asks the owner to report the failure, drop the adapter and move on.
	Errored(a Adapter, submessage string)
}

// Env is what every adapter is built with.
type Env struct {
	Doc   host.Document
	Owner Owner
}

// Constructor builds an adapter for one descriptor.
type Constructor func(env Env, d media.Descriptor) Adapter

var registry = map[media.Format]Constructor{
	media.Video:      NewNative,
	media.Audio:      NewNative,
	media.Image:      NewNative,
	media.Web:        NewWeb,
	media.YouTube:    NewYouTube,
	media.Vimeo:      NewVimeo,
	media.SoundCloud: NewSoundCloud,
}

// New selects the adapter implementation for the descriptor's format.
func New(env Env, d media.Descriptor) (Adapter, error) {
	construct, ok := registry[d.Format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", media.ErrUnknownFormat, d.Format)
	}
	return construct(env, d), nil
}

// base carries the state every backend shares.
type base struct {
	self  Adapter
	env   Env
	desc  media.Descriptor
	id    string
	el    host.Element
	label string

	ready     bool
	startTime float64
	endTime   float64
	hasEnd    bool
	didEnd    bool
	soloLoop  bool
	visible   bool
	started   bool
	destroyed bool
	volume    float64
}

func newBase(env Env, d media.Descriptor) *base {
	b := &base{
		env:       env,
		desc:      d,
		id:        uuid.NewString(),
		label:     string(d.Format),
		startTime: d.StartTime(),
		volume:    env.Owner.Volume(),
	}
	if end, ok := d.End.Get(); ok {
		b.endTime, b.hasEnd = end, true
	}
	return b
}

func (b *base) ID() string {
	return b.id
}

func (b *base) Descriptor() media.Descriptor {
	return b.desc
}

func (b *base) SetSoloLoop(solo bool) {
	b.soloLoop = solo
}

func (b *base) SoloLoop() bool {
	return b.soloLoop
}

func (b *base) Destroyed() bool {
	return b.destroyed
}

// resolveEnd adopts a backend-reported duration unless the descriptor fixed the end.
func (b *base) resolveEnd(duration float64) {
	if b.hasEnd || duration <= 0 {
		return
	}
	b.endTime, b.hasEnd = duration, true
}

// create inserts the backend element into the owner's container.
func (b *base) create(kind host.Kind, attrs map[string]string) error {
	el, err := b.env.Doc.Create(host.Spec{
		ID:     b.id,
		Kind:   kind,
		Parent: b.env.Owner.Container(),
		Attrs:  attrs,
		Hidden: true,
	})
	if err != nil {
		return fmt.Errorf("create %s element: %w", kind, err)
	}
	b.el = el
	return nil
}

func (b *base) invoke(method string, args ...any) {
	if b.destroyed || b.el == nil {
		return
	}
	if err := b.el.Invoke(method, args...); err != nil {
		log.Warnf("%s %s: %s: %v", b.label, b.id, method, err)
	}
}

func (b *base) set(property string, value any) {
	if b.destroyed || b.el == nil {
		return
	}
	if err := b.el.Set(property, value); err != nil {
		log.Warnf("%s %s: set %s: %v", b.label, b.id, property, err)
	}
}

// Show reveals the element. Content without a visual presence only reports that it started.
func (b *base) Show() {
	if b.destroyed {
		return
	}

	if !b.desc.Format.Visual() {
		if !b.started {
			b.started = true
			b.env.Owner.Started(b.self)
		}
		return
	}

	if b.el != nil {
		_ = b.el.SetHidden(false)
	}
	if !b.visible {
		b.visible = true
		b.env.Owner.Shown(b.self)
	}
}

func (b *base) Hide() {
	if b.destroyed {
		return
	}
	if b.el != nil {
		_ = b.el.SetHidden(true)
	}
	if b.visible {
		b.visible = false
		b.env.Owner.Hidden(b.self)
	}
}

func (b *base) HasEnded() {
	if b.destroyed || b.didEnd {
		return
	}
	b.didEnd = true
	if b.soloLoop {
		return
	}
	b.Hide()
	b.env.Owner.Ended(b.self)
}

func (b *base) HasErrored(submessage string) {
	if b.destroyed {
		return
	}
	log.With(log.Fields{"adapter": b.id, "src": b.desc.Src}).Warnf("%s errored: %s", b.label, submessage)
	b.env.Owner.Errored(b.self, submessage)
}

func (b *base) Destroy() {
	if b.destroyed {
		return
	}
	if b.visible {
		b.visible = false
		b.env.Owner.Hidden(b.self)
	}
	b.destroyed = true
	if b.el != nil {
		if err := b.el.Remove(); err != nil {
			log.Debugf("%s %s: remove: %v", b.label, b.id, err)
		}
	}
}
