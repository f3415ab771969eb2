// Package host abstracts the document a track renders into.
//
// Adapters never touch a real DOM. They ask a Document to create elements,
// invoke methods on them, flip their visibility and remove them, and they
// learn about what happened through Events delivered to a single Sink.
package host

import "errors"

// ErrRemoved is returned by operations on an element that is no longer attached.
var ErrRemoved = errors.New("element removed")

// Kind names the element a Document should create.
type Kind string

const (
	KindContainer  Kind = "div"
	KindVideo      Kind = "video"
	KindAudio      Kind = "audio"
	KindImage      Kind = "img"
	KindFrame      Kind = "iframe"
	KindYouTube    Kind = "youtube"
	KindSoundCloud Kind = "soundcloud"
)

// Spec describes an element to create.
type Spec struct {
	ID     string            `json:"id"`
	Kind   Kind              `json:"kind"`
	Parent string            `json:"parent,omitempty"`
	Attrs  map[string]string `json:"attrs,omitempty"`
	Hidden bool              `json:"hidden,omitempty"`
}

// Element is a handle on one live backend resource.
type Element interface {
	ID() string
	// Invoke calls a backend method, e.g. play, pause, loadVideoById.
	Invoke(method string, args ...any) error
	// Set assigns a backend property, e.g. currentTime, volume, muted.
	Set(property string, value any) error
	SetHidden(hidden bool) error
	// Remove detaches the element. Removing twice is not an error.
	Remove() error
}

// Document creates elements and carries messages into embedded frames.
type Document interface {
	Create(spec Spec) (Element, error)
	// PostMessage delivers a serialized message to the frame with the given element id.
	PostMessage(target string, message []byte, targetOrigin string) error
}

// Sink receives backend events. It may be called from any goroutine.
type Sink func(Event)
