package remote

import (
	"encoding/json"

	"github.com/truveris/track/bridge"
	"github.com/truveris/track/host"
)

// Kinds of frames sent by the renderer.
const (
	KindEvent   = "event"
	KindMessage = "message"
	KindCall    = "call"
)

// Inbound is a frame sent by the renderer.
type Inbound struct {
	Kind string `json:"kind"`

	// Event is set for element events.
	Event *host.Event `json:"event,omitempty"`

	// Origin and Data are set for window messages.
	Origin string          `json:"origin,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`

	// Name and Value are set for entry point calls: setVolume, setTrackVolume, shutup, skip.
	Name  string          `json:"name,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Operations sent to the renderer.
const (
	OpCreate = "create"
	OpInvoke = "invoke"
	OpSet    = "set"
	OpHide   = "hide"
	OpShow   = "show"
	OpRemove = "remove"
	OpPost   = "post"
	OpNotify = "notify"
)

// Outbound is an operation the renderer executes.
type Outbound struct {
	Op     string `json:"op"`
	Seq    uint64 `json:"seq"`
	Target string `json:"target,omitempty"`

	Spec *host.Spec `json:"spec,omitempty"`

	Method string `json:"method,omitempty"`
	Args   []any  `json:"args,omitempty"`

	Property string `json:"property,omitempty"`
	Value    any    `json:"value,omitempty"`

	Message      json.RawMessage      `json:"message,omitempty"`
	TargetOrigin string               `json:"targetOrigin,omitempty"`
	Notification *bridge.Notification `json:"notification,omitempty"`
}
