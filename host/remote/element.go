package remote

import (
	"sync"

	"github.com/truveris/track/host"
)

// element is a handle on an element living in the renderer.
type element struct {
	server *Server
	id     string

	mu      sync.Mutex
	removed bool
}

func (e *element) ID() string {
	return e.id
}

func (e *element) gone() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removed
}

func (e *element) Invoke(method string, args ...any) error {
	if e.gone() {
		return host.ErrRemoved
	}
	if args == nil {
		args = []any{}
	}
	return e.server.send(Outbound{Op: OpInvoke, Target: e.id, Method: method, Args: args})
}

func (e *element) Set(property string, value any) error {
	if e.gone() {
		return host.ErrRemoved
	}
	return e.server.send(Outbound{Op: OpSet, Target: e.id, Property: property, Value: value})
}

func (e *element) SetHidden(hidden bool) error {
	if e.gone() {
		return host.ErrRemoved
	}
	op := OpShow
	if hidden {
		op = OpHide
	}
	return e.server.send(Outbound{Op: op, Target: e.id})
}

func (e *element) Remove() error {
	e.mu.Lock()
	if e.removed {
		e.mu.Unlock()
		return nil
	}
	e.removed = true
	e.mu.Unlock()

	return e.server.send(Outbound{Op: OpRemove, Target: e.id})
}
