// Package hosttest provides an in-memory host.Document that records every operation for assertions.
package hosttest

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/truveris/track/host"
)

// Call is one recorded Invoke.
type Call struct {
	Method string
	Args   []any
}

// Post is one recorded PostMessage.
type Post struct {
	Target  string
	Message []byte
	Origin  string
}

// Decode unmarshals the posted message into v.
func (p Post) Decode(v any) error {
	return json.Unmarshal(p.Message, v)
}

// Element records what was done to it.
type Element struct {
	doc     *Document
	spec    host.Spec
	hidden  bool
	removed bool
	calls   []Call
	props   map[string]any
}

func (e *Element) ID() string {
	return e.spec.ID
}

func (e *Element) Invoke(method string, args ...any) error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	if e.removed {
		return host.ErrRemoved
	}
	e.calls = append(e.calls, Call{Method: method, Args: args})
	return nil
}

func (e *Element) Set(property string, value any) error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	if e.removed {
		return host.ErrRemoved
	}
	e.props[property] = value
	return nil
}

func (e *Element) SetHidden(hidden bool) error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	if e.removed {
		return host.ErrRemoved
	}
	e.hidden = hidden
	return nil
}

func (e *Element) Remove() error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	e.removed = true
	return nil
}

// Spec returns the spec the element was created with.
func (e *Element) Spec() host.Spec {
	return e.spec
}

func (e *Element) Hidden() bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.hidden
}

func (e *Element) Removed() bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.removed
}

// Calls returns the invocations of method, oldest first.
func (e *Element) Calls(method string) []Call {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return lo.Filter(e.calls, func(c Call, _ int) bool { return c.Method == method })
}

// Called reports whether method was invoked at least once.
func (e *Element) Called(method string) bool {
	return len(e.Calls(method)) > 0
}

// Prop returns the last value assigned to property.
func (e *Element) Prop(property string) (any, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	v, ok := e.props[property]
	return v, ok
}

// Document is a host.Document backed by memory.
type Document struct {
	mu       sync.Mutex
	elements []*Element
	posts    []Post

	// FailCreate, when set, is returned by Create for every kind it contains.
	FailCreate map[host.Kind]error
}

// New returns an empty document.
func New() *Document {
	return &Document{}
}

func (d *Document) Create(spec host.Spec) (host.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err, ok := d.FailCreate[spec.Kind]; ok {
		return nil, err
	}

	if lo.ContainsBy(d.elements, func(e *Element) bool { return e.spec.ID == spec.ID && !e.removed }) {
		return nil, fmt.Errorf("duplicate element id %q", spec.ID)
	}

	e := &Element{doc: d, spec: spec, hidden: spec.Hidden, props: make(map[string]any)}
	d.elements = append(d.elements, e)
	return e, nil
}

func (d *Document) PostMessage(target string, message []byte, targetOrigin string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.posts = append(d.posts, Post{Target: target, Message: message, Origin: targetOrigin})
	return nil
}

// Created returns every element of the given kind ever created, oldest first.
func (d *Document) Created(kind host.Kind) []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return lo.Filter(d.elements, func(e *Element, _ int) bool { return e.spec.Kind == kind })
}

// Live returns the attached elements of the given kind.
func (d *Document) Live(kind host.Kind) []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return lo.Filter(d.elements, func(e *Element, _ int) bool { return e.spec.Kind == kind && !e.removed })
}

// Media returns every created element that is not a container.
func (d *Document) Media() []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return lo.Filter(d.elements, func(e *Element, _ int) bool { return e.spec.Kind != host.KindContainer })
}

// Posts returns the messages posted to target.
func (d *Document) Posts(target string) []Post {
	d.mu.Lock()
	defer d.mu.Unlock()
	return lo.Filter(d.posts, func(p Post, _ int) bool { return p.Target == target })
}
