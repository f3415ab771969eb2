// Package volume implements the master and track volume cascade.
package volume

import (
	"math"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/truveris/track/log"
)

const (
	Min = 0.0
	Max = 100.0
)

// Target receives effective volumes.
type Target interface {
	SetVolume(level float64)
}

// Controller keeps the master and track levels and pushes their product to every live target.
// The effective level is always recomputed from both levels, never adjusted incrementally.
type Controller struct {
	master  float64
	track   float64
	targets func() []Target
}

// New returns a controller. targets is consulted on every change to find the live targets.
func New(master, track float64, targets func() []Target) *Controller {
	if targets == nil {
		targets = func() []Target { return nil }
	}
	return &Controller{
		master:  Clamp(master),
		track:   Clamp(track),
		targets: targets,
	}
}

// Clamp brings any level into [Min, Max]. NaN counts as silence.
func Clamp(level float64) float64 {
	if math.IsNaN(level) {
		return Min
	}
	return lo.Clamp(level, Min, Max)
}

func (c *Controller) Master() float64 {
	return c.master
}

func (c *Controller) Track() float64 {
	return c.track
}

// Effective is master × track, scaled back to [Min, Max].
func (c *Controller) Effective() float64 {
	return Clamp(c.master * c.track / Max)
}

// SetMaster updates the master level when one is given, then propagates.
// Without a level it only re-pushes the current effective volume.
func (c *Controller) SetMaster(level mo.Option[float64]) {
	if v, ok := level.Get(); ok {
		c.master = Clamp(v)
	}
	c.propagate()
}

// SetTrack updates the track level, then propagates.
func (c *Controller) SetTrack(level float64) {
	c.track = Clamp(level)
	c.propagate()
}

func (c *Controller) propagate() {
	effective := c.Effective()
	targets := c.targets()
	log.Debugf("volume: master=%v track=%v effective=%v targets=%d", c.master, c.track, effective, len(targets))
	for _, t := range targets {
		t.SetVolume(effective)
	}
}
