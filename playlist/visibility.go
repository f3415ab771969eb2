package playlist

import "github.com/truveris/track/adapter"

// Visibility is the set of adapters currently showing content, across every playlist of a track.
type Visibility struct {
	shown map[adapter.Adapter]struct{}
}

func NewVisibility() *Visibility {
	return &Visibility{shown: make(map[adapter.Adapter]struct{})}
}

// Show adds a and reports whether the track went from showing nothing to showing something.
func (v *Visibility) Show(a adapter.Adapter) bool {
	was := len(v.shown)
	v.shown[a] = struct{}{}
	return was == 0 && len(v.shown) == 1
}

// Hide removes a and reports whether nothing is visible anymore.
func (v *Visibility) Hide(a adapter.Adapter) bool {
	if _, ok := v.shown[a]; !ok {
		return false
	}
	delete(v.shown, a)
	return len(v.shown) == 0
}

func (v *Visibility) Empty() bool {
	return len(v.shown) == 0
}

func (v *Visibility) Len() int {
	return len(v.shown)
}
