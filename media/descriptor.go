package media

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/samber/mo"
)

var (
	// ErrUnknownFormat is returned for descriptors no backend can render.
	ErrUnknownFormat = errors.New("unknown player type")

	// ErrInvalidBounds is returned when a descriptor ends before it starts.
	ErrInvalidBounds = errors.New("end must not be before start")

	// ErrMissingSource is returned for descriptors without a src.
	ErrMissingSource = errors.New("missing src")
)

// Bound is an optional offset into a media timeline, in seconds.
// On the wire it is a numeric string ("12.5"), a number, an empty string or null.
type Bound struct {
	mo.Option[float64]
}

// At returns a present bound.
func At(seconds float64) Bound {
	return Bound{mo.Some(seconds)}
}

// Unset returns an absent bound.
func Unset() Bound {
	return Bound{mo.None[float64]()}
}

func (b Bound) MarshalJSON() ([]byte, error) {
	v, ok := b.Get()
	if !ok {
		return []byte(`""`), nil
	}
	return json.Marshal(strconv.FormatFloat(v, 'f', -1, 64))
}

func (b *Bound) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = Unset()
		return nil
	}

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		*b = Unset()
		return nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("bound %q: %w", raw, err)
	}
	*b = At(v)
	return nil
}

// JSONSchema describes the accepted wire forms.
func (Bound) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string", Pattern: `^\s*([0-9]*\.)?[0-9]*\s*$`},
			{Type: "number", Minimum: json.Number("0")},
			{Type: "null"},
		},
		Description: "Offset in seconds; empty or absent means the natural boundary of the media",
	}
}

// Descriptor is one playable item. It is treated as immutable once dispatched.
type Descriptor struct {
	Format Format `json:"format" jsonschema:"required,enum=video,enum=audio,enum=img,enum=web,enum=youtube,enum=vimeo,enum=soundcloud"`
	Src    string `json:"src" jsonschema:"required"`
	Start  Bound  `json:"start"`
	End    Bound  `json:"end"`
	Muted  bool   `json:"muted"`
	Loop   bool   `json:"loop"`
}

// StartTime resolves the start bound, defaulting to the beginning of the media.
func (d Descriptor) StartTime() float64 {
	return d.Start.OrElse(0)
}

// Validate checks the invariants a descriptor must hold before a backend is chosen for it.
func (d Descriptor) Validate() error {
	if !d.Format.Known() {
		return fmt.Errorf("%w: %s", ErrUnknownFormat, d.Format)
	}

	if strings.TrimSpace(d.Src) == "" {
		return ErrMissingSource
	}

	if d.StartTime() < 0 {
		return fmt.Errorf("%w: start %v is negative", ErrInvalidBounds, d.StartTime())
	}

	if end, ok := d.End.Get(); ok && end < d.StartTime() {
		return fmt.Errorf("%w: %v < %v", ErrInvalidBounds, end, d.StartTime())
	}

	return nil
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s:%s", d.Format, d.Src)
}

// Parse decodes a single descriptor payload.
func Parse(data []byte) (Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return Descriptor{}, fmt.Errorf("decode descriptor: %w", err)
	}
	return d, nil
}
