// Package bridge is the cross-window protocol between a track and its parent.
//
// Inbound messages are filtered by origin before anything is parsed. Messages
// from the parent carry commands; messages from embedded players carry events
// that are relayed to the adapter registered under their player_id. Outbound,
// the bridge reports PLAYING, ENDED and ERRORED to the parent.
package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/truveris/track/adapter"
	"github.com/truveris/track/log"
	"github.com/truveris/track/media"
)

var (
	// ErrForbiddenOrigin is returned for messages from an origin that is not allowed to send them.
	ErrForbiddenOrigin = errors.New("forbidden origin")

	// ErrUnknownCommand is returned for command payloads naming no known command.
	ErrUnknownCommand = errors.New("unknown command")
)

// Commands a parent can send besides playlists.
const (
	CommandSkip        = "skip"
	CommandShutup      = "shutup"
	CommandVolume      = "volume"
	CommandTrackVolume = "trackVolume"
)

// Handler carries out parent commands.
type Handler interface {
	Dispatch(pl media.Playlist)
	Skip()
	Shutup()
	// SetVolume changes the master volume, or only re-applies it when no level is given.
	SetVolume(level mo.Option[float64])
	SetTrackVolume(level float64)
}

// Sender delivers notifications to the parent window.
type Sender interface {
	Send(n Notification) error
}

type envelope struct {
	PlayerID *string         `json:"player_id"`
	Command  string          `json:"command"`
	Value    json.RawMessage `json:"value"`
}

// Bridge routes inbound messages and emits notifications.
type Bridge struct {
	source  string
	handler Handler
	sender  Sender

	mu      sync.RWMutex
	parent  []string
	players []string

	relays map[string]adapter.Relayer
}

// New returns a bridge for the track named source.
func New(source string, parent, players []string, handler Handler, sender Sender) *Bridge {
	b := &Bridge{
		source:  source,
		handler: handler,
		sender:  sender,
		relays:  make(map[string]adapter.Relayer),
	}
	b.SetOrigins(parent, players)
	return b
}

func normalizeOrigins(origins []string) []string {
	return lo.Uniq(lo.FilterMap(origins, func(o string, _ int) (string, bool) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		return o, o != ""
	}))
}

// SetOrigins replaces both allow-lists.
func (b *Bridge) SetOrigins(parent, players []string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.parent = normalizeOrigins(parent)
	b.players = normalizeOrigins(players)
	log.Infof("bridge: parent origins %v, player origins %v", b.parent, b.players)
}

// AllowedParent reports whether origin may send commands.
func (b *Bridge) AllowedParent(origin string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return lo.Contains(b.parent, origin)
}

// AllowedPlayer reports whether origin may send relayed player events.
func (b *Bridge) AllowedPlayer(origin string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return lo.Contains(b.players, origin)
}

// Register routes relayed events carrying playerID to r.
func (b *Bridge) Register(playerID string, r adapter.Relayer) {
	b.relays[playerID] = r
}

func (b *Bridge) Unregister(playerID string) {
	delete(b.relays, playerID)
}

// Receive handles one window message. Messages from origins outside both allow-lists
// are dropped before their data is looked at.
func (b *Bridge) Receive(origin string, data []byte) error {
	fromParent, fromPlayer := b.AllowedParent(origin), b.AllowedPlayer(origin)
	if !fromParent && !fromPlayer {
		return fmt.Errorf("%w: %q", ErrForbiddenOrigin, origin)
	}

	data, err := unwrap(data)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}

	if env.PlayerID != nil {
		if !fromPlayer {
			return fmt.Errorf("%w: %q may not relay player events", ErrForbiddenOrigin, origin)
		}
		return b.relay(*env.PlayerID, data)
	}

	if !fromParent {
		return fmt.Errorf("%w: %q may not send commands", ErrForbiddenOrigin, origin)
	}

	if env.Command != "" {
		return b.command(env)
	}

	pl, err := media.ParsePlaylist(data)
	if err != nil {
		return err
	}
	b.handler.Dispatch(pl)
	return nil
}

// unwrap accepts messages posted as serialized strings, which is how embedded players send them.
func unwrap(data []byte) ([]byte, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '"' {
		return data, nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return []byte(s), nil
}

func (b *Bridge) relay(playerID string, data []byte) error {
	r, ok := b.relays[playerID]
	if !ok {
		log.Debugf("bridge: no player registered as %q", playerID)
		return nil
	}

	var msg adapter.RelayMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decode relayed event: %w", err)
	}
	r.HandleRelay(msg)
	return nil
}

func (b *Bridge) command(env envelope) error {
	switch env.Command {
	case CommandSkip:
		b.handler.Skip()
	case CommandShutup:
		b.handler.Shutup()
	case CommandVolume:
		level, err := ParseLevel(env.Value)
		if err != nil {
			return err
		}
		b.handler.SetVolume(level)
	case CommandTrackVolume:
		level, err := ParseLevel(env.Value)
		if err != nil {
			return err
		}
		v, ok := level.Get()
		if !ok {
			return fmt.Errorf("%s: missing value", CommandTrackVolume)
		}
		b.handler.SetTrackVolume(v)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, env.Command)
	}
	return nil
}

// ParseLevel reads a volume given as a JSON number or numeric string. null and "" mean no level.
func ParseLevel(raw json.RawMessage) (mo.Option[float64], error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return mo.None[float64](), nil
	}

	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return mo.None[float64](), fmt.Errorf("volume: %w", err)
		}
		if s = strings.TrimSpace(s); s == "" {
			return mo.None[float64](), nil
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return mo.None[float64](), fmt.Errorf("volume %q: %w", s, err)
	}
	return mo.Some(v), nil
}

// Notify reports a state change to the parent on behalf of source.
// An empty source falls back to the name the bridge was created with.
func (b *Bridge) Notify(source string, state PlayerState, submessage string) {
	if source == "" {
		source = b.source
	}
	n := Notification{Source: source, PlayerState: state, Submessage: submessage}
	log.With(log.Fields{"source": source, "submessage": submessage}).Infof("notify %s", state)

	if b.sender == nil {
		return
	}
	if err := b.sender.Send(n); err != nil {
		log.Warnf("bridge: send %s: %v", state, err)
	}
}
