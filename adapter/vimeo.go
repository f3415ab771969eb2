package adapter

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/truveris/track/constant"
	"github.com/truveris/track/host"
	"github.com/truveris/track/log"
	"github.com/truveris/track/media"
)

// MutedFloor is the lowest volume, on a 0-1 scale, handed to players that treat zero as unset.
const MutedFloor = 0.001

// floored converts a [0,100] level to the 0-1 scale, never reaching zero.
func floored(level float64) float64 {
	return max(level/100, MutedFloor)
}

// RelayMessage is a player event posted by an embedded frame and relayed by the bridge.
type RelayMessage struct {
	Method   string          `json:"method,omitempty"`
	Event    string          `json:"event,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	PlayerID string          `json:"player_id"`
}

// Relayer is implemented by adapters whose events arrive through the bridge instead of the host.
type Relayer interface {
	HandleRelay(msg RelayMessage)
}

type vimeoProgress struct {
	Seconds  float64 `json:"seconds"`
	Percent  float64 `json:"percent"`
	Duration float64 `json:"duration"`
}

// Vimeo controls an embedded player purely through posted commands.
// Its player_id is the element id, which is how relayed events find their way back.
type Vimeo struct {
	*base
}

func NewVimeo(env Env, d media.Descriptor) Adapter {
	v := &Vimeo{base: newBase(env, d)}
	v.self = v
	return v
}

func (v *Vimeo) Spawn() error {
	query := url.Values{}
	query.Set("api", "1")
	query.Set("player_id", v.id)
	query.Set("autoplay", "0")
	query.Set("badge", "0")
	query.Set("byline", "0")
	query.Set("portrait", "0")
	query.Set("title", "0")

	return v.create(host.KindFrame, map[string]string{
		"class": "media",
		"src":   constant.VimeoOrigin + "/video/" + url.PathEscape(v.desc.Src) + "?" + query.Encode(),
		"allow": "autoplay; fullscreen",
	})
}

func (v *Vimeo) post(method string, value any) {
	if v.destroyed {
		return
	}

	msg := map[string]any{"method": method}
	if value != nil {
		msg["value"] = value
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Warnf("vimeo %s: encode %s: %v", v.id, method, err)
		return
	}
	if err := v.env.Doc.PostMessage(v.id, data, constant.VimeoOrigin); err != nil {
		log.Warnf("vimeo %s: post %s: %v", v.id, method, err)
	}
}

func (v *Vimeo) applyVolume() {
	if !v.ready {
		return
	}
	if v.desc.Muted {
		v.post("setVolume", MutedFloor)
		return
	}
	v.post("setVolume", floored(v.volume))
}

func (v *Vimeo) SetVolume(level float64) {
	v.volume = level
	v.applyVolume()
}

func (v *Vimeo) onReady() {
	v.ready = true
	for _, event := range []string{"play", "playProgress", "finish"} {
		v.post("addEventListener", event)
	}
	v.applyVolume()
	if !v.hasEnd {
		v.post("getDuration", nil)
	}
	v.post("seekTo", v.startTime)
	v.post("play", nil)
}

func (v *Vimeo) Play() {
	if v.destroyed || !v.ready {
		return
	}
	v.didEnd = false
	v.post("seekTo", v.startTime)
	v.post("play", nil)
}

func (v *Vimeo) finished() {
	if v.soloLoop {
		v.post("seekTo", v.startTime)
		v.post("play", nil)
		return
	}
	v.post("pause", nil)
	v.HasEnded()
}

func (v *Vimeo) SeekToEnd() {
	if v.destroyed {
		return
	}
	if !v.ready {
		v.HasEnded()
		return
	}
	if v.hasEnd {
		v.post("seekTo", v.endTime)
	}
	v.finished()
}

// HandleEvent only sees host-level events; player events arrive through HandleRelay.
func (v *Vimeo) HandleEvent(ev host.Event) {
	if v.destroyed {
		return
	}
	if ev.Type == host.EventError {
		v.HasErrored("vimeo player could not be loaded")
	}
}

func (v *Vimeo) HandleRelay(msg RelayMessage) {
	if v.destroyed {
		return
	}

	// Replies to getters carry the method name instead of an event.
	if msg.Method == "getDuration" {
		if d, ok := relayNumber(msg.Value); ok {
			v.resolveEnd(d)
		}
		return
	}

	switch msg.Event {
	case host.EventReady:
		v.onReady()
	case host.EventPlay:
		v.didEnd = false
		v.Show()
	case host.EventPlayProgress:
		var progress vimeoProgress
		if err := json.Unmarshal(msg.Data, &progress); err != nil {
			log.Debugf("vimeo %s: progress: %v", v.id, err)
			return
		}
		v.resolveEnd(progress.Duration)
		if v.hasEnd && progress.Seconds >= v.endTime {
			v.finished()
		}
	case host.EventFinish:
		v.finished()
	}
}

// relayNumber reads a number the player may have sent as a JSON number or a numeric string.
func relayNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		raw = []byte(s)
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	return f, err == nil
}
