package host

// Event types shared by the backends.
const (
	EventLoad           = "load"
	EventPlay           = "play"
	EventPause          = "pause"
	EventEnded          = "ended"
	EventTimeUpdate     = "timeupdate"
	EventDurationChange = "durationchange"
	EventError          = "error"

	// Embedded player widgets.
	EventReady        = "ready"
	EventStateChange  = "statechange"
	EventPlayProgress = "playProgress"
	EventFinish       = "finish"
	EventDuration     = "duration"
)

// Event is something a backend reported about one element.
type Event struct {
	Target string `json:"target"`
	Type   string `json:"type"`
	// Time is the current playback position in seconds.
	Time     float64 `json:"time,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	// Infinite is set for live streams whose duration never resolves.
	Infinite bool `json:"infinite,omitempty"`
	// Code carries media error codes, player state codes and player error codes.
	Code         int `json:"code,omitempty"`
	NetworkState int `json:"networkState,omitempty"`
}

// Native media error codes, as reported by HTMLMediaElement.error.code.
const (
	MediaErrAborted         = 1
	MediaErrNetwork         = 2
	MediaErrDecode          = 3
	MediaErrSrcNotSupported = 4
)

// NetworkNoSource is HTMLMediaElement.NETWORK_NO_SOURCE.
const NetworkNoSource = 3
