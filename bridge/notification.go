package bridge

// PlayerState is what a notification reports.
type PlayerState string

const (
	// Playing is sent when the track starts showing content.
	Playing PlayerState = "PLAYING"
	// Ended is sent once nothing is visible anymore.
	Ended   PlayerState = "ENDED"
	Errored PlayerState = "ERRORED"
)

// Notification is the message a track posts to its parent.
type Notification struct {
	Source      string      `json:"source"`
	PlayerState PlayerState `json:"playerState"`
	Submessage  string      `json:"submessage,omitempty"`
}
