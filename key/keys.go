// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Server - these keys define where the renderer connects.
const (
	ServerAddr = "server.addr"
	ServerPath = "server.path"
)

// Origins - these keys hold the allow-lists consulted before any inbound message is parsed.
const (
	OriginsParent  = "origins.parent"
	OriginsPlayers = "origins.players"
)

// Volume - these keys seed the master/track cascade at startup.
const (
	VolumeMaster = "volume.master"
	VolumeTrack  = "volume.track"
)

// Track - these keys identify the frame and govern its failure handling.
const (
	TrackName        = "track.name"
	TrackRoot        = "track.root"
	TrackErrorPolicy = "track.error_policy"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-server application behavior.
const (
	CliColored = "cli.colored"
)
