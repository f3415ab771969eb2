// Package constant defines immutable application-level identifiers and protocol defaults.
package constant

import _ "embed"

const (
	// Track is the canonical application identifier used for filesystem paths and CLI branding.
	Track = "track"

	// Version is the current application semantic version string.
	Version = "0.3.0"
)

// Origins the track frame trusts out of the box.
const (
	// DefaultParentOrigin is the origin of a locally served channel page.
	DefaultParentOrigin = "http://localhost:8181"

	// VimeoOrigin is the origin the Vimeo player iframe posts its events from.
	VimeoOrigin = "https://player.vimeo.com"
)

// AsciiArtLogo is the banner shown atop the root command's help.
//
//go:embed ascii.txt
var AsciiArtLogo string
