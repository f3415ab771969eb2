// Package main is the entry point for track.
package main

import (
	"github.com/samber/lo"
	"github.com/truveris/track/cmd"
	"github.com/truveris/track/config"
	"github.com/truveris/track/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
