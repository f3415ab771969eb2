package track

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/samber/mo"
	"github.com/truveris/track/bridge"
	"github.com/truveris/track/media"
)

// Command is an already tokenized instruction from the command queue.
type Command struct {
	Name string
	Args []string
	// Payload is everything after the name, untouched. media and play read it instead of Args.
	Payload string
}

// ParseCommand splits a command line into its name and whitespace separated arguments.
func ParseCommand(line string) (Command, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, false
	}

	name, payload := line, ""
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		name, payload = line[:i], line[i+1:]
	}
	payload = strings.TrimSpace(payload)

	return Command{Name: name, Args: strings.Fields(payload), Payload: payload}, true
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Exec carries out one command.
func (t *Track) Exec(cmd Command) error {
	switch strings.ToLower(cmd.Name) {
	case "media", "play":
		payload := cmd.Payload
		if payload == "" {
			payload = strings.Join(cmd.Args, " ")
		}
		pl, err := media.ParsePlaylist([]byte(payload))
		if err != nil {
			return fmt.Errorf("%s: %w", cmd.Name, err)
		}
		return t.Dispatch(pl)
	case "skip":
		return t.Skip()
	case "shutup", "stop":
		return t.Shutup()
	case "volume":
		level := mo.None[float64]()
		if len(cmd.Args) > 0 {
			v, err := strconv.ParseFloat(cmd.Args[0], 64)
			if err != nil {
				return fmt.Errorf("volume %q: %w", cmd.Args[0], err)
			}
			level = mo.Some(v)
		}
		return t.SetVolume(level)
	case "trackvolume":
		if len(cmd.Args) == 0 {
			return errors.New("trackvolume: missing level")
		}
		v, err := strconv.ParseFloat(cmd.Args[0], 64)
		if err != nil {
			return fmt.Errorf("trackvolume %q: %w", cmd.Args[0], err)
		}
		return t.SetTrackVolume(v)
	default:
		return fmt.Errorf("%w: %q", bridge.ErrUnknownCommand, cmd.Name)
	}
}
