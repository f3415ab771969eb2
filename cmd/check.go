package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/truveris/track/bridge"
	"github.com/truveris/track/color"
	"github.com/truveris/track/filesystem"
	"github.com/truveris/track/icon"
	"github.com/truveris/track/media"
	"github.com/truveris/track/style"
	"github.com/truveris/track/util"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

// checkCmd validates a playlist payload before it is posted to a track.
var checkCmd = &cobra.Command{
	Use:     "check [file]",
	Short:   "Validate a playlist or media descriptor payload",
	Long:    "Decode a playlist or a single media descriptor and report every item a track would refuse to play.",
	Args:    cobra.ExactArgs(1),
	Example: "  track check ./playlist.json",
	Run: func(cmd *cobra.Command, args []string) {
		pl, err := loadPlaylist(args[0])
		handleErr(err)

		problems := checkPlaylist(pl)
		for i, d := range pl.Items {
			if msg, ok := problems[i]; ok {
				cmd.Printf("%s %s %s\n", style.Fg(color.Red)(icon.Get(icon.Fail)), d, style.Faint(msg))
			} else {
				cmd.Printf("%s %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), d)
			}
		}

		if len(problems) > 0 {
			printProblems(len(problems), len(pl.Items))
			handleErr(errors.New("playlist has invalid items"))
		}

		cmd.Printf("%s %s\n", icon.Get(icon.Info), util.Quantify(len(pl.Items), "item", "items"))
	},
}

func loadPlaylist(path string) (media.Playlist, error) {
	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return media.Playlist{}, err
	}
	return media.ParsePlaylist(data)
}

// checkPlaylist maps the index of every invalid item to what is wrong with it.
func checkPlaylist(pl media.Playlist) map[int]string {
	problems := make(map[int]string)
	for i, d := range pl.Items {
		if err := d.Validate(); err != nil {
			problems[i] = err.Error()
		}
	}
	return problems
}

func printProblems(invalid, total int) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0).
		MaxWidth(util.TerminalWidth(80))

	title := style.New().Bold(true).Foreground(style.HiRed).Render(fmt.Sprintf("%s Invalid playlist", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf(
		"%s out of %d will be reported as %s and skipped.",
		util.Quantify(invalid, "item", "items"),
		total,
		bridge.Errored,
	))

	fmt.Println(box.Render(lipgloss.JoinVertical(lipgloss.Left, title, "\n", body)))
}
