package cmd

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/truveris/track/color"
	"github.com/truveris/track/constant"
	"github.com/truveris/track/style"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.SetOut(os.Stdout)
	versionCmd.Flags().BoolP("short", "s", false, "Print only the version string")
}

type versionInfo struct {
	App       string
	Version   string
	Revision  string
	BuiltAt   string
	GoVersion string
	OS        string
	Arch      string
}

// buildInfo fills in what the toolchain stamped into the binary.
func buildInfo() versionInfo {
	info := versionInfo{
		App:       constant.Track,
		Version:   constant.Version,
		Revision:  "unknown",
		BuiltAt:   "unknown",
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.time":
			info.BuiltAt = s.Value
		}
	}
	return info
}

var versionTemplate = lo.Must(template.New("version").Funcs(template.FuncMap{
	"faint":   style.Faint,
	"bold":    style.Bold,
	"magenta": style.Fg(color.Purple),
	"short": func(s string) string {
		return s[:min(len(s), 12)]
	},
}).Parse(`{{ magenta "▇▇▇" }} {{ magenta .App }}

  {{ faint "Version" }}         {{ bold .Version }}
  {{ faint "Git Commit" }}      {{ bold (short .Revision) }}
  {{ faint "Build Date" }}      {{ bold .BuiltAt }}
  {{ faint "Go" }}              {{ bold .GoVersion }}
  {{ faint "Platform" }}        {{ bold .OS }}/{{ bold .Arch }}
`))

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version and build metadata",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		var b strings.Builder
		handleErr(versionTemplate.Execute(&b, buildInfo()))
		cmd.Print(b.String())
	},
}
