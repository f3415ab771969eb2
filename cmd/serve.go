package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/truveris/track/color"
	"github.com/truveris/track/config"
	"github.com/truveris/track/host/remote"
	"github.com/truveris/track/icon"
	"github.com/truveris/track/key"
	"github.com/truveris/track/log"
	"github.com/truveris/track/playlist"
	"github.com/truveris/track/style"
	"github.com/truveris/track/track"
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", "", "Address the renderer endpoint listens on")
	lo.Must0(viper.BindPFlag(key.ServerAddr, serveCmd.Flags().Lookup("addr")))

	serveCmd.Flags().String("path", "", "HTTP path of the renderer endpoint")
	lo.Must0(viper.BindPFlag(key.ServerPath, serveCmd.Flags().Lookup("path")))

	serveCmd.Flags().StringP("name", "n", "", "Name reported as the source of notifications")
	lo.Must0(viper.BindPFlag(key.TrackName, serveCmd.Flags().Lookup("name")))

	serveCmd.Flags().StringSliceP("parent-origin", "p", nil, "Origins allowed to send playback commands")
	lo.Must0(viper.BindPFlag(key.OriginsParent, serveCmd.Flags().Lookup("parent-origin")))

	serveCmd.Flags().StringSlice("player-origin", nil, "Player origins allowed to relay backend events")
	lo.Must0(viper.BindPFlag(key.OriginsPlayers, serveCmd.Flags().Lookup("player-origin")))

	serveCmd.Flags().Int("volume", 0, "Initial master volume")
	lo.Must0(viper.BindPFlag(key.VolumeMaster, serveCmd.Flags().Lookup("volume")))

	serveCmd.Flags().Int("track-volume", 0, "Initial track volume")
	lo.Must0(viper.BindPFlag(key.VolumeTrack, serveCmd.Flags().Lookup("track-volume")))

	serveCmd.Flags().String("error-policy", "", "What a failing last item announces (report, suppress)")
	lo.Must0(viper.BindPFlag(key.TrackErrorPolicy, serveCmd.Flags().Lookup("error-policy")))
	lo.Must0(serveCmd.RegisterFlagCompletionFunc("error-policy", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{string(playlist.PolicyReport), string(playlist.PolicySuppress)}, cobra.ShellCompDirectiveNoFileComp
	}))

	serveCmd.Flags().BoolP("console", "c", false, "Read commands such as skip, shutup or volume 50 from stdin")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the track and wait for a renderer to connect",
	Long: `Run the playback engine and serve the websocket endpoint the renderer page connects to.
Window messages, element events and entry point calls arrive over that connection; element operations
and parent notifications go back through it.`,
	Example: "  track serve --addr 127.0.0.1:8282 --parent-origin http://localhost:8181",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := trackOptions()
		handleErr(err)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		handleErr(serve(ctx, opts, viper.GetString(key.ServerAddr), lo.Must(cmd.Flags().GetBool("console"))))
	},
}

// trackOptions reads the track settings from the active configuration.
func trackOptions() (track.Options, error) {
	policy, err := playlist.ParsePolicy(viper.GetString(key.TrackErrorPolicy))
	if err != nil {
		return track.Options{}, err
	}

	return track.Options{
		Name:          viper.GetString(key.TrackName),
		Root:          viper.GetString(key.TrackRoot),
		ParentOrigins: viper.GetStringSlice(key.OriginsParent),
		PlayerOrigins: viper.GetStringSlice(key.OriginsPlayers),
		MasterVolume:  viper.GetFloat64(key.VolumeMaster),
		TrackVolume:   viper.GetFloat64(key.VolumeTrack),
		Policy:        policy,
	}, nil
}

func serve(ctx context.Context, opts track.Options, addr string, console bool) error {
	var tr *track.Track

	srv := remote.New(remote.Options{
		Path:        viper.GetString(key.ServerPath),
		AllowOrigin: func(origin string) bool { return tr.AllowedParent(origin) },
	})
	tr = track.New(srv, srv, opts)
	srv.Attach(tr)

	master, trackVolume := opts.MasterVolume, opts.TrackVolume
	config.Watch(func() {
		tr.SetOrigins(
			viper.GetStringSlice(key.OriginsParent),
			viper.GetStringSlice(key.OriginsPlayers),
		)

		// Only volumes edited in the file override what the parent has set since.
		if v := viper.GetFloat64(key.VolumeMaster); v != master {
			master = v
			logErr(tr.SetVolume(mo.Some(v)))
		}
		if v := viper.GetFloat64(key.VolumeTrack); v != trackVolume {
			trackVolume = v
			logErr(tr.SetTrackVolume(v))
		}
	})

	fmt.Printf(
		"%s %s serving on %s\n",
		style.Fg(color.Green)(icon.Get(icon.Play)),
		style.Fg(color.Purple)(tr.Name()),
		style.Fg(color.Yellow)(addr+viper.GetString(key.ServerPath)),
	)

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		if err := tr.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		return srv.ListenAndServe(ctx, addr)
	})
	if console {
		go readConsole(ctx, tr, os.Stdin)
	}

	err := p.Wait()
	fmt.Printf("%s %s stopped\n", style.Fg(color.Red)(icon.Get(icon.Stop)), tr.Name())
	return err
}

// readConsole executes one command per line until r is exhausted or ctx is done.
func readConsole(ctx context.Context, tr *track.Track, r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		c, ok := track.ParseCommand(scanner.Text())
		if !ok {
			continue
		}

		if err := tr.Exec(c); err != nil {
			fmt.Printf("%s %s\n", style.Fg(color.Red)(icon.Get(icon.Fail)), err)
			continue
		}
		fmt.Printf("%s %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), c)
	}
}

func logErr(err error) {
	if err != nil {
		log.Warn(err)
	}
}
