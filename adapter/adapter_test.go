package adapter

import (
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/truveris/track/host"
	"github.com/truveris/track/host/hosttest"
	"github.com/truveris/track/media"
)

type owner struct {
	volume  float64
	started []Adapter
	shown   []Adapter
	hidden  []Adapter
	ended   []Adapter
	errors  []string
}

func (o *owner) Container() string           { return "bgTrack" }
func (o *owner) Volume() float64             { return o.volume }
func (o *owner) Started(a Adapter)           { o.started = append(o.started, a) }
func (o *owner) Shown(a Adapter)             { o.shown = append(o.shown, a) }
func (o *owner) Hidden(a Adapter)            { o.hidden = append(o.hidden, a) }
func (o *owner) Ended(a Adapter)             { o.ended = append(o.ended, a) }
func (o *owner) Errored(_ Adapter, s string) { o.errors = append(o.errors, s) }

func spawn(doc *hosttest.Document, o *owner, d media.Descriptor) Adapter {
	a, err := New(Env{Doc: doc, Owner: o}, d)
	So(err, ShouldBeNil)
	So(a.Spawn(), ShouldBeNil)
	return a
}

func element(doc *hosttest.Document, a Adapter) *hosttest.Element {
	for _, e := range doc.Media() {
		if e.ID() == a.ID() {
			return e
		}
	}
	return nil
}

func ev(a Adapter, typ string) host.Event {
	return host.Event{Target: a.ID(), Type: typ}
}

func TestNew(t *testing.T) {
	Convey("Unknown formats have no adapter", t, func() {
		_, err := New(Env{Doc: hosttest.New(), Owner: &owner{}}, media.Descriptor{Format: "flash", Src: "x.swf"})
		So(errors.Is(err, media.ErrUnknownFormat), ShouldBeTrue)
	})

	Convey("Element creation failures surface from Spawn", t, func() {
		doc := hosttest.New()
		doc.FailCreate = map[host.Kind]error{host.KindVideo: errors.New("boom")}
		a, err := New(Env{Doc: doc, Owner: &owner{}}, media.Descriptor{Format: media.Video, Src: "a.webm"})
		So(err, ShouldBeNil)
		So(a.Spawn(), ShouldNotBeNil)
	})
}

func TestNativeVideo(t *testing.T) {
	Convey("Given a bounded video", t, func() {
		doc := hosttest.New()
		o := &owner{volume: 50}
		a := spawn(doc, o, media.Descriptor{Format: media.Video, Src: "a.webm", Start: media.At(2), End: media.At(10)})
		el := element(doc, a)

		Convey("It is created hidden in the owner's container and starts loading", func() {
			So(el.Spec().Parent, ShouldEqual, "bgTrack")
			So(el.Hidden(), ShouldBeTrue)
			src, _ := el.Prop("src")
			So(src, ShouldEqual, "a.webm#t=2,10")
			vol, _ := el.Prop("volume")
			So(vol, ShouldEqual, 0.5)
			So(el.Called("load"), ShouldBeTrue)
		})

		Convey("It is shown once its duration is known", func() {
			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventDurationChange, Duration: 60})
			a.HandleEvent(ev(a, host.EventPlay))
			So(el.Hidden(), ShouldBeFalse)
			So(o.shown, ShouldHaveLength, 1)
		})

		Convey("Crossing the end boundary ends it exactly once", func() {
			a.HandleEvent(ev(a, host.EventPlay))
			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventTimeUpdate, Time: 9.5})
			So(o.ended, ShouldBeEmpty)

			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventTimeUpdate, Time: 10.1})
			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventTimeUpdate, Time: 10.3})
			a.HandleEvent(ev(a, host.EventEnded))
			So(o.ended, ShouldHaveLength, 1)
			So(el.Called("pause"), ShouldBeTrue)
			pos, _ := el.Prop("currentTime")
			So(pos, ShouldEqual, 2.0)
			So(el.Hidden(), ShouldBeTrue)
			So(o.hidden, ShouldHaveLength, 1)
		})

		Convey("In a solo loop it rewinds instead of ending", func() {
			a.SetSoloLoop(true)
			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventTimeUpdate, Time: 10})
			So(o.ended, ShouldBeEmpty)
			So(el.Calls("play"), ShouldHaveLength, 1)
			pos, _ := el.Prop("currentTime")
			So(pos, ShouldEqual, 2.0)
		})

		Convey("Play after an end resets the guard", func() {
			a.SeekToEnd()
			So(o.ended, ShouldHaveLength, 1)
			a.Play()
			a.SeekToEnd()
			So(o.ended, ShouldHaveLength, 2)
		})

		Convey("Destroy removes the element and silences late events", func() {
			a.HandleEvent(ev(a, host.EventPlay))
			a.Destroy()
			a.Destroy()
			So(el.Removed(), ShouldBeTrue)
			So(o.hidden, ShouldHaveLength, 1)

			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventTimeUpdate, Time: 20})
			a.SeekToEnd()
			a.SetVolume(10)
			So(o.ended, ShouldBeEmpty)
			So(a.Destroyed(), ShouldBeTrue)
		})
	})

	Convey("Given a video without an end", t, func() {
		doc := hosttest.New()
		o := &owner{volume: 100}
		a := spawn(doc, o, media.Descriptor{Format: media.Video, Src: "live.m3u8"})

		Convey("A finite duration becomes the end", func() {
			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventDurationChange, Duration: 30})
			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventTimeUpdate, Time: 30})
			So(o.ended, ShouldHaveLength, 1)
		})

		Convey("An infinite stream never crosses an end", func() {
			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventDurationChange, Infinite: true})
			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventTimeUpdate, Time: 1e9})
			So(o.ended, ShouldBeEmpty)
		})
	})
}

func TestNativeErrors(t *testing.T) {
	Convey("Media errors are classified", t, func() {
		doc := hosttest.New()
		o := &owner{}

		cases := []struct {
			code, network int
			want          string
		}{
			{host.MediaErrAborted, 0, "video file playback has been aborted"},
			{host.MediaErrNetwork, 0, "video file download halted due to network error"},
			{host.MediaErrDecode, 0, "video file could not be decoded"},
			{host.MediaErrSrcNotSupported, host.NetworkNoSource, "video file could not be found"},
			{host.MediaErrSrcNotSupported, 1, "video file format is not supported"},
		}
		for _, c := range cases {
			a := spawn(doc, o, media.Descriptor{Format: media.Video, Src: "a.webm"})
			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventError, Code: c.code, NetworkState: c.network})
			So(o.errors[len(o.errors)-1], ShouldEqual, c.want)
		}

		a := spawn(doc, o, media.Descriptor{Format: media.Audio, Src: "a.mp3"})
		a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventError, Code: host.MediaErrDecode})
		So(o.errors[len(o.errors)-1], ShouldEqual, "audio file could not be decoded")
	})
}

func TestNativeAudioAndImage(t *testing.T) {
	Convey("Audio reports that it started but never becomes visible", t, func() {
		doc := hosttest.New()
		o := &owner{}
		a := spawn(doc, o, media.Descriptor{Format: media.Audio, Src: "a.mp3"})

		a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventDurationChange, Duration: 3})
		a.HandleEvent(ev(a, host.EventPlay))
		So(o.started, ShouldHaveLength, 1)
		So(o.shown, ShouldBeEmpty)

		a.HandleEvent(ev(a, host.EventEnded))
		So(o.ended, ShouldHaveLength, 1)
		So(o.hidden, ShouldBeEmpty)
	})

	Convey("Images show on load and end only when skipped", t, func() {
		doc := hosttest.New()
		o := &owner{}
		a := spawn(doc, o, media.Descriptor{Format: media.Image, Src: "b.png"})
		el := element(doc, a)

		So(el.Spec().Kind, ShouldEqual, host.KindImage)
		a.HandleEvent(ev(a, host.EventLoad))
		So(o.shown, ShouldHaveLength, 1)

		a.SeekToEnd()
		So(o.ended, ShouldHaveLength, 1)
		So(o.hidden, ShouldHaveLength, 1)
	})
}

func TestNativePause(t *testing.T) {
	Convey("Given a playing audio clip", t, func() {
		doc := hosttest.New()
		o := &owner{}
		a := spawn(doc, o, media.Descriptor{Format: media.Audio, Src: "a.mp3"})
		a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventDurationChange, Duration: 3})
		a.HandleEvent(ev(a, host.EventPlay))

		Convey("A pause ends it once", func() {
			a.HandleEvent(ev(a, host.EventPause))
			So(o.ended, ShouldHaveLength, 1)

			a.HandleEvent(ev(a, host.EventEnded))
			a.HandleEvent(ev(a, host.EventPause))
			So(o.ended, ShouldHaveLength, 1)
		})

		Convey("A solo loop ignores it", func() {
			a.SetSoloLoop(true)
			a.HandleEvent(ev(a, host.EventPause))
			So(o.ended, ShouldBeEmpty)

			a.HandleEvent(ev(a, host.EventEnded))
			So(element(doc, a).Called("play"), ShouldBeTrue)
			So(o.ended, ShouldBeEmpty)
		})
	})

	Convey("Images have nothing to pause", t, func() {
		doc := hosttest.New()
		o := &owner{}
		a := spawn(doc, o, media.Descriptor{Format: media.Image, Src: "b.png"})
		a.HandleEvent(ev(a, host.EventLoad))
		a.HandleEvent(ev(a, host.EventPause))
		So(o.ended, ShouldBeEmpty)
	})
}

func TestWeb(t *testing.T) {
	Convey("A web page is framed and shown when loaded", t, func() {
		doc := hosttest.New()
		o := &owner{}
		a := spawn(doc, o, media.Descriptor{Format: media.Web, Src: "https://example.com"})
		el := element(doc, a)

		So(el.Spec().Kind, ShouldEqual, host.KindFrame)
		So(el.Spec().Attrs["src"], ShouldEqual, "https://example.com")

		a.HandleEvent(ev(a, host.EventLoad))
		So(o.shown, ShouldHaveLength, 1)

		a.SeekToEnd()
		a.SeekToEnd()
		So(o.ended, ShouldHaveLength, 1)
	})
}

func TestYouTube(t *testing.T) {
	Convey("Given a youtube adapter", t, func() {
		doc := hosttest.New()
		o := &owner{volume: 40}
		a := spawn(doc, o, media.Descriptor{Format: media.YouTube, Src: "dQw4w9WgXcQ", Start: media.At(5), End: media.At(15), Muted: true})
		el := element(doc, a)

		Convey("Volume waits for the player to be ready", func() {
			a.SetVolume(30)
			So(el.Called("setVolume"), ShouldBeFalse)

			a.HandleEvent(ev(a, host.EventReady))
			So(el.Calls("setVolume")[0].Args, ShouldResemble, []any{30})
			So(el.Called("mute"), ShouldBeTrue)

			load := el.Calls("loadVideoById")
			So(load, ShouldHaveLength, 1)
			So(load[0].Args[0], ShouldResemble, map[string]any{
				"videoId":      "dQw4w9WgXcQ",
				"startSeconds": 5.0,
				"endSeconds":   15.0,
			})
		})

		Convey("State changes drive visibility and the end", func() {
			a.HandleEvent(ev(a, host.EventReady))
			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventStateChange, Code: -1})
			So(el.Calls("setPlaybackQuality")[0].Args, ShouldResemble, []any{"highres"})
			So(el.Called("playVideo"), ShouldBeTrue)

			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventStateChange, Code: 1})
			So(o.shown, ShouldHaveLength, 1)

			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventStateChange, Code: 0})
			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventStateChange, Code: 0})
			So(o.ended, ShouldHaveLength, 1)
			So(o.hidden, ShouldHaveLength, 1)
		})

		Convey("Skipping before ready still ends it", func() {
			a.SeekToEnd()
			So(o.ended, ShouldHaveLength, 1)
			So(el.Called("seekTo"), ShouldBeFalse)
		})

		Convey("Errors map to readable messages", func() {
			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventError, Code: 150})
			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventError, Code: 42})
			So(o.errors, ShouldResemble, []string{
				"can't embed this youtube video",
				"unrecognized youtube error code 42",
			})
		})
	})
}

func TestVimeo(t *testing.T) {
	Convey("Given a vimeo adapter", t, func() {
		doc := hosttest.New()
		o := &owner{volume: 0}
		a := spawn(doc, o, media.Descriptor{Format: media.Vimeo, Src: "76979871"})
		el := element(doc, a)
		relay := a.(Relayer)

		methods := func() []string {
			var out []string
			for _, p := range doc.Posts(a.ID()) {
				var msg struct {
					Method string `json:"method"`
				}
				So(p.Decode(&msg), ShouldBeNil)
				out = append(out, msg.Method)
			}
			return out
		}

		Convey("The frame carries the player id", func() {
			src := el.Spec().Attrs["src"]
			So(strings.HasPrefix(src, "https://player.vimeo.com/video/76979871?"), ShouldBeTrue)
			So(src, ShouldContainSubstring, "player_id="+a.ID())
		})

		Convey("Nothing is posted before ready", func() {
			a.SetVolume(20)
			So(doc.Posts(a.ID()), ShouldBeEmpty)
		})

		Convey("Ready registers listeners and starts playback", func() {
			relay.HandleRelay(RelayMessage{Event: "ready", PlayerID: a.ID()})
			So(methods(), ShouldResemble, []string{
				"addEventListener", "addEventListener", "addEventListener",
				"setVolume", "getDuration", "seekTo", "play",
			})

			var vol struct {
				Value float64 `json:"value"`
			}
			So(doc.Posts(a.ID())[3].Decode(&vol), ShouldBeNil)
			So(vol.Value, ShouldEqual, MutedFloor)
			So(doc.Posts(a.ID())[0].Origin, ShouldEqual, "https://player.vimeo.com")
		})

		Convey("Progress past the resolved duration ends it", func() {
			relay.HandleRelay(RelayMessage{Event: "ready", PlayerID: a.ID()})
			relay.HandleRelay(RelayMessage{Method: "getDuration", Value: []byte(`"12.5"`), PlayerID: a.ID()})
			relay.HandleRelay(RelayMessage{Event: "play", PlayerID: a.ID()})
			So(o.shown, ShouldHaveLength, 1)

			relay.HandleRelay(RelayMessage{Event: "playProgress", Data: []byte(`{"seconds":6,"percent":0.5,"duration":12.5}`), PlayerID: a.ID()})
			So(o.ended, ShouldBeEmpty)

			relay.HandleRelay(RelayMessage{Event: "playProgress", Data: []byte(`{"seconds":12.5,"percent":1,"duration":12.5}`), PlayerID: a.ID()})
			relay.HandleRelay(RelayMessage{Event: "finish", PlayerID: a.ID()})
			So(o.ended, ShouldHaveLength, 1)
		})

		Convey("Finish in a solo loop replays", func() {
			relay.HandleRelay(RelayMessage{Event: "ready", PlayerID: a.ID()})
			a.SetSoloLoop(true)
			relay.HandleRelay(RelayMessage{Event: "finish", PlayerID: a.ID()})
			So(o.ended, ShouldBeEmpty)
			got := methods()
			So(got[len(got)-2:], ShouldResemble, []string{"seekTo", "play"})
		})
	})
}

func TestSoundCloud(t *testing.T) {
	Convey("Given a soundcloud adapter", t, func() {
		doc := hosttest.New()
		o := &owner{volume: 80}
		a := spawn(doc, o, media.Descriptor{Format: media.SoundCloud, Src: "https://soundcloud.com/a/b", Start: media.At(1)})
		el := element(doc, a)

		Convey("Ready binds events and asks for the duration", func() {
			a.HandleEvent(ev(a, host.EventReady))
			So(el.Calls("bind"), ShouldHaveLength, 3)
			So(el.Called("getDuration"), ShouldBeTrue)
			So(el.Calls("setVolume")[0].Args, ShouldResemble, []any{80.0})
			So(el.Calls("seekTo")[0].Args, ShouldResemble, []any{1000.0})
		})

		Convey("A zero volume is floored", func() {
			a.HandleEvent(ev(a, host.EventReady))
			a.SetVolume(0)
			calls := el.Calls("setVolume")
			So(calls[len(calls)-1].Args[0], ShouldBeGreaterThan, 0.0)
		})

		Convey("The reported duration becomes the end", func() {
			a.HandleEvent(ev(a, host.EventReady))
			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventDuration, Duration: 4000})
			a.HandleEvent(ev(a, host.EventPlay))
			So(o.started, ShouldHaveLength, 1)

			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventPlayProgress, Time: 3999})
			So(o.ended, ShouldBeEmpty)
			a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventPlayProgress, Time: 4000})
			So(o.ended, ShouldHaveLength, 1)
			So(el.Called("pause"), ShouldBeTrue)
		})
	})
}
