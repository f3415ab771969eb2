package playlist

import (
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/truveris/track/adapter"
	"github.com/truveris/track/host"
	"github.com/truveris/track/host/hosttest"
	"github.com/truveris/track/media"
)

type stage struct {
	doc      *hosttest.Document
	vis      *Visibility
	notes    []string
	errors   []string
	attached map[string]adapter.Adapter
	drained  []*Playlist
	sources  []string
	volume   float64
}

func newStage() *stage {
	return &stage{
		doc:      hosttest.New(),
		vis:      NewVisibility(),
		attached: make(map[string]adapter.Adapter),
		volume:   100,
	}
}

func (s *stage) Document() host.Document  { return s.doc }
func (s *stage) Root() string             { return "track" }
func (s *stage) Volume() float64          { return s.volume }
func (s *stage) Attach(a adapter.Adapter) { s.attached[a.ID()] = a }
func (s *stage) Detach(a adapter.Adapter) { delete(s.attached, a.ID()) }
func (s *stage) Hidden(a adapter.Adapter) { s.vis.Hide(a) }
func (s *stage) Errored(p *Playlist, submessage string) {
	s.sources = append(s.sources, p.Track())
	s.notes = append(s.notes, "ERRORED")
	s.errors = append(s.errors, submessage)
}

func (s *stage) Started(*Playlist, adapter.Adapter) {
	if s.vis.Empty() {
		s.notes = append(s.notes, "PLAYING")
	}
}

func (s *stage) Shown(p *Playlist, a adapter.Adapter) {
	if s.vis.Show(a) {
		s.sources = append(s.sources, p.Track())
		s.notes = append(s.notes, "PLAYING")
	}
}

func (s *stage) Drained(p *Playlist, announce bool) {
	s.drained = append(s.drained, p)
	if announce && s.vis.Empty() {
		s.notes = append(s.notes, "ENDED")
	}
}

func (s *stage) count(note string) int {
	return lo.Count(s.notes, note)
}

func (s *stage) start(loop bool, items ...media.Descriptor) *Playlist {
	p := New(s, media.Playlist{Status: media.StatusMedia, Track: "bgTrack", Loop: loop, Items: items}, PolicyReport)
	So(p.Start(), ShouldBeNil)
	return p
}

func fire(a adapter.Adapter, typ string) {
	a.HandleEvent(host.Event{Target: a.ID(), Type: typ})
}

func active(p *Playlist) adapter.Adapter {
	players := p.Players()
	So(players, ShouldNotBeEmpty)
	return players[len(players)-1]
}

func img(src string) media.Descriptor {
	return media.Descriptor{Format: media.Image, Src: src}
}

func video(src string) media.Descriptor {
	return media.Descriptor{Format: media.Video, Src: src, End: media.At(10)}
}

func TestSequence(t *testing.T) {
	Convey("Given a non looping playlist of three items", t, func() {
		s := newStage()
		p := s.start(false, video("a.webm"), video("b.webm"), img("c.png"))

		So(p.State(), ShouldEqual, Filling)
		So(p.Players(), ShouldHaveLength, 1)
		So(p.Pending(), ShouldEqual, 2)

		Convey("Each end spawns the next and evicts the previous", func() {
			first := active(p)
			fire(first, host.EventPlay)
			first.HandleEvent(host.Event{Target: first.ID(), Type: host.EventTimeUpdate, Time: 10})

			So(first.Destroyed(), ShouldBeTrue)
			So(p.Players(), ShouldHaveLength, 1)
			So(s.attached, ShouldNotContainKey, first.ID())

			second := active(p)
			fire(second, host.EventPlay)
			fire(second, host.EventEnded)

			third := active(p)
			fire(third, host.EventLoad)
			So(s.count("ENDED"), ShouldEqual, 0)

			So(p.Skip(), ShouldBeTrue)
			So(p.State(), ShouldEqual, Drained)
			So(s.count("ENDED"), ShouldEqual, 1)
			So(s.doc.Live(host.KindVideo), ShouldBeEmpty)
			So(s.doc.Live(host.KindImage), ShouldBeEmpty)
			So(s.doc.Live(host.KindContainer), ShouldBeEmpty)
			So(s.drained, ShouldHaveLength, 1)
		})

		Convey("Every item plays before ENDED", func() {
			for p.State() != Drained {
				p.Skip()
			}
			So(s.doc.Created(host.KindVideo), ShouldHaveLength, 2)
			So(s.doc.Created(host.KindImage), ShouldHaveLength, 1)
			So(s.count("ENDED"), ShouldEqual, 1)
			So(p.Skip(), ShouldBeFalse)
		})
	})
}

func TestTrackName(t *testing.T) {
	Convey("Reports are made on behalf of the playlist that carries the track name", t, func() {
		s := newStage()
		p := s.start(false, media.Descriptor{Format: "flash", Src: "x.swf"}, img("a.png"))
		So(p.Track(), ShouldEqual, "bgTrack")

		fire(active(p), host.EventLoad)
		So(s.notes, ShouldResemble, []string{"ERRORED", "PLAYING"})
		So(s.sources, ShouldResemble, []string{"bgTrack", "bgTrack"})

		So(p.Skip(), ShouldBeTrue)
		So(s.drained, ShouldResemble, []*Playlist{p})
	})
}

func TestSoloLoop(t *testing.T) {
	Convey("Given a single item looping playlist", t, func() {
		s := newStage()
		p := s.start(true, video("a.webm"))
		a := active(p)

		So(a.SoloLoop(), ShouldBeTrue)
		So(p.State(), ShouldEqual, Looping)

		Convey("It loops in place without respawning or ending", func() {
			fire(a, host.EventPlay)
			for i := 0; i < 5; i++ {
				a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventTimeUpdate, Time: 10})
				fire(a, host.EventEnded)
			}
			So(s.doc.Created(host.KindVideo), ShouldHaveLength, 1)
			So(s.count("PLAYING"), ShouldEqual, 1)
			So(s.count("ENDED"), ShouldEqual, 0)
			So(a.Destroyed(), ShouldBeFalse)
		})

		Convey("Skipping restarts the same adapter", func() {
			fire(a, host.EventPlay)
			So(p.Skip(), ShouldBeTrue)
			So(s.doc.Created(host.KindVideo), ShouldHaveLength, 1)
			So(active(p), ShouldEqual, a)
			So(a.SoloLoop(), ShouldBeTrue)
			So(p.State(), ShouldEqual, Looping)
			So(s.count("ENDED"), ShouldEqual, 0)
		})

		Convey("Stop drains it silently", func() {
			fire(a, host.EventPlay)
			p.Stop()
			So(a.Destroyed(), ShouldBeTrue)
			So(p.State(), ShouldEqual, Drained)
			So(s.count("ENDED"), ShouldEqual, 0)
			So(s.vis.Empty(), ShouldBeTrue)
		})
	})
}

func TestLoopRotation(t *testing.T) {
	Convey("Given a looping playlist of two images", t, func() {
		s := newStage()
		p := s.start(true, img("a.png"), img("b.png"))
		a := active(p)

		So(a.SoloLoop(), ShouldBeFalse)
		p.Skip()
		b := active(p)

		Convey("The first item is retained once the second spawns", func() {
			So(a.Destroyed(), ShouldBeFalse)
			So(p.Players(), ShouldResemble, []adapter.Adapter{a, b})
			So(p.State(), ShouldEqual, Looping)
		})

		Convey("Exhausting the items rotates the oldest back in", func() {
			p.Skip()
			So(p.Players(), ShouldResemble, []adapter.Adapter{b, a})
			So(s.doc.Created(host.KindImage), ShouldHaveLength, 2)

			p.Skip()
			So(p.Players(), ShouldResemble, []adapter.Adapter{a, b})
			So(s.count("ENDED"), ShouldEqual, 0)
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Unknown formats produce one ERRORED and no adapter", t, func() {
		flash := media.Descriptor{Format: "flash", Src: "x.swf"}

		Convey("First", func() {
			s := newStage()
			p := s.start(false, flash, img("a.png"))
			So(s.notes, ShouldResemble, []string{"ERRORED"})
			So(s.errors, ShouldResemble, []string{"unknown player type"})
			So(p.Players(), ShouldHaveLength, 1)
			So(s.doc.Media(), ShouldHaveLength, 1)
		})

		Convey("Middle", func() {
			s := newStage()
			p := s.start(false, img("a.png"), flash, img("b.png"))
			p.Skip()
			So(s.count("ERRORED"), ShouldEqual, 1)
			So(s.doc.Created(host.KindImage), ShouldHaveLength, 2)
			So(p.State(), ShouldEqual, Filling)
		})

		Convey("Last", func() {
			s := newStage()
			p := s.start(false, img("a.png"), flash)
			p.Skip()
			So(s.notes, ShouldResemble, []string{"ERRORED", "ENDED"})
			So(p.State(), ShouldEqual, Drained)
		})

		Convey("Only", func() {
			s := newStage()
			p := s.start(false, flash)
			So(s.notes, ShouldResemble, []string{"ERRORED", "ENDED"})
			So(p.State(), ShouldEqual, Drained)
		})
	})

	Convey("Invalid bounds are reported and skipped", t, func() {
		s := newStage()
		bad := media.Descriptor{Format: media.Video, Src: "a.webm", Start: media.At(9), End: media.At(3)}
		p := s.start(false, bad, img("b.png"))
		So(s.count("ERRORED"), ShouldEqual, 1)
		So(s.doc.Created(host.KindVideo), ShouldBeEmpty)
		So(p.Players(), ShouldHaveLength, 1)
	})

	Convey("A backend error drops the adapter and advances", t, func() {
		s := newStage()
		p := s.start(false, video("a.webm"), img("b.png"))
		a := active(p)

		a.HandleEvent(host.Event{Target: a.ID(), Type: host.EventError, Code: host.MediaErrNetwork})
		So(s.errors, ShouldResemble, []string{"video file download halted due to network error"})
		So(a.Destroyed(), ShouldBeTrue)
		So(active(p).Descriptor().Format, ShouldEqual, media.Image)
	})

	Convey("A failing element creation counts as an errored item", t, func() {
		s := newStage()
		s.doc.FailCreate = map[host.Kind]error{host.KindVideo: host.ErrRemoved}
		p := s.start(false, video("a.webm"), img("b.png"))
		So(s.count("ERRORED"), ShouldEqual, 1)
		So(p.Players(), ShouldHaveLength, 1)
		So(s.attached, ShouldHaveLength, 1)
	})

	Convey("The suppress policy lets ERRORED stand in for ENDED", t, func() {
		s := newStage()
		p := New(s, media.Playlist{Items: []media.Descriptor{img("a.png"), {Format: "flash", Src: "x"}}}, PolicySuppress)
		So(p.Start(), ShouldBeNil)
		p.Skip()
		So(s.notes, ShouldResemble, []string{"ERRORED"})
		So(s.drained, ShouldHaveLength, 1)
	})

	Convey("The suppress policy still announces a clean drain", t, func() {
		s := newStage()
		p := New(s, media.Playlist{Items: []media.Descriptor{img("a.png")}}, PolicySuppress)
		So(p.Start(), ShouldBeNil)
		p.Skip()
		So(s.notes, ShouldResemble, []string{"ENDED"})
	})
}

func TestVolume(t *testing.T) {
	Convey("SetVolume reaches every live adapter", t, func() {
		s := newStage()
		s.volume = 30
		p := s.start(true, video("a.webm"), video("b.webm"))
		p.Skip()

		p.SetVolume(60)
		for _, el := range s.doc.Live(host.KindVideo) {
			v, _ := el.Prop("volume")
			So(v, ShouldEqual, 0.6)
		}
		So(s.doc.Live(host.KindVideo), ShouldHaveLength, 2)
	})
}

func TestAudioThenImage(t *testing.T) {
	Convey("Given an audio clip followed by an image", t, func() {
		s := newStage()
		p := s.start(false,
			media.Descriptor{Format: media.Audio, Src: "a.mp3"},
			media.Descriptor{Format: media.Image, Src: "b.png"},
		)
		audio := active(p)
		fire(audio, host.EventPlay)
		So(s.notes, ShouldResemble, []string{"PLAYING"})

		fire(audio, host.EventEnded)
		So(audio.Destroyed(), ShouldBeTrue)
		image := active(p)
		So(image.Descriptor().Src, ShouldEqual, "b.png")
		fire(image, host.EventLoad)

		p.Skip()
		So(s.count("ENDED"), ShouldEqual, 1)
		So(s.notes[len(s.notes)-1], ShouldEqual, "ENDED")
	})
}

func TestParsePolicy(t *testing.T) {
	Convey("ParsePolicy", t, func() {
		p, err := ParsePolicy(" Suppress ")
		So(err, ShouldBeNil)
		So(p, ShouldEqual, PolicySuppress)

		_, err = ParsePolicy("ignore")
		So(err, ShouldNotBeNil)
	})
}

func TestVisibility(t *testing.T) {
	Convey("Visibility tracks the first and last visible adapters", t, func() {
		s := newStage()
		p := s.start(true, img("a.png"), img("b.png"))
		a := active(p)
		p.Skip()
		b := active(p)

		v := NewVisibility()
		So(v.Show(a), ShouldBeTrue)
		So(v.Show(b), ShouldBeFalse)
		So(v.Show(b), ShouldBeFalse)
		So(v.Len(), ShouldEqual, 2)
		So(v.Hide(a), ShouldBeFalse)
		So(v.Hide(a), ShouldBeFalse)
		So(v.Hide(b), ShouldBeTrue)
		So(v.Empty(), ShouldBeTrue)
	})
}
