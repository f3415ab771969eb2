package cmd

import (
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/truveris/track/config"
	"github.com/truveris/track/filesystem"
	"github.com/truveris/track/key"
	"github.com/truveris/track/media"
	"github.com/truveris/track/where"
)

func TestCheckPlaylist(t *testing.T) {
	Convey("Given a playlist with a bad format and bad bounds", t, func() {
		pl, err := media.ParsePlaylist([]byte(`{"status":"media","mediaObjs":[
			{"format":"audio","src":"a.mp3"},
			{"format":"flash","src":"x.swf"},
			{"format":"video","src":"v.mp4","start":"10","end":"5"}
		]}`))
		So(err, ShouldBeNil)

		Convey("Only the invalid items are reported", func() {
			problems := checkPlaylist(pl)
			So(problems, ShouldHaveLength, 2)
			So(problems, ShouldContainKey, 1)
			So(problems, ShouldContainKey, 2)
			So(problems[1], ShouldContainSubstring, "unknown player type")
		})
	})
}

func TestLoadPlaylist(t *testing.T) {
	Convey("Given a descriptor file", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()
		lo.Must0(filesystem.API().WriteFile("/bg.json", []byte(`{"format":"video","src":"bg.mp4","loop":true}`), 0o644))

		Convey("It loads as a one-item looping playlist", func() {
			pl, err := loadPlaylist("/bg.json")
			So(err, ShouldBeNil)
			So(pl.Items, ShouldHaveLength, 1)
			So(pl.Loop, ShouldBeTrue)
			So(checkPlaylist(pl), ShouldBeEmpty)
		})

		Convey("A missing file is an error", func() {
			_, err := loadPlaylist("/missing.json")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestParseValue(t *testing.T) {
	Convey("parseValue follows the type of the default", t, func() {
		v, err := parseValue(config.Default[key.VolumeMaster], []string{"40"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 40)

		_, err = parseValue(config.Default[key.VolumeMaster], []string{"loud"})
		So(err, ShouldNotBeNil)

		v, err = parseValue(config.Default[key.LogsWrite], []string{"true"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, true)

		v, err = parseValue(config.Default[key.OriginsParent], []string{"http://a", "http://b"})
		So(err, ShouldBeNil)
		So(v, ShouldResemble, []string{"http://a", "http://b"})
	})
}

func TestEnvNames(t *testing.T) {
	Convey("envNames lists prefixed variables and the config path override", t, func() {
		names := envNames()
		So(names, ShouldContain, "TRACK_VOLUME_MASTER")
		So(names, ShouldContain, "TRACK_ORIGINS_PARENT")
		So(names, ShouldContain, where.EnvConfigPath)
	})
}
