package filesystem

import (
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

func TestBackend(t *testing.T) {
	Convey("Given the in-memory backend", t, func() {
		SetMemMapFs()
		defer SetOsFs()

		So(API().Name(), ShouldEqual, "MemMapFS")

		Convey("Files written through API can be read back", func() {
			lo.Must0(API().WriteFile("/track/playlist.json", []byte(`{}`), 0o644))
			So(string(lo.Must(API().ReadFile("/track/playlist.json"))), ShouldEqual, "{}")
		})

		Convey("SetMemMapFs starts empty", func() {
			lo.Must0(API().WriteFile("/a", nil, 0o644))
			SetMemMapFs()
			So(lo.Must(API().Exists("/a")), ShouldBeFalse)
		})
	})

	Convey("Use installs a read-only view", t, func() {
		mem := afero.NewMemMapFs()
		lo.Must0(afero.WriteFile(mem, "/ro", []byte("x"), 0o644))
		Use(afero.NewReadOnlyFs(mem))
		defer SetOsFs()

		So(lo.Must(API().Exists("/ro")), ShouldBeTrue)
		So(API().WriteFile("/ro", []byte("y"), 0o644), ShouldNotBeNil)
	})
}
