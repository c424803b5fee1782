package util

import (
	"testing"

	"github.com/auplay-cli/auplay/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "entry", "entries"), ShouldEqual, "1 entry")
		So(Quantify(2, "entry", "entries"), ShouldEqual, "2 entries")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("hello"), ShouldEqual, "Hello")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestFileStem(t *testing.T) {
	Convey("FileStem", t, func() {
		So(FileStem("path/to/song.flac"), ShouldEqual, "song")
		So(FileStem("song"), ShouldEqual, "song")
	})
}

func TestClamp(t *testing.T) {
	Convey("Clamp", t, func() {
		So(Clamp(5, 0, 3), ShouldEqual, 3)
		So(Clamp(-1, 0, 3), ShouldEqual, 0)
		So(Clamp(int64(2), 0, 3), ShouldEqual, 2)
	})
}

func TestFormatMillis(t *testing.T) {
	Convey("FormatMillis", t, func() {
		So(FormatMillis(0), ShouldEqual, "0:00")
		So(FormatMillis(-5), ShouldEqual, "0:00")
		So(FormatMillis(61_500), ShouldEqual, "1:01")
		So(FormatMillis(3_725_000), ShouldEqual, "1:02:05")
	})
}

func TestDelete(t *testing.T) {
	Convey("Delete removes files and directories", t, func() {
		fs := filesystem.API()
		So(fs.MkdirAll("/tmp/util/dir", 0o755), ShouldBeNil)
		f, err := fs.Create("/tmp/util/dir/file")
		So(err, ShouldBeNil)
		So(f.Close(), ShouldBeNil)

		So(Delete("/tmp/util/dir/file"), ShouldBeNil)
		So(Delete("/tmp/util"), ShouldBeNil)

		exists, err := fs.Exists("/tmp/util")
		So(err, ShouldBeNil)
		So(exists, ShouldBeFalse)
	})
}
