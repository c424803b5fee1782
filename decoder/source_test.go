package decoder

import (
	"errors"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestValidateSource(t *testing.T) {
	Convey("Given a source string", t, func() {
		Convey("Empty and whitespace sources are unsupported", func() {
			_, err := ValidateSource("   ")
			So(errors.Is(err, ErrUnsupported), ShouldBeTrue)
		})

		Convey("Flag-like sources are rejected", func() {
			_, err := ValidateSource("--script=evil.lua")
			So(errors.Is(err, ErrUnsupported), ShouldBeTrue)
		})

		Convey("Control characters are rejected", func() {
			_, err := ValidateSource("song.mp3\nquit")
			So(errors.Is(err, ErrUnsupported), ShouldBeTrue)
		})

		Convey("Unknown schemes are rejected", func() {
			_, err := ValidateSource("bad://x")
			So(errors.Is(err, ErrUnsupported), ShouldBeTrue)
		})

		Convey("http and https URLs pass through unchanged", func() {
			s, err := ValidateSource("https://example.com/stream.mp3")
			So(err, ShouldBeNil)
			So(s, ShouldEqual, "https://example.com/stream.mp3")
			So(IsRemote(s), ShouldBeTrue)
		})

		Convey("file URLs become clean paths", func() {
			s, err := ValidateSource("file:///music/../music/a.flac")
			So(err, ShouldBeNil)
			So(s, ShouldEqual, filepath.Clean("/music/a.flac"))
			So(IsRemote(s), ShouldBeFalse)
		})

		Convey("Plain paths are cleaned", func() {
			s, err := ValidateSource("./music//a.mp3")
			So(err, ShouldBeNil)
			So(s, ShouldEqual, filepath.Clean("music/a.mp3"))
		})
	})
}

func TestHasAudioExtension(t *testing.T) {
	Convey("Audio extensions are matched case-insensitively", t, func() {
		So(HasAudioExtension("a.MP3"), ShouldBeTrue)
		So(HasAudioExtension("a.opus"), ShouldBeTrue)
		So(HasAudioExtension("a.txt"), ShouldBeFalse)
		So(HasAudioExtension("noext"), ShouldBeFalse)
	})
}
