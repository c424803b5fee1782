package config

import (
	"testing"
	"time"

	"github.com/auplay-cli/auplay/filesystem"
	"github.com/auplay-cli/auplay/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			err := Setup()
			So(err, ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
			So(viper.GetString(key.PlayerDecoder), ShouldEqual, "mpv")
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			result := EnvKeyReplacer.Replace("player.sample_interval")
			So(result, ShouldEqual, "player_sample_interval")
		})

		Convey("Env names carry the application prefix", func() {
			field := Default[key.PlayerDecoder]
			So(field.Env(), ShouldEqual, "AUPLAY_PLAYER_DECODER")
		})
	})
}

func TestMillis(t *testing.T) {
	Convey("Millis", t, func() {
		_ = Setup()

		Convey("Should read the configured value", func() {
			viper.Set(key.PlayerSampleInterval, 400)
			So(SampleInterval(), ShouldEqual, 400*time.Millisecond)
		})

		Convey("Should fall back to the default for non-positive values", func() {
			viper.Set(key.PlayerSampleInterval, 0)
			So(SampleInterval(), ShouldEqual, 250*time.Millisecond)
		})

		Reset(func() {
			viper.Set(key.PlayerSampleInterval, Default[key.PlayerSampleInterval].Value)
		})
	})
}
