package player

import (
	"errors"
	"fmt"
	"time"

	"github.com/auplay-cli/auplay/config"
	"github.com/auplay-cli/auplay/decoder"
	"github.com/auplay-cli/auplay/key"
	"github.com/spf13/viper"
)

// Options configure an engine session.
type Options struct {
	// Factory creates decoder handles. Required.
	Factory decoder.Factory

	// SampleInterval is the progress cadence while playing.
	SampleInterval time.Duration

	// BufferRampStep is the simulated buffering increase per sample, in percent.
	BufferRampStep int
}

// OptionsFromConfig builds options from player.* settings.
func OptionsFromConfig() (Options, error) {
	factory, err := decoder.FromConfig()
	if err != nil {
		return Options{}, fmt.Errorf("decoder: %w", err)
	}

	return Options{
		Factory:        factory,
		SampleInterval: config.SampleInterval(),
		BufferRampStep: viper.GetInt(key.PlayerBufferRampStep),
	}, nil
}

func (o Options) validate() error {
	if o.Factory == nil {
		return errors.New("no decoder factory")
	}
	return nil
}
