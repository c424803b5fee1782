// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/auplay-cli/auplay/constant"
	"github.com/auplay-cli/auplay/filesystem"
	"github.com/auplay-cli/auplay/key"
	"github.com/auplay-cli/auplay/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer is a strings.Replacer used to normalize configuration keys into environment variable naming conventions.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup initializes the global configuration state, including defaults, environment bindings, and localized file resolution.
func Setup() error {
	viper.SetConfigName(constant.Auplay)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Auplay)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return nil
}

// Millis reads an integer millisecond setting as a duration.
// Non-positive values fall back to the registered default.
func Millis(k string) time.Duration {
	ms := viper.GetInt(k)
	if ms <= 0 {
		if field, ok := Default[k]; ok {
			if v, ok := field.Value.(int); ok {
				ms = v
			}
		}
	}
	return time.Duration(ms) * time.Millisecond
}

// SampleInterval is the progress sampler cadence.
func SampleInterval() time.Duration {
	return Millis(key.PlayerSampleInterval)
}
