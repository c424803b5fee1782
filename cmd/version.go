package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"text/template"

	"github.com/auplay-cli/auplay/color"
	"github.com/auplay-cli/auplay/config"
	"github.com/auplay-cli/auplay/constant"
	"github.com/auplay-cli/auplay/decoder"
	"github.com/auplay-cli/auplay/key"
	"github.com/auplay-cli/auplay/style"
	"github.com/auplay-cli/auplay/version"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.SetOut(os.Stdout)
	versionCmd.Flags().BoolP("short", "s", false, "Display only the version string without metadata")
}

// versionCmd displays application version and build metadata.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display exhaustive version and build metadata",
	Long:  "Display the current application version, build revision, platform architecture, and related metadata.",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		defer version.Notify()

		versionInfo := struct {
			Version  string
			OS       string
			Arch     string
			BuiltAt  string
			BuiltBy  string
			Revision string
			App      string
			Decoder  string
			Backend  string
			Sampling string
		}{
			Version:  constant.Version,
			App:      constant.Auplay,
			OS:       runtime.GOOS,
			Arch:     runtime.GOARCH,
			BuiltAt:  strings.TrimSpace(constant.BuiltAt),
			BuiltBy:  constant.BuiltBy,
			Revision: constant.Revision,
			Decoder:  viper.GetString(key.PlayerDecoder),
			Backend:  describeBackend(),
			Sampling: config.SampleInterval().String(),
		}

		t, err := template.New("version").Funcs(map[string]any{
			"faint":   style.Faint,
			"bold":    style.Bold,
			"magenta": style.Fg(color.Purple),
			"green":   style.Fg(color.Green),
			"repeat":  strings.Repeat,
			"concat": func(a, b string) string {
				return a + b
			},
		}).Parse(`{{ magenta "▇▇▇" }} {{ magenta .App }} 

  {{ faint "Version" }}         {{ bold .Version }}
  {{ faint "Git Commit" }}      {{ bold .Revision }} 
  {{ faint "Build Date" }}  	  {{ bold .BuiltAt }}
  {{ faint "Built By" }}        {{ bold .BuiltBy }}
  {{ faint "Platform" }}        {{ bold .OS }}/{{ bold .Arch }}

  {{ faint "Decoder" }}         {{ bold .Decoder }} {{ faint .Backend }}
  {{ faint "Sampling" }}        {{ bold .Sampling }}
`)
		handleErr(err)
		handleErr(t.Execute(cmd.OutOrStdout(), versionInfo))
	},
}

// describeBackend reports where the configured decoder comes from.
func describeBackend() string {
	if viper.GetString(key.PlayerDecoder) != decoder.BackendMPV {
		return "(built in, no audio output)"
	}

	path, mpvVersion, err := decoder.MPVVersion(viper.GetString(key.PlayerMpvPath))
	switch {
	case path == "":
		return "(not found, see auplay check)"
	case err != nil:
		return fmt.Sprintf("(%s)", path)
	default:
		return fmt.Sprintf("(%s, %s)", mpvVersion, path)
	}
}
