package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/auplay-cli/auplay/broker"
	"github.com/auplay-cli/auplay/decoder"
	"github.com/auplay-cli/auplay/facade"
	"github.com/auplay-cli/auplay/history"
	"github.com/auplay-cli/auplay/log"
	"github.com/auplay-cli/auplay/tui"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var decoderBackends = []string{decoder.BackendMPV, decoder.BackendSynthetic}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().Bool("headless", false, "Render a single progress line instead of the full screen")
	playCmd.Flags().BoolP("continue", "c", false, "Resume from the saved position")
	playCmd.Flags().StringP("title", "t", "", "Title to show instead of the file name")
}

// playCmd loads one source into the shared session and follows it until it ends or the user quits.
var playCmd = &cobra.Command{
	Use:   "play <source>",
	Short: "Play a local audio file or an http(s) stream",
	Args:  cobra.ExactArgs(1),
	Example: "  auplay play ~/Music/track.flac\n" +
		"  auplay play --headless --continue https://example.com/episode.mp3",
	Run: func(cmd *cobra.Command, args []string) {
		source, err := decoder.ValidateSource(args[0])
		handleErr(err)

		CheckDecoder()

		var (
			headless = lo.Must(cmd.Flags().GetBool("headless"))
			resume   = lo.Must(cmd.Flags().GetBool("continue"))
			title    = lo.Must(cmd.Flags().GetString("title"))
		)

		b := broker.New(broker.FromConfig())
		f := facade.New(b)
		handleErr(f.Bind(func(created bool) {
			log.Debugf("facade %s bound, new session: %t", f.ID(), created)
		}))

		recorder := history.NewRecorder(source)
		listeners := []facade.Listener{recorder}
		if resume {
			entry, ok, err := history.Lookup(source)
			handleErr(err)
			if ok {
				listeners = append(listeners, history.NewResumer(f, entry))
			}
		}

		options := &tui.Options{
			Source:   source,
			Title:    title,
			Listener: facade.Listeners(listeners...),
		}

		if headless {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			err = tui.RunLine(ctx, f, os.Stdout, options)
			stop()
		} else {
			err = tui.Run(f, options)
		}

		if flushErr := recorder.Flush(); flushErr != nil {
			log.Warnf("saving history: %v", flushErr)
		}

		f.Unbind()
		b.Close()
		handleErr(err)
	},
}
