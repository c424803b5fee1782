package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/auplay-cli/auplay/color"
	"github.com/auplay-cli/auplay/history"
	"github.com/auplay-cli/auplay/icon"
	"github.com/auplay-cli/auplay/style"
	"github.com/auplay-cli/auplay/util"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	historyCmd.Flags().IntP("limit", "n", 0, "Show at most this many entries, newest first")
	historyCmd.Flags().StringP("filter", "f", "", "Only show sources fuzzily matching this query")
	historyCmd.Flags().StringP("remove", "r", "", "Forget the saved position of a source")
	historyCmd.Flags().Bool("schema", false, "Print the JSON Schema of the --json output")
	historyCmd.MarkFlagsMutuallyExclusive("remove", "schema", "filter")

	historyCmd.SetOut(os.Stdout)
}

// historyCmd lists saved resume positions.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved resume positions",
	Run: func(cmd *cobra.Command, args []string) {
		if source := lo.Must(cmd.Flags().GetString("remove")); source != "" {
			handleErr(history.Remove(source))
			cmd.Printf("%s forgot %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), style.Fg(color.Purple)(source))
			return
		}

		if lo.Must(cmd.Flags().GetBool("schema")) {
			reflector := new(jsonschema.Reflector)
			reflector.Anonymous = true
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(reflector.Reflect([]*history.Entry{})))
			return
		}

		entries, err := history.Search(lo.Must(cmd.Flags().GetString("filter")))
		handleErr(err)

		if limit := lo.Must(cmd.Flags().GetInt("limit")); limit > 0 && limit < len(entries) {
			entries = entries[:limit]
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(entries))
			return
		}

		if len(entries) == 0 {
			cmd.Println(style.Faint("No history yet"))
			return
		}

		cmd.Println(style.Faint(util.Quantify(len(entries), "entry", "entries")))
		for _, entry := range entries {
			mark := icon.Get(icon.History)
			if entry.Finished() {
				mark = icon.Get(icon.Success)
			}

			cmd.Printf(
				"%s %s %s\n",
				mark,
				style.Fg(color.Purple)(entry.Source),
				style.Faint(fmt.Sprintf(
					"%s / %s (%.0f%%)",
					util.FormatMillis(entry.PositionMs),
					util.FormatMillis(entry.DurationMs),
					entry.Percent,
				)),
			)
		}
	},
}
