package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/auplay-cli/auplay/color"
	"github.com/auplay-cli/auplay/constant"
	"github.com/auplay-cli/auplay/decoder"
	"github.com/auplay-cli/auplay/icon"
	"github.com/auplay-cli/auplay/key"
	"github.com/auplay-cli/auplay/style"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that the configured decoder backend is available",
	Run: func(cmd *cobra.Command, args []string) {
		CheckDecoder()
		fmt.Printf(
			"%s decoder %s is ready\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Purple)(viper.GetString(key.PlayerDecoder)),
		)
	},
}

// CheckDecoder exits with an explanation when the configured decoder cannot be created.
func CheckDecoder() {
	factory, err := decoder.FromConfig()
	handleErr(err)

	d, err := factory()
	if err != nil {
		printMissingDependencyError(viper.GetString(key.PlayerMpvPath), err)
		os.Exit(1)
	}
	_ = d.Release()
}

func printMissingDependencyError(dep string, cause error) {
	var installCmd string
	switch runtime.GOOS {
	case constant.Darwin:
		installCmd = "brew install mpv"
	case constant.Linux:
		installCmd = "sudo apt install mpv"
	case constant.Windows:
		installCmd = "scoop install mpv"
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.ErrorColor).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.ErrorColor).Render(fmt.Sprintf("%s Error: Missing Dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("The decoder '%s' could not be started: %v", dep, cause))

	suggestion := fmt.Sprintf("\n\nTo try without audio output, run with %s", style.New().Foreground(style.AccentColor).Bold(true).Render("--decoder synthetic"))
	if installCmd != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(installCmd)) + suggestion
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
