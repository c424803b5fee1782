package version

import (
	"fmt"

	"github.com/auplay-cli/auplay/color"
	"github.com/auplay-cli/auplay/constant"
	"github.com/auplay-cli/auplay/icon"
	"github.com/auplay-cli/auplay/key"
	"github.com/auplay-cli/auplay/log"
	"github.com/auplay-cli/auplay/style"
	"github.com/auplay-cli/auplay/util"
	"github.com/spf13/viper"
)

// Notify prints a notice when cli.version_check is on and a newer release exists.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable(fmt.Sprintf("%s Checking for a new version...", icon.Get(icon.Progress)))
	latest, err := Latest()
	erase()
	if err != nil {
		log.Warnf("version check: %v", err)
		return
	}

	if comp, err := Compare(latest, constant.Version); err != nil || comp <= 0 {
		return
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(latest),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/auplay-cli/auplay/releases/tag/v"+latest),
	)
}
