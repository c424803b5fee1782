// Package main is the entry point for the auplay application.
package main

import (
	"github.com/auplay-cli/auplay/cmd"
	"github.com/auplay-cli/auplay/config"
	"github.com/auplay-cli/auplay/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())
	cmd.Execute()
}
