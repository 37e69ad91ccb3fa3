// Command loanctl manages the loan ledger from the command line.
//
// It uses the same configuration as the server (.env and environment, see
// package config), so both can share one store.
//
//	loanctl add-person Ali
//	loanctl add-tx -person <id> -type taken -amount 500
//	loanctl people
//	loanctl export -o backup.json
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/warp/loan-ledger/config"
	"github.com/warp/loan-ledger/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(subcommands.ExitFailure))
	}
	if cfg.LogLevel == "info" {
		cfg.LogLevel = "warn" // keep command output clean unless asked
	}
	logging.Setup(cfg.LogLevel)

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	register(commander, newApp(cfg, os.Stdout, os.Stderr))

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
