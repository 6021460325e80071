package cmd

import (
	"os"

	"github.com/Nelarius/rayfinder-sub000/log"
	"github.com/urfave/cli"
)

var logger = log.New("rayfinder")

// Configure log verbosity. LOG_LEVEL (which may be set in a .env file)
// selects the base level; the -v and -vv flags override it.
func setupLogging(ctx *cli.Context) {
	if levelName := os.Getenv("LOG_LEVEL"); levelName != "" {
		level, err := log.ParseLevel(levelName)
		if err != nil {
			logger.Warning(err.Error())
		} else {
			log.SetLevel(level)
		}
	}

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
