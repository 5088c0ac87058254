package cmd

import (
	"github.com/urfave/cli"

	"github.com/Thibaos/a-tlas/log"
)

var logger = log.New("a-tlas")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
