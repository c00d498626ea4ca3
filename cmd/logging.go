package cmd

import (
	"github.com/df07/go-sceneio/pkg/config"
	"github.com/df07/go-sceneio/pkg/log"
	"github.com/urfave/cli"
)

var logger = log.New("sceneio")

// setup loads the config named by --config and applies its log level.
// The -v and -vv flags take precedence over the config.
func setup(ctx *cli.Context) (config.Config, error) {
	cfg, err := config.Load(ctx.GlobalString("config"))
	if err != nil {
		return cfg, err
	}

	log.SetLevel(log.ParseLevel(cfg.LogLevel))
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}
	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
	return cfg, nil
}
