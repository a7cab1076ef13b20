// Command dietbot runs the dietary assistant Telegram bot.
//
// Configuration is read from the YAML file named by DIETBOT_CONFIG
// (default config.yaml) with environment variables layered on top.
package main

import (
	"context"
	"log"

	"github.com/m3rciful/dietbot/core/cmd"
	"github.com/m3rciful/dietbot/core/config"
	"github.com/m3rciful/dietbot/dietary/app"
)

func main() {
	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "DIETBOT_CONFIG",
		DefaultConfigPath: "config.yaml",
		Bootstrap: func(ctx context.Context, cfg *config.Config) (cmd.App, error) {
			a, err := app.New(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return a, nil
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
