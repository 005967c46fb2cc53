// Command ghusers drives the user pipeline: extract pulls accounts from the
// directory into a snapshot, filter reduces the snapshot to the records of
// interest, and serve exposes the filtered collection over HTTP.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/mila1515/github-users/pkg/logging"
)

var version = "dev"

func main() {
	// Local development keeps credentials in .env. A missing file is fine,
	// production configures through the environment directly.
	_ = godotenv.Load()

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: os.Getenv("LOG_PRETTY") == "true",
		Output: os.Stderr,
	})

	app := cli.NewApp()
	app.Name = "ghusers"
	app.Usage = "Extract, filter and serve user accounts from the public directory."
	app.Version = version
	app.Commands = commands()

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
