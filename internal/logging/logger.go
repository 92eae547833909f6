package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger.
// Development gets a human-readable console writer; everything else logs JSON.
func Setup(appEnv, level string) {
	if appEnv == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	zerolog.SetGlobalLevel(ParseLevel(level))

	log.Info().
		Str("level", zerolog.GlobalLevel().String()).
		Msg("Logger initialized")
}

// ParseLevel parses a level name, falling back to info
func ParseLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return parsed
}
