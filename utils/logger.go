package utils

import (
	"os"

	"github.com/rs/zerolog"
)

// NewLogger returns a JSON logger tagged with the service name. Unknown
// levels fall back to info.
func NewLogger(service, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().
		Str("service", service).
		Timestamp().
		Logger()
}
