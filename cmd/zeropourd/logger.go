// logger.go - structured logging for the zeropourd demo binary.
package main

import (
	"os"

	"github.com/rs/zerolog"
)

// newLogger builds a console-writer zerolog.Logger at the requested
// level, falling back to info on an unrecognized string. gnark itself
// logs through zerolog (see its cs/r1cs and backend/groth16 packages),
// so this keeps the demo's own log lines on the same logger family as
// the proving pipeline it drives.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
}
