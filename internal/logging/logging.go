// Package logging configures the global zerolog logger for go_dcc.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the zerolog logger with the given level and output format.
func Init(level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	base := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if format == "human" {
		log.Logger = base.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})
	} else {
		log.Logger = base // JSON output.
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// Disable silences the global logger. Used by CLI commands that print
// user-facing output to stdout.
func Disable() {
	log.Logger = log.Logger.Level(zerolog.Disabled)
}

// LogExecution logs a completed command execution with structured fields.
func LogExecution(commandID, executionID string, duration time.Duration, undoable bool) {
	log.Info().
		Str("event", "command_executed").
		Str("command", commandID).
		Str("execution_id", executionID).
		Dur("duration", duration).
		Bool("undoable", undoable).
		Msg("command executed")
}

// LogUndo logs an undo or redo of a previously executed command.
func LogUndo(event, commandID string) {
	log.Info().
		Str("event", event).
		Str("command", commandID).
		Msg("history operation")
}
