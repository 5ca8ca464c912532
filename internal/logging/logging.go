// Package logging constructs the root hclog.Logger the rest of the
// engine derives component loggers from via .Named() (SPEC_FULL.md's
// Logging ambient-stack section).
package logging

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

// New builds the root logger at the given level ("debug", "info", "warn",
// "error"), writing to stderr so stdout stays free for the JSON schedule
// output (spec §6).
func New(level string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "shiftsched",
		Level:      hclog.LevelFromString(level),
		Output:     os.Stderr,
		JSONFormat: false,
	})
}
