package common

import (
	"fmt"

	"github.com/hyperio-mc/hyper/lib/logger"
)

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// loggerNames are the component loggers the process uses.
var loggerNames = []string{
	"docstore",
	"rpc",
	"transport/rpc",
}

// InitLoggers configures all component loggers to the given level.
func InitLoggers(level string) error {
	parsed, err := logger.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", level, err)
	}
	for _, name := range loggerNames {
		logger.GetLogger(name).SetLevel(parsed)
	}
	return nil
}
