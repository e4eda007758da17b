/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package trace provides the process-wide logging used by the decoder
// and translator, on top of logrus so that level filtering, structured
// fields, and output formatting come from a maintained library.
package trace

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

func get() *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logrus.WarnLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
		})
	})
	return logger
}

// SetLevel sets the minimum severity that will be emitted. Valid values are
// the logrus level names: "trace", "debug", "info", "warning", "error".
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	get().SetLevel(lvl)
	return nil
}

// Trace logs a fine-grained progress message (class loaded, method
// translated). Silent unless the level has been raised to "trace"/"debug".
func Trace(msg string) {
	get().Debug(msg)
}

// Info logs a normal informational message.
func Info(msg string) {
	get().Info(msg)
}

// Error logs a failure. Callers still construct and return a typed error;
// this only records it for diagnostics.
func Error(msg string) {
	get().Error(msg)
}

// Warning logs a recoverable anomaly that does not abort the current
// operation.
func Warning(msg string) {
	get().Warn(msg)
}
