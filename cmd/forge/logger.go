package main

import (
	"fmt"
	"os"

	"github.com/forgecode/forge/logging"
)

// initLoggerFromCLI resolves level/file/format by priority (CLI flag >
// environment variable > default) and installs the process-wide logger,
// returning a cleanup func that closes an opened log file.
func initLoggerFromCLI(cliLevel, cliFile, cliFormat string) (func(), error) {
	level := firstNonEmpty(cliLevel, os.Getenv(logging.EnvLogLevel))
	file := firstNonEmpty(cliFile, os.Getenv(logging.EnvLogFile))
	format := firstNonEmpty(cliFormat, os.Getenv(logging.EnvLogFormat), logging.DefaultLogFormat)

	parsed, err := logging.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	output := os.Stderr
	cleanup := func() {}
	if file != "" {
		f, closeFn, err := logging.OpenLogFile(file)
		if err != nil {
			return nil, err
		}
		output = f
		cleanup = closeFn
	}

	logging.Init(parsed, output, format)
	return cleanup, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
