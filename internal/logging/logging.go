// Package logging configures the process-wide logrus logger. Packages take a
// component entry via For and log through it; output always goes to stderr
// (or the configured writer) so stdout stays reserved for results.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Configure sets level and format on the standard logrus logger.
// format is "text" or "json"; w defaults to stderr.
func Configure(level, format string, w io.Writer) error {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unsupported log format: %s (must be one of: text, json)", format)
	}

	log.SetOutput(w)
	log.SetLevel(lvl)
	return nil
}

// For returns an entry tagged with the owning package.
func For(pkg string) *log.Entry {
	return log.WithFields(log.Fields{"package": pkg})
}
