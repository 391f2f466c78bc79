// Package logging builds the zerolog root logger of the command line tool.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
)

type Config struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // console or json
	File   string `yaml:"file" mapstructure:"file"`
	Gelf   string `yaml:"gelf" mapstructure:"gelf"` // host:port of a Graylog GELF UDP input
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToUpper(name) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup builds the root logger writing to out plus the optional file and
// GELF sinks. The returned closer releases the sinks.
func Setup(cfg Config, out io.Writer) (zerolog.Logger, func() error, error) {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	var closers []io.Closer
	writers := []io.Writer{console(cfg.Format, out, false)}

	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("log file: %w", err)
		}
		closers = append(closers, file)
		writers = append(writers, console(cfg.Format, file, true))
	}

	if cfg.Gelf != "" {
		gw, err := gelf.NewWriter(cfg.Gelf)
		if err != nil {
			for _, c := range closers {
				c.Close()
			}
			return zerolog.Nop(), nil, fmt.Errorf("gelf writer: %w", err)
		}
		closers = append(closers, gw)
		writers = append(writers, gw)
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	closeAll := func() error {
		var first error
		for _, c := range closers {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
	return logger, closeAll, nil
}

func console(format string, out io.Writer, noColor bool) io.Writer {
	if strings.EqualFold(format, "json") {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}
}

// Component returns a child logger tagged with a component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
