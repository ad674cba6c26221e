package main

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"lndpd/pndp"
)

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, &pndp.ConfigError{Field: "log.level", Value: s, Err: err}
	}
	return level, nil
}

func validateLogConfig(cfg LogConfig) error {
	if _, err := parseLevel(cfg.Level); err != nil {
		return err
	}
	switch strings.ToLower(cfg.Format) {
	case "text", "json":
	default:
		return &pndp.ConfigError{Field: "log.format", Value: cfg.Format, Err: errors.New("must be text or json")}
	}
	return nil
}

// newLogger builds the process logger. Output goes to stderr unless a log file is
// configured, in which case it is rotated by lumberjack. The returned closer must be
// called on exit.
func newLogger(cfg LogConfig, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	if err := validateLogConfig(cfg); err != nil {
		return nil, nil, err
	}
	level, _ := parseLevel(cfg.Level)

	var out io.Writer = stderr
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		out, closer = lj, lj
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
