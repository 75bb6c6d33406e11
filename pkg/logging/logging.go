// Package logging はslogのデフォルトロガーを設定する。
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel はログレベル文字列をslog.Levelに変換する。
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// New はformat（"json" または "text"）に応じたロガーを生成する。
func New(w io.Writer, level slog.Level, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format %q: must be json or text", format)
	}
	return slog.New(handler), nil
}

// Configure はロガーを生成してデフォルトに設定する。
func Configure(w io.Writer, level slog.Level, format string) error {
	logger, err := New(w, level, format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	slog.Debug("Logger configured",
		"level", level.String(),
		"format", format)
	return nil
}
