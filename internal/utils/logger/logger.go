package logger

import (
	"io"
	"os"
	"strings"

	"golang.org/x/exp/slog"
	"gopkg.in/natefinch/lumberjack.v2"

	"milkcollect/internal/app/server/config"
)

const (
	maxLogSizeMB  = 10
	maxLogBackups = 5
	maxLogAgeDays = 30
)

// New создает логгер по окружению: local пишет цветной текст, dev и prod пишут JSON (DEBUG и INFO)
func New(env string) *slog.Logger {
	switch env {
	case config.EnvLocal:
		return setupPrettySlog()
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}

// NewWithFile как New, но с явным уровнем и JSON-журналом в файле с ротацией.
// Пустой level оставляет уровень окружения, пустой path отключает файл.
func NewWithFile(env, level, path string) *slog.Logger {
	lvl, ok := ParseLevel(level)
	if !ok {
		lvl = envLevel(env)
	}

	if path == "" {
		if env == config.EnvLocal {
			opts := PrettyHandlerOptions{SlogOpts: &slog.HandlerOptions{Level: lvl}}
			return slog.New(opts.NewPrettyHandler(os.Stdout))
		}
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	}

	rotating := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
		Compress:   true,
	}
	var w io.Writer = rotating
	if env != config.EnvProd {
		w = io.MultiWriter(os.Stdout, rotating)
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func setupPrettySlog() *slog.Logger {
	opts := PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug},
	}
	return slog.New(opts.NewPrettyHandler(os.Stdout))
}

func envLevel(env string) slog.Level {
	if env == config.EnvLocal || env == config.EnvDev {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// ParseLevel разбирает debug/info/warn/error
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return 0, false
}
