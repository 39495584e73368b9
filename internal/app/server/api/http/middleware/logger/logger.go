package logger

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

type Logger struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Logger {
	return &Logger{
		log: log.With(slog.String("component", "http")),
	}
}

// Middleware пишет одну запись на запрос. Уровень зависит от статуса ответа:
// 4xx пишется как Warn, 5xx как Error.
func (l *Logger) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()
		method := ctx.Method()
		path := ctx.URL().Path

		next(ctx)

		status := ctx.Status()
		if status == 0 {
			status = http.StatusOK
		}

		attrs := []any{
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_addr", ctx.RemoteAddr()),
		}
		if op := ctx.Operation(); op != nil && op.OperationID != "" {
			attrs = append(attrs, slog.String("operation", op.OperationID))
		}

		switch {
		case status >= http.StatusInternalServerError:
			l.log.Error("request failed", attrs...)
		case status >= http.StatusBadRequest:
			l.log.Warn("request rejected", attrs...)
		default:
			l.log.Info("request served", attrs...)
		}
	}
}
