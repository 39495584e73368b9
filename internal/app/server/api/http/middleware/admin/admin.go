package admin

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// HeaderName заголовок с административным токеном
const HeaderName = "X-Admin-Token"

// Admin пропускает только запросы с верным административным токеном
type Admin struct {
	token string
	log   *slog.Logger
}

func New(token string, log *slog.Logger) *Admin {
	return &Admin{
		token: token,
		log:   log.With(slog.String("component", "admin_middleware")),
	}
}

// Middleware возвращает middleware для Huma с сигнатурой func(ctx Context, next func(Context))
func (a *Admin) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		given := ctx.Header(HeaderName)

		// пустой токен в конфигурации отключает административные операции
		if a.token == "" || subtle.ConstantTimeCompare([]byte(given), []byte(a.token)) != 1 {
			a.log.Warn("admin token rejected", slog.String("path", ctx.URL().Path))
			ctx.SetStatus(http.StatusForbidden)
			ctx.SetHeader("Content-Type", "application/json")

			if err := json.NewEncoder(ctx.BodyWriter()).Encode(map[string]any{
				"success": false,
				"message": "Forbidden",
			}); err != nil {
				a.log.Error("json encode", slog.Any("error", err))
			}
			return
		}

		next(ctx)
	}
}
