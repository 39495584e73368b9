// GET  /api/version                            # Версия контракта (публичный)
// GET  /api/health                             # Проверка доступности (публичный)
// GET  /api/devices/fingerprint/{fingerprint}  # Авторизация устройства
// POST /api/devices                            # Регистрация устройства (ожидает одобрения)
// POST /api/devices/{fingerprint}/approve      # Одобрение устройства (admin)
// POST /api/milk-collections                   # Сбор молока
// POST /api/store-sales                        # Продажа магазина
// POST /api/store-sales/batch                  # Пакет продаж магазина по upload_ref
// POST /api/ai-sales                           # Продажа ИО

package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/exp/slog"

	deviceAPI "milkcollect/internal/app/server/api/http/device"
	"milkcollect/internal/app/server/api/http/middleware"
	"milkcollect/internal/app/server/api/http/middleware/admin"
	"milkcollect/internal/app/server/api/http/middleware/logger"
	saleAPI "milkcollect/internal/app/server/api/http/sale"
	versionAPI "milkcollect/internal/app/server/api/http/version"
	"milkcollect/internal/app/server/config"
	"milkcollect/internal/domain/device"
	"milkcollect/internal/domain/sale"
)

// Repositories хранилища, из которых собираются сервисы API
type Repositories struct {
	Devices device.Repository
	Sales   sale.Repository
}

type Handlers struct {
	Version *versionAPI.Handler
	Device  *deviceAPI.Handler
	Sale    *saleAPI.Handler
}

// New создает *chi.Mux с ВСЕМИ операциями через huma.Register
func New(cfg *config.Config, repos Repositories, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()
	mux.Use(chimw.Recoverer)

	humaConfig := huma.DefaultConfig("Milk Collection API", cfg.Server.APIVersion)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"admin": {Type: "apiKey", In: "header", Name: admin.HeaderName},
	}

	API := humachi.New(mux, humaConfig)

	h := handlers(cfg, repos, log)
	h.Version.SetupRoutes(API)
	h.Device.SetupRoutes(API)
	h.Sale.SetupRoutes(API)

	return mux
}

func handlers(cfg *config.Config, repos Repositories, log *slog.Logger) *Handlers {
	loggerMW := logger.New(log)
	adminMW := admin.New(cfg.Server.AdminToken, log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	versionHandler := versionAPI.NewHandler(cfg.Server.APIVersion, log, middlewares.GetAllAndClear())

	deviceService := device.NewService(repos.Devices, log)
	middlewares.Add(loggerMW.Middleware())
	deviceMWs := middlewares.GetAllAndClear()
	middlewares.Add(loggerMW.Middleware(), adminMW.Middleware())
	deviceHandler := deviceAPI.NewHandler(deviceService, log, deviceMWs, middlewares.GetAllAndClear())

	saleService := sale.NewService(repos.Sales, deviceService, log)
	middlewares.Add(loggerMW.Middleware())
	saleHandler := saleAPI.NewHandler(saleService, log, middlewares.GetAllAndClear())

	return &Handlers{
		Version: versionHandler,
		Device:  deviceHandler,
		Sale:    saleHandler,
	}
}
