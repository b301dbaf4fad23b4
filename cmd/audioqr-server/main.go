// Точка входа audioqr-server — веб-сервис «аудио → QR-код».
// Загружает конфигурацию, собирает хранилища и движок TTS,
// запускает мониторинг зависимостей и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/bigkaa/audioqr/internal/api/handlers"
	"github.com/bigkaa/audioqr/internal/api/middleware"
	"github.com/bigkaa/audioqr/internal/api/openapi"
	"github.com/bigkaa/audioqr/internal/app"
	"github.com/bigkaa/audioqr/internal/config"
	"github.com/bigkaa/audioqr/internal/server"
	"github.com/bigkaa/audioqr/internal/service"
	"github.com/bigkaa/audioqr/internal/tts"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("audioqr запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("store", cfg.StoreBackend),
		slog.String("tts", cfg.TTSProvider),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Хранилища, движок TTS, сервис записей
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка инициализации", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	if records, loadErr := a.Records.Load(ctx); loadErr == nil {
		middleware.RecordsTotal.Set(float64(len(records)))
	}

	// 4. Мониторинг зависимостей (topologymetrics)
	dephealthSvc, err := service.NewDephealthService(cfg.ServiceID, a.DephealthDeps(), cfg.DephealthCheckInterval, logger)
	if err != nil {
		logger.Error("Ошибка создания сервиса мониторинга зависимостей", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := dephealthSvc.Start(ctx); err != nil {
		logger.Error("Ошибка запуска мониторинга зависимостей", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dephealthSvc.Stop()

	// 5. API handlers
	api := handlers.NewAPIHandler(
		handlers.NewQRHandler(a.QR, cfg.PublicBaseURL, logger),
		handlers.NewVoicesHandler(tts.NewVoiceCache(a.Synth, cfg.VoicesCacheSize, cfg.VoicesCacheTTL), a.Synth.Name(), logger),
		handlers.NewHealthHandler(cfg.UploadDir, a.Records, getDiskUsage, dephealthSvc),
	)

	// 6. Валидация запросов по OpenAPI
	doc, err := openapi.Load()
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI", slog.String("error", err.Error()))
		os.Exit(1)
	}
	validator, err := middleware.RequestValidator(doc)
	if err != nil {
		logger.Error("Ошибка создания валидатора запросов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. HTTP-сервер
	srv := server.New(cfg, logger, api,
		middleware.RequestLogger(logger),
		middleware.MetricsMiddleware(),
		validator,
	)
	if err := srv.Run(ctx); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
