// Пакет app — сборка зависимостей audioqr из конфигурации.
// Используется HTTP-сервером и CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/audioqr/internal/config"
	"github.com/bigkaa/audioqr/internal/database"
	"github.com/bigkaa/audioqr/internal/service"
	"github.com/bigkaa/audioqr/internal/storage/artifact"
	"github.com/bigkaa/audioqr/internal/storage/recordstore"
	"github.com/bigkaa/audioqr/internal/tts"
)

// App — собранные компоненты.
type App struct {
	Config    *config.Config
	Records   recordstore.Store
	Artifacts *artifact.DiskStore
	Synth     tts.Synthesizer
	Converter *tts.Converter
	QR        *service.QRService

	// pool и db заданы только для бэкенда postgres
	pool   *pgxpool.Pool
	db     *sql.DB
	logger *slog.Logger
}

// New собирает компоненты: хранилище записей (с миграциями для postgres),
// хранилище артефактов, движок TTS и сервис записей.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, logger: logger}

	if err := os.MkdirAll(cfg.TempDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать временную директорию %s: %w", cfg.TempDir, err)
	}

	records, err := a.newRecordStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Records = records

	a.Artifacts, err = artifact.NewDiskStore(cfg.UploadDir, cfg.StoriesDir)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Synth, err = NewSynthesizer(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Converter = tts.NewConverter(a.Synth, cfg.TTSTimeout, logger)

	a.QR = service.NewQRService(a.Records, a.Artifacts, a.Converter, service.QRServiceConfig{
		TempDir:       cfg.TempDir,
		DefaultVoice:  cfg.TTSVoice,
		DefaultFormat: cfg.TTSFormat,
	}, logger)

	return a, nil
}

// NewSynthesizer создаёт движок TTS по AQ_TTS_PROVIDER.
func NewSynthesizer(cfg *config.Config) (tts.Synthesizer, error) {
	switch cfg.TTSProvider {
	case config.TTSOpenAI:
		s, err := tts.NewOpenAISynthesizer(tts.OpenAIConfig{
			APIKey:       cfg.OpenAIAPIKey,
			BaseURL:      cfg.OpenAIBaseURL,
			Model:        cfg.OpenAIModel,
			DefaultVoice: cfg.TTSVoice,
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания движка OpenAI: %w", err)
		}
		return s, nil
	case config.TTSEdge, "":
		return tts.NewEdgeSynthesizer(cfg.EdgeTTSBinary), nil
	default:
		return nil, fmt.Errorf("неизвестный провайдер TTS: %s", cfg.TTSProvider)
	}
}

// newRecordStore создаёт хранилище записей по AQ_STORE_BACKEND.
func (a *App) newRecordStore(ctx context.Context) (recordstore.Store, error) {
	cfg := a.Config

	switch cfg.StoreBackend {
	case config.StoreMemory:
		a.logger.Warn("Записи хранятся в памяти и будут потеряны при перезапуске")
		return recordstore.NewMemoryStore(), nil

	case config.StorePostgres:
		a.logger.Info("Применение миграций БД...")
		if err := database.Migrate(cfg.DatabaseURL, a.logger); err != nil {
			return nil, fmt.Errorf("ошибка миграций БД: %w", err)
		}
		pool, err := database.Connect(ctx, cfg.DatabaseURL, a.logger)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		// Адаптер pgxpool → *sql.DB для проверки зависимостей
		a.db = stdlib.OpenDBFromPool(pool)
		return recordstore.NewPostgresStore(pool), nil

	default:
		a.logger.Info("Хранилище записей: JSON-файл", slog.String("path", cfg.DataFile))
		return recordstore.NewFileStore(cfg.DataFile, a.logger), nil
	}
}

// DephealthDeps возвращает настроенные внешние зависимости.
func (a *App) DephealthDeps() service.DephealthDeps {
	var deps service.DephealthDeps
	if a.db != nil {
		deps.DB = a.db
		deps.PostgresURL = a.Config.DatabaseURL
	}
	if s, ok := a.Synth.(*tts.OpenAISynthesizer); ok {
		deps.OpenAIURL = s.BaseURL()
	}
	return deps
}

// Close освобождает подключения к базе данных.
func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
