// dephealth.go — мониторинг внешних зависимостей через topologymetrics SDK.
//
// audioqr мониторит (только настроенные зависимости):
//   - PostgreSQL — при AQ_STORE_BACKEND=postgres, через существующий пул (critical)
//   - OpenAI API — при AQ_TTS_PROVIDER=openai, HTTP checker (non-critical)
//
// Метрики доступны на /metrics вместе с остальными Prometheus-метриками.
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // регистрация HTTP checker factory
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"
	"github.com/prometheus/client_golang/prometheus"
)

// DephealthGroup — имя группы в метриках зависимостей.
const DephealthGroup = "audioqr"

// DephealthDeps — зависимости для мониторинга. Пустое поле — зависимость
// не настроена.
type DephealthDeps struct {
	// DB — *sql.DB, полученный из pgxpool через stdlib.OpenDBFromPool()
	DB *sql.DB
	// PostgresURL — URL PostgreSQL (для лейблов, не для подключения)
	PostgresURL string
	// OpenAIURL — базовый адрес OpenAI API
	OpenAIURL string
}

// Empty сообщает, что мониторить нечего.
func (d DephealthDeps) Empty() bool {
	return d.DB == nil && d.OpenAIURL == ""
}

// DephealthService — сервис мониторинга зависимостей.
// Nil-значение безопасно: Start и Stop ничего не делают, Health пуст.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт сервис мониторинга зависимостей.
// Если ни одна зависимость не настроена, возвращает nil без ошибки.
func NewDephealthService(
	serviceID string,
	deps DephealthDeps,
	checkInterval time.Duration,
	logger *slog.Logger,
) (*DephealthService, error) {
	return newDephealthService(serviceID, deps, checkInterval, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(
	serviceID string,
	deps DephealthDeps,
	checkInterval time.Duration,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(serviceID, deps, checkInterval, logger, dephealth.WithRegisterer(registerer))
}

func newDephealthService(
	serviceID string,
	deps DephealthDeps,
	checkInterval time.Duration,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	if deps.Empty() {
		return nil, nil
	}

	opts := []dephealth.Option{dephealth.WithLogger(logger)}

	if deps.DB != nil {
		opts = append(opts, dephealth.AddDependency("postgresql", dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(deps.DB)),
			dephealth.FromURL(deps.PostgresURL),
			dephealth.CheckInterval(checkInterval),
			dephealth.Critical(true),
		))
	}

	if deps.OpenAIURL != "" {
		// Без авторизации OpenAI отвечает 401 на /v1/models, поэтому
		// проверяется корень API
		opts = append(opts, dephealth.HTTP("openai",
			dephealth.FromURL(deps.OpenAIURL),
			dephealth.WithHTTPHealthPath("/"),
			dephealth.CheckInterval(checkInterval),
			dephealth.Critical(false),
		))
	}

	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(serviceID, DephealthGroup, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	if ds == nil {
		return nil
	}
	ds.logger.Info("Мониторинг зависимостей запущен")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	if ds == nil {
		return
	}
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — имя зависимости, значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	if ds == nil {
		return map[string]bool{}
	}
	return ds.dh.Health()
}
