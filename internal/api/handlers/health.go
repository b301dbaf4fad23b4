// health.go — обработчики health endpoints для Kubernetes probes.
package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bigkaa/audioqr/internal/config"
	"github.com/bigkaa/audioqr/internal/storage/recordstore"
)

// statusFail — строковая константа для статуса "fail" в health checks.
const statusFail = "fail"

// minFreeBytes — порог свободного места, ниже которого статус degraded.
const minFreeBytes = 100 << 20

// DiskUsageFunc возвращает total, used, available в байтах для path.
type DiskUsageFunc func(path string) (total, used, available int64, err error)

// DependencyHealth — состояние внешних зависимостей.
type DependencyHealth interface {
	Health() map[string]bool
}

// pinger — хранилище с собственной проверкой доступности.
type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler реализует /health, /health/live, /health/ready.
type HealthHandler struct {
	version   string
	uploadDir string
	store     recordstore.Store
	diskUsage DiskUsageFunc
	deps      DependencyHealth
}

// NewHealthHandler создаёт обработчик health endpoints.
// diskUsage и deps могут быть nil — соответствующие проверки пропускаются.
func NewHealthHandler(uploadDir string, store recordstore.Store, diskUsage DiskUsageFunc, deps DependencyHealth) *HealthHandler {
	return &HealthHandler{
		version:   config.Version,
		uploadDir: uploadDir,
		store:     store,
		diskUsage: diskUsage,
		deps:      deps,
	}
}

// Health обрабатывает GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthLive обрабатывает GET /health/live.
// Возвращает 200, если процесс жив. Не проверяет зависимости.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "audioqr",
	})
}

// HealthReady обрабатывает GET /health/ready.
// Проверяет: запись в директорию загрузок, чтение хранилища записей,
// свободное место на диске, внешние зависимости.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	overallStatus := "ok"
	httpStatus := http.StatusOK

	fail := func() {
		overallStatus = statusFail
		httpStatus = http.StatusServiceUnavailable
	}
	degrade := func() {
		if overallStatus != statusFail {
			overallStatus = "degraded"
		}
	}

	fsCheck := h.checkFilesystem()
	if fsCheck["status"] != "ok" {
		fail()
	}

	storeCheck := h.checkStore(r.Context())
	if storeCheck["status"] != "ok" {
		fail()
	}

	diskCheck := h.checkDisk()
	if diskCheck["status"] != "ok" {
		degrade()
	}

	checks := map[string]any{
		"filesystem": fsCheck,
		"store":      storeCheck,
		"disk":       diskCheck,
	}

	if h.deps != nil {
		deps := h.deps.Health()
		if len(deps) > 0 {
			checks["dependencies"] = deps
		}
		for _, ok := range deps {
			if !ok {
				degrade()
			}
		}
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "audioqr",
		"checks":    checks,
	})
}

// checkFilesystem проверяет доступность директории загрузок на запись.
func (h *HealthHandler) checkFilesystem() map[string]any {
	testFile := filepath.Join(h.uploadDir, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": "Директория загрузок недоступна для записи: " + err.Error(),
		}
	}
	_ = os.Remove(testFile)

	return map[string]any{"status": "ok"}
}

// checkStore проверяет доступность хранилища записей.
func (h *HealthHandler) checkStore(ctx context.Context) map[string]any {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var err error
	if p, ok := h.store.(pinger); ok {
		err = p.Ping(ctx)
	} else {
		_, err = h.store.Load(ctx)
	}
	if err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": "Хранилище записей недоступно: " + err.Error(),
		}
	}
	return map[string]any{"status": "ok"}
}

// checkDisk проверяет свободное место в директории загрузок.
func (h *HealthHandler) checkDisk() map[string]any {
	if h.diskUsage == nil {
		return map[string]any{
			"status":  "ok",
			"message": "Проверка не настроена",
		}
	}

	total, used, available, err := h.diskUsage(h.uploadDir)
	if err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": err.Error(),
		}
	}

	status := "ok"
	if available < minFreeBytes {
		status = statusFail
	}
	return map[string]any{
		"status":          status,
		"total_bytes":     total,
		"used_bytes":      used,
		"available_bytes": available,
	}
}
