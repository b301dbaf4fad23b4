package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bigkaa/audioqr/internal/api/openapi"
)

// TestRequestLogger проверяет поля и уровень записи лога.
func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("nope"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/audio/x.mp3", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("ошибка разбора лога: %v (%s)", err, buf.String())
	}
	if entry["level"] != "WARN" || entry["msg"] != "HTTP запрос" {
		t.Errorf("неожиданная запись: %v", entry)
	}
	if entry["status"] != float64(404) || entry["bytes"] != float64(4) || entry["path"] != "/audio/x.mp3" {
		t.Errorf("неожиданные поля: %v", entry)
	}
}

// TestRequestLogger_QuietPaths проверяет уровень DEBUG для служебных путей.
func TestRequestLogger_QuietPaths(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if buf.Len() != 0 {
		t.Errorf("запрос к /metrics не должен логироваться на уровне INFO: %s", buf.String())
	}
}

// TestRequestLogger_Upload проверяет шаблон маршрута и размер тела загрузки.
func TestRequestLogger_Upload(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.Post("/upload", func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("0123456789"))
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("ошибка разбора лога: %v (%s)", err, buf.String())
	}
	if entry["route"] != "/upload" || entry["request_bytes"] != float64(10) || entry["component"] != "http" {
		t.Errorf("неожиданные поля: %v", entry)
	}
}

// TestMetricsMiddleware проверяет лейбл шаблона маршрута.
func TestMetricsMiddleware(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware())
	r.Get("/qr-download/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/qr-download/{id}", "404"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/qr-download/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/qr-download/def", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/qr-download/{id}", "404"))

	if after-before != 2 {
		t.Errorf("ожидалось +2 запроса с лейблом шаблона, получено %v", after-before)
	}
}

// TestRequestValidator проверяет валидацию параметров по контракту.
func TestRequestValidator(t *testing.T) {
	doc, err := openapi.Load()
	if err != nil {
		t.Fatalf("openapi.Load() ошибка: %v", err)
	}
	validator, err := RequestValidator(doc)
	if err != nil {
		t.Fatalf("RequestValidator() ошибка: %v", err)
	}

	h := validator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"корректная локаль", http.MethodGet, "/api/voices?locale=vi-VN", http.StatusTeapot},
		{"без локали", http.MethodGet, "/api/voices", http.StatusTeapot},
		{"некорректная локаль", http.MethodGet, "/api/voices?locale=" + strings.Repeat("x", 40), http.StatusBadRequest},
		{"путь вне контракта", http.MethodGet, "/health/live", http.StatusTeapot},
		{"метод вне контракта", http.MethodPut, "/api/qr-list", http.StatusTeapot},
		{"удаление", http.MethodDelete, "/api/qr-delete/6f1c2a9e", http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
			if rec.Code != tt.want {
				t.Errorf("статус = %d, ожидалось %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
