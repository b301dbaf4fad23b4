// handler.go — APIHandler реализует ServerInterface,
// делегируя вызовы в отдельные handler'ы по доменам.
package handlers

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/audioqr/internal/api/openapi"
	"github.com/bigkaa/audioqr/internal/ui/pages"
)

// APIHandler — единая реализация ServerInterface, собирающая
// все доменные handlers в один объект.
type APIHandler struct {
	qr      *QRHandler
	voices  *VoicesHandler
	health  *HealthHandler
	index   http.Handler
	manage  http.Handler
	metrics http.Handler
}

// NewAPIHandler создаёт единый handler для всех endpoints.
func NewAPIHandler(qr *QRHandler, voices *VoicesHandler, health *HealthHandler) *APIHandler {
	return &APIHandler{
		qr:      qr,
		voices:  voices,
		health:  health,
		index:   templ.Handler(pages.Index()),
		manage:  templ.Handler(pages.Manage()),
		metrics: promhttp.Handler(),
	}
}

// Проверка на этапе компиляции
var _ ServerInterface = (*APIHandler)(nil)

// --- Страницы ---

func (h *APIHandler) IndexPage(w http.ResponseWriter, r *http.Request) {
	h.index.ServeHTTP(w, r)
}

func (h *APIHandler) ManagePage(w http.ResponseWriter, r *http.Request) {
	h.manage.ServeHTTP(w, r)
}

// --- Записи ---

func (h *APIHandler) UploadAudio(w http.ResponseWriter, r *http.Request) {
	h.qr.UploadAudio(w, r)
}

func (h *APIHandler) TextToQR(w http.ResponseWriter, r *http.Request) {
	h.qr.TextToQR(w, r)
}

func (h *APIHandler) BatchUpload(w http.ResponseWriter, r *http.Request) {
	h.qr.BatchUpload(w, r)
}

func (h *APIHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	h.qr.ListRecords(w, r)
}

func (h *APIHandler) DeleteRecord(w http.ResponseWriter, r *http.Request, id string) {
	h.qr.DeleteRecord(w, r, id)
}

func (h *APIHandler) DownloadQR(w http.ResponseWriter, r *http.Request, id string) {
	h.qr.DownloadQR(w, r, id)
}

func (h *APIHandler) ServeAudio(w http.ResponseWriter, r *http.Request, filename string) {
	h.qr.ServeAudio(w, r, filename)
}

// --- Голоса ---

func (h *APIHandler) ListVoices(w http.ResponseWriter, r *http.Request, params ListVoicesParams) {
	h.voices.ListVoices(w, r, params)
}

// --- Системные ---

// OpenapiDocument отдаёт встроенный openapi.yaml.
func (h *APIHandler) OpenapiDocument(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapi.Document())
}

func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.health.Health(w, r)
}

func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
