// routes.go — интерфейс сервера и привязка операций OpenAPI к chi-роутеру.
// Параметры пути и запроса разбираются через oapi-codegen runtime
// по стилям, описанным в openapi.yaml.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/audioqr/internal/api/errors"
)

// ListVoicesParams — параметры GET /api/voices.
type ListVoicesParams struct {
	// Locale — языковой тег (по умолчанию vi-VN)
	Locale *string `form:"locale,omitempty" json:"locale,omitempty"`
}

// ServerInterface — все операции HTTP API и страниц.
type ServerInterface interface {
	// GET /
	IndexPage(w http.ResponseWriter, r *http.Request)
	// GET /manage
	ManagePage(w http.ResponseWriter, r *http.Request)
	// POST /upload
	UploadAudio(w http.ResponseWriter, r *http.Request)
	// POST /txt-to-qr
	TextToQR(w http.ResponseWriter, r *http.Request)
	// POST /api/batch-upload
	BatchUpload(w http.ResponseWriter, r *http.Request)
	// GET /api/qr-list
	ListRecords(w http.ResponseWriter, r *http.Request)
	// DELETE /api/qr-delete/{id}
	DeleteRecord(w http.ResponseWriter, r *http.Request, id string)
	// GET /qr-download/{id}
	DownloadQR(w http.ResponseWriter, r *http.Request, id string)
	// GET /audio/{filename}
	ServeAudio(w http.ResponseWriter, r *http.Request, filename string)
	// GET /api/voices
	ListVoices(w http.ResponseWriter, r *http.Request, params ListVoicesParams)
	// GET /api/openapi.yaml
	OpenapiDocument(w http.ResponseWriter, r *http.Request)
	// GET /health
	Health(w http.ResponseWriter, r *http.Request)
	// GET /health/live
	HealthLive(w http.ResponseWriter, r *http.Request)
	// GET /health/ready
	HealthReady(w http.ResponseWriter, r *http.Request)
	// GET /metrics
	GetMetrics(w http.ResponseWriter, r *http.Request)
}

// HandlerFromMux регистрирует все операции si на роутере r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	r.Get("/", si.IndexPage)
	r.Get("/manage", si.ManagePage)
	r.Post("/upload", si.UploadAudio)
	r.Post("/txt-to-qr", si.TextToQR)
	r.Post("/api/batch-upload", si.BatchUpload)
	r.Get("/api/qr-list", si.ListRecords)
	r.Delete("/api/qr-delete/{id}", withPathParam("id", si.DeleteRecord))
	r.Get("/qr-download/{id}", withPathParam("id", si.DownloadQR))
	r.Get("/audio/{filename}", withPathParam("filename", si.ServeAudio))
	r.Get("/api/voices", func(w http.ResponseWriter, req *http.Request) {
		var params ListVoicesParams
		if err := runtime.BindQueryParameter("form", true, false, "locale", req.URL.Query(), &params.Locale); err != nil {
			apierrors.ValidationError(w, fmt.Sprintf("Некорректный параметр locale: %s", err))
			return
		}
		si.ListVoices(w, req, params)
	})
	r.Get("/api/openapi.yaml", si.OpenapiDocument)
	r.Get("/health", si.Health)
	r.Get("/health/live", si.HealthLive)
	r.Get("/health/ready", si.HealthReady)
	r.Get("/metrics", si.GetMetrics)
	return r
}

// withPathParam разбирает строковый параметр пути name (стиль simple).
func withPathParam(name string, next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var value string
		err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &value,
			runtime.BindStyledParameterOptions{
				ParamLocation: runtime.ParamLocationPath,
				Explode:       false,
				Required:      true,
			})
		if err != nil {
			apierrors.ValidationError(w, fmt.Sprintf("Некорректный параметр %s: %s", name, err))
			return
		}
		next(w, r, value)
	}
}
