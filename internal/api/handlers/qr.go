// qr.go — обработчики записей QR-кодов: загрузка, озвучивание текста,
// пакетная загрузка, список, удаление, скачивание QR и отдача аудио.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	apierrors "github.com/bigkaa/audioqr/internal/api/errors"
	"github.com/bigkaa/audioqr/internal/domain/model"
	"github.com/bigkaa/audioqr/internal/service"
)

// multipartMemory — часть multipart-формы, хранимая в памяти; остальное
// уходит во временные файлы.
const multipartMemory = 32 << 20

// uploadResponse — ответ POST /upload.
type uploadResponse struct {
	QRCode    string `json:"qr_code"`
	AudioURL  string `json:"audio_url"`
	AudioPath string `json:"audio_path"`
	FullURL   string `json:"full_url"`
	Message   string `json:"message,omitempty"`
}

// batchItemError — ошибка одного файла пакетной загрузки.
type batchItemError struct {
	Error    string `json:"error"`
	Filename string `json:"filename"`
}

// batchResponse — ответ POST /api/batch-upload.
type batchResponse struct {
	Results []any `json:"results"`
	Count   int   `json:"count"`
}

// QRHandler — обработчик операций с записями.
type QRHandler struct {
	svc           *service.QRService
	publicBaseURL string
	logger        *slog.Logger
}

// NewQRHandler создаёт обработчик. publicBaseURL — адрес для full_url;
// пустой — адрес определяется по запросу.
func NewQRHandler(svc *service.QRService, publicBaseURL string, logger *slog.Logger) *QRHandler {
	return &QRHandler{
		svc:           svc,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger.With(slog.String("component", "qr_handler")),
	}
}

// UploadAudio обрабатывает POST /upload.
func (h *QRHandler) UploadAudio(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	fh := formFile(r, "audio")
	if fh == nil {
		apierrors.ValidationError(w, "Не выбран аудио-файл")
		return
	}

	rec, svcErr := h.svc.RegisterUpload(r.Context(), fileInput(fh), r.FormValue("title"), h.baseURL(r))
	if svcErr != nil {
		apierrors.WriteError(w, svcErr.StatusCode, svcErr.Message)
		return
	}

	writeJSON(w, http.StatusOK, toUploadResponse(rec, ""))
}

// TextToQR обрабатывает POST /txt-to-qr.
func (h *QRHandler) TextToQR(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	fh := formFile(r, "txt_file")
	if fh == nil {
		apierrors.ValidationError(w, "Не выбран текстовый файл")
		return
	}

	rec, svcErr := h.svc.ConvertText(r.Context(), fileInput(fh), textOptions(r), h.baseURL(r))
	if svcErr != nil {
		apierrors.WriteError(w, svcErr.StatusCode, svcErr.Message)
		return
	}

	writeJSON(w, http.StatusOK, toUploadResponse(rec, "Конвертация выполнена"))
}

// BatchUpload обрабатывает POST /api/batch-upload.
func (h *QRHandler) BatchUpload(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	var audio, texts []service.FileInput
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["audio_files"] {
			audio = append(audio, fileInput(fh))
		}
		for _, fh := range r.MultipartForm.File["txt_files"] {
			texts = append(texts, fileInput(fh))
		}
	}

	items := h.svc.BatchUpload(r.Context(), audio, texts, textOptions(r), h.baseURL(r))

	resp := batchResponse{Results: make([]any, 0, len(items)), Count: len(items)}
	for _, item := range items {
		if item.Record != nil {
			resp.Results = append(resp.Results, item.Record)
		} else {
			resp.Results = append(resp.Results, batchItemError{Error: item.Error, Filename: item.Filename})
		}
	}

	h.logger.Info("Пакетная загрузка завершена",
		slog.Int("count", resp.Count),
		slog.Int("audio_files", len(audio)),
		slog.Int("txt_files", len(texts)),
	)
	writeJSON(w, http.StatusOK, resp)
}

// ListRecords обрабатывает GET /api/qr-list.
func (h *QRHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, svcErr := h.svc.List(r.Context())
	if svcErr != nil {
		apierrors.WriteError(w, svcErr.StatusCode, svcErr.Message)
		return
	}
	if records == nil {
		records = []*model.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// DeleteRecord обрабатывает DELETE /api/qr-delete/{id}.
func (h *QRHandler) DeleteRecord(w http.ResponseWriter, r *http.Request, id string) {
	if svcErr := h.svc.Delete(r.Context(), id); svcErr != nil {
		apierrors.WriteError(w, svcErr.StatusCode, svcErr.Message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DownloadQR обрабатывает GET /qr-download/{id}.
func (h *QRHandler) DownloadQR(w http.ResponseWriter, r *http.Request, id string) {
	dl, svcErr := h.svc.DownloadQR(r.Context(), id)
	if svcErr != nil {
		apierrors.WriteError(w, svcErr.StatusCode, svcErr.Message)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.PNG)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dl.PNG)
}

// ServeAudio обрабатывает GET /audio/{filename}.
// Range requests и If-Modified-Since обрабатывает http.ServeContent.
func (h *QRHandler) ServeAudio(w http.ResponseWriter, r *http.Request, filename string) {
	f, info, svcErr := h.svc.OpenAudio(filename)
	if svcErr != nil {
		apierrors.WriteError(w, svcErr.StatusCode, svcErr.Message)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", AudioContentType(filename))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// AudioContentType — audio/wav для .wav, иначе audio/mpeg.
func AudioContentType(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".wav") {
		return "audio/wav"
	}
	return "audio/mpeg"
}

// baseURL возвращает адрес для full_url: настроенный публичный адрес
// или схема и хост запроса.
func (h *QRHandler) baseURL(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// parseForm разбирает multipart-форму. Превышение лимита тела — 413.
func (h *QRHandler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	err := r.ParseMultipartForm(multipartMemory)
	if err == nil {
		return true
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
		apierrors.FileTooLarge(w, "Размер запроса превышает лимит")
		return false
	}
	if errors.Is(err, http.ErrNotMultipart) {
		apierrors.ValidationError(w, "Ожидается multipart/form-data")
		return false
	}
	apierrors.ValidationError(w, "Ошибка разбора формы: "+err.Error())
	return false
}

// formFile возвращает первый файл поля или nil.
func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 || files[0].Filename == "" {
		return nil
	}
	return files[0]
}

func fileInput(fh *multipart.FileHeader) service.FileInput {
	return service.FileInput{
		Filename: fh.Filename,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func textOptions(r *http.Request) service.TextOptions {
	return service.TextOptions{
		Voice:  r.FormValue("voice"),
		Format: r.FormValue("format"),
		Title:  r.FormValue("title"),
	}
}

func toUploadResponse(rec *model.Record, message string) uploadResponse {
	return uploadResponse{
		QRCode:    rec.QRBase64,
		AudioURL:  rec.AudioURL,
		AudioPath: rec.AudioFilename,
		FullURL:   rec.FullURL,
		Message:   message,
	}
}

// writeJSON — вспомогательная функция для записи JSON-ответа.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(data)
}
