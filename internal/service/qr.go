// qr.go — сервис записей QR-кодов: загрузка аудио, конвертация текста,
// пакетная загрузка, список, удаление и скачивание QR-кода.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/audioqr/internal/api/middleware"
	"github.com/bigkaa/audioqr/internal/domain/model"
	"github.com/bigkaa/audioqr/internal/naming"
	"github.com/bigkaa/audioqr/internal/qr"
	"github.com/bigkaa/audioqr/internal/storage/artifact"
	"github.com/bigkaa/audioqr/internal/storage/recordstore"
	"github.com/bigkaa/audioqr/internal/tts"
)

// FileInput — загруженный клиентом файл.
type FileInput struct {
	// Filename — исходное имя файла от клиента
	Filename string
	// Open открывает содержимое файла
	Open func() (io.ReadCloser, error)
}

// TextOptions — параметры конвертации текста.
type TextOptions struct {
	// Voice — голос (пусто — голос по умолчанию)
	Voice string
	// Format — формат аудио (пусто — формат по умолчанию)
	Format string
	// Title — название записи (пусто — безопасное имя файла)
	Title string
}

// BatchItem — результат обработки одного файла пакетной загрузки.
// Заполнено либо Record, либо Error.
type BatchItem struct {
	Record   *model.Record
	Error    string
	Filename string
}

// QRDownload — QR-код для скачивания.
type QRDownload struct {
	// Filename — имя файла вложения
	Filename string
	// PNG — изображение в печатном качестве
	PNG []byte
}

// QRServiceConfig — параметры QRService.
type QRServiceConfig struct {
	// TempDir — директория временных файлов
	TempDir string
	// DefaultVoice — голос по умолчанию
	DefaultVoice string
	// DefaultFormat — формат аудио по умолчанию
	DefaultFormat string
}

// QRService — оркестрация: файл → (конвертация) → имя → QR → запись.
type QRService struct {
	records   recordstore.Store
	artifacts artifact.Store
	converter *tts.Converter
	cfg       QRServiceConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewQRService создаёт сервис записей QR-кодов.
func NewQRService(
	records recordstore.Store,
	artifacts artifact.Store,
	converter *tts.Converter,
	cfg QRServiceConfig,
	logger *slog.Logger,
) *QRService {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = tts.FormatMP3
	}
	return &QRService{
		records:   records,
		artifacts: artifacts,
		converter: converter,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "qr_service")),
		now:       time.Now,
	}
}

// RegisterUpload сохраняет загруженное аудио под именем {uuid}{ext}
// и создаёт для него запись с QR-кодом.
func (s *QRService) RegisterUpload(ctx context.Context, file FileInput, title, baseURL string) (*model.Record, *Error) {
	if file.Filename == "" || file.Open == nil {
		return nil, validationError("Не выбран файл", nil)
	}

	src, err := file.Open()
	if err != nil {
		return nil, internalError("Ошибка чтения загруженного файла", err)
	}
	defer src.Close()

	secure := naming.SecureFilename(file.Filename)
	audioName := naming.UploadName(file.Filename)

	saved, err := s.artifacts.Save(audioName, src)
	if err != nil {
		s.logger.Error("Ошибка сохранения аудио",
			slog.String("filename", audioName),
			slog.String("error", err.Error()),
		)
		middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
		return nil, internalError("Ошибка сохранения файла", err)
	}

	rec, svcErr := s.createRecord(ctx, audioName, titleOrDefault(title, secure), baseURL)
	if svcErr != nil {
		// Артефакт без записи никому не нужен
		_ = s.artifacts.Remove(audioName)
		middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
		return nil, svcErr
	}

	middleware.OperationsTotal.WithLabelValues("upload", "success").Inc()
	s.logger.Info("Аудио загружено",
		slog.String("record_id", rec.ID),
		slog.String("filename", file.Filename),
		slog.String("audio_filename", audioName),
		slog.Int64("size", saved.Size),
		slog.String("checksum", saved.Checksum),
	)
	return rec, nil
}

// ConvertText озвучивает загруженный текстовый файл и создаёт запись.
//
// Поток:
//  1. Сохранение текста в {temp}/{uuid}.txt
//  2. Конвертация в {temp}/{uuid}.{format}
//  3. Перенос аудио в директорию загрузок под тем же именем
//  4. Создание записи с QR-кодом
//  5. Удаление временного текстового файла (только при успехе)
func (s *QRService) ConvertText(ctx context.Context, file FileInput, opts TextOptions, baseURL string) (*model.Record, *Error) {
	if file.Filename == "" || file.Open == nil {
		return nil, validationError("Не выбран файл", nil)
	}

	voice := opts.Voice
	if voice == "" {
		voice = s.cfg.DefaultVoice
	}
	formatIn := opts.Format
	if formatIn == "" {
		formatIn = s.cfg.DefaultFormat
	}
	format, err := tts.NormalizeFormat(formatIn)
	if err != nil {
		middleware.OperationsTotal.WithLabelValues("convert", "error").Inc()
		return nil, conversionError(err)
	}

	tempTxt, svcErr := s.saveTemp(file)
	if svcErr != nil {
		middleware.OperationsTotal.WithLabelValues("convert", "error").Inc()
		return nil, svcErr
	}

	audioPath, err := s.converter.ConvertFile(ctx, tempTxt, "", voice, format)
	if err != nil {
		middleware.OperationsTotal.WithLabelValues("convert", "error").Inc()
		s.logger.Warn("Ошибка конвертации текста",
			slog.String("filename", file.Filename),
			slog.String("error", err.Error()),
		)
		return nil, conversionError(err)
	}

	audioName := filepath.Base(audioPath)
	if err := s.artifacts.Import(audioPath, audioName); err != nil {
		middleware.OperationsTotal.WithLabelValues("convert", "error").Inc()
		return nil, internalError("Ошибка переноса аудио", err)
	}

	secure := naming.SecureFilename(file.Filename)
	rec, svcErr := s.createRecord(ctx, audioName, titleOrDefault(opts.Title, secure), baseURL)
	if svcErr != nil {
		middleware.OperationsTotal.WithLabelValues("convert", "error").Inc()
		return nil, svcErr
	}

	if err := os.Remove(tempTxt); err != nil {
		s.logger.Warn("Не удалось удалить временный файл",
			slog.String("path", tempTxt),
			slog.String("error", err.Error()),
		)
	}

	middleware.OperationsTotal.WithLabelValues("convert", "success").Inc()
	s.logger.Info("Текст озвучен",
		slog.String("record_id", rec.ID),
		slog.String("filename", file.Filename),
		slog.String("audio_filename", audioName),
		slog.String("voice", voice),
	)
	return rec, nil
}

// BatchUpload обрабатывает сначала аудио-файлы, затем текстовые.
// Файлы с пустым именем пропускаются, ошибка одного файла не прерывает
// обработку остальных.
func (s *QRService) BatchUpload(ctx context.Context, audio, texts []FileInput, opts TextOptions, baseURL string) []BatchItem {
	results := make([]BatchItem, 0, len(audio)+len(texts))

	for _, f := range audio {
		if f.Filename == "" {
			continue
		}
		rec, err := s.RegisterUpload(ctx, f, opts.Title, baseURL)
		results = append(results, batchItem(f.Filename, rec, err))
	}

	for _, f := range texts {
		if f.Filename == "" {
			continue
		}
		rec, err := s.ConvertText(ctx, f, opts, baseURL)
		results = append(results, batchItem(f.Filename, rec, err))
	}

	return results
}

// List возвращает все записи, новые первые.
func (s *QRService) List(ctx context.Context) ([]*model.Record, *Error) {
	records, err := s.records.Load(ctx)
	if err != nil {
		return nil, internalError("Ошибка чтения записей", err)
	}
	model.SortNewestFirst(records)
	middleware.RecordsTotal.Set(float64(len(records)))
	return records, nil
}

// Delete удаляет запись по id. Отсутствующая запись — не ошибка.
// Аудио-артефакт не удаляется.
func (s *QRService) Delete(ctx context.Context, id string) *Error {
	found, err := recordstore.Delete(ctx, s.records, id)
	if err != nil {
		middleware.OperationsTotal.WithLabelValues("delete", "error").Inc()
		return internalError("Ошибка удаления записи", err)
	}

	middleware.OperationsTotal.WithLabelValues("delete", "success").Inc()
	if found {
		middleware.RecordsTotal.Dec()
		s.logger.Info("Запись удалена", slog.String("record_id", id))
	}
	return nil
}

// DownloadQR генерирует QR-код записи в печатном качестве.
func (s *QRService) DownloadQR(ctx context.Context, id string) (*QRDownload, *Error) {
	rec, err := recordstore.FindByID(ctx, s.records, id)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return nil, notFoundError("QR-код не найден")
		}
		return nil, internalError("Ошибка чтения записей", err)
	}

	img, err := qr.Encode(rec.FullURL, qr.Print)
	if err != nil {
		return nil, internalError("Ошибка генерации QR-кода", err)
	}

	return &QRDownload{
		Filename: naming.QRDownloadName(rec.Title),
		PNG:      img.PNG,
	}, nil
}

// OpenAudio открывает аудио-артефакт для отдачи клиенту.
func (s *QRService) OpenAudio(name string) (*os.File, os.FileInfo, *Error) {
	f, info, err := s.artifacts.Open(name)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) || errors.Is(err, artifact.ErrInvalidName) {
			return nil, nil, notFoundError("Файл не найден")
		}
		return nil, nil, internalError("Ошибка чтения файла", err)
	}
	return f, info, nil
}

// createRecord строит URL, генерирует QR-код и добавляет запись.
func (s *QRService) createRecord(ctx context.Context, audioName, title, baseURL string) (*model.Record, *Error) {
	audioURL := naming.AudioURL(audioName)
	fullURL := naming.FullURL(baseURL, audioURL)

	img, err := qr.Encode(fullURL, qr.Preview)
	if err != nil {
		return nil, internalError("Ошибка генерации QR-кода", err)
	}

	if title == "" {
		title = audioName
	}

	rec := &model.Record{
		ID:            uuid.NewString(),
		Title:         title,
		AudioFilename: audioName,
		AudioURL:      audioURL,
		FullURL:       fullURL,
		QRBase64:      img.Base64,
		CreatedAt:     model.NewTimestamp(s.now()),
	}

	if err := recordstore.Append(ctx, s.records, rec); err != nil {
		return nil, internalError("Ошибка сохранения записи", err)
	}
	middleware.RecordsTotal.Inc()
	return rec, nil
}

// saveTemp сохраняет загруженный текст во временный файл {uuid}.txt.
func (s *QRService) saveTemp(file FileInput) (string, *Error) {
	if err := os.MkdirAll(s.cfg.TempDir, 0o750); err != nil {
		return "", internalError("Ошибка создания временной директории", err)
	}

	src, err := file.Open()
	if err != nil {
		return "", internalError("Ошибка чтения загруженного файла", err)
	}
	defer src.Close()

	path := filepath.Join(s.cfg.TempDir, naming.TempName("txt"))
	dst, err := os.Create(path)
	if err != nil {
		return "", internalError("Ошибка создания временного файла", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", internalError("Ошибка записи временного файла", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", internalError("Ошибка записи временного файла", err)
	}
	return path, nil
}

func titleOrDefault(title, fallback string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return fallback
}

func batchItem(filename string, rec *model.Record, err *Error) BatchItem {
	if err != nil {
		return BatchItem{Error: err.Message, Filename: filename}
	}
	return BatchItem{Record: rec, Filename: filename}
}

// String — для логов.
func (b BatchItem) String() string {
	if b.Error != "" {
		return fmt.Sprintf("%s: %s", b.Filename, b.Error)
	}
	return fmt.Sprintf("%s: %s", b.Filename, b.Record.ID)
}
