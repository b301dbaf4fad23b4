// batch.go — пакетное задание: озвучивание всех текстовых файлов директории
// и регистрация записи для каждого.
//
// Для каждого *.txt (рекурсивно, в лексическом порядке):
//   - имя артефакта детерминировано: secure(stem.format)
//   - артефакт есть и запись есть — пропуск (считается успехом)
//   - артефакт есть, записи нет — восстановление записи
//   - артефакта нет — конвертация прямо в директорию загрузок
//
// Ошибка одного файла не прерывает задание.
package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/audioqr/internal/api/middleware"
	"github.com/bigkaa/audioqr/internal/domain/model"
	"github.com/bigkaa/audioqr/internal/naming"
	"github.com/bigkaa/audioqr/internal/storage/recordstore"
	"github.com/bigkaa/audioqr/internal/tts"
)

// Prometheus метрики пакетного задания
var (
	// batchFilesTotal — обработанные файлы по результату.
	batchFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aq_batch_files_total",
		Help: "Общее количество файлов, обработанных пакетным заданием",
	}, []string{"result"})

	// batchDurationSeconds — длительность выполнения задания.
	batchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aq_batch_duration_seconds",
		Help:    "Длительность выполнения пакетного задания в секундах",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
	})
)

// BatchOutcome — результат обработки одного файла.
type BatchOutcome string

const (
	// BatchCreated — аудио создано, запись добавлена
	BatchCreated BatchOutcome = "created"
	// BatchRepaired — аудио уже было, запись восстановлена
	BatchRepaired BatchOutcome = "repaired"
	// BatchSkipped — аудио и запись уже есть
	BatchSkipped BatchOutcome = "skipped"
	// BatchFailed — ошибка
	BatchFailed BatchOutcome = "failed"
)

// BatchProgress — событие обработки файла.
type BatchProgress struct {
	// Index — порядковый номер файла (с 1)
	Index int
	// Total — общее количество файлов
	Total int
	// Path — путь к текстовому файлу
	Path string
	// AudioFilename — имя артефакта
	AudioFilename string
	// Outcome — результат
	Outcome BatchOutcome
	// Record — созданная или найденная запись
	Record *model.Record
	// Err — ошибка при Outcome == BatchFailed
	Err error
}

// BatchSummary — итог задания.
type BatchSummary struct {
	Success int
	Errors  int
	Total   int
}

// BatchOptions — параметры запуска задания.
type BatchOptions struct {
	// Dir — директория с текстовыми файлами
	Dir string
	// BaseURL — базовый адрес для full_url
	BaseURL string
	// Voice — голос (пусто — голос по умолчанию)
	Voice string
	// Format — формат аудио (пусто — формат по умолчанию)
	Format string
}

// BatchJob — пакетное задание поверх QRService.
type BatchJob struct {
	svc    *QRService
	logger *slog.Logger
}

// NewBatchJob создаёт пакетное задание.
func NewBatchJob(svc *QRService, logger *slog.Logger) *BatchJob {
	return &BatchJob{
		svc:    svc,
		logger: logger.With(slog.String("component", "batch")),
	}
}

// Run обрабатывает все *.txt в opts.Dir. progress вызывается после каждого
// файла и может быть nil. Ошибка возвращается, только если директорию
// не удалось обойти.
func (j *BatchJob) Run(ctx context.Context, opts BatchOptions, progress func(BatchProgress)) (*BatchSummary, error) {
	start := time.Now()
	defer func() {
		batchDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	if opts.Voice == "" {
		opts.Voice = j.svc.cfg.DefaultVoice
	}
	if opts.Format == "" {
		opts.Format = j.svc.cfg.DefaultFormat
	}
	// Имя артефакта строится из формата: MP3 и mp3 должны дать одно имя
	format, err := tts.NormalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	opts.Format = format

	files, err := FindTextFiles(opts.Dir)
	if err != nil {
		return nil, err
	}

	j.logger.Info("Пакетное задание запущено",
		slog.String("dir", opts.Dir),
		slog.Int("files", len(files)),
		slog.String("voice", opts.Voice),
		slog.String("format", opts.Format),
	)

	summary := &BatchSummary{Total: len(files)}
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		p := j.processFile(ctx, path, opts)
		p.Index = i + 1
		p.Total = len(files)

		batchFilesTotal.WithLabelValues(string(p.Outcome)).Inc()
		if p.Outcome == BatchFailed {
			summary.Errors++
			j.logger.Warn("Ошибка обработки файла",
				slog.String("path", path),
				slog.String("error", p.Err.Error()),
			)
		} else {
			summary.Success++
		}

		if progress != nil {
			progress(p)
		}
	}

	j.logger.Info("Пакетное задание завершено",
		slog.Int("success", summary.Success),
		slog.Int("errors", summary.Errors),
		slog.Int("total", summary.Total),
		slog.Duration("duration", time.Since(start)),
	)
	return summary, nil
}

func (j *BatchJob) processFile(ctx context.Context, path string, opts BatchOptions) BatchProgress {
	stem := naming.Stem(path)
	name := naming.BatchName(stem, opts.Format)
	p := BatchProgress{Path: path, AudioFilename: name}

	fail := func(err error) BatchProgress {
		p.Outcome = BatchFailed
		p.Err = err
		return p
	}

	outcome := BatchCreated
	if j.svc.artifacts.Exists(name) {
		rec, err := recordstore.FindByAudioFilename(ctx, j.svc.records, name)
		switch {
		case err == nil:
			p.Outcome = BatchSkipped
			p.Record = rec
			return p
		case errors.Is(err, recordstore.ErrNotFound):
			outcome = BatchRepaired
		default:
			return fail(err)
		}
	} else {
		if _, err := j.svc.converter.ConvertFile(ctx, path, j.svc.artifacts.Path(name), opts.Voice, opts.Format); err != nil {
			return fail(err)
		}
		if !j.svc.artifacts.Exists(name) {
			return fail(fmt.Errorf("аудио-файл не создан: %s", name))
		}
	}

	rec, svcErr := j.svc.createRecord(ctx, name, stem, opts.BaseURL)
	if svcErr != nil {
		return fail(svcErr)
	}
	middleware.OperationsTotal.WithLabelValues("batch", "success").Inc()

	p.Outcome = outcome
	p.Record = rec
	return p
}

// FindTextFiles рекурсивно находит файлы с суффиксом .txt в лексическом порядке.
func FindTextFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && strings.HasSuffix(d.Name(), ".txt") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка обхода директории %s: %w", dir, err)
	}
	return files, nil
}
