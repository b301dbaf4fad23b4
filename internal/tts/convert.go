package tts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Converter проверяет входные данные и вызывает Synthesizer.
type Converter struct {
	synth   Synthesizer
	timeout time.Duration
	logger  *slog.Logger
}

// NewConverter создаёт конвертер. timeout ограничивает одну конвертацию,
// 0 — без ограничения.
func NewConverter(synth Synthesizer, timeout time.Duration, logger *slog.Logger) *Converter {
	return &Converter{
		synth:   synth,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "tts")),
	}
}

// Synthesizer возвращает используемый движок.
func (c *Converter) Synthesizer() Synthesizer {
	return c.synth
}

// ConvertText озвучивает text в файл outPath.
// Пустой после обрезки текст — ErrEmptyText, файл при этом не создаётся.
// При ошибке движка частично записанный файл удаляется.
func (c *Converter) ConvertText(ctx context.Context, text, voice, format, outPath string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}

	format, err := NormalizeFormat(format)
	if err != nil {
		return err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
		}
	}

	c.logger.Info("Синтез речи",
		slog.String("provider", c.synth.Name()),
		slog.String("voice", voice),
		slog.String("format", format),
		slog.Int("chars", len([]rune(text))),
	)

	start := time.Now()
	err = c.synth.Synthesize(ctx, Request{Text: text, Voice: voice, Format: format}, outPath)
	if err == nil {
		err = checkOutput(outPath)
	}
	elapsed := time.Since(start)

	if err != nil {
		synthesisDuration.WithLabelValues(c.synth.Name(), "error").Observe(elapsed.Seconds())
		os.Remove(outPath)
		c.logger.Error("Ошибка синтеза речи",
			slog.String("output", outPath),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("ошибка синтеза речи: %w", err)
	}

	synthesisDuration.WithLabelValues(c.synth.Name(), "success").Observe(elapsed.Seconds())
	c.logger.Info("Аудио создано",
		slog.String("output", outPath),
		slog.Duration("duration", elapsed),
	)
	return nil
}

// ConvertFile озвучивает текстовый файл txtPath.
// Если outPath пуст, используется путь исходного файла с расширением формата.
// Возвращает путь созданного аудио-файла.
func (c *Converter) ConvertFile(ctx context.Context, txtPath, outPath, voice, format string) (string, error) {
	info, err := os.Stat(txtPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, txtPath)
		}
		return "", fmt.Errorf("ошибка доступа к файлу %s: %w", txtPath, err)
	}
	if info.IsDir() || !strings.EqualFold(filepath.Ext(txtPath), ".txt") {
		return "", fmt.Errorf("%w: %s", ErrNotTextFile, txtPath)
	}

	format, err = NormalizeFormat(format)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(txtPath)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения файла %s: %w", txtPath, err)
	}

	if outPath == "" {
		outPath = DefaultOutputPath(txtPath, format)
	}

	if err := c.ConvertText(ctx, string(data), voice, format, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// DefaultOutputPath заменяет расширение txtPath на формат аудио.
func DefaultOutputPath(txtPath, format string) string {
	return strings.TrimSuffix(txtPath, filepath.Ext(txtPath)) + "." + format
}

// checkOutput проверяет, что движок создал непустой файл.
func checkOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("движок не создал файл %s: %w", path, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("движок создал пустой файл %s", path)
	}
	return nil
}
