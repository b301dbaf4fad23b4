package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bigkaa/audioqr/internal/domain/model"
)

// FileStore хранит записи одним JSON-массивом в файле.
// Документ записывается с отступом в 2 пробела, без экранирования
// не-ASCII символов и HTML. Запись атомарна: temp → fsync → rename.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore создаёт хранилище поверх файла path.
// Файл создаётся при первом сохранении.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger.With(slog.String("component", "recordstore")),
	}
}

// Path возвращает путь к JSON-документу.
func (s *FileStore) Path() string {
	return s.path
}

// Load читает все записи. Отсутствующий или невалидный документ
// возвращается как пустой набор.
func (s *FileStore) Load(_ context.Context) ([]*model.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Не удалось прочитать документ записей",
				slog.String("path", s.path),
				slog.String("error", err.Error()),
			)
		}
		return []*model.Record{}, nil
	}

	var records []*model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("Документ записей повреждён, используется пустой набор",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return []*model.Record{}, nil
	}
	if records == nil {
		records = []*model.Record{}
	}
	return records, nil
}

// Save атомарно перезаписывает документ.
func (s *FileStore) Save(_ context.Context, records []*model.Record) error {
	if records == nil {
		records = []*model.Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("ошибка сериализации записей: %w", err)
	}

	return writeAtomic(s.path, bytes.TrimRight(buf.Bytes(), "\n"))
}

// Ping проверяет, что документ доступен для чтения (или ещё не создан).
func (s *FileStore) Ping(_ context.Context) error {
	if _, err := os.Stat(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("документ записей недоступен: %w", err)
	}
	return nil
}

// writeAtomic записывает data в path через уникальный временный файл
// в той же директории.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
	}

	// Уникальное имя: конкурентные Save не пишут в один временный файл
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpPath := f.Name()

	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка установки прав: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return nil
}
