// Пакет recordstore — хранилище записей QR-кодов.
//
// Контракт хранилища минимален: Load возвращает весь набор записей,
// Save заменяет его целиком. Мутации (Append, Delete) выполняются
// циклом «прочитать, изменить, записать» без межвызовной блокировки:
// при конкурентной записи побеждает последний писатель.
// Бэкенд может реализовать Appender/Deleter, чтобы выполнять мутацию
// атомарно (например, PostgresStore в рамках одного SQL-запроса).
package recordstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/bigkaa/audioqr/internal/domain/model"
)

// ErrNotFound — запись не найдена.
var ErrNotFound = errors.New("запись не найдена")

// Store — хранилище записей.
type Store interface {
	// Load возвращает все записи в порядке хранения.
	// Отсутствующий или повреждённый документ считается пустым хранилищем.
	Load(ctx context.Context) ([]*model.Record, error)
	// Save полностью заменяет набор записей.
	Save(ctx context.Context, records []*model.Record) error
}

// Appender — бэкенд с собственной реализацией добавления записи.
type Appender interface {
	Append(ctx context.Context, rec *model.Record) error
}

// Deleter — бэкенд с собственной реализацией удаления записи.
type Deleter interface {
	Delete(ctx context.Context, id string) (bool, error)
}

// Append добавляет запись в конец хранилища.
func Append(ctx context.Context, s Store, rec *model.Record) error {
	if a, ok := s.(Appender); ok {
		return a.Append(ctx, rec)
	}

	records, err := s.Load(ctx)
	if err != nil {
		return fmt.Errorf("ошибка чтения записей: %w", err)
	}
	records = append(records, rec)
	if err := s.Save(ctx, records); err != nil {
		return fmt.Errorf("ошибка сохранения записей: %w", err)
	}
	return nil
}

// Delete удаляет запись по id. Возвращает true, если запись была найдена.
// Удаление отсутствующей записи не является ошибкой, документ при этом
// не перезаписывается.
func Delete(ctx context.Context, s Store, id string) (bool, error) {
	if d, ok := s.(Deleter); ok {
		return d.Delete(ctx, id)
	}

	records, err := s.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("ошибка чтения записей: %w", err)
	}

	kept := make([]*model.Record, 0, len(records))
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(records) {
		return false, nil
	}

	if err := s.Save(ctx, kept); err != nil {
		return false, fmt.Errorf("ошибка сохранения записей: %w", err)
	}
	return true, nil
}

// FindByID возвращает запись по id или ErrNotFound.
func FindByID(ctx context.Context, s Store, id string) (*model.Record, error) {
	return find(ctx, s, func(r *model.Record) bool { return r.ID == id })
}

// FindByAudioFilename возвращает первую запись, ссылающуюся на файл, или ErrNotFound.
func FindByAudioFilename(ctx context.Context, s Store, filename string) (*model.Record, error) {
	return find(ctx, s, func(r *model.Record) bool { return r.AudioFilename == filename })
}

func find(ctx context.Context, s Store, match func(*model.Record) bool) (*model.Record, error) {
	records, err := s.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения записей: %w", err)
	}
	for _, r := range records {
		if match(r) {
			return r, nil
		}
	}
	return nil, ErrNotFound
}
