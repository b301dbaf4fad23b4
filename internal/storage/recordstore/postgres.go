package recordstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bigkaa/audioqr/internal/domain/model"
)

// recordColumns — колонки qr_records в порядке вставки.
var recordColumns = []string{"id", "title", "audio_filename", "audio_url", "full_url", "qr_base64", "created_at"}

// PostgresStore хранит записи в таблице qr_records.
// Порядок хранения задаётся колонкой seq (bigserial).
// Append и Delete выполняются одним запросом, Save заменяет
// содержимое таблицы в транзакции.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore создаёт хранилище поверх пула подключений.
// Схема создаётся миграциями пакета database.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Load возвращает все записи в порядке добавления.
func (s *PostgresStore) Load(ctx context.Context) ([]*model.Record, error) {
	query := `
		SELECT id, title, audio_filename, audio_url, full_url, qr_base64, created_at
		FROM qr_records
		ORDER BY seq`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения записей: %w", err)
	}
	defer rows.Close()

	records := []*model.Record{}
	for rows.Next() {
		r := &model.Record{}
		if err := rows.Scan(&r.ID, &r.Title, &r.AudioFilename, &r.AudioURL,
			&r.FullURL, &r.QRBase64, &r.CreatedAt.Time); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации записей: %w", err)
	}
	return records, nil
}

// Save заменяет содержимое таблицы набором records.
func (s *PostgresStore) Save(ctx context.Context, records []*model.Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // откат после коммита — no-op

	if _, err := tx.Exec(ctx, `DELETE FROM qr_records`); err != nil {
		return fmt.Errorf("ошибка очистки записей: %w", err)
	}

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, recordValues(r))
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"qr_records"}, recordColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("ошибка вставки записей: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// Append добавляет запись одним INSERT.
func (s *PostgresStore) Append(ctx context.Context, rec *model.Record) error {
	query := `
		INSERT INTO qr_records (id, title, audio_filename, audio_url, full_url, qr_base64, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := s.pool.Exec(ctx, query, recordValues(rec)...); err != nil {
		return fmt.Errorf("ошибка добавления записи: %w", err)
	}
	return nil
}

// Delete удаляет запись по id. Возвращает true, если запись существовала.
func (s *PostgresStore) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM qr_records WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("ошибка удаления записи: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Ping проверяет доступность PostgreSQL.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func recordValues(r *model.Record) []any {
	return []any{r.ID, r.Title, r.AudioFilename, r.AudioURL, r.FullURL, r.QRBase64, r.CreatedAt.Time}
}
