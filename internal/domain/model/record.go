// Пакет model — доменные модели audioqr.
// Record — единственная персистентная сущность: связь аудио-артефакта
// с его публичным URL и QR-кодом.
package model

import (
	"sort"
	"time"
)

// Record — запись QR-кода. Порядок полей определяет порядок ключей
// в JSON-документе хранилища.
type Record struct {
	// ID — уникальный идентификатор записи (UUID v4), неизменяемый
	ID string `json:"id"`

	// Title — название, заданное пользователем или полученное из имени файла
	Title string `json:"title"`

	// AudioFilename — имя аудио-артефакта в директории загрузок
	AudioFilename string `json:"audio_filename"`

	// AudioURL — относительный URL: /audio/{audio_filename}
	AudioURL string `json:"audio_url"`

	// FullURL — AudioURL, разрешённый относительно хоста на момент создания
	FullURL string `json:"full_url"`

	// QRBase64 — PNG-изображение QR-кода (кодирует FullURL) в base64
	QRBase64 string `json:"qr_base64"`

	// CreatedAt — время добавления, используется только для сортировки
	CreatedAt Timestamp `json:"created_at"`
}

// Clone возвращает копию записи.
func (r *Record) Clone() *Record {
	copied := *r
	return &copied
}

// SortNewestFirst сортирует записи по дате создания (новые первые).
// Сортировка стабильная: записи с одинаковым временем сохраняют порядок.
func SortNewestFirst(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt.Time)
	})
}

// CloneAll возвращает глубокую копию среза записей.
func CloneAll(records []*Record) []*Record {
	result := make([]*Record, 0, len(records))
	for _, r := range records {
		result = append(result, r.Clone())
	}
	return result
}

// NewTimestamp возвращает Timestamp для момента t с точностью до микросекунд.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Microsecond)}
}
