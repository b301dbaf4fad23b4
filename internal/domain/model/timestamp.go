package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayout — формат записи created_at (RFC 3339 с микросекундами).
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Форматы, принимаемые при чтении. В старых документах время записано
// без часового пояса.
var timestampReadLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp — время создания записи с толерантным JSON-разбором.
// Значение, которое не удалось разобрать, не отбрасывает запись:
// время остаётся нулевым, исходный JSON сохраняется в raw и
// записывается обратно без изменений.
type Timestamp struct {
	time.Time
	raw string
}

// MarshalJSON сериализует время в RFC 3339 с микросекундами.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		if t.raw != "" {
			return []byte(t.raw), nil
		}
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(timestampLayout))
}

// UnmarshalJSON разбирает RFC 3339 или наивный ISO-8601 (локальное время).
// Пустая строка и null дают нулевое время.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	t.raw = ""

	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		t.raw = string(data)
		return nil
	}
	if s == "" {
		return nil
	}

	parsed, err := ParseTimestamp(s)
	if err != nil {
		t.raw = string(data)
		return nil
	}
	t.Time = parsed
	return nil
}

// Raw возвращает исходное значение created_at, если его не удалось разобрать.
func (t Timestamp) Raw() string {
	return t.raw
}

// ParseTimestamp разбирает строку времени в одном из поддерживаемых форматов.
func ParseTimestamp(s string) (time.Time, error) {
	for i, layout := range timestampReadLayouts {
		var (
			parsed time.Time
			err    error
		)
		if i == 0 {
			parsed, err = time.Parse(layout, s)
		} else {
			parsed, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("некорректный формат времени: %q", s)
}
