package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// TestRecord_JSONKeyOrder проверяет стабильный порядок ключей в JSON.
func TestRecord_JSONKeyOrder(t *testing.T) {
	rec := &Record{
		ID:            "id-1",
		Title:         "Сказка",
		AudioFilename: "a.mp3",
		AudioURL:      "/audio/a.mp3",
		FullURL:       "http://localhost:5000/audio/a.mp3",
		QRBase64:      "iVBOR",
		CreatedAt:     NewTimestamp(time.Date(2025, 1, 2, 3, 4, 5, 6000, time.UTC)),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("ошибка сериализации: %v", err)
	}

	keys := []string{`"id"`, `"title"`, `"audio_filename"`, `"audio_url"`, `"full_url"`, `"qr_base64"`, `"created_at"`}
	last := -1
	for _, k := range keys {
		pos := strings.Index(string(data), k)
		if pos <= last {
			t.Fatalf("ключ %s не на своём месте: %s", k, data)
		}
		last = pos
	}

	if !strings.Contains(string(data), `"2025-01-02T03:04:05.000006Z"`) {
		t.Errorf("неожиданный формат created_at: %s", data)
	}
}

// TestTimestamp_NaiveISO проверяет чтение времени без часового пояса.
func TestTimestamp_NaiveISO(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"id":"x","created_at":"2024-05-06T07:08:09.123456"}`), &rec); err != nil {
		t.Fatalf("ошибка разбора: %v", err)
	}

	want := time.Date(2024, 5, 6, 7, 8, 9, 123456000, time.Local)
	if !rec.CreatedAt.Equal(want) {
		t.Errorf("ожидалось %v, получено %v", want, rec.CreatedAt.Time)
	}
}

// TestTimestamp_Unparsable проверяет, что нестандартное значение не
// ломает разбор записи и записывается обратно без изменений.
func TestTimestamp_Unparsable(t *testing.T) {
	for _, raw := range []string{`"2024-01-02"`, `"вчера"`, `1714978089`} {
		var rec Record
		if err := json.Unmarshal([]byte(`{"id":"x","created_at":`+raw+`}`), &rec); err != nil {
			t.Fatalf("%s: ошибка разбора: %v", raw, err)
		}
		if rec.ID != "x" || !rec.CreatedAt.IsZero() || rec.CreatedAt.Raw() != raw {
			t.Errorf("%s: неожиданная запись: %+v", raw, rec)
		}

		out, err := json.Marshal(rec.CreatedAt)
		if err != nil {
			t.Fatalf("%s: ошибка сериализации: %v", raw, err)
		}
		if string(out) != raw {
			t.Errorf("ожидалось %s, получено %s", raw, out)
		}
	}
}

// TestSortNewestFirst_Unparsable проверяет, что запись с неразобранным
// временем уходит в конец списка.
func TestSortNewestFirst_Unparsable(t *testing.T) {
	var odd Record
	if err := json.Unmarshal([]byte(`{"id":"odd","created_at":"2024-01-02"}`), &odd); err != nil {
		t.Fatalf("ошибка разбора: %v", err)
	}
	fresh := &Record{ID: "fresh", CreatedAt: NewTimestamp(time.Now())}

	records := []*Record{&odd, fresh}
	SortNewestFirst(records)
	if records[0].ID != "fresh" || records[1].ID != "odd" {
		t.Errorf("неожиданный порядок: %s, %s", records[0].ID, records[1].ID)
	}
}

// TestSortNewestFirst проверяет сортировку по дате создания.
func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []*Record{
		{ID: "old", CreatedAt: NewTimestamp(base)},
		{ID: "new", CreatedAt: NewTimestamp(base.Add(2 * time.Hour))},
		{ID: "mid", CreatedAt: NewTimestamp(base.Add(time.Hour))},
	}

	SortNewestFirst(records)

	got := []string{records[0].ID, records[1].ID, records[2].ID}
	want := []string{"new", "mid", "old"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("порядок: ожидалось %v, получено %v", want, got)
		}
	}
}
