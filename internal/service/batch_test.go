package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/bigkaa/audioqr/internal/tts"
)

func writeText(t *testing.T, path, text string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("ошибка создания директории: %v", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("ошибка записи файла: %v", err)
	}
}

func newTestBatch(env *testEnv) *BatchJob {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewBatchJob(env.svc, logger)
}

// TestBatchJob_Run проверяет конвертацию, порядок и итог задания.
func TestBatchJob_Run(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	writeText(t, filepath.Join(dir, "b.txt"), "hai")
	writeText(t, filepath.Join(dir, "a.txt"), "một")
	writeText(t, filepath.Join(dir, "sub", "c d.txt"), "ba")
	writeText(t, filepath.Join(dir, "notes.md"), "не текст задания")
	writeText(t, filepath.Join(dir, "upper.TXT"), "регистр учитывается")

	var events []BatchProgress
	summary, err := newTestBatch(env).Run(context.Background(), BatchOptions{
		Dir:     dir,
		BaseURL: "http://localhost:5000/",
	}, func(p BatchProgress) {
		events = append(events, p)
	})
	if err != nil {
		t.Fatalf("Run ошибка: %v", err)
	}

	if summary.Total != 3 || summary.Success != 3 || summary.Errors != 0 {
		t.Fatalf("итог %+v, ожидалось 3/0/3", summary)
	}

	wantNames := []string{"a.mp3", "b.mp3", "c_d.mp3"}
	for i, p := range events {
		if p.AudioFilename != wantNames[i] {
			t.Errorf("событие %d: имя %q, ожидалось %q", i, p.AudioFilename, wantNames[i])
		}
		if p.Outcome != BatchCreated {
			t.Errorf("событие %d: результат %q", i, p.Outcome)
		}
		if p.Index != i+1 || p.Total != 3 {
			t.Errorf("событие %d: позиция %d/%d", i, p.Index, p.Total)
		}
	}

	rec := events[0].Record
	if rec.Title != "a" {
		t.Errorf("title = %q, ожидалось имя файла без расширения", rec.Title)
	}
	if rec.FullURL != "http://localhost:5000/audio/a.mp3" {
		t.Errorf("full_url = %q", rec.FullURL)
	}
	if got := decodeQR(t, rec.QRBase64); got != rec.FullURL {
		t.Errorf("QR = %q", got)
	}
}

// TestBatchJob_Idempotent проверяет, что повторный запуск не создаёт дубликатов.
func TestBatchJob_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	writeText(t, filepath.Join(dir, "one.txt"), "1")
	writeText(t, filepath.Join(dir, "two.txt"), "2")

	job := newTestBatch(env)
	opts := BatchOptions{Dir: dir, BaseURL: "http://localhost:5000"}

	if _, err := job.Run(context.Background(), opts, nil); err != nil {
		t.Fatalf("первый запуск: %v", err)
	}
	calls := env.synth.Calls()

	var outcomes []BatchOutcome
	summary, err := job.Run(context.Background(), opts, func(p BatchProgress) {
		outcomes = append(outcomes, p.Outcome)
	})
	if err != nil {
		t.Fatalf("второй запуск: %v", err)
	}

	if env.records.Count() != 2 {
		t.Errorf("записей %d, ожидалось 2", env.records.Count())
	}
	if env.synth.Calls() != calls {
		t.Error("повторный запуск вызвал движок")
	}
	if summary.Success != 2 {
		t.Errorf("пропуск должен считаться успехом: %+v", summary)
	}
	for _, o := range outcomes {
		if o != BatchSkipped {
			t.Errorf("результат %q, ожидалось skipped", o)
		}
	}
}

// TestBatchJob_Repair проверяет восстановление записи для существующего аудио.
func TestBatchJob_Repair(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	writeText(t, filepath.Join(dir, "lost.txt"), "text")

	if err := os.WriteFile(filepath.Join(env.uploadDir, "lost.mp3"), []byte("old audio"), 0o644); err != nil {
		t.Fatalf("ошибка подготовки аудио: %v", err)
	}

	var events []BatchProgress
	summary, err := newTestBatch(env).Run(context.Background(), BatchOptions{Dir: dir}, func(p BatchProgress) {
		events = append(events, p)
	})
	if err != nil {
		t.Fatalf("Run ошибка: %v", err)
	}

	if summary.Success != 1 || events[0].Outcome != BatchRepaired {
		t.Fatalf("итог %+v, результат %q", summary, events[0].Outcome)
	}
	if env.synth.Calls() != 0 {
		t.Error("движок вызван для существующего аудио")
	}

	data, _ := os.ReadFile(filepath.Join(env.uploadDir, "lost.mp3"))
	if string(data) != "old audio" {
		t.Error("существующее аудио перезаписано")
	}
	if env.records.Count() != 1 {
		t.Errorf("записей %d, ожидалось 1", env.records.Count())
	}
}

// TestBatchJob_ErrorIsolation проверяет, что ошибка файла не прерывает задание.
func TestBatchJob_ErrorIsolation(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	writeText(t, filepath.Join(dir, "a_empty.txt"), "   ")
	writeText(t, filepath.Join(dir, "b_ok.txt"), "ok")

	var events []BatchProgress
	summary, err := newTestBatch(env).Run(context.Background(), BatchOptions{Dir: dir}, func(p BatchProgress) {
		events = append(events, p)
	})
	if err != nil {
		t.Fatalf("Run ошибка: %v", err)
	}

	if summary.Success != 1 || summary.Errors != 1 || summary.Total != 2 {
		t.Fatalf("итог %+v, ожидалось 1/1/2", summary)
	}
	if events[0].Outcome != BatchFailed || events[0].Err == nil {
		t.Errorf("первый файл: %+v", events[0])
	}
	if env.artifacts.Exists("a_empty.mp3") {
		t.Error("для пустого текста создано аудио")
	}
}

// TestBatchJob_MissingDir проверяет ошибку для несуществующей директории.
func TestBatchJob_MissingDir(t *testing.T) {
	env := newTestEnv(t)

	_, err := newTestBatch(env).Run(context.Background(), BatchOptions{
		Dir: filepath.Join(t.TempDir(), "missing"),
	}, nil)
	if err == nil {
		t.Fatal("ожидалась ошибка")
	}
}

// TestBatchJob_FormatCase проверяет, что формат приводится к нижнему
// регистру: запуск с MP3 и затем с mp3 находит одни и те же файлы.
func TestBatchJob_FormatCase(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	writeText(t, filepath.Join(dir, "one.txt"), "1")

	job := newTestBatch(env)
	var first []BatchProgress
	if _, err := job.Run(context.Background(), BatchOptions{Dir: dir, Format: "MP3"}, func(p BatchProgress) {
		first = append(first, p)
	}); err != nil {
		t.Fatalf("первый запуск: %v", err)
	}
	if len(first) != 1 || first[0].AudioFilename != "one.mp3" {
		t.Fatalf("неожиданные события: %+v", first)
	}

	var second []BatchProgress
	if _, err := job.Run(context.Background(), BatchOptions{Dir: dir, Format: "mp3"}, func(p BatchProgress) {
		second = append(second, p)
	}); err != nil {
		t.Fatalf("второй запуск: %v", err)
	}
	if len(second) != 1 || second[0].Outcome != BatchSkipped {
		t.Errorf("ожидался пропуск, получено %+v", second)
	}
	if env.records.Count() != 1 {
		t.Errorf("записей %d, ожидалось 1", env.records.Count())
	}
}

// TestBatchJob_InvalidFormat проверяет отказ до обработки файлов.
func TestBatchJob_InvalidFormat(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	writeText(t, filepath.Join(dir, "one.txt"), "1")

	_, err := newTestBatch(env).Run(context.Background(), BatchOptions{Dir: dir, Format: "ogg"}, nil)
	if !errors.Is(err, tts.ErrUnsupportedFormat) {
		t.Fatalf("ожидалась ErrUnsupportedFormat, получено %v", err)
	}
	if env.synth.Calls() != 0 || env.records.Count() != 0 {
		t.Error("задание обработало файлы при неверном формате")
	}
}
