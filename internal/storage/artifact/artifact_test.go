package artifact

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) (*DiskStore, string) {
	t.Helper()
	root := t.TempDir()
	stories := filepath.Join(root, "audio_stories")
	s, err := NewDiskStore(filepath.Join(root, "uploads"), stories)
	if err != nil {
		t.Fatalf("NewDiskStore() ошибка: %v", err)
	}
	return s, stories
}

// TestSave_RoundTrip проверяет, что сохранённые данные читаются байт в байт.
func TestSave_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	data := bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x00}, 4096)
	res, err := s.Save("song.mp3", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Save() ошибка: %v", err)
	}

	sum := sha256.Sum256(data)
	if res.Checksum != hex.EncodeToString(sum[:]) {
		t.Errorf("checksum = %s", res.Checksum)
	}
	if res.Size != int64(len(data)) {
		t.Errorf("size = %d, ожидалось %d", res.Size, len(data))
	}
	if !s.Exists("song.mp3") {
		t.Error("Exists() = false после Save()")
	}
	if tmp, _ := filepath.Glob(filepath.Join(s.UploadDir(), "*.tmp")); len(tmp) != 0 {
		t.Errorf("временные файлы не удалены: %v", tmp)
	}

	f, info, err := s.Open("song.mp3")
	if err != nil {
		t.Fatalf("Open() ошибка: %v", err)
	}
	defer f.Close()

	got, _ := io.ReadAll(f)
	if !bytes.Equal(got, data) {
		t.Error("прочитанные данные отличаются от записанных")
	}
	if info.Size() != int64(len(data)) {
		t.Errorf("info.Size() = %d", info.Size())
	}
}

// TestOpen_FallbackDir проверяет поиск во второй директории.
func TestOpen_FallbackDir(t *testing.T) {
	s, stories := newTestStore(t)

	if err := os.MkdirAll(stories, 0o750); err != nil {
		t.Fatalf("ошибка создания директории: %v", err)
	}
	if err := os.WriteFile(filepath.Join(stories, "tale.mp3"), []byte("story"), 0o644); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}

	f, _, err := s.Open("tale.mp3")
	if err != nil {
		t.Fatalf("Open() ошибка: %v", err)
	}
	f.Close()

	if s.Exists("tale.mp3") {
		t.Error("Exists() проверяет только директорию загрузок")
	}
}

// TestOpen_NotFound проверяет ErrNotFound для отсутствующего файла.
func TestOpen_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	if _, _, err := s.Open("missing.mp3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ErrNotFound, получено %v", err)
	}
}

// TestInvalidNames проверяет отказ для имён с компонентами пути.
func TestInvalidNames(t *testing.T) {
	s, _ := newTestStore(t)

	for _, name := range []string{"", "..", "../secret", "a/b.mp3", `a\b.mp3`} {
		if _, _, err := s.Open(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Open(%q): ожидалась ErrInvalidName, получено %v", name, err)
		}
		if _, err := s.Save(name, bytes.NewReader(nil)); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Save(%q): ожидалась ErrInvalidName, получено %v", name, err)
		}
		if s.Exists(name) {
			t.Errorf("Exists(%q) = true", name)
		}
	}
}

// TestImport проверяет перемещение файла в директорию загрузок.
func TestImport(t *testing.T) {
	s, _ := newTestStore(t)

	src := filepath.Join(t.TempDir(), "tmp.wav")
	if err := os.WriteFile(src, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}

	if err := s.Import(src, "final.wav"); err != nil {
		t.Fatalf("Import() ошибка: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("исходный файл не удалён")
	}
	data, err := os.ReadFile(s.Path("final.wav"))
	if err != nil || string(data) != "RIFF" {
		t.Errorf("содержимое после Import() = %q, %v", data, err)
	}

	if err := s.Import(filepath.Join(t.TempDir(), "nope"), "x.wav"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ErrNotFound для отсутствующего источника, получено %v", err)
	}
}

// TestRemove проверяет идемпотентное удаление.
func TestRemove(t *testing.T) {
	s, _ := newTestStore(t)

	if _, err := s.Save("a.mp3", bytes.NewReader([]byte("a"))); err != nil {
		t.Fatalf("Save() ошибка: %v", err)
	}
	if err := s.Remove("a.mp3"); err != nil {
		t.Fatalf("Remove() ошибка: %v", err)
	}
	if err := s.Remove("a.mp3"); err != nil {
		t.Errorf("повторный Remove() ошибка: %v", err)
	}
	if s.Exists("a.mp3") {
		t.Error("файл не удалён")
	}
}

// TestSave_ConcurrentSameName проверяет конкурентную запись под одним именем:
// каждый вызов успешен, итоговый файл целиком совпадает с одной из версий.
func TestSave_ConcurrentSameName(t *testing.T) {
	s, _ := newTestStore(t)

	const writers = 16
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Save("same.mp3", bytes.NewReader(bytes.Repeat([]byte{byte(i)}, 64*1024)))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Save() ошибка: %v", err)
		}
	}

	data, err := os.ReadFile(filepath.Join(s.UploadDir(), "same.mp3"))
	if err != nil {
		t.Fatalf("ошибка чтения: %v", err)
	}
	if len(data) != 64*1024 || !bytes.Equal(data, bytes.Repeat(data[:1], len(data))) {
		t.Error("файл содержит смесь версий")
	}
	if tmp, _ := filepath.Glob(filepath.Join(s.UploadDir(), "*.tmp")); len(tmp) != 0 {
		t.Errorf("временные файлы не удалены: %v", tmp)
	}
}
