package tts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeSynth — движок для тестов: пишет текст запроса в выходной файл.
type fakeSynth struct {
	mu        sync.Mutex
	calls     int
	listCalls int
	err       error
	voices    []Voice
	last      Request
}

func (f *fakeSynth) Name() string { return "fake" }

func (f *fakeSynth) Synthesize(_ context.Context, req Request, outPath string) error {
	f.mu.Lock()
	f.calls++
	f.last = req
	f.mu.Unlock()

	if f.err != nil {
		// Имитация частично записанного файла
		os.WriteFile(outPath, []byte("partial"), 0o644)
		return f.err
	}
	return os.WriteFile(outPath, []byte("AUDIO:"+req.Text), 0o644)
}

func (f *fakeSynth) ListVoices(_ context.Context) ([]Voice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.voices, nil
}

// TestConvertText_EmptyText проверяет отказ для пустого текста без создания файла.
func TestConvertText_EmptyText(t *testing.T) {
	synth := &fakeSynth{}
	c := NewConverter(synth, time.Second, testLogger())
	out := filepath.Join(t.TempDir(), "out.mp3")

	err := c.ConvertText(context.Background(), " \n\t ", "vi-VN-HoaiMyNeural", "mp3", out)
	if !errors.Is(err, ErrEmptyText) {
		t.Fatalf("ожидалась ErrEmptyText, получено %v", err)
	}
	if !IsValidationError(err) {
		t.Error("пустой текст должен быть ошибкой валидации")
	}
	if synth.calls != 0 {
		t.Error("движок не должен вызываться для пустого текста")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("для пустого текста создан файл")
	}
}

// TestConvertText_Format проверяет нормализацию и отказ для неизвестного формата.
func TestConvertText_Format(t *testing.T) {
	synth := &fakeSynth{}
	c := NewConverter(synth, 0, testLogger())
	dir := t.TempDir()

	if err := c.ConvertText(context.Background(), "Xin chào", "v", "WAV", filepath.Join(dir, "a.wav")); err != nil {
		t.Fatalf("ConvertText() ошибка: %v", err)
	}
	if synth.last.Format != FormatWAV || synth.last.Text != "Xin chào" {
		t.Errorf("неожиданный запрос к движку: %+v", synth.last)
	}

	err := c.ConvertText(context.Background(), "Xin chào", "v", "ogg", filepath.Join(dir, "a.ogg"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ожидалась ErrUnsupportedFormat, получено %v", err)
	}
}

// TestConvertText_EngineFailure проверяет удаление частичного файла при ошибке движка.
func TestConvertText_EngineFailure(t *testing.T) {
	synth := &fakeSynth{err: errors.New("сеть недоступна")}
	c := NewConverter(synth, time.Second, testLogger())
	out := filepath.Join(t.TempDir(), "out.mp3")

	err := c.ConvertText(context.Background(), "text", "v", "mp3", out)
	if err == nil {
		t.Fatal("ожидалась ошибка")
	}
	if IsValidationError(err) {
		t.Error("ошибка движка не является ошибкой валидации")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("частичный файл не удалён")
	}
}

// TestConvertFile проверяет проверки исходного файла и путь по умолчанию.
func TestConvertFile(t *testing.T) {
	synth := &fakeSynth{}
	c := NewConverter(synth, time.Second, testLogger())
	dir := t.TempDir()
	ctx := context.Background()

	if _, err := c.ConvertFile(ctx, filepath.Join(dir, "missing.txt"), "", "v", "mp3"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("ожидалась ErrFileNotFound, получено %v", err)
	}

	doc := filepath.Join(dir, "story.md")
	os.WriteFile(doc, []byte("text"), 0o644)
	if _, err := c.ConvertFile(ctx, doc, "", "v", "mp3"); !errors.Is(err, ErrNotTextFile) {
		t.Errorf("ожидалась ErrNotTextFile, получено %v", err)
	}

	txt := filepath.Join(dir, "Story.TXT")
	os.WriteFile(txt, []byte("  Ngày xửa ngày xưa  \n"), 0o644)

	out, err := c.ConvertFile(ctx, txt, "", "v", "mp3")
	if err != nil {
		t.Fatalf("ConvertFile() ошибка: %v", err)
	}
	if out != filepath.Join(dir, "Story.mp3") {
		t.Errorf("путь по умолчанию = %s", out)
	}
	data, _ := os.ReadFile(out)
	if string(data) != "AUDIO:Ngày xửa ngày xưa" {
		t.Errorf("содержимое = %q", data)
	}

	explicit := filepath.Join(dir, "sub", "custom.wav")
	if out, err := c.ConvertFile(ctx, txt, explicit, "v", "wav"); err != nil || out != explicit {
		t.Errorf("ConvertFile() с явным путём = %s, %v", out, err)
	}
}

// TestParseVoiceList_Blocks проверяет разбор блочного формата edge-tts.
func TestParseVoiceList_Blocks(t *testing.T) {
	out := `Name: Microsoft Server Speech Text to Speech Voice (vi-VN, HoaiMyNeural)
ShortName: vi-VN-HoaiMyNeural
Gender: Female
Locale: vi-VN

Name: Microsoft Server Speech Text to Speech Voice (vi-VN, NamMinhNeural)
ShortName: vi-VN-NamMinhNeural
Gender: Male
Locale: vi-VN
`
	voices := ParseVoiceList(out)
	if len(voices) != 2 {
		t.Fatalf("ожидалось 2 голоса, получено %d", len(voices))
	}
	if voices[1].ShortName != "vi-VN-NamMinhNeural" || voices[1].Gender != "Male" || voices[1].Locale != "vi-VN" {
		t.Errorf("неожиданный голос: %+v", voices[1])
	}
}

// TestParseVoiceList_Table проверяет разбор табличного формата edge-tts.
func TestParseVoiceList_Table(t *testing.T) {
	out := `Name                               Gender    ContentCategories      VoicePersonalities
---------------------------------  --------  ---------------------  --------------------------------------
en-US-AriaNeural                   Female    News, Novel            Positive, Confident
vi-VN-HoaiMyNeural                 Female    General                Friendly, Positive
zh-CN-liaoning-XiaobeiNeural       Female    Dialect                Humorous
`
	voices := ParseVoiceList(out)
	if len(voices) != 3 {
		t.Fatalf("ожидалось 3 голоса, получено %d", len(voices))
	}
	if voices[1].Locale != "vi-VN" || voices[2].Locale != "zh-CN-liaoning" {
		t.Errorf("неверные локали: %s, %s", voices[1].Locale, voices[2].Locale)
	}
}

// TestVoiceCache проверяет фильтрацию по локали и кэширование.
func TestVoiceCache(t *testing.T) {
	synth := &fakeSynth{voices: []Voice{
		{ShortName: "vi-VN-HoaiMyNeural", Locale: "vi-VN"},
		{ShortName: "en-US-AriaNeural", Locale: "en-US"},
		{ShortName: "en-GB-SoniaNeural", Locale: "en-GB"},
	}}
	cache := NewVoiceCache(synth, 8, time.Minute)
	ctx := context.Background()

	vi, err := cache.Voices(ctx, "vi-vn")
	if err != nil {
		t.Fatalf("Voices() ошибка: %v", err)
	}
	if len(vi) != 1 || vi[0].ShortName != "vi-VN-HoaiMyNeural" {
		t.Errorf("vi-VN: %+v", vi)
	}

	en, _ := cache.Voices(ctx, "en")
	if len(en) != 2 {
		t.Errorf("en: ожидалось 2 голоса, получено %d", len(en))
	}

	all, _ := cache.Voices(ctx, "")
	if len(all) != 3 {
		t.Errorf("без локали: ожидалось 3 голоса, получено %d", len(all))
	}

	if _, err := cache.Voices(ctx, "vi-VN"); err != nil {
		t.Fatalf("Voices() ошибка: %v", err)
	}
	if synth.listCalls != 3 {
		t.Errorf("ожидалось 3 обращения к движку, получено %d", synth.listCalls)
	}

	if _, err := cache.Voices(ctx, "??"); !errors.Is(err, ErrInvalidLocale) {
		t.Errorf("ожидалась ErrInvalidLocale, получено %v", err)
	}
}

// TestOpenAISynthesizer проверяет формат запроса и запись ответа.
func TestOpenAISynthesizer(t *testing.T) {
	var got speechRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "audio/mpeg")
		io.WriteString(w, "ID3-fake-mp3")
	}))
	defer srv.Close()

	synth, err := NewOpenAISynthesizer(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/", DefaultVoice: "nova"})
	if err != nil {
		t.Fatalf("NewOpenAISynthesizer() ошибка: %v", err)
	}

	out := filepath.Join(t.TempDir(), "a.mp3")
	req := Request{Text: "Xin chào", Voice: "vi-VN-HoaiMyNeural", Format: "mp3"}
	if err := synth.Synthesize(context.Background(), req, out); err != nil {
		t.Fatalf("Synthesize() ошибка: %v", err)
	}

	if got.Model != "tts-1" || got.Input != "Xin chào" || got.Voice != "nova" || got.ResponseFormat != "mp3" {
		t.Errorf("неожиданный запрос: %+v", got)
	}
	data, _ := os.ReadFile(out)
	if string(data) != "ID3-fake-mp3" {
		t.Errorf("содержимое = %q", data)
	}

	voices, _ := synth.ListVoices(context.Background())
	if len(FilterVoices(voices, "vi-VN")) != len(voices) {
		t.Error("многоязычные голоса должны подходить под любую локаль")
	}
}

// TestOpenAISynthesizer_Error проверяет обработку ошибки API.
func TestOpenAISynthesizer_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"rate limit"}}`)
	}))
	defer srv.Close()

	synth, _ := NewOpenAISynthesizer(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
	out := filepath.Join(t.TempDir(), "a.mp3")

	if err := synth.Synthesize(context.Background(), Request{Text: "x", Format: "mp3"}, out); err == nil {
		t.Fatal("ожидалась ошибка")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("при ошибке API создан файл")
	}

	if _, err := NewOpenAISynthesizer(OpenAIConfig{}); err == nil {
		t.Error("ожидалась ошибка без ключа")
	}
}

// edgeScript — заглушка CLI edge-tts: копирует stdin в --write-media.
const edgeScript = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    --write-media) out="$2"; shift 2 ;;
    --list-voices)
      printf 'Name                Gender    ContentCategories\n'
      printf '------------------  --------  -----------------\n'
      printf 'vi-VN-HoaiMyNeural  Female    General\n'
      exit 0 ;;
    *) shift ;;
  esac
done
cat > "$out"
`

// TestEdgeSynthesizer проверяет вызов CLI через заглушку.
func TestEdgeSynthesizer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("заглушка edge-tts написана на sh")
	}

	dir := t.TempDir()
	bin := filepath.Join(dir, "edge-tts")
	if err := os.WriteFile(bin, []byte(edgeScript), 0o755); err != nil {
		t.Fatalf("ошибка записи заглушки: %v", err)
	}

	synth := NewEdgeSynthesizer(bin)
	out := filepath.Join(dir, "a.mp3")
	if err := synth.Synthesize(context.Background(), Request{Text: "Xin chào", Voice: "vi-VN-HoaiMyNeural"}, out); err != nil {
		t.Fatalf("Synthesize() ошибка: %v", err)
	}
	data, _ := os.ReadFile(out)
	if string(data) != "Xin chào" {
		t.Errorf("содержимое = %q", data)
	}

	voices, err := synth.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices() ошибка: %v", err)
	}
	if len(voices) != 1 || voices[0].Locale != "vi-VN" {
		t.Errorf("голоса: %+v", voices)
	}

	missing := NewEdgeSynthesizer(filepath.Join(dir, "nope"))
	if err := missing.Synthesize(context.Background(), Request{Text: "x"}, out); err == nil {
		t.Error("ожидалась ошибка для отсутствующего бинарника")
	}
}
