// Пакет tts — синтез речи из текста.
//
// Синтез делегируется внешнему движку через интерфейс Synthesizer:
// EdgeSynthesizer вызывает CLI edge-tts, OpenAISynthesizer — HTTP API
// OpenAI. Converter добавляет проверки входных данных, таймаут и метрики,
// VoiceCache кэширует списки голосов по локали.
package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Поддерживаемые форматы аудио.
const (
	FormatMP3 = "mp3"
	FormatWAV = "wav"
)

// Ошибки конвертации. Все, кроме ошибок движка, — ошибки валидации.
var (
	// ErrEmptyText — текст пустой после обрезки пробелов.
	ErrEmptyText = errors.New("текстовый файл пуст")
	// ErrUnsupportedFormat — формат аудио не mp3 и не wav.
	ErrUnsupportedFormat = errors.New("неподдерживаемый формат аудио, допустимые: mp3, wav")
	// ErrNotTextFile — у исходного файла расширение не .txt.
	ErrNotTextFile = errors.New("файл должен иметь расширение .txt")
	// ErrFileNotFound — исходный файл не существует.
	ErrFileNotFound = errors.New("файл не найден")
	// ErrInvalidLocale — некорректный языковой тег.
	ErrInvalidLocale = errors.New("некорректный код локали")
)

// Метрики синтеза.
var (
	synthesisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aq_tts_duration_seconds",
			Help:    "Длительность синтеза речи в секундах",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"provider", "result"},
	)
)

// Request — параметры синтеза.
type Request struct {
	// Text — текст для озвучивания (непустой)
	Text string
	// Voice — идентификатор голоса движка
	Voice string
	// Format — формат аудио (mp3, wav)
	Format string
}

// Voice — голос движка синтеза.
type Voice struct {
	Name         string `json:"name"`
	ShortName    string `json:"short_name"`
	Gender       string `json:"gender"`
	Locale       string `json:"locale"`
	FriendlyName string `json:"friendly_name,omitempty"`
}

// Synthesizer — движок синтеза речи.
type Synthesizer interface {
	// Name возвращает имя провайдера для логов и метрик.
	Name() string
	// Synthesize записывает аудио для req в файл outPath.
	Synthesize(ctx context.Context, req Request, outPath string) error
	// ListVoices возвращает все доступные голоса.
	ListVoices(ctx context.Context) ([]Voice, error)
}

// NormalizeFormat приводит формат к нижнему регистру и проверяет его.
func NormalizeFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case FormatMP3, FormatWAV:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// IsValidationError сообщает, вызвана ли ошибка некорректными входными данными.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyText) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrNotTextFile) ||
		errors.Is(err, ErrFileNotFound) ||
		errors.Is(err, ErrInvalidLocale)
}
