// Пакет config — загрузка и валидация конфигурации audioqr
// из переменных окружения.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Бэкенды хранилища записей.
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Провайдеры синтеза речи.
const (
	TTSEdge   = "edge"
	TTSOpenAI = "openai"
)

// Config содержит все параметры конфигурации audioqr.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Директория аудио-артефактов
	UploadDir string
	// Дополнительная директория артефактов (только чтение)
	StoriesDir string
	// Директория временных файлов
	TempDir string
	// Максимальный размер тела запроса в байтах
	MaxUploadSize int64

	// Бэкенд хранилища записей: file, memory, postgres
	StoreBackend string
	// JSON-документ для бэкенда file
	DataFile string
	// Строка подключения PostgreSQL (обязательна для postgres)
	DatabaseURL string

	// Публичный базовый URL для full_url (опционально)
	PublicBaseURL string
	// Базовый URL пакетного задания
	BaseURL string
	// Исходная директория пакетного задания
	ModelTxtDir string

	// Провайдер TTS: edge или openai
	TTSProvider string
	// Голос по умолчанию
	TTSVoice string
	// Формат аудио по умолчанию (mp3, wav)
	TTSFormat string
	// Таймаут одной конвертации
	TTSTimeout time.Duration
	// Путь к исполняемому файлу edge-tts
	EdgeTTSBinary string
	// Ключ OpenAI API
	OpenAIAPIKey string
	// Базовый URL OpenAI API
	OpenAIBaseURL string
	// Модель синтеза OpenAI
	OpenAIModel string

	// TTL кэша списка голосов
	VoicesCacheTTL time.Duration
	// Размер кэша списка голосов
	VoicesCacheSize int

	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// Таймауты HTTP-сервера
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	// Таймаут graceful shutdown
	ShutdownTimeout time.Duration

	// Имя сервиса в метриках topologymetrics
	ServiceID string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration
}

// Load загружает конфигурацию из переменных окружения (и файла .env,
// если он есть в рабочей директории), валидирует значения и
// возвращает Config или ошибку.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	var err error

	// AQ_PORT — порт HTTP-сервера (по умолчанию 5000, PORT как запасной вариант)
	port, err := getEnvInt("AQ_PORT", 0)
	if err != nil {
		return nil, fmt.Errorf("AQ_PORT: %w", err)
	}
	if port == 0 {
		port, err = getEnvInt("PORT", 5000)
		if err != nil {
			return nil, fmt.Errorf("PORT: %w", err)
		}
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("AQ_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	cfg.UploadDir = getEnvDefault("AQ_UPLOAD_DIR", "uploads")
	cfg.StoriesDir = getEnvDefault("AQ_STORIES_DIR", "audio_stories")
	cfg.TempDir = getEnvDefault("AQ_TEMP_DIR", "temp")

	// AQ_MAX_UPLOAD_SIZE — лимит тела запроса (по умолчанию 50 MB)
	cfg.MaxUploadSize, err = getEnvInt64("AQ_MAX_UPLOAD_SIZE", 50*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("AQ_MAX_UPLOAD_SIZE: %w", err)
	}
	if cfg.MaxUploadSize <= 0 {
		return nil, fmt.Errorf("AQ_MAX_UPLOAD_SIZE: значение должно быть положительным")
	}

	// AQ_STORE_BACKEND — бэкенд хранилища записей (по умолчанию file)
	cfg.StoreBackend = getEnvDefault("AQ_STORE_BACKEND", StoreFile)
	switch cfg.StoreBackend {
	case StoreFile, StoreMemory:
	case StorePostgres:
		cfg.DatabaseURL, err = getEnvRequired("AQ_DATABASE_URL")
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("AQ_STORE_BACKEND: недопустимое значение %q, допустимые: file, memory, postgres", cfg.StoreBackend)
	}
	cfg.DataFile = getEnvDefault("AQ_DATA_FILE", "qr_data.json")

	cfg.PublicBaseURL = strings.TrimRight(getEnvDefault("AQ_PUBLIC_BASE_URL", ""), "/")
	cfg.BaseURL = getEnvDefault("AQ_BASE_URL", getEnvDefault("BASE_URL", "http://localhost:5000"))
	cfg.ModelTxtDir = getEnvDefault("AQ_MODEL_TXT_DIR", "model_txt")

	// AQ_TTS_PROVIDER — провайдер синтеза речи (по умолчанию edge)
	cfg.TTSProvider = getEnvDefault("AQ_TTS_PROVIDER", TTSEdge)
	if cfg.TTSProvider != TTSEdge && cfg.TTSProvider != TTSOpenAI {
		return nil, fmt.Errorf("AQ_TTS_PROVIDER: недопустимое значение %q, допустимые: edge, openai", cfg.TTSProvider)
	}
	cfg.TTSVoice = getEnvDefault("AQ_TTS_VOICE", "vi-VN-HoaiMyNeural")

	cfg.TTSFormat = strings.ToLower(getEnvDefault("AQ_TTS_FORMAT", "mp3"))
	if cfg.TTSFormat != "mp3" && cfg.TTSFormat != "wav" {
		return nil, fmt.Errorf("AQ_TTS_FORMAT: недопустимое значение %q, допустимые: mp3, wav", cfg.TTSFormat)
	}

	cfg.TTSTimeout, err = getEnvDuration("AQ_TTS_TIMEOUT", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("AQ_TTS_TIMEOUT: %w", err)
	}

	cfg.EdgeTTSBinary = getEnvDefault("AQ_EDGE_TTS_BINARY", "edge-tts")
	cfg.OpenAIAPIKey = getEnvDefault("AQ_OPENAI_API_KEY", os.Getenv("OPENAI_API_KEY"))
	cfg.OpenAIBaseURL = strings.TrimRight(getEnvDefault("AQ_OPENAI_BASE_URL", "https://api.openai.com"), "/")
	cfg.OpenAIModel = getEnvDefault("AQ_OPENAI_MODEL", "tts-1")
	if cfg.TTSProvider == TTSOpenAI && cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("AQ_OPENAI_API_KEY: обязателен для провайдера openai")
	}

	cfg.VoicesCacheTTL, err = getEnvDuration("AQ_VOICES_CACHE_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("AQ_VOICES_CACHE_TTL: %w", err)
	}
	cfg.VoicesCacheSize, err = getEnvInt("AQ_VOICES_CACHE_SIZE", 32)
	if err != nil {
		return nil, fmt.Errorf("AQ_VOICES_CACHE_SIZE: %w", err)
	}
	if cfg.VoicesCacheSize <= 0 {
		return nil, fmt.Errorf("AQ_VOICES_CACHE_SIZE: значение должно быть положительным")
	}

	// AQ_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("AQ_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("AQ_LOG_LEVEL: %w", err)
	}

	// AQ_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("AQ_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("AQ_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	cfg.HTTPReadTimeout, err = getEnvDuration("AQ_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AQ_HTTP_READ_TIMEOUT: %w", err)
	}
	// Конвертация TTS выполняется в рамках запроса, поэтому таймаут записи большой
	cfg.HTTPWriteTimeout, err = getEnvDuration("AQ_HTTP_WRITE_TIMEOUT", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("AQ_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("AQ_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AQ_HTTP_IDLE_TIMEOUT: %w", err)
	}
	cfg.ShutdownTimeout, err = getEnvDuration("AQ_SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AQ_SHUTDOWN_TIMEOUT: %w", err)
	}

	cfg.ServiceID = getEnvDefault("AQ_SERVICE_ID", "audioqr")
	cfg.DephealthCheckInterval, err = getEnvDuration("AQ_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AQ_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// loadDotEnv загружает переменные из файла path, не перезаписывая уже заданные.
// Отсутствие файла не считается ошибкой.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("ошибка чтения %s: %w", path, err)
}

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 5m, 1h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
