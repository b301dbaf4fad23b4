package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Голоса OpenAI многоязычны, поэтому у них нет локали.
var openAIVoices = []string{"alloy", "ash", "coral", "echo", "fable", "nova", "onyx", "sage", "shimmer"}

// OpenAIConfig — параметры движка OpenAI.
type OpenAIConfig struct {
	// APIKey — ключ API (обязательный)
	APIKey string
	// BaseURL — адрес API без завершающего слэша
	BaseURL string
	// Model — модель синтеза (tts-1, tts-1-hd, gpt-4o-mini-tts)
	Model string
	// DefaultVoice — голос для запросов с голосом другого провайдера
	DefaultVoice string
	// Client — HTTP-клиент (по умолчанию с таймаутом 5 минут)
	Client *http.Client
}

// OpenAISynthesizer вызывает POST {base}/v1/audio/speech.
type OpenAISynthesizer struct {
	cfg OpenAIConfig
}

// NewOpenAISynthesizer создаёт движок OpenAI.
func NewOpenAISynthesizer(cfg OpenAIConfig) (*OpenAISynthesizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("не задан ключ OpenAI API")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "tts-1"
	}
	if !isOpenAIVoice(cfg.DefaultVoice) {
		cfg.DefaultVoice = openAIVoices[0]
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &OpenAISynthesizer{cfg: cfg}, nil
}

// Name возвращает имя провайдера.
func (s *OpenAISynthesizer) Name() string {
	return "openai"
}

// BaseURL возвращает адрес API (используется проверкой зависимостей).
func (s *OpenAISynthesizer) BaseURL() string {
	return s.cfg.BaseURL
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize отправляет текст в OpenAI и атомарно записывает ответ в outPath.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, req Request, outPath string) error {
	voice := req.Voice
	if !isOpenAIVoice(voice) {
		voice = s.cfg.DefaultVoice
	}

	body, err := json.Marshal(speechRequest{
		Model:          s.cfg.Model,
		Input:          req.Text,
		Voice:          voice,
		ResponseFormat: req.Format,
	})
	if err != nil {
		return fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.BaseURL+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.cfg.Client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ошибка запроса к OpenAI: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("OpenAI вернул %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	tmpPath := outPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка чтения аудио: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}
	return nil
}

// ListVoices возвращает фиксированный список голосов OpenAI.
func (s *OpenAISynthesizer) ListVoices(_ context.Context) ([]Voice, error) {
	voices := make([]Voice, 0, len(openAIVoices))
	for _, v := range openAIVoices {
		voices = append(voices, Voice{Name: v, ShortName: v})
	}
	return voices, nil
}

func isOpenAIVoice(v string) bool {
	for _, known := range openAIVoices {
		if v == known {
			return true
		}
	}
	return false
}
