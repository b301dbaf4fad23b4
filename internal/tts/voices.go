package tts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/text/language"
)

// Метрики кэша голосов.
var (
	voicesCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aq_voices_cache_hits_total",
		Help: "Общее количество попаданий в кэш списков голосов.",
	})
	voicesCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aq_voices_cache_misses_total",
		Help: "Общее количество промахов кэша списков голосов.",
	})
)

// VoiceCache — LRU-кэш списков голосов по локали с TTL.
type VoiceCache struct {
	synth Synthesizer
	cache *expirable.LRU[string, []Voice]
}

// NewVoiceCache создаёт кэш поверх движка synth.
func NewVoiceCache(synth Synthesizer, maxSize int, ttl time.Duration) *VoiceCache {
	return &VoiceCache{
		synth: synth,
		cache: expirable.NewLRU[string, []Voice](maxSize, nil, ttl),
	}
}

// Voices возвращает голоса, локаль которых содержит тег locale.
// Пустая локаль — все голоса. Голоса без локали (многоязычные) подходят
// под любой тег.
func (c *VoiceCache) Voices(ctx context.Context, locale string) ([]Voice, error) {
	key, err := CanonicalLocale(locale)
	if err != nil {
		return nil, err
	}

	if voices, ok := c.cache.Get(key); ok {
		voicesCacheHits.Inc()
		return voices, nil
	}
	voicesCacheMisses.Inc()

	all, err := c.synth.ListVoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка голосов: %w", err)
	}

	voices := FilterVoices(all, key)
	c.cache.Add(key, voices)
	return voices, nil
}

// CanonicalLocale приводит языковой тег к каноническому виду (vi-vn → vi-VN).
func CanonicalLocale(locale string) (string, error) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return "", nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocale, locale)
	}
	return tag.String(), nil
}

// FilterVoices оставляет голоса, локаль которых содержит locale как подстроку.
func FilterVoices(voices []Voice, locale string) []Voice {
	result := make([]Voice, 0, len(voices))
	for _, v := range voices {
		if locale == "" || v.Locale == "" || strings.Contains(v.Locale, locale) {
			result = append(result, v)
		}
	}
	return result
}
