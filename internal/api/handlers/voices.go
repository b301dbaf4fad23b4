package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/audioqr/internal/api/errors"
	"github.com/bigkaa/audioqr/internal/tts"
)

// DefaultVoicesLocale — локаль GET /api/voices без параметра.
const DefaultVoicesLocale = "vi-VN"

type voicesResponse struct {
	Locale   string      `json:"locale"`
	Provider string      `json:"provider"`
	Voices   []tts.Voice `json:"voices"`
}

// VoicesHandler — список голосов настроенного движка.
type VoicesHandler struct {
	cache    *tts.VoiceCache
	provider string
	logger   *slog.Logger
}

// NewVoicesHandler создаёт обработчик списка голосов.
func NewVoicesHandler(cache *tts.VoiceCache, provider string, logger *slog.Logger) *VoicesHandler {
	return &VoicesHandler{
		cache:    cache,
		provider: provider,
		logger:   logger.With(slog.String("component", "voices_handler")),
	}
}

// ListVoices обрабатывает GET /api/voices.
func (h *VoicesHandler) ListVoices(w http.ResponseWriter, r *http.Request, params ListVoicesParams) {
	locale := DefaultVoicesLocale
	if params.Locale != nil && *params.Locale != "" {
		locale = *params.Locale
	}

	canonical, err := tts.CanonicalLocale(locale)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	voices, err := h.cache.Voices(r.Context(), canonical)
	if err != nil {
		if errors.Is(err, tts.ErrInvalidLocale) {
			apierrors.ValidationError(w, err.Error())
			return
		}
		h.logger.Error("Ошибка получения списка голосов",
			slog.String("locale", canonical),
			slog.String("error", err.Error()),
		)
		apierrors.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, voicesResponse{
		Locale:   canonical,
		Provider: h.provider,
		Voices:   voices,
	})
}
