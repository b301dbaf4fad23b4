package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestConstructors проверяет статус и формат тела ошибок.
func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, string)
		status int
	}{
		{"validation", ValidationError, http.StatusBadRequest},
		{"not found", NotFound, http.StatusNotFound},
		{"too large", FileTooLarge, http.StatusRequestEntityTooLarge},
		{"internal", InternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, "Không có file")

			if rec.Code != tt.status {
				t.Errorf("статус = %d, ожидалось %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %s", ct)
			}

			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("ошибка декодирования: %v", err)
			}
			if body["error"] != "Không có file" || len(body) != 1 {
				t.Errorf("тело = %v", body)
			}
		})
	}
}
