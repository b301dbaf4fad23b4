// Пакет service — бизнес-логика audioqr.
// errors.go — ошибка сервисного слоя с HTTP-кодом.
package service

import (
	"fmt"
	"net/http"

	"github.com/bigkaa/audioqr/internal/tts"
)

// Error — ошибка операции с HTTP-кодом и сообщением для клиента.
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// validationError — 400 некорректные входные данные.
func validationError(message string, err error) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Message: message, Err: err}
}

// notFoundError — 404 ресурс не найден.
func notFoundError(message string) *Error {
	return &Error{StatusCode: http.StatusNotFound, Message: message}
}

// internalError — 500, сообщение включает исходную причину.
func internalError(message string, err error) *Error {
	if err != nil {
		message = message + ": " + err.Error()
	}
	return &Error{StatusCode: http.StatusInternalServerError, Message: message, Err: err}
}

// conversionError классифицирует ошибку конвертации: ошибки входных
// данных — 400, ошибки движка и файловой системы — 500.
func conversionError(err error) *Error {
	if tts.IsValidationError(err) {
		return validationError(err.Error(), err)
	}
	return internalError("Ошибка конвертации", err)
}
