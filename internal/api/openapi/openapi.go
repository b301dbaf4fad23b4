// Пакет openapi — встроенный OpenAPI-контракт HTTP API audioqr.
package openapi

import (
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var document []byte

// Document возвращает исходный YAML контракта.
func Document() []byte {
	return document
}

// Load разбирает и валидирует контракт.
func Load() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора OpenAPI-контракта: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("невалидный OpenAPI-контракт: %w", err)
	}
	return doc, nil
}
