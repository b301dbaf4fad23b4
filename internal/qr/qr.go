// Пакет qr — генерация PNG-изображений QR-кодов.
// Два фиксированных профиля: preview (10 px на модуль) для отображения
// на странице и print (20 px на модуль) для скачивания. В обоих профилях
// используется максимальный уровень коррекции ошибок и поле в 4 модуля.
package qr

import (
	"encoding/base64"
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// Profile — профиль качества изображения.
type Profile string

const (
	// Preview — изображение для отображения на странице.
	Preview Profile = "preview"
	// Print — изображение повышенного качества для печати.
	Print Profile = "print"
)

// ErrEmptyContent — пустая строка для кодирования.
var ErrEmptyContent = errors.New("пустое содержимое QR-кода")

// Image — результат генерации QR-кода.
type Image struct {
	// PNG — байты PNG-изображения
	PNG []byte
	// Base64 — PNG в стандартной base64-кодировке
	Base64 string
}

// ModulePixels возвращает размер модуля в пикселях для профиля.
func (p Profile) ModulePixels() int {
	if p == Print {
		return 20
	}
	return 10
}

// Encode кодирует content в PNG по профилю p.
func Encode(content string, p Profile) (*Image, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	code, err := qrcode.New(content, qrcode.Highest)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации QR-кода: %w", err)
	}

	// Отрицательный размер задаёт пиксели на модуль, а не размер изображения
	png, err := code.PNG(-p.ModulePixels())
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования PNG: %w", err)
	}

	return &Image{
		PNG:    png,
		Base64: base64.StdEncoding.EncodeToString(png),
	}, nil
}
