// Пакет pdftext — извлечение текста из PDF.
// Текст каждой страницы предваряется маркером «--- Trang N ---»,
// страницы разделяются пустой строкой, страницы без текста пропускаются.
package pdftext

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Ошибки извлечения.
var (
	// ErrNotPDF — у файла расширение не .pdf.
	ErrNotPDF = errors.New("файл должен иметь расширение .pdf")
	// ErrFileNotFound — исходный файл не существует.
	ErrFileNotFound = errors.New("файл не найден")
)

// Document — постраничный источник текста.
type Document interface {
	// NumPage возвращает количество страниц.
	NumPage() int
	// PageText возвращает текст страницы n (нумерация с 1).
	PageText(n int) (string, error)
}

// ProgressFunc вызывается после обработки каждой страницы.
type ProgressFunc func(page, total int)

// PageMarker возвращает маркер начала страницы n.
func PageMarker(n int) string {
	return fmt.Sprintf("--- Trang %d ---", n)
}

// Extract собирает текст документа.
func Extract(doc Document, progress ProgressFunc) (string, error) {
	total := doc.NumPage()
	parts := make([]string, 0, total)

	for n := 1; n <= total; n++ {
		text, err := doc.PageText(n)
		if err != nil {
			return "", fmt.Errorf("ошибка чтения страницы %d: %w", n, err)
		}
		if text != "" {
			parts = append(parts, PageMarker(n)+"\n"+text+"\n")
		}
		if progress != nil {
			progress(n, total)
		}
	}

	return strings.Join(parts, "\n"), nil
}

// ConvertFile извлекает текст из pdfPath и записывает его в outPath.
// Если outPath пуст, используется путь исходного файла с расширением .txt.
// Возвращает путь созданного файла.
func ConvertFile(pdfPath, outPath string, progress ProgressFunc) (string, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, pdfPath)
		}
		return "", fmt.Errorf("ошибка доступа к файлу %s: %w", pdfPath, err)
	}
	if !strings.EqualFold(filepath.Ext(pdfPath), ".pdf") {
		return "", fmt.Errorf("%w: %s", ErrNotPDF, pdfPath)
	}

	if outPath == "" {
		outPath = strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + ".txt"
	}

	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения PDF: %w", err)
	}
	defer f.Close()

	text, err := Extract(&reader{r: r}, progress)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("ошибка записи файла %s: %w", outPath, err)
	}
	return outPath, nil
}

// reader адаптирует pdf.Reader к Document.
type reader struct {
	r *pdf.Reader
}

func (d *reader) NumPage() int {
	return d.r.NumPage()
}

func (d *reader) PageText(n int) (string, error) {
	p := d.r.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	text, err := p.GetPlainText(pageFonts(p))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	return text, nil
}

// pageFonts строит таблицу шрифтов по ресурсам страницы p.
// Имена ресурсов (/F1, /F2) локальны для страницы: одно и то же имя
// на разных страницах может ссылаться на разные шрифты.
func pageFonts(p pdf.Page) map[string]*pdf.Font {
	names := p.Fonts()
	fonts := make(map[string]*pdf.Font, len(names))
	for _, name := range names {
		font := p.Font(name)
		fonts[name] = &font
	}
	return fonts
}
