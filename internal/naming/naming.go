// Пакет naming — правила именования аудио-артефактов и построения URL.
//
// Используются две политики имён:
//   - загрузки из веб-интерфейса получают имя {uuid}{ext}, коллизии исключены;
//   - пакетное задание использует безопасное имя {stem}.{format}, поэтому
//     повторный запуск над той же директорией находит уже созданные файлы.
package naming

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// AudioURLPrefix — префикс относительного URL аудио-артефакта.
const AudioURLPrefix = "/audio/"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Зарезервированные имена устройств Windows.
var windowsDeviceNames = map[string]bool{
	"CON": true, "AUX": true, "COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "PRN": true, "NUL": true,
}

// SecureFilename приводит имя файла к безопасному ASCII-виду:
// символы раскладываются по NFKD и теряют диакритику, разделители пути
// и пробелы заменяются на '_', всё, кроме [A-Za-z0-9_.-], удаляется,
// ведущие и завершающие '.' и '_' обрезаются. Может вернуть пустую строку.
func SecureFilename(name string) string {
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if r > unicode.MaxASCII {
			continue
		}
		b.WriteRune(r)
	}
	name = b.String()

	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")

	if name != "" {
		base := strings.ToUpper(strings.SplitN(name, ".", 2)[0])
		if windowsDeviceNames[base] {
			name = "_" + name
		}
	}
	return name
}

// UploadName возвращает имя артефакта для загрузки из веб-интерфейса:
// новый UUID плюс расширение безопасной формы исходного имени.
func UploadName(original string) string {
	return uuid.NewString() + filepath.Ext(SecureFilename(original))
}

// TempName возвращает уникальное имя временного файла с расширением ext.
func TempName(ext string) string {
	return uuid.NewString() + "." + strings.TrimPrefix(ext, ".")
}

// BatchName возвращает детерминированное имя артефакта пакетного задания.
func BatchName(stem, format string) string {
	return SecureFilename(stem + "." + format)
}

// Stem возвращает имя файла без директории и последнего расширения.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// AudioURL возвращает относительный URL артефакта.
func AudioURL(filename string) string {
	return AudioURLPrefix + filename
}

// FullURL разрешает относительный URL относительно базового адреса.
func FullURL(baseURL, audioURL string) string {
	return strings.TrimRight(baseURL, "/") + audioURL
}

// QRDownloadName возвращает имя файла для скачивания QR-кода в печатном качестве.
func QRDownloadName(title string) string {
	return SecureFilename(title) + "_qrcode.png"
}
