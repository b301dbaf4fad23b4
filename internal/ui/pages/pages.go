// Пакет pages — страницы веб-интерфейса audioqr.
// Страницы статические: разметка встраивается через //go:embed и не
// зависит от запроса, данные подгружаются скриптом страницы через API.
// templ используется как общий интерфейс компонента и HTTP-обработчик
// (templ.Handler), генерации .templ здесь нет.
package pages

import (
	"context"
	"embed"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

//go:embed html/*.html
var content embed.FS

// Index — страница загрузки (аудио или текст, один или несколько файлов).
func Index() templ.Component {
	return page("html/index.html")
}

// Manage — галерея записей с прослушиванием, скачиванием и удалением.
func Manage() templ.Component {
	return page("html/manage.html")
}

func page(name string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		data, err := content.ReadFile(name)
		if err != nil {
			return fmt.Errorf("страница %s не найдена: %w", name, err)
		}
		_, err = w.Write(data)
		return err
	})
}
