package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bigkaa/audioqr/internal/pdftext"
)

func newPDF2TxtCmd(_ *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "pdf2txt FILE",
		Short: "Извлечь текст из PDF",
		Long: `Извлекает текст каждой страницы PDF. Текст страницы предваряется
маркером «--- Trang N ---», пустые страницы пропускаются.
По умолчанию результат сохраняется рядом с исходным файлом (.txt).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout())

			out, err := pdftext.ConvertFile(args[0], output, func(page, total int) {
				p.Info("Страница %d/%d", page, total)
			})
			if err != nil {
				return fmt.Errorf("ошибка извлечения текста: %w", err)
			}
			p.Success("Текст сохранён: %s", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "путь к текстовому файлу")
	return cmd
}
