package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bigkaa/audioqr/internal/app"
	"github.com/bigkaa/audioqr/internal/service"
)

func newBatchCmd(opts *options) *cobra.Command {
	var (
		dir     string
		baseURL string
		voice   string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Озвучить все текстовые файлы директории и создать QR-коды",
		Long: `Рекурсивно обходит директорию (по умолчанию AQ_MODEL_TXT_DIR),
озвучивает каждый *.txt в директорию загрузок и регистрирует запись.

Повторный запуск не создаёт дубликатов: файлы с готовым аудио и записью
пропускаются, для аудио без записи запись восстанавливается.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			if dir == "" {
				dir = cfg.ModelTxtDir
			}
			if baseURL == "" {
				baseURL = cfg.BaseURL
			}

			a, err := app.New(cmd.Context(), cfg, opts.logger)
			if err != nil {
				return fmt.Errorf("ошибка инициализации: %w", err)
			}
			defer a.Close()

			p := newPrinter(cmd.OutOrStdout())
			p.Info("Директория: %s", dir)
			p.Info("Базовый URL: %s", baseURL)

			job := service.NewBatchJob(a.QR, opts.logger)
			summary, err := job.Run(cmd.Context(), service.BatchOptions{
				Dir:     dir,
				BaseURL: baseURL,
				Voice:   voice,
				Format:  format,
			}, func(ev service.BatchProgress) {
				prefix := fmt.Sprintf("[%d/%d] %s", ev.Index, ev.Total, ev.Path)
				switch ev.Outcome {
				case service.BatchFailed:
					p.Failure("%s: %v", prefix, ev.Err)
				case service.BatchSkipped:
					p.Info("  %s → %s (уже есть)", prefix, ev.AudioFilename)
				case service.BatchRepaired:
					p.Success("%s → %s (запись восстановлена)", prefix, ev.AudioFilename)
				default:
					p.Success("%s → %s", prefix, ev.AudioFilename)
				}
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout())
			p.Info("Итого: %d", summary.Total)
			p.Success("Успешно: %d", summary.Success)
			if summary.Errors > 0 {
				p.Failure("Ошибок: %d", summary.Errors)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "директория с текстовыми файлами (по умолчанию AQ_MODEL_TXT_DIR)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "базовый URL для ссылок (по умолчанию AQ_BASE_URL)")
	cmd.Flags().StringVarP(&voice, "voice", "v", "", "голос (по умолчанию AQ_TTS_VOICE)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "формат аудио: mp3 или wav (по умолчанию AQ_TTS_FORMAT)")
	return cmd
}
