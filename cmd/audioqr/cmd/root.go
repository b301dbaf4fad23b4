// Пакет cmd — команды CLI audioqr: пакетное задание, озвучивание
// текстовых файлов, извлечение текста из PDF.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bigkaa/audioqr/internal/config"
)

// options — общее состояние команд.
type options struct {
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCmd создаёт дерево команд audioqr.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "audioqr",
		Short: "audioqr — аудио и текст в QR-коды",
		Long: `audioqr озвучивает текстовые файлы, регистрирует аудио
и создаёт QR-коды со ссылкой на него.

Параметры берутся из переменных окружения AQ_*, файла .env
и конфигурационного файла (--config).`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd.ErrOrStderr())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "конфигурационный файл (yaml, json, toml)")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "подробные логи")

	root.AddCommand(
		newBatchCmd(opts),
		newTTSCmd(opts),
		newPDF2TxtCmd(opts),
	)
	return root
}

// Execute запускает CLI.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

// setup загружает конфигурацию и настраивает логгер.
func (o *options) setup(logOut io.Writer) error {
	if err := applyConfigFile(o.cfgFile); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	o.cfg = cfg

	level := slog.LevelWarn
	if o.verbose {
		level = cfg.LogLevel
	}
	o.logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))
	return nil
}

// applyConfigFile читает конфигурационный файл через viper и переносит
// его ключи в переменные окружения AQ_*. Уже заданные переменные
// окружения имеют приоритет над файлом.
func applyConfigFile(path string) error {
	if path == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("ошибка чтения конфигурационного файла %s: %w", path, err)
	}

	for _, key := range v.AllKeys() {
		env := "AQ_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
		if _, ok := os.LookupEnv(env); ok {
			continue
		}
		if err := os.Setenv(env, v.GetString(key)); err != nil {
			return fmt.Errorf("ошибка установки %s: %w", env, err)
		}
	}
	return nil
}

// printer — цветной вывод результатов команд.
type printer struct {
	out io.Writer
	ok  *color.Color
	bad *color.Color
	dim *color.Color
}

func newPrinter(out io.Writer) *printer {
	return &printer{
		out: out,
		ok:  color.New(color.FgGreen),
		bad: color.New(color.FgRed),
		dim: color.New(color.FgHiBlack),
	}
}

func (p *printer) Success(format string, args ...any) {
	p.ok.Fprintf(p.out, "✓ "+format+"\n", args...)
}

func (p *printer) Failure(format string, args ...any) {
	p.bad.Fprintf(p.out, "✗ "+format+"\n", args...)
}

func (p *printer) Info(format string, args ...any) {
	p.dim.Fprintf(p.out, format+"\n", args...)
}
