package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bigkaa/audioqr/internal/app"
	"github.com/bigkaa/audioqr/internal/tts"
)

func newTTSCmd(opts *options) *cobra.Command {
	var (
		output     string
		voice      string
		format     string
		listVoices bool
		locale     string
	)

	cmd := &cobra.Command{
		Use:   "tts [FILE]",
		Short: "Озвучить текстовый файл или показать список голосов",
		Long: `Озвучивает текстовый файл FILE (.txt). По умолчанию аудио
сохраняется рядом с исходным файлом с расширением формата.

С флагом --list-voices выводит голоса движка, отфильтрованные по --locale.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if listVoices {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			synth, err := app.NewSynthesizer(cfg)
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())

			if listVoices {
				voices, err := tts.NewVoiceCache(synth, 1, 0).Voices(cmd.Context(), locale)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ShortName\tGender\tLocale")
				for _, v := range voices {
					fmt.Fprintf(w, "%s\t%s\t%s\n", v.ShortName, v.Gender, v.Locale)
				}
				if err := w.Flush(); err != nil {
					return err
				}
				p.Info("Всего голосов: %d", len(voices))
				return nil
			}

			if voice == "" {
				voice = cfg.TTSVoice
			}
			if format == "" {
				format = cfg.TTSFormat
			}

			converter := tts.NewConverter(synth, cfg.TTSTimeout, opts.logger)
			out, err := converter.ConvertFile(cmd.Context(), args[0], output, voice, format)
			if err != nil {
				return err
			}
			p.Success("Аудио сохранено: %s", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "путь к аудио-файлу")
	cmd.Flags().StringVarP(&voice, "voice", "v", "", "голос (по умолчанию AQ_TTS_VOICE)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "формат аудио: mp3 или wav")
	cmd.Flags().BoolVar(&listVoices, "list-voices", false, "показать список голосов")
	cmd.Flags().StringVar(&locale, "locale", "vi-VN", "фильтр голосов по локали (пусто — все)")
	return cmd
}
