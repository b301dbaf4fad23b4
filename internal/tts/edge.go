package tts

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// EdgeSynthesizer вызывает CLI edge-tts.
// edge-tts всегда выдаёт MP3-поток: формат влияет только на расширение файла.
type EdgeSynthesizer struct {
	binary string
}

// NewEdgeSynthesizer создаёт движок с путём к исполняемому файлу edge-tts.
func NewEdgeSynthesizer(binary string) *EdgeSynthesizer {
	if binary == "" {
		binary = "edge-tts"
	}
	return &EdgeSynthesizer{binary: binary}
}

// Name возвращает имя провайдера.
func (e *EdgeSynthesizer) Name() string {
	return "edge"
}

// Synthesize запускает edge-tts, передавая текст через stdin.
func (e *EdgeSynthesizer) Synthesize(ctx context.Context, req Request, outPath string) error {
	args := []string{"--file", "-", "--write-media", outPath}
	if req.Voice != "" {
		args = append([]string{"--voice", req.Voice}, args...)
	}

	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Stdin = strings.NewReader(req.Text)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("edge-tts: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// ListVoices запускает edge-tts --list-voices и разбирает вывод.
func (e *EdgeSynthesizer) ListVoices(ctx context.Context) ([]Voice, error) {
	cmd := exec.CommandContext(ctx, e.binary, "--list-voices")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("edge-tts --list-voices: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return ParseVoiceList(stdout.String()), nil
}

// ParseVoiceList разбирает вывод edge-tts --list-voices.
// Поддерживаются оба формата CLI: блоки «Ключ: значение», разделённые
// пустой строкой, и таблица с заголовком Name/Gender.
func ParseVoiceList(out string) []Voice {
	if strings.Contains(out, "ShortName:") {
		return parseVoiceBlocks(out)
	}
	return parseVoiceTable(out)
}

func parseVoiceBlocks(out string) []Voice {
	var (
		voices  []Voice
		current Voice
	)
	flush := func() {
		if current.ShortName != "" {
			if current.Locale == "" {
				current.Locale = localeFromShortName(current.ShortName)
			}
			voices = append(voices, current)
		}
		current = Voice{}
	}

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Name":
			// Новый блок может начинаться без пустой строки
			if current.ShortName != "" {
				flush()
			}
			current.Name = value
		case "ShortName":
			current.ShortName = value
		case "Gender":
			current.Gender = value
		case "Locale":
			current.Locale = value
		case "FriendlyName":
			current.FriendlyName = value
		}
	}
	flush()
	return voices
}

func parseVoiceTable(out string) []Voice {
	var voices []Voice

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[0] == "Name" || strings.HasPrefix(fields[0], "---") {
			continue
		}
		voices = append(voices, Voice{
			Name:      fields[0],
			ShortName: fields[0],
			Gender:    fields[1],
			Locale:    localeFromShortName(fields[0]),
		})
	}
	return voices
}

// localeFromShortName: vi-VN-HoaiMyNeural → vi-VN.
func localeFromShortName(shortName string) string {
	i := strings.LastIndex(shortName, "-")
	if i <= 0 {
		return ""
	}
	return shortName[:i]
}
