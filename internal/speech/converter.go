package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/voice_posts/internal/apperr"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

type codecSpec struct {
	encoder string
	ext     string
	probe   string // как кодек называет ffprobe
}

var codecs = map[string]codecSpec{
	"mp3":  {encoder: "libmp3lame", ext: ".mp3", probe: "mp3"},
	"aac":  {encoder: "aac", ext: ".m4a", probe: "aac"},
	"opus": {encoder: "libopus", ext: ".ogg", probe: "opus"},
	"wav":  {encoder: "pcm_s16le", ext: ".wav", probe: "pcm_s16le"},
	"flac": {encoder: "flac", ext: ".flac", probe: "flac"},
}

// ContentType для загрузки результата в S3
func ContentType(codec string) string {
	switch codec {
	case "mp3":
		return "audio/mpeg"
	case "aac":
		return "audio/mp4"
	case "opus":
		return "audio/ogg"
	case "wav":
		return "audio/wav"
	case "flac":
		return "audio/flac"
	}
	return "application/octet-stream"
}

func SupportedTarget(codec string) bool {
	_, ok := codecs[codec]
	return ok
}

func ProbeName(codec string) string {
	return codecs[codec].probe
}

// Ext: расширение выходного файла для кодека
func Ext(codec string) string {
	return codecs[codec].ext
}

const maxDiagnostics = 4 << 10

type FFmpegConverter struct {
	bin string
	dir string
	log *logger.ZapLogger
}

func NewFFmpegConverter(ffmpegPath, stagingDir string, log *logger.ZapLogger) *FFmpegConverter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegConverter{bin: ffmpegPath, dir: stagingDir, log: log}
}

// Convert перекодирует srcPath в codec и возвращает путь к новому файлу.
// Исходник не трогает, его удаляет вызывающий.
func (c *FFmpegConverter) Convert(ctx context.Context, srcPath, codec string) (string, error) {
	spec, ok := codecs[codec]
	if !ok {
		return "", &apperr.ConversionError{Src: srcPath, Codec: codec, Err: errors.New("unsupported target codec")}
	}

	info, err := os.Stat(srcPath)
	if err != nil {
		return "", &apperr.ConversionError{Src: srcPath, Codec: codec, Err: err}
	}
	if info.Size() == 0 {
		return "", &apperr.ConversionError{Src: srcPath, Codec: codec, Err: errors.New("source file is empty")}
	}

	dst := filepath.Join(c.dir, uuid.NewString()+spec.ext)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.bin,
		"-hide_banner",
		"-y",
		"-i", srcPath,
		"-vn",
		"-c:a", spec.encoder,
		dst,
	)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(dst)
		return "", &apperr.ConversionError{
			Src:         srcPath,
			Codec:       codec,
			Diagnostics: tail(stderr.String(), maxDiagnostics),
			Err:         err,
		}
	}

	out, err := os.Stat(dst)
	if err != nil || out.Size() == 0 {
		_ = os.Remove(dst)
		if err == nil {
			err = errors.New("ffmpeg produced an empty file")
		}
		return "", &apperr.ConversionError{Src: srcPath, Codec: codec, Diagnostics: tail(stderr.String(), maxDiagnostics), Err: err}
	}

	c.log.Log(logger.LogEntry{
		Level:   "info",
		Message: fmt.Sprintf("converted %s (%s) -> %s (%s)", srcPath, humanize.Bytes(uint64(info.Size())), dst, humanize.Bytes(uint64(out.Size()))),
		Service: "converter",
	})
	return dst, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
