package speech

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// Source: единый вход для распознавания (поток или файл на диске).
type Source interface {
	Open() (name string, rc io.ReadCloser, err error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, src Source) (*TranscriptionResult, error)
}

// TranscriptionService: весь конвейер, URL или поток → текст
type TranscriptionService interface {
	TranscribeURL(ctx context.Context, rawURL string) (*TranscriptionResult, error)
	TranscribeStream(ctx context.Context, name string, r io.Reader) (*TranscriptionResult, error)
}

type readerSource struct {
	name string
	r    io.Reader
}

// ReaderSource: поток (тело запроса); name нужен провайдеру для определения формата.
func ReaderSource(name string, r io.Reader) Source {
	return readerSource{name: name, r: r}
}

func (s readerSource) Open() (string, io.ReadCloser, error) {
	return s.name, io.NopCloser(s.r), nil
}

type fileSource string

func FileSource(path string) Source {
	return fileSource(path)
}

func (s fileSource) Open() (string, io.ReadCloser, error) {
	f, err := os.Open(string(s))
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(string(s)), f, nil
}
