package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/voice_posts/internal/apperr"
	"github.com/Vovarama1992/voice_posts/internal/ports"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

type Fetcher struct {
	dir    string
	client *http.Client
	log    *logger.ZapLogger
}

func NewFetcher(stagingDir string, client *http.Client, log *logger.ZapLogger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{dir: stagingDir, client: client, log: log}
}

// Fetch скачивает rawURL в уникальный staging-файл. При любой ошибке
// недокачанный файл удаляется до возврата ошибки.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*ports.AudioResource, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &apperr.FetchError{URL: rawURL, Err: errors.New("absolute http(s) url required")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &apperr.FetchError{URL: rawURL, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &apperr.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &apperr.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(b))),
		}
	}

	ext := path.Ext(u.Path)
	if ext == "" {
		ext = ports.ExtFromContentType(resp.Header.Get("Content-Type"))
	}
	ext = strings.ToLower(ext)

	res := &ports.AudioResource{
		Source:    rawURL,
		LocalPath: filepath.Join(f.dir, uuid.NewString()+ext),
		Codec:     strings.TrimPrefix(ext, "."),
	}

	n, err := writeFile(res.LocalPath, resp.Body)
	if err == nil && resp.ContentLength >= 0 && n != resp.ContentLength {
		err = fmt.Errorf("short body: got %d of %d bytes", n, resp.ContentLength)
	}
	if err != nil {
		_ = res.Cleanup()
		return nil, &apperr.FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}

	f.log.Log(logger.LogEntry{
		Level:   "info",
		Message: fmt.Sprintf("fetched %s (%s) -> %s", rawURL, humanize.Bytes(uint64(n)), res.LocalPath),
		Service: "fetcher",
	})
	return res, nil
}

func writeFile(dst string, r io.Reader) (int64, error) {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}
