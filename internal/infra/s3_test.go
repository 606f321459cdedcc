package infra

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/suite"
)

// fakeS3: минимальный path-style S3: GET и PUT объектов в памяти
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		b, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(b)
	case http.MethodPut:
		b, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = b
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type S3ClientSuite struct {
	suite.Suite
	fake   *fakeS3
	srv    *httptest.Server
	client *s3Client
}

func TestS3ClientSuite(t *testing.T) {
	suite.Run(t, new(S3ClientSuite))
}

func (s *S3ClientSuite) SetupTest() {
	s.fake = &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	s.srv = httptest.NewServer(s.fake)

	u, err := url.Parse(s.srv.URL)
	s.Require().NoError(err)

	mc, err := minio.New(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4("access", "secret", ""),
		Secure: false,
		Region: "us-east-1",
	})
	s.Require().NoError(err)
	s.client = &s3Client{client: mc, bucket: "voice"}
}

func (s *S3ClientSuite) TearDownTest() {
	s.srv.Close()
}

func (s *S3ClientSuite) TestDownloadWritesObject() {
	s.fake.objects["/voice/in/note.ogg"] = []byte("ogg-object")
	dst := filepath.Join(s.T().TempDir(), "note.ogg")

	n, err := s.client.Download(context.Background(), "in/note.ogg", dst)
	s.Require().NoError(err)
	s.Equal(int64(len("ogg-object")), n)

	b, err := os.ReadFile(dst)
	s.Require().NoError(err)
	s.Equal("ogg-object", string(b))
}

func (s *S3ClientSuite) TestDownloadMissingObjectLeavesNoFile() {
	dst := filepath.Join(s.T().TempDir(), "missing.ogg")

	_, err := s.client.Download(context.Background(), "in/missing.ogg", dst)
	s.Require().Error(err)

	_, statErr := os.Stat(dst)
	s.True(os.IsNotExist(statErr))
}

func (s *S3ClientSuite) TestUploadFile() {
	src := filepath.Join(s.T().TempDir(), "out.mp3")
	s.Require().NoError(os.WriteFile(src, []byte("mp3-bytes"), 0o600))

	err := s.client.UploadFile(context.Background(), "out/out.mp3", src, "audio/mpeg")
	s.Require().NoError(err)

	s.Equal("mp3-bytes", string(s.fake.objects["/voice/out/out.mp3"]))
	s.Equal("audio/mpeg", s.fake.types["/voice/out/out.mp3"])
}

func (s *S3ClientSuite) TestSignedURLUsesMaxExpiry() {
	signed, err := s.client.SignedURL(context.Background(), "out/out.mp3", 0)
	s.Require().NoError(err)

	s.True(strings.Contains(signed, "/voice/out/out.mp3"))
	s.Contains(signed, "X-Amz-Expires=604800")
	s.Contains(signed, "X-Amz-Signature=")
}

func (s *S3ClientSuite) TestSignedURLKeepsShorterExpiry() {
	signed, err := s.client.SignedURL(context.Background(), "out/out.mp3", time.Hour)
	s.Require().NoError(err)
	s.Contains(signed, "X-Amz-Expires=3600")
}
