package speech

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Vovarama1992/voice_posts/internal/ai"
	"github.com/Vovarama1992/voice_posts/internal/apperr"
	"github.com/stretchr/testify/suite"
)

type WhisperClientSuite struct {
	suite.Suite
	srv      *httptest.Server
	status   int
	body     string
	gotModel string
	gotName  string
	gotAudio string
	client   *WhisperClient
}

func TestWhisperClientSuite(t *testing.T) {
	suite.Run(t, new(WhisperClientSuite))
}

func (s *WhisperClientSuite) SetupTest() {
	s.status = http.StatusOK
	s.body = `{"text": "hello from whisper"}`
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/v1/audio/transcriptions", r.URL.Path)
		s.Require().NoError(r.ParseMultipartForm(1 << 20))
		s.gotModel = r.FormValue("model")

		f, hdr, err := r.FormFile("file")
		s.Require().NoError(err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		s.gotName = hdr.Filename
		s.gotAudio = string(b)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.status)
		_, _ = w.Write([]byte(s.body))
	}))
	s.client = NewWhisperClient(ai.NewProviderClient("sk-test", s.srv.URL+"/v1", nil))
}

func (s *WhisperClientSuite) TearDownTest() {
	s.srv.Close()
}

func (s *WhisperClientSuite) TestTranscribeStream() {
	res, err := s.client.Transcribe(context.Background(), ReaderSource("voice.ogg", strings.NewReader("OggS-bytes")))
	s.Require().NoError(err)

	s.Equal("hello from whisper", res.Text)
	s.Equal("hello from whisper", res.Raw.Text)
	s.Equal("whisper-1", s.gotModel)
	s.Equal("voice.ogg", s.gotName)
	s.Equal("OggS-bytes", s.gotAudio)
}

func (s *WhisperClientSuite) TestTranscribeFile() {
	p := filepath.Join(s.T().TempDir(), "clip.mp3")
	s.Require().NoError(os.WriteFile(p, []byte("ID3-bytes"), 0o600))

	res, err := s.client.Transcribe(context.Background(), FileSource(p))
	s.Require().NoError(err)

	s.Equal("hello from whisper", res.Text)
	s.Equal("clip.mp3", s.gotName)
	s.Equal("ID3-bytes", s.gotAudio)
}

func (s *WhisperClientSuite) TestProviderRejection() {
	s.status = http.StatusBadRequest
	s.body = `{"error": {"message": "Invalid file format.", "type": "invalid_request_error"}}`

	_, err := s.client.Transcribe(context.Background(), ReaderSource("voice.amr", strings.NewReader("x")))
	s.Require().Error(err)

	var pe *apperr.ProviderError
	s.Require().ErrorAs(err, &pe)
	s.Equal("transcription", pe.Op)
	s.Equal(http.StatusBadRequest, pe.StatusCode)
	s.Contains(pe.Payload, "Invalid file format.")
}

func (s *WhisperClientSuite) TestMissingFile() {
	_, err := s.client.Transcribe(context.Background(), FileSource("/does/not/exist.mp3"))
	s.Require().Error(err)
	s.False(apperr.IsProvider(err))
}
