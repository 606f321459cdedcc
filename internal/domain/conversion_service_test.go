package domain

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_posts/internal/apperr"
	"github.com/Vovarama1992/voice_posts/internal/ports"
)

func TestConvertedKey(t *testing.T) {
	assert.Equal(t, "users/u1/voice_converted.mp3", ConvertedKey("users/u1/voice.amr", "mp3"))
	assert.Equal(t, "voice_converted.m4a", ConvertedKey("voice.ogg", "aac"))
	assert.Equal(t, "a/b.c_converted.flac", ConvertedKey("a/b.c.wav", "flac"))
	assert.Equal(t, "noext_converted.ogg", ConvertedKey("noext", "opus"))
}

type ConversionServiceSuite struct {
	suite.Suite
	dir       string
	storage   *fakeStorage
	converter *stagingConverter
	prober    *contentProber
	notifier  *recordingNotifier
	svc       ports.ConversionService
}

func TestConversionServiceSuite(t *testing.T) {
	suite.Run(t, new(ConversionServiceSuite))
}

func (s *ConversionServiceSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.storage = newFakeStorage()
	s.storage.objects["users/u1/voice.amr"] = []byte("amr-data")
	s.converter = &stagingConverter{dir: s.dir}
	s.prober = &contentProber{}
	s.notifier = &recordingNotifier{}
	s.svc = NewConversionService(s.storage, s.converter, s.prober,
		ConversionOptions{StagingDir: s.dir, DefaultCodec: "mp3"},
		s.notifier, logger.NewZapLogger(zap.NewNop().Sugar()))
}

func (s *ConversionServiceSuite) assertNoStagingFiles() {
	entries, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *ConversionServiceSuite) TestConvertUploadsAndSigns() {
	res, err := s.svc.ConvertAudio(context.Background(), "users/u1/voice.amr", "")
	s.Require().NoError(err)

	s.Equal("users/u1/voice_converted.mp3", res.File)
	s.Contains(res.URL, "users/u1/voice_converted.mp3")
	s.Equal("mp3:amr-data", string(s.storage.objects[res.File]))
	s.Equal("audio/mpeg", s.storage.uploaded[res.File])
	s.assertNoStagingFiles()
}

func (s *ConversionServiceSuite) TestDurationIsProbedOnConvertedFile() {
	_, err := s.svc.ConvertAudio(context.Background(), "users/u1/voice.amr", "")
	s.Require().NoError(err)
	s.Equal(1, s.prober.durationCalls)
}

func (s *ConversionServiceSuite) TestDurationProbeFailureDoesNotFailConversion() {
	s.prober.durationErr = errors.New("ffprobe: exit status 1")

	res, err := s.svc.ConvertAudio(context.Background(), "users/u1/voice.amr", "")
	s.Require().NoError(err)
	s.Equal("users/u1/voice_converted.mp3", res.File)
	s.Empty(s.notifier.sources)
	s.assertNoStagingFiles()
}

func (s *ConversionServiceSuite) TestExplicitCodec() {
	res, err := s.svc.ConvertAudio(context.Background(), "/users/u1/voice.amr", "OPUS")
	s.Require().NoError(err)
	s.Equal("users/u1/voice_converted.ogg", res.File)
	s.Equal("audio/ogg", s.storage.uploaded[res.File])
}

func (s *ConversionServiceSuite) TestValidation() {
	_, err := s.svc.ConvertAudio(context.Background(), "", "")
	s.True(apperr.IsValidation(err))
	_, err = s.svc.ConvertAudio(context.Background(), "users/u1/voice.amr", "wma")
	s.True(apperr.IsValidation(err))
	s.Zero(s.converter.calls)
	s.Empty(s.notifier.sources)
}

func (s *ConversionServiceSuite) TestMissingObject() {
	_, err := s.svc.ConvertAudio(context.Background(), "users/u1/absent.amr", "")
	s.Require().Error(err)
	s.Zero(s.converter.calls)
	s.Equal([]string{"convertAudio"}, s.notifier.sources)
	s.assertNoStagingFiles()
}

func (s *ConversionServiceSuite) TestConversionFailureCleansSource() {
	s.converter.err = &apperr.ConversionError{Codec: "mp3", Err: errors.New("exit status 1")}

	_, err := s.svc.ConvertAudio(context.Background(), "users/u1/voice.amr", "")
	s.True(apperr.IsConversion(err))
	s.assertNoStagingFiles()
}

func (s *ConversionServiceSuite) TestOutputWithWrongCodecIsRejected() {
	s.prober.override = "vorbis"

	_, err := s.svc.ConvertAudio(context.Background(), "users/u1/voice.amr", "opus")
	s.Require().Error(err)
	s.True(apperr.IsConversion(err))
	s.NotContains(s.storage.uploaded, "users/u1/voice_converted.ogg")
	s.assertNoStagingFiles()
}

func (s *ConversionServiceSuite) TestUploadFailureCleansEverything() {
	s.storage.uploadErr = errors.New("AccessDenied")

	_, err := s.svc.ConvertAudio(context.Background(), "users/u1/voice.amr", "")
	s.ErrorContains(err, "AccessDenied")
	s.Equal(1, s.converter.calls)
	s.assertNoStagingFiles()
}
