package googlespeech

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecognizer struct {
	got  *speechpb.RecognizeRequest
	resp *speechpb.RecognizeResponse
	err  error
}

func (f *fakeRecognizer) Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error) {
	f.got = req
	return f.resp, f.err
}

func TestRunJoinsFirstAlternatives(t *testing.T) {
	fake := &fakeRecognizer{resp: &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "こんにちは"}, {Transcript: "今日は"}}},
			{},
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "世界"}}},
		},
	}}
	c := &Client{speech: fake, language: "ja-JP", model: "latest_long"}

	out, err := c.Run(context.Background(), []byte("fLaC"))
	require.NoError(t, err)

	assert.Equal(t, "こんにちは世界", out.Text)
	assert.Equal(t, "google_speech-latest_long", out.ModelName)

	cfg := fake.got.GetConfig()
	assert.Equal(t, speechpb.RecognitionConfig_FLAC, cfg.GetEncoding())
	assert.Equal(t, int32(SampleRateHertz), cfg.GetSampleRateHertz())
	assert.Equal(t, "ja-JP", cfg.GetLanguageCode())
	assert.Equal(t, []byte("fLaC"), fake.got.GetAudio().GetContent())
}

func TestRunError(t *testing.T) {
	c := &Client{speech: &fakeRecognizer{err: errors.New("quota")}, language: "ja-JP"}

	_, err := c.Run(context.Background(), nil)
	assert.ErrorContains(t, err, "quota")
}

func TestLanguageDefault(t *testing.T) {
	assert.Equal(t, "ja-JP", languageOrDefault(""))
	assert.Equal(t, "en-US", languageOrDefault("en-US"))
}
