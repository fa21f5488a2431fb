// Package googlespeech runs synchronous recognition against Google Cloud
// Speech-to-Text. Audio must be 16 kHz mono FLAC, which is what the media
// package produces.
package googlespeech

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"github.com/rrifaldi/yuzu/asr"
)

const apiPrefix = "google_speech-"

const SampleRateHertz = 16000

// MaxSyncDuration is the longest audio, in seconds, synchronous Recognize
// accepts.
const MaxSyncDuration = 60.0

type Options struct {
	CredentialsFile string `env:"CREDENTIALS_FILE"`
	LanguageCode    string `env:"LANGUAGE_CODE" envDefault:"ja-JP"`
}

type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
}

type Client struct {
	speech   recognizer
	closer   func() error
	model    string
	language string
}

// NewClient dials Google Speech. model may be empty for the default model.
func NewClient(ctx context.Context, options Options, model string) (*Client, error) {
	var clientOptions []option.ClientOption
	if options.CredentialsFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(options.CredentialsFile))
	}

	c, err := speech.NewClient(ctx, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("creating speech client: %w", err)
	}

	return &Client{
		speech:   c,
		closer:   c.Close,
		model:    model,
		language: languageOrDefault(options.LanguageCode),
	}, nil
}

func languageOrDefault(code string) string {
	if code == "" {
		return "ja-JP"
	}
	return code
}

func (c *Client) request(data []byte) *speechpb.RecognizeRequest {
	return &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_FLAC,
			SampleRateHertz:            SampleRateHertz,
			AudioChannelCount:          1,
			LanguageCode:               c.language,
			Model:                      c.model,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	}
}

func (c *Client) Run(ctx context.Context, data []byte) (*asr.ASROutput, error) {
	resp, err := c.speech.Recognize(ctx, c.request(data))
	if err != nil {
		return nil, fmt.Errorf("recognizing: %w", err)
	}

	var text strings.Builder
	for _, result := range resp.GetResults() {
		alternatives := result.GetAlternatives()
		if len(alternatives) == 0 {
			continue
		}
		text.WriteString(alternatives[0].GetTranscript())
	}

	name := c.model
	if name == "" {
		name = "default"
	}

	return &asr.ASROutput{
		ModelName: apiPrefix + name,
		Text:      strings.TrimSpace(text.String()),
	}, nil
}

func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}
