package workerswhisper

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rrifaldi/yuzu/asr"
)

// used for the model name reported in results
const apiPrefix = "workers_whisper-"

const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

type CloudflareResponse[T any] struct {
	Result   *T    `json:"result"`
	Success  bool  `json:"success"`
	Errors   []any `json:"errors"`
	Messages []any `json:"messages"`
}

type SpeechRecognitionResponse struct {
	// The transcription
	Text      string  `json:"text"`
	Vtt       string  `json:"vtt"`
	WordCount float64 `json:"word_count"`
}

// jsonRequest is the body accepted by the large-v3-turbo family, which does
// not take raw audio bytes.
type jsonRequest struct {
	Audio    string `json:"audio"`
	Language string `json:"language,omitempty"`
	Task     string `json:"task,omitempty"`
}

type WorkersWhisperClient struct {
	baseURL  string
	account  string
	token    string
	model    string
	language string

	http *http.Client
}

type Credentials struct {
	Account string `env:"CF_ACCOUNT_ID"`
	Token   string `env:"CF_TOKEN"`
	BaseURL string `env:"CF_BASE_URL" envDefault:"https://api.cloudflare.com/client/v4"`
}

type WorkersWhisperClientOptions struct {
	Credentials

	ModelName string
	Language  string
}

func NewWorkersWhisperClient(options WorkersWhisperClientOptions) (*WorkersWhisperClient, error) {
	if options.Account == "" || options.Token == "" {
		return nil, fmt.Errorf("cloudflare account and token are required")
	}
	if options.ModelName == "" {
		return nil, fmt.Errorf("model name is required")
	}

	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &WorkersWhisperClient{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		account:  options.Account,
		token:    options.Token,
		model:    options.ModelName,
		language: options.Language,
		http:     http.DefaultClient,
	}, nil
}

func (w *WorkersWhisperClient) WithHTTPClient(client *http.Client) *WorkersWhisperClient {
	w.http = client
	return w
}

func (w *WorkersWhisperClient) usesJSONInput() bool {
	return strings.Contains(w.model, "whisper-large-v3-turbo")
}

func (w *WorkersWhisperClient) requestBody(data []byte) (io.Reader, string, error) {
	if !w.usesJSONInput() {
		return bytes.NewReader(data), "application/octet-stream", nil
	}

	body, err := json.Marshal(jsonRequest{
		Audio:    base64.StdEncoding.EncodeToString(data),
		Language: w.language,
		Task:     "transcribe",
	})
	if err != nil {
		return nil, "", fmt.Errorf("encoding json body: %w", err)
	}
	return bytes.NewReader(body), "application/json", nil
}

func (w *WorkersWhisperClient) runCF(ctx context.Context, data []byte) (*CloudflareResponse[SpeechRecognitionResponse], error) {
	body, contentType, err := w.requestBody(data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/accounts/%s/ai/run/%s", w.baseURL, w.account, w.model), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+w.token)
	req.Header.Set("Content-Type", contentType)

	resp, err := w.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-ok http response: [%d] %s", resp.StatusCode, resp.Status)
	}

	var cfResp *CloudflareResponse[SpeechRecognitionResponse]
	err = json.NewDecoder(resp.Body).Decode(&cfResp)
	if err != nil {
		return nil, fmt.Errorf("decoding response json: %w", err)
	}

	return cfResp, nil
}

func (w *WorkersWhisperClient) Run(ctx context.Context, data []byte) (*asr.ASROutput, error) {
	resp, err := w.runCF(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}

	if resp == nil || !resp.Success {
		return nil, fmt.Errorf("request unsuccessful")
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("nil result")
	}

	return &asr.ASROutput{
		ModelName: apiPrefix + w.model,
		Text:      strings.TrimSpace(resp.Result.Text),
	}, nil
}
