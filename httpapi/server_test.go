package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rrifaldi/yuzu/asr"
	"github.com/rrifaldi/yuzu/compare"
	"github.com/rrifaldi/yuzu/observability"
	"github.com/rrifaldi/yuzu/pipeline"
)

type fakeComparer struct {
	err     error
	panics  bool
	gotData []byte
}

func (f *fakeComparer) Run(ctx context.Context, audioPath string, opts ...pipeline.RunOption) (*pipeline.Report, error) {
	if f.panics {
		panic("boom")
	}
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, err
	}
	f.gotData = data
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.Report{
		ID: "report-1",
		A:  asr.TranscriptionResult{Text: "ねこ", ModelLabel: "whisper"},
		B:  asr.TranscriptionResult{Text: "ねこ", ModelLabel: "turbo"},
	}, nil
}

func (f *fakeComparer) ModelLabels() (string, string) {
	return "whisper", "turbo"
}

func (f *fakeComparer) Reference() compare.Side {
	return compare.SideA
}

func newTestServer(t *testing.T, comparer *fakeComparer, options Options) *httptest.Server {
	t.Helper()
	s := NewServer(zap.NewNop(), comparer, observability.NewMetrics(), options)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return srv
}

func uploadBody(t *testing.T, field string, content []byte) (io.Reader, string) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, "voice.ogg")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &body, w.FormDataContentType()
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthAndModels(t *testing.T) {
	srv := newTestServer(t, &fakeComparer{}, Options{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/models")
	require.NoError(t, err)
	defer resp.Body.Close()

	var models ModelsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&models))
	assert.Equal(t, []ModelInfo{
		{ID: "whisper", Object: "model", Side: compare.SideA},
		{ID: "turbo", Object: "model", Side: compare.SideB},
	}, models.Data)
	assert.Equal(t, compare.SideA, models.Reference)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeComparer{}, Options{})

	resp, err := http.Post(srv.URL+"/v1/compare/text", "application/json", strings.NewReader(`{"a":{"text":"x"},"b":{"text":"x"}}`))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `yuzu_comparisons_total{outcome="ok",source="text"} 1`)
}

func TestCompareText(t *testing.T) {
	srv := newTestServer(t, &fakeComparer{}, Options{})

	tests := []struct {
		name      string
		body      string
		reference compare.Side
		tier      compare.Tier
	}{
		{
			name:      "default reference",
			body:      `{"a":{"text":"ねこがすき","label":"whisper","elapsed_seconds":1},"b":{"text":"ねこがすきだ","label":"turbo","elapsed_seconds":2}}`,
			reference: compare.SideA,
			tier:      compare.TierSignificant,
		},
		{
			name:      "reference b",
			body:      `{"a":{"text":"ねこがすき"},"b":{"text":"ねこがすきだ"},"reference":"B"}`,
			reference: compare.SideB,
			tier:      compare.TierModerate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/v1/compare/text", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var result compare.Result
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
			assert.Equal(t, tt.reference, result.Reference)
			assert.Equal(t, tt.tier, result.Tier)
			assert.NotEmpty(t, result.Verdict)
		})
	}
}

func TestCompareTextDefaultLabels(t *testing.T) {
	srv := newTestServer(t, &fakeComparer{}, Options{})

	resp, err := http.Post(srv.URL+"/v1/compare/text", "application/json", strings.NewReader(`{"a":{"text":"x"},"b":{"text":"y"}}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var result compare.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "A", result.Rendering.LabelA)
	assert.Equal(t, "B", result.Rendering.LabelB)
}

func TestCompareTextBadRequest(t *testing.T) {
	srv := newTestServer(t, &fakeComparer{}, Options{})

	for _, body := range []string{`{`, `{"reference":"c"}`} {
		resp, err := http.Post(srv.URL+"/v1/compare/text", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, errTypeInvalidRequest, decodeError(t, resp).Error.Type)
		resp.Body.Close()
	}
}

func TestCompareTextTooLong(t *testing.T) {
	srv := newTestServer(t, &fakeComparer{}, Options{})

	atLimit := strings.Repeat("あ", MaxTextRunes)
	overLimit := atLimit + "い"

	tests := []struct {
		name   string
		a, b   string
		status int
	}{
		{"at limit", atLimit, "あ", http.StatusOK},
		{"a over limit", overLimit, "あ", http.StatusBadRequest},
		{"b over limit", "あ", overLimit, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(map[string]any{
				"a": map[string]string{"text": tt.a},
				"b": map[string]string{"text": tt.b},
			})
			require.NoError(t, err)

			resp, err := http.Post(srv.URL+"/v1/compare/text", "application/json", bytes.NewReader(body))
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, tt.status, resp.StatusCode)
			if tt.status == http.StatusBadRequest {
				assert.Equal(t, errTypeInvalidRequest, decodeError(t, resp).Error.Type)
			}
		})
	}
}

func TestCompareAudio(t *testing.T) {
	comparer := &fakeComparer{}
	srv := newTestServer(t, comparer, Options{})

	body, contentType := uploadBody(t, "file", []byte("OggS"))
	resp, err := http.Post(srv.URL+"/v1/compare", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report pipeline.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, "report-1", report.ID)
	assert.Equal(t, []byte("OggS"), comparer.gotData)
}

func TestCompareAudioRequestErrors(t *testing.T) {
	srv := newTestServer(t, &fakeComparer{}, Options{MaxUploadSize: 8})

	body, contentType := uploadBody(t, "audio", []byte("OggS"))
	resp, err := http.Post(srv.URL+"/v1/compare", contentType, body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	body, contentType = uploadBody(t, "file", []byte("OggS"))
	resp, err = http.Post(srv.URL+"/v1/compare?reference=c", contentType, body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	body, contentType = uploadBody(t, "file", bytes.Repeat([]byte("x"), 20))
	resp, err = http.Post(srv.URL+"/v1/compare", contentType, body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	resp.Body.Close()
}

func TestCompareAudioRunErrors(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		errType string
	}{
		{fmt.Errorf("%w: 700s", pipeline.ErrAudioTooLong), http.StatusBadRequest, errTypeInvalidRequest},
		{errors.Join(pipeline.ErrAllModelsFailed, errors.New("quota")), http.StatusBadGateway, errTypeUpstream},
		{errors.New("disk full"), http.StatusInternalServerError, errTypeServer},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			srv := newTestServer(t, &fakeComparer{err: tt.err}, Options{})

			body, contentType := uploadBody(t, "file", []byte("OggS"))
			resp, err := http.Post(srv.URL+"/v1/compare", contentType, body)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.errType, decodeError(t, resp).Error.Type)
		})
	}
}

func TestPanicRecovered(t *testing.T) {
	srv := newTestServer(t, &fakeComparer{panics: true}, Options{})

	body, contentType := uploadBody(t, "file", []byte("OggS"))
	resp, err := http.Post(srv.URL+"/v1/compare", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, errTypeServer, decodeError(t, resp).Error.Type)
}
