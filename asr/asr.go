package asr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// FailedTranscriptionText replaces the text of a model that errored. It is
// compared like any other text.
const FailedTranscriptionText = "Transcription failed."

type SpeechRecognitionAPI interface {
	Run(ctx context.Context, data []byte) (*ASROutput, error)
}

type ASROutput struct {
	Text      string
	ModelName string
}

type TranscriptionResult struct {
	Text           string  `json:"text"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	ModelLabel     string  `json:"model_label"`
	ModelName      string  `json:"model_name,omitempty"`
	Failed         bool    `json:"failed"`
}

// Transcribe runs one model and times it. On failure the result carries
// FailedTranscriptionText and the error is returned alongside it.
func Transcribe(ctx context.Context, label string, api SpeechRecognitionAPI, data []byte) (TranscriptionResult, error) {
	start := time.Now()
	output, err := api.Run(ctx, data)
	elapsed := time.Since(start).Seconds()

	if err == nil && output == nil {
		err = fmt.Errorf("nil output")
	}
	if err != nil {
		return TranscriptionResult{
			Text:           FailedTranscriptionText,
			ElapsedSeconds: elapsed,
			ModelLabel:     label,
			Failed:         true,
		}, fmt.Errorf("transcribing with %s: %w", label, err)
	}

	return TranscriptionResult{
		Text:           output.Text,
		ElapsedSeconds: elapsed,
		ModelLabel:     label,
		ModelName:      output.ModelName,
	}, nil
}

type Model struct {
	Label string
	API   SpeechRecognitionAPI
}

// TranscribePair runs both models concurrently on the same audio. A failure
// of one model does not cancel the other; errors are joined.
func TranscribePair(ctx context.Context, a, b Model, data []byte) (TranscriptionResult, TranscriptionResult, error) {
	var resultA, resultB TranscriptionResult
	var errA, errB error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		resultA, errA = Transcribe(ctx, a.Label, a.API, data)
	}()
	go func() {
		defer wg.Done()
		resultB, errB = Transcribe(ctx, b.Label, b.API, data)
	}()
	wg.Wait()

	return resultA, resultB, errors.Join(errA, errB)
}
