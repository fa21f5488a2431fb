// Package pipeline runs one comparison: probe and transcode the audio, send
// it to both models, romanize and compare the transcriptions, then record and
// publish the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rrifaldi/yuzu/asr"
	"github.com/rrifaldi/yuzu/compare"
	"github.com/rrifaldi/yuzu/events"
	"github.com/rrifaldi/yuzu/observability"
	"github.com/rrifaldi/yuzu/utils"
)

var (
	ErrAudioTooLong    = errors.New("audio is too long")
	ErrAllModelsFailed = errors.New("all models failed to transcribe")
)

const (
	SourceDiscord = "discord"
	SourceHTTP    = "http"
)

type Options struct {
	// hard limit in seconds, longer audio is rejected before transcoding
	MaxDuration       float64      `env:"MAX_DURATION" envDefault:"600"`
	MaxTranscodedSize int          `env:"MAX_TRANSCODED_SIZE" envDefault:"10485760"`
	Reference         compare.Side `env:"REFERENCE_SIDE" envDefault:"a"`
}

// Media is implemented by *media.FFmpeg.
type Media interface {
	FFprobeDurationFromFile(ctx context.Context, filePath string) (float64, error)
	TranscodeForRecognition(ctx context.Context, filePath string, maxSize int) ([]byte, error)
}

type Romanizer interface {
	Romanize(text string) string
}

type Publisher interface {
	PublishComparison(ctx context.Context, event events.ComparisonCompleted) error
}

type Report struct {
	ID                   string                  `json:"id"`
	CreatedAt            time.Time               `json:"created_at"`
	AudioDurationSeconds float64                 `json:"audio_duration_seconds"`
	A                    asr.TranscriptionResult `json:"a"`
	B                    asr.TranscriptionResult `json:"b"`
	RomajiA              string                  `json:"romaji_a"`
	RomajiB              string                  `json:"romaji_b"`
	Comparison           compare.Result          `json:"comparison"`
}

func (r *Report) inputs() (compare.TextInput, compare.TextInput) {
	return compare.TextInput{Text: r.A.Text, Label: r.A.ModelLabel, ElapsedSeconds: r.A.ElapsedSeconds},
		compare.TextInput{Text: r.B.Text, Label: r.B.ModelLabel, ElapsedSeconds: r.B.ElapsedSeconds}
}

// Recompare returns a copy of report compared against the given reference.
// No model is called again.
func Recompare(report *Report, reference compare.Side) *Report {
	next := *report
	a, b := report.inputs()
	next.Comparison = compare.Compare(a, b, compare.WithReference(reference))
	return &next
}

type Pipeline struct {
	registry  *asr.Registry
	media     Media
	romanizer Romanizer
	publisher Publisher
	metrics   *observability.Metrics
	log       *zap.Logger
	options   Options
}

func New(registry *asr.Registry, media Media, romanizer Romanizer, publisher Publisher, metrics *observability.Metrics, log *zap.Logger, options Options) (*Pipeline, error) {
	if _, _, err := registry.Pair(); err != nil {
		return nil, fmt.Errorf("checking models: %w", err)
	}
	if options.Reference == "" {
		options.Reference = compare.SideA
	}

	return &Pipeline{
		registry:  registry,
		media:     media,
		romanizer: romanizer,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		options:   options,
	}, nil
}

func (p *Pipeline) Reference() compare.Side {
	return p.options.Reference
}

func (p *Pipeline) MaxDuration() float64 {
	return p.options.MaxDuration
}

// ModelLabels returns the labels of the two compared models, in order.
func (p *Pipeline) ModelLabels() (string, string) {
	a, b, _ := p.registry.Pair()
	return a.Label, b.Label
}

type runOptions struct {
	source    string
	reference compare.Side
}

type RunOption func(*runOptions)

// WithSource labels the run in metrics and events.
func WithSource(source string) RunOption {
	return func(o *runOptions) {
		o.source = source
	}
}

// WithReference overrides the configured reference side for one run.
func WithReference(side compare.Side) RunOption {
	return func(o *runOptions) {
		o.reference = side
	}
}

// Run compares both models on the audio at audioPath. The file is not removed.
//
// If only one model fails the comparison still happens, against
// asr.FailedTranscriptionText, and the report marks the failed side.
func (p *Pipeline) Run(ctx context.Context, audioPath string, opts ...RunOption) (*Report, error) {
	o := runOptions{source: SourceHTTP, reference: p.options.Reference}
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	log := utils.GetLogFromContext(ctx, p.log).With(zap.String("source", o.source))

	duration, err := p.media.FFprobeDurationFromFile(ctx, audioPath)
	if err != nil {
		p.fail(o.source, observability.OutcomeRejected, start)
		return nil, fmt.Errorf("probing duration: %w", err)
	}
	if duration > p.options.MaxDuration {
		p.fail(o.source, observability.OutcomeRejected, start)
		return nil, fmt.Errorf("%w: %.1fs over the %.0fs limit", ErrAudioTooLong, duration, p.options.MaxDuration)
	}

	data, err := p.media.TranscodeForRecognition(ctx, audioPath, p.options.MaxTranscodedSize)
	if err != nil {
		p.fail(o.source, observability.OutcomeFailed, start)
		return nil, fmt.Errorf("transcoding: %w", err)
	}

	modelA, modelB, err := p.registry.Pair()
	if err != nil {
		p.fail(o.source, observability.OutcomeFailed, start)
		return nil, fmt.Errorf("getting models: %w", err)
	}

	resultA, resultB, transcribeErr := asr.TranscribePair(ctx, modelA, modelB, data)
	if p.metrics != nil {
		p.metrics.RecordASR(resultA.ModelLabel, resultA.ElapsedSeconds, resultA.Failed)
		p.metrics.RecordASR(resultB.ModelLabel, resultB.ElapsedSeconds, resultB.Failed)
	}
	if resultA.Failed && resultB.Failed {
		p.fail(o.source, observability.OutcomeFailed, start)
		return nil, errors.Join(ErrAllModelsFailed, transcribeErr)
	}
	if transcribeErr != nil {
		log.Warn("one model failed, comparing against the failure text", zap.Error(transcribeErr))
	}

	report := &Report{
		ID:                   uuid.NewString(),
		CreatedAt:            time.Now().UTC(),
		AudioDurationSeconds: duration,
		A:                    resultA,
		B:                    resultB,
		RomajiA:              p.romanize(resultA),
		RomajiB:              p.romanize(resultB),
	}
	a, b := report.inputs()
	report.Comparison = compare.Compare(a, b, compare.WithReference(o.reference))

	outcome := observability.OutcomeOK
	if transcribeErr != nil {
		outcome = observability.OutcomePartial
	}
	if p.metrics != nil {
		p.metrics.RecordComparison(o.source, outcome, time.Since(start).Seconds())
		p.metrics.RecordAudio(duration)
		p.metrics.RecordVerdict(string(report.Comparison.Tier), report.Comparison.Metrics.CharacterErrorRatePercent)
	}

	log.Info("comparison done",
		zap.String("report_id", report.ID),
		zap.Float64("audio_duration", duration),
		zap.Float64("cer", report.Comparison.Metrics.CharacterErrorRatePercent),
		zap.String("tier", string(report.Comparison.Tier)),
	)

	if p.publisher != nil {
		if err := p.publisher.PublishComparison(ctx, completedEvent(o.source, report)); err != nil {
			log.Error("failed to publish comparison event", zap.Error(err))
		}
	}

	return report, nil
}

// romanize treats the failure sentinel like any other transcription.
func (p *Pipeline) romanize(result asr.TranscriptionResult) string {
	if p.romanizer == nil {
		return ""
	}
	return p.romanizer.Romanize(result.Text)
}

func (p *Pipeline) fail(source, outcome string, start time.Time) {
	if p.metrics != nil {
		p.metrics.RecordComparison(source, outcome, time.Since(start).Seconds())
	}
}

func modelRun(result asr.TranscriptionResult) events.ModelRun {
	return events.ModelRun{
		Label:          result.ModelLabel,
		Model:          result.ModelName,
		ElapsedSeconds: result.ElapsedSeconds,
		Failed:         result.Failed,
		Characters:     len([]rune(result.Text)),
	}
}

func completedEvent(source string, report *Report) events.ComparisonCompleted {
	return events.ComparisonCompleted{
		ID:                   report.ID,
		Source:               source,
		CreatedAt:            report.CreatedAt,
		AudioDurationSeconds: report.AudioDurationSeconds,
		A:                    modelRun(report.A),
		B:                    modelRun(report.B),
		Reference:            string(report.Comparison.Reference),
		CharacterErrorRate:   report.Comparison.Metrics.CharacterErrorRatePercent,
		Tier:                 string(report.Comparison.Tier),
	}
}
