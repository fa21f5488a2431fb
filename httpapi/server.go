// Package httpapi serves comparisons over HTTP: audio uploads run the full
// pipeline, text pairs go straight to the comparison engine.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rrifaldi/yuzu/compare"
	"github.com/rrifaldi/yuzu/observability"
	"github.com/rrifaldi/yuzu/pipeline"
	"github.com/rrifaldi/yuzu/utils"
)

// same cap as the OpenAI transcription API
const DefaultMaxUploadSize = 25 << 20

const maxTextRequestSize = 1 << 20

// MaxTextRunes caps each side of a text comparison since alignment is
// quadratic. Transcripts of a few minutes of speech stay well below it.
const MaxTextRunes = 5000

const shutdownTimeout = 10 * time.Second

type Options struct {
	Addr          string `env:"ADDR" envDefault:":8080"`
	MaxUploadSize int64  `env:"MAX_UPLOAD_SIZE" envDefault:"26214400"`
}

// Comparer is implemented by *pipeline.Pipeline.
type Comparer interface {
	Run(ctx context.Context, audioPath string, opts ...pipeline.RunOption) (*pipeline.Report, error)
	ModelLabels() (string, string)
	Reference() compare.Side
}

type Server struct {
	log      *zap.Logger
	comparer Comparer
	metrics  *observability.Metrics
	options  Options
}

func NewServer(parentLog *zap.Logger, comparer Comparer, metrics *observability.Metrics, options Options) *Server {
	if options.MaxUploadSize <= 0 {
		options.MaxUploadSize = DefaultMaxUploadSize
	}
	if options.Addr == "" {
		options.Addr = ":8080"
	}

	return &Server{
		log:      parentLog.Named("http"),
		comparer: comparer,
		metrics:  metrics,
		options:  options,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(s.recoverPanics)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/models", s.handleModels)
		r.Post("/compare", s.handleCompareAudio)
		r.Post("/compare/text", s.handleCompareText)
	})

	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer utils.PanicRecovery(s.log)

	server := &http.Server{
		Addr:              s.options.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.options.Addr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, log := utils.LogContextWith(r.Context(), s.log, zap.String("request_id", middleware.GetReqID(r.Context())))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(ctx))

		log.Debug("handled request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer utils.PanicRecoveryWith(utils.GetLogFromContext(r.Context(), s.log), func(any) {
			sendError(w, "Internal server error.", errTypeServer, http.StatusInternalServerError)
		})

		next.ServeHTTP(w, r)
	})
}
