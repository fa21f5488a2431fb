package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/rrifaldi/yuzu/compare"
	"github.com/rrifaldi/yuzu/media"
	"github.com/rrifaldi/yuzu/observability"
	"github.com/rrifaldi/yuzu/pipeline"
	"github.com/rrifaldi/yuzu/utils"
)

// source label for comparisons of submitted text
const sourceText = "text"

// multipart overhead allowed on top of the file itself
const formOverhead = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	labelA, labelB := s.comparer.ModelLabels()
	sendJSON(w, http.StatusOK, ModelsResponse{
		Object: "list",
		Data: []ModelInfo{
			{ID: labelA, Object: "model", Side: compare.SideA},
			{ID: labelB, Object: "model", Side: compare.SideB},
		},
		Reference: s.comparer.Reference(),
	})
}

func (s *Server) handleCompareAudio(w http.ResponseWriter, r *http.Request) {
	log := utils.GetLogFromContext(r.Context(), s.log)

	r.Body = http.MaxBytesReader(w, r.Body, s.options.MaxUploadSize+formOverhead)

	reference := s.comparer.Reference()
	if value := r.URL.Query().Get("reference"); value != "" {
		if err := reference.UnmarshalText([]byte(value)); err != nil {
			sendError(w, err.Error(), errTypeInvalidRequest, http.StatusBadRequest)
			return
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			sendError(w, "Audio file is too big.", errTypeInvalidRequest, http.StatusRequestEntityTooLarge)
			return
		}
		sendError(w, "Missing required parameter: 'file'", errTypeInvalidRequest, http.StatusBadRequest)
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	tempfile, err := utils.CopyToTemp(file, s.options.MaxUploadSize)
	if errors.Is(err, utils.ErrIOLimitReached) {
		sendError(w, "Audio file is too big.", errTypeInvalidRequest, http.StatusRequestEntityTooLarge)
		return
	} else if err != nil {
		log.Error("failed to store upload", zap.Error(err))
		sendError(w, "Failed to read audio file.", errTypeServer, http.StatusInternalServerError)
		return
	}
	defer os.Remove(tempfile)

	log.Info("comparing upload", zap.String("filename", header.Filename), zap.Int64("size", header.Size))

	report, err := s.comparer.Run(r.Context(), tempfile,
		pipeline.WithSource(pipeline.SourceHTTP),
		pipeline.WithReference(reference),
	)
	if err != nil {
		status, errType, message := classifyRunError(err)
		if status >= http.StatusInternalServerError {
			log.Error("comparison failed", zap.Error(err))
		}
		sendError(w, message, errType, status)
		return
	}

	sendJSON(w, http.StatusOK, report)
}

// classifyRunError maps pipeline errors onto HTTP responses.
func classifyRunError(err error) (status int, errType, message string) {
	switch {
	case errors.Is(err, utils.ErrIOLimitReached):
		return http.StatusRequestEntityTooLarge, errTypeInvalidRequest, "Audio is too big after transcoding."
	case errors.Is(err, pipeline.ErrAudioTooLong):
		return http.StatusBadRequest, errTypeInvalidRequest, err.Error()
	case errors.Is(err, media.ErrFFprobeDurationInvalid):
		return http.StatusBadRequest, errTypeInvalidRequest, "No audio found in file."
	case errors.Is(err, pipeline.ErrAllModelsFailed):
		return http.StatusBadGateway, errTypeUpstream, "Both models failed to transcribe the audio."
	}
	return http.StatusInternalServerError, errTypeServer, "Comparison failed."
}

func (s *Server) handleCompareText(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, maxTextRequestSize)

	req := TextCompareRequest{Reference: s.comparer.Reference()}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid JSON body: "+err.Error(), errTypeInvalidRequest, http.StatusBadRequest)
		return
	}

	if utf8.RuneCountInString(req.A.Text) > MaxTextRunes || utf8.RuneCountInString(req.B.Text) > MaxTextRunes {
		sendError(w, fmt.Sprintf("Texts are limited to %d characters each.", MaxTextRunes), errTypeInvalidRequest, http.StatusBadRequest)
		return
	}

	if req.A.Label == "" {
		req.A.Label = "A"
	}
	if req.B.Label == "" {
		req.B.Label = "B"
	}

	result := compare.Compare(req.A, req.B, compare.WithReference(req.Reference))

	if s.metrics != nil {
		s.metrics.RecordComparison(sourceText, observability.OutcomeOK, time.Since(start).Seconds())
	}

	sendJSON(w, http.StatusOK, result)
}

func sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func sendError(w http.ResponseWriter, message, errType string, status int) {
	sendJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errType,
		},
	})
}
