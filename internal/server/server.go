// Package server implements the RPC service facade (C9): request
// validation, dispatch to the orchestrator, timing, and error mapping,
// exposed over both a gRPC health endpoint and an HTTP/multipart facade
// in the shape of the teacher's internal/server package.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/grpc/codes"

	"github.com/docuforge/parsesvc/internal/model"
	"github.com/docuforge/parsesvc/internal/orchestrator"
	"github.com/docuforge/parsesvc/internal/parseerr"
	"github.com/docuforge/parsesvc/internal/reqid"
)

// MaxMessageBytes is the 50 MiB request/response ceiling of spec §6,
// enforced both at the gRPC server option level (cmd/parsesvc/cmd/serve.go)
// and at the HTTP facade via http.MaxBytesReader.
const MaxMessageBytes = 50 * 1024 * 1024

var recognizedExtensions = map[string]bool{
	".pdf":      true,
	".md":       true,
	".markdown": true,
	".docx":     true,
	".doc":      true,
	".pptx":     true,
}

// ParseFileRequest is the facade's transport-agnostic request, mirroring
// spec §6's abstract ParseFile(file_content, file_name, options) surface.
type ParseFileRequest struct {
	FileContent []byte
	FileName    string
	Options     orchestrator.Options
}

// ParseFileResponse is the facade's transport-agnostic response. Code is
// codes.OK on success; HTTP and gRPC adapters translate it to their own
// status representation.
type ParseFileResponse struct {
	Content      string
	Metadata     model.ParseMetadata
	ErrorMessage string
	Code         codes.Code
}

// Server holds the facade's dependencies: the orchestrator doing the
// actual work, and the Prometheus collectors recording it.
type Server struct {
	orch       *orchestrator.Orchestrator
	metrics    *metrics
	corsOrigin string
}

// New builds a Server over an already-constructed Orchestrator.
func New(orch *orchestrator.Orchestrator, corsOrigin string) *Server {
	return &Server{orch: orch, metrics: newMetrics(), corsOrigin: corsOrigin}
}

// ParseFile implements spec §4.9 exactly: validate, generate a request
// id, log entry and exit, dispatch, time, and map errors. It is the
// implementation behind the HTTP and websocket handlers; the CLI's parse
// command calls the orchestrator directly instead.
func (s *Server) ParseFile(ctx context.Context, req ParseFileRequest) ParseFileResponse {
	id := reqid.New()
	start := time.Now()
	format := classifyFormat(req.FileName)

	log := slog.With("request_id", id, "file_name", req.FileName, "size", len(req.FileContent))
	log.Info("parsesvc: parse request received")

	if msg, ok := validate(req); !ok {
		log.Warn("parsesvc: request failed validation", "reason", msg)
		s.metrics.requestsTotal.WithLabelValues(format, "invalid_argument").Inc()
		return ParseFileResponse{ErrorMessage: msg, Code: codes.InvalidArgument}
	}

	s.metrics.uploadSizeBytes.Observe(float64(len(req.FileContent)))

	result, err := s.orch.ParseDocument(ctx, req.FileContent, req.FileName, req.Options)
	duration := time.Since(start)
	s.metrics.requestDuration.WithLabelValues(format).Observe(duration.Seconds())

	if err != nil {
		kind, _ := parseerr.KindOf(err)
		log.Error("parsesvc: parse failed", "error", err, "kind", kind, "duration", duration)
		s.metrics.requestsTotal.WithLabelValues(format, "internal").Inc()
		s.metrics.parseErrorsTotal.WithLabelValues(string(kind)).Inc()
		return ParseFileResponse{ErrorMessage: err.Error(), Code: codes.Internal}
	}

	if result.Metadata.ParseTimeMs == 0 {
		result.Metadata.ParseTimeMs = duration.Milliseconds()
	}

	log.Info("parsesvc: parse request completed",
		"duration", duration,
		"page_count", result.Metadata.PageCount,
		"image_count", result.Metadata.ImageCount,
		"ocr_count", result.Metadata.OCRCount,
	)
	s.metrics.requestsTotal.WithLabelValues(format, "ok").Inc()

	return ParseFileResponse{Content: result.Content, Metadata: result.Metadata, Code: codes.OK}
}

// validate implements spec §4.9's pre-dispatch checks: content, name,
// and extension. No parsing is attempted when validation fails.
func validate(req ParseFileRequest) (string, bool) {
	if len(req.FileContent) == 0 {
		return "file_content must not be empty", false
	}
	if strings.TrimSpace(req.FileName) == "" {
		return "file_name must not be empty", false
	}
	ext := strings.ToLower(filepath.Ext(req.FileName))
	if !recognizedExtensions[ext] {
		return fmt.Sprintf("unrecognized extension %q", ext), false
	}
	return "", true
}

func classifyFormat(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		return "unknown"
	}
	return strings.TrimPrefix(ext, ".")
}
