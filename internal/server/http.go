package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/docuforge/parsesvc/internal/orchestrator"
)

// parseHTTPResponse is the JSON body returned by the HTTP facade,
// matching the ParseFile RPC surface of spec §6 field for field.
type parseHTTPResponse struct {
	Content      string `json:"content,omitempty"`
	PageCount    int    `json:"page_count"`
	ImageCount   int    `json:"image_count"`
	TableCount   int    `json:"table_count"`
	OCRCount     int    `json:"ocr_count"`
	CaptionCount int    `json:"caption_count"`
	ParseTimeMs  int64  `json:"parse_time_ms"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type healthHTTPResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// SetupRoutes wires the facade's HTTP surface the way the teacher's
// Server.SetupRoutes wires pogo's, one corsMiddleware-wrapped handler per
// route.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHTTPHandler))
	mux.HandleFunc("/metrics", s.corsMiddleware(s.metricsHandler))
	mux.HandleFunc("/parse", s.corsMiddleware(s.parseHandler))
	mux.HandleFunc("/ws/parse", s.corsMiddleware(s.parseProgressWebSocketHandler))
}

func (s *Server) healthHTTPHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	resp := healthHTTPResponse{Status: "SERVING", Time: time.Now().UTC().Format(time.RFC3339)}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		fmt.Fprintf(os.Stderr, "parsesvc: error encoding health response: %v\n", err)
	}
}

// parseHandler accepts a multipart/form-data upload under the "file"
// field, runs it through ParseFile, and returns the result as JSON. It
// enforces the spec §6 50 MiB message ceiling before anything else is
// read off the wire.
func (s *Server) parseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxMessageBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeHTTPError(w, "failed to parse multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeHTTPError(w, "missing \"file\" field", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		s.writeHTTPError(w, "failed to read uploaded file", http.StatusInternalServerError)
		return
	}

	if kind := mimetype.Detect(content); kind != nil {
		// Content-sniffing is reported in a response header as a secondary
		// signal alongside the extension the request validator
		// authoritatively checks; it never overrides the extension-based
		// decision.
		w.Header().Set("X-Detected-Content-Type", kind.String())
	}

	opts := orchestrator.Options{
		EnableOCR:     formBool(r, "enable_ocr", true),
		EnableCaption: formBool(r, "enable_caption", false),
		MaxImageSize:  formInt(r, "max_image_size", 0),
		Language:      r.FormValue("language"),
	}

	resp := s.ParseFile(r.Context(), ParseFileRequest{
		FileContent: content,
		FileName:    header.Filename,
		Options:     opts,
	})

	w.Header().Set("Content-Type", "application/json")
	if resp.ErrorMessage != "" {
		w.WriteHeader(httpStatusForCode(resp.Code))
	}
	body := parseHTTPResponse{
		Content:      resp.Content,
		PageCount:    resp.Metadata.PageCount,
		ImageCount:   resp.Metadata.ImageCount,
		TableCount:   resp.Metadata.TableCount,
		OCRCount:     resp.Metadata.OCRCount,
		CaptionCount: resp.Metadata.CaptionCount,
		ParseTimeMs:  resp.Metadata.ParseTimeMs,
		ErrorMessage: resp.ErrorMessage,
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		fmt.Fprintf(os.Stderr, "parsesvc: error encoding parse response: %v\n", err)
	}
}

func (s *Server) writeHTTPError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(parseHTTPResponse{ErrorMessage: message}); err != nil {
		fmt.Fprintf(os.Stderr, "parsesvc: error writing error response: %v\n", err)
	}
}

func formBool(r *http.Request, key string, def bool) bool {
	v := r.FormValue(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func formInt(r *http.Request, key string, def int) int {
	v := r.FormValue(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
