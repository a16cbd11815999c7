package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/docuforge/parsesvc/internal/orchestrator"
)

// progressUpgrader mirrors the teacher's package-level upgrader in
// internal/server/websocket_handlers.go.
var progressUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// progressMessage is the single message type the stream sends: one
// "completed" or "error" frame per upload, since the orchestrator itself
// reports no finer-grained progress than its final ParseResult.
type progressMessage struct {
	Status       string `json:"status"`
	Content      string `json:"content,omitempty"`
	PageCount    int    `json:"page_count,omitempty"`
	ImageCount   int    `json:"image_count,omitempty"`
	OCRCount     int    `json:"ocr_count,omitempty"`
	ParseTimeMs  int64  `json:"parse_time_ms,omitempty"`
	ErrorMessage string `json:"error,omitempty"`
}

// parseProgressWebSocketHandler accepts one binary frame carrying the raw
// file bytes followed by one text frame carrying the file name, runs
// ParseFile, and replies with a single progress frame. It is the
// long-parse analogue of the teacher's ocrWebSocketHandler, kept for
// clients that want a socket rather than a blocking HTTP POST.
func (s *Server) parseProgressWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := progressUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("parsesvc: websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	s.metrics.wsActiveStreams.Inc()
	defer s.metrics.wsActiveStreams.Dec()

	_, content, err := conn.ReadMessage()
	if err != nil {
		return
	}
	_, nameBytes, err := conn.ReadMessage()
	if err != nil {
		return
	}

	resp := s.ParseFile(r.Context(), ParseFileRequest{
		FileContent: content,
		FileName:    string(nameBytes),
		Options:     orchestrator.Options{EnableOCR: true},
	})

	msg := progressMessage{Status: "completed"}
	if resp.ErrorMessage != "" {
		msg.Status = "error"
		msg.ErrorMessage = resp.ErrorMessage
	} else {
		msg.Content = resp.Content
		msg.PageCount = resp.Metadata.PageCount
		msg.ImageCount = resp.Metadata.ImageCount
		msg.OCRCount = resp.Metadata.OCRCount
		msg.ParseTimeMs = resp.Metadata.ParseTimeMs
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil && err != io.EOF {
		slog.Warn("parsesvc: websocket write failed", "error", err)
	}
}
