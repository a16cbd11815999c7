package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"

	"github.com/docuforge/parsesvc/internal/orchestrator"
	"github.com/docuforge/parsesvc/internal/pagepool"
)

func newTestServer(t *testing.T) *Server {
	t.Cleanup(pagepool.ResetForTest)
	pool := pagepool.Get(pagepool.Config{MaxWorkers: 1})
	orch := orchestrator.New(pool, nil)
	return New(orch, "*")
}

func TestParseFile_RejectsEmptyContent(t *testing.T) {
	s := newTestServer(t)
	resp := s.ParseFile(context.Background(), ParseFileRequest{FileName: "a.pdf"})
	assert.Equal(t, codes.InvalidArgument, resp.Code)
	assert.NotEmpty(t, resp.ErrorMessage)
}

func TestParseFile_RejectsEmptyName(t *testing.T) {
	s := newTestServer(t)
	resp := s.ParseFile(context.Background(), ParseFileRequest{FileContent: []byte("hi")})
	assert.Equal(t, codes.InvalidArgument, resp.Code)
}

func TestParseFile_RejectsUnrecognizedExtension(t *testing.T) {
	s := newTestServer(t)
	resp := s.ParseFile(context.Background(), ParseFileRequest{
		FileContent: []byte("hi"),
		FileName:    "a.exe",
	})
	assert.Equal(t, codes.InvalidArgument, resp.Code)
}

func TestParseFile_MarkdownShortCircuitsSuccessfully(t *testing.T) {
	s := newTestServer(t)
	resp := s.ParseFile(context.Background(), ParseFileRequest{
		FileContent: []byte("# hello"),
		FileName:    "doc.md",
	})
	assert.Equal(t, codes.OK, resp.Code)
	assert.Equal(t, "# hello", resp.Content)
	assert.Empty(t, resp.ErrorMessage)
}

func TestClassifyFormat(t *testing.T) {
	assert.Equal(t, "pdf", classifyFormat("a.PDF"))
	assert.Equal(t, "unknown", classifyFormat("noext"))
}

func TestHTTPStatusForCode(t *testing.T) {
	assert.Equal(t, 200, httpStatusForCode(codes.OK))
	assert.Equal(t, 400, httpStatusForCode(codes.InvalidArgument))
	assert.Equal(t, 500, httpStatusForCode(codes.Internal))
}
