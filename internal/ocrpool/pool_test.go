package ocrpool

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSpawner wires a worker's stdin/stdout straight to an in-process
// goroutine running RunWorker, so the protocol and pool bookkeeping can
// be exercised without a real subprocess or model.
func fakeSpawner(recognize func([]byte) (string, error)) spawner {
	return func() (io.WriteCloser, io.ReadCloser, func() error, func() error, error) {
		parentWrite, workerRead := io.Pipe()
		workerWrite, parentRead := io.Pipe()

		done := make(chan struct{})
		go func() {
			_ = RunWorker(workerRead, workerWrite, recognize)
			close(done)
		}()

		wait := func() error { <-done; return nil }
		kill := func() error { _ = parentWrite.Close(); return nil }
		return parentWrite, parentRead, wait, kill, nil
	}
}

func TestSubmit_HappyPath(t *testing.T) {
	p, err := newPool(Config{MaxWorkers: 1}, fakeSpawner(func(b []byte) (string, error) {
		return "recognized:" + string(b), nil
	}))
	require.NoError(t, err)
	defer p.Shutdown()

	text, err := p.Submit(context.Background(), []byte("STOP"))
	require.NoError(t, err)
	assert.Equal(t, "recognized:STOP", text)
}

func TestSubmit_WorkerFailureYieldsEmptyTextNoError(t *testing.T) {
	p, err := newPool(Config{MaxWorkers: 1}, fakeSpawner(func(b []byte) (string, error) {
		return "", errors.New("decode failed")
	}))
	require.NoError(t, err)
	defer p.Shutdown()

	text, err := p.Submit(context.Background(), []byte("bad bytes"))
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestSubmit_IsolatesFailuresAcrossCalls(t *testing.T) {
	calls := 0
	p, err := newPool(Config{MaxWorkers: 1}, fakeSpawner(func(b []byte) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("first image explodes")
		}
		return "ok", nil
	}))
	require.NoError(t, err)
	defer p.Shutdown()

	text1, err1 := p.Submit(context.Background(), []byte("image1"))
	require.NoError(t, err1)
	assert.Equal(t, "", text1)

	text2, err2 := p.Submit(context.Background(), []byte("image2"))
	require.NoError(t, err2)
	assert.Equal(t, "ok", text2)
}

func TestSubmit_ContextCancelWhileWaitingForWorker(t *testing.T) {
	p, err := newPool(Config{MaxWorkers: 1}, fakeSpawner(func(b []byte) (string, error) {
		return "ok", nil
	}))
	require.NoError(t, err)
	defer p.Shutdown()

	// Occupy the single worker with a blocking recognize, then cancel a
	// second caller waiting for a free slot.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Drain the only token so Submit must wait on ctx.Done().
	w := <-p.sem
	defer func() { p.sem <- w }()

	_, err = p.Submit(ctx, []byte("x"))
	require.Error(t, err)
}
