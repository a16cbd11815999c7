// Package ocrpool implements the OCR worker pool (spec §4.4): a small,
// process-wide pool of isolated OS subprocesses, each running
// internal/ocrengine behind the length-prefixed protocol in protocol.go.
//
// Spawn, not fork, is mandatory here: the underlying ONNX Runtime native
// library does not survive a fork() of a process that has already loaded
// a model, so every worker must start as a genuinely fresh process image
// (os/exec's Command/Start, never a goroutine or a forked child sharing
// the parent's address space). This is the single most important
// concurrency requirement in the system — see spec §9.
package ocrpool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
)

const (
	// DefaultMaxWorkers is K in min(cpu_count, K), K small (§4.4).
	DefaultMaxWorkers = 5
)

// spawner constructs one worker's transport: a writer to send requests,
// a reader to receive responses, and a handle to wait on / kill. The
// production Spawner execs a subprocess; tests supply an in-process fake
// wired through io.Pipe so the protocol and pool bookkeeping can be
// exercised without a real OS process or model file.
type spawner func() (wr io.WriteCloser, rd io.ReadCloser, wait func() error, kill func() error, err error)

// Config controls pool sizing.
type Config struct {
	MaxWorkers int // 0 = auto: min(NumCPU, DefaultMaxWorkers)
	// Command and Args specify how to launch a worker subprocess, e.g.
	// Command = os.Args[0], Args = []string{"ocr-worker"}. Ignored if a
	// custom spawner is injected (tests only).
	Command string
	Args    []string
}

// Pool is the process-wide OCR worker pool singleton.
type Pool struct {
	workers []*worker
	sem     chan *worker // free-worker tokens; len == cap == worker count
	spawn   spawner

	mu     sync.Mutex
	closed bool
}

type worker struct {
	id  int
	wr  io.WriteCloser
	rd  io.ReadCloser
	cmd *exec.Cmd

	mu sync.Mutex // one task at a time per worker (spec §4.4)
}

var (
	once      sync.Once
	singleton *Pool
)

// Get returns the process-wide Pool, constructing it (and spawning its
// workers) on first call.
func Get(cfg Config) (*Pool, error) {
	var err error
	once.Do(func() {
		singleton, err = newPool(cfg, execSpawner(cfg))
	})
	return singleton, err
}

// ResetForTest tears down and forgets the singleton; tests only.
func ResetForTest() {
	if singleton != nil {
		singleton.Shutdown()
	}
	once = sync.Once{}
	singleton = nil
}

func newPool(cfg Config, spawn spawner) (*Pool, error) {
	n := cfg.MaxWorkers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > DefaultMaxWorkers {
		n = DefaultMaxWorkers
	}
	if n < 1 {
		n = 1
	}

	p := &Pool{spawn: spawn, sem: make(chan *worker, n)}

	slog.Info("ocrpool: spawning workers", "count", n)
	for i := 0; i < n; i++ {
		w, err := p.startWorker(i)
		if err != nil {
			p.Shutdown()
			return nil, fmt.Errorf("ocrpool: failed to start worker %d: %w", i, err)
		}
		p.workers = append(p.workers, w)
		p.sem <- w
	}

	return p, nil
}

func (p *Pool) startWorker(id int) (*worker, error) {
	wr, rd, _, _, err := p.spawn()
	if err != nil {
		return nil, err
	}
	return &worker{id: id, wr: wr, rd: rd}, nil
}

// execSpawner builds the production spawner: a fresh subprocess running
// `<Command> <Args...>`, the worker-side entrypoint wired to stdin/stdout.
func execSpawner(cfg Config) spawner {
	return func() (io.WriteCloser, io.ReadCloser, func() error, func() error, error) {
		cmd := exec.Command(cfg.Command, cfg.Args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("ocrpool: stdin pipe: %w", err)
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("ocrpool: stdout pipe: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("ocrpool: start worker process: %w", err)
		}
		return stdin, stdout, cmd.Wait, func() error { return cmd.Process.Kill() }, nil
	}
}

// Submit recognizes imageBytes on the next free worker, blocking until
// one is available or ctx is cancelled. On any failure — decode error,
// engine error, dead worker — it returns ("", nil): the worker function
// never lets an exception escape, and a dead/failed worker is logged at
// WARN and its slot returned to the pool (§4.4).
func (p *Pool) Submit(ctx context.Context, imageBytes []byte) (string, error) {
	var w *worker
	select {
	case w = <-p.sem:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { p.sem <- w }()

	text, err := w.recognize(imageBytes)
	if err != nil {
		slog.Warn("ocrpool: worker call failed, returning empty text", "worker", w.id, "error", err)
		return "", nil
	}
	return text, nil
}

func (w *worker) recognize(imageBytes []byte) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := writeFrame(w.wr, request{ImageBytes: imageBytes}); err != nil {
		return "", err
	}

	var resp response
	if err := readFrame(w.rd, &resp); err != nil {
		return "", err
	}
	if !resp.OK {
		return "", fmt.Errorf("ocrpool: worker reported failure: %s", resp.Err)
	}
	return resp.Text, nil
}

// Shutdown drains outstanding work, per §4.4: it waits until every
// in-flight Submit has returned its worker, then closes every worker's
// stdin (signalling EOF to the subprocess loop) and stdout pipe. It does
// not wait for the subprocesses themselves to exit.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	held := make([]*worker, 0, len(p.workers))
	for range p.workers {
		held = append(held, <-p.sem)
	}
	for _, w := range p.workers {
		_ = w.wr.Close()
		_ = w.rd.Close()
	}
	// Hand the tokens back so a late Submit fails on the closed pipes
	// instead of blocking.
	for _, w := range held {
		p.sem <- w
	}
}

// Workers reports the configured worker count, for metrics.
func (p *Pool) Workers() int { return len(p.workers) }
