// Package ocrengine wraps the native OCR runtime (ONNX Runtime, via
// github.com/yalue/onnxruntime_go) behind the single contract the rest of
// the pipeline needs: recognize(image bytes) -> text. It owns the
// process-wide model singleton described in spec §4.3 — lazily
// initialized on first use, safe to call repeatedly from the single
// goroutine that owns it, never safe to fork the process after init.
package ocrengine

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/yalue/onnxruntime_go"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	"golang.org/x/sys/cpu"

	"github.com/docuforge/parsesvc/internal/parseerr"
)

const (
	// maxDimension is the longest edge the engine will feed the model;
	// larger images are scaled down preserving aspect ratio (§4.3).
	maxDimension = 4096
	// minDimension is the floor below which the adapter refuses to
	// upscale — OCR on an upsampled image is worse than OCR on the
	// original (§4.3).
	minDimension = 32
)

// Config configures the singleton OCR engine.
type Config struct {
	DetectorModelPath   string
	RecognizerModelPath string
	DictionaryPath      string
	NumThreads          int
}

// Engine is the process-wide OCR singleton. It is not safe to use across
// a fork — the underlying ONNX Runtime native state does not survive
// fork() — which is exactly why internal/ocrpool spawns fresh worker
// processes instead of forking.
type Engine struct {
	cfg      Config
	detector *onnxruntime_go.DynamicAdvancedSession
	reader   *onnxruntime_go.DynamicAdvancedSession
	charset  *charset
	useAVX2  bool

	mu sync.Mutex // ONNX Runtime sessions are not safe for concurrent calls

	// lineDetector/lineRecognizer override the ONNX-backed implementations;
	// used by tests to exercise Recognize without a real model file.
	lineDetector   func(image.Image) ([]image.Image, error)
	lineRecognizer func(image.Image) (string, error)
}

var (
	once      sync.Once
	singleton *Engine
	initErr   error
)

// Get returns the process-wide Engine, constructing it on first call. Safe
// to call concurrently; construction happens exactly once per process.
func Get(cfg Config) (*Engine, error) {
	once.Do(func() {
		singleton, initErr = newEngine(cfg)
	})
	return singleton, initErr
}

// Reset tears down the singleton so a fresh one can be built; intended
// for worker-process bootstrap paths and tests only.
func Reset() {
	once = sync.Once{}
	if singleton != nil {
		_ = singleton.Close()
	}
	singleton, initErr = nil, nil
}

func newEngine(cfg Config) (*Engine, error) {
	useAVX2 := cpu.X86.HasAVX2
	slog.Info("ocrengine: initializing native runtime",
		"avx2", useAVX2, "detector_model", cfg.DetectorModelPath, "recognizer_model", cfg.RecognizerModelPath)

	if !onnxruntime_go.IsInitialized() {
		if err := onnxruntime_go.InitializeEnvironment(); err != nil {
			return nil, parseerr.NewFatal(err, "ocrengine: failed to initialize onnx runtime environment")
		}
	}

	e := &Engine{cfg: cfg, useAVX2: useAVX2}

	opts, err := onnxruntime_go.NewSessionOptions()
	if err != nil {
		return nil, parseerr.NewFatal(err, "ocrengine: failed to create session options")
	}
	defer func() { _ = opts.Destroy() }()

	if cfg.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.NumThreads); err != nil {
			return nil, parseerr.NewFatal(err, "ocrengine: failed to set thread count")
		}
	}
	if useAVX2 {
		slog.Debug("ocrengine: AVX2 available, CPU execution provider will use vectorized kernels")
	}

	det, err := onnxruntime_go.NewDynamicAdvancedSession(cfg.DetectorModelPath,
		[]string{"input"}, []string{"output"}, opts)
	if err != nil {
		return nil, parseerr.NewFatal(err, "ocrengine: failed to load detector model")
	}
	e.detector = det

	rec, err := onnxruntime_go.NewDynamicAdvancedSession(cfg.RecognizerModelPath,
		[]string{"input"}, []string{"output"}, opts)
	if err != nil {
		_ = det.Destroy()
		return nil, parseerr.NewFatal(err, "ocrengine: failed to load recognizer model")
	}
	e.reader = rec

	cs, err := loadCharset(cfg.DictionaryPath)
	if err != nil {
		_ = det.Destroy()
		_ = rec.Destroy()
		return nil, parseerr.NewFatal(err, "ocrengine: failed to load recognizer dictionary")
	}
	e.charset = cs

	return e, nil
}

// NewForTest builds an Engine with the given line detector/recognizer
// stand-ins instead of real ONNX sessions, bypassing native runtime
// initialization entirely. Exported for use by internal/ocrpool and
// internal/orchestrator tests.
func NewForTest(detect func(image.Image) ([]image.Image, error), recognize func(image.Image) (string, error)) *Engine {
	return &Engine{lineDetector: detect, lineRecognizer: recognize}
}

// Close destroys the underlying ONNX sessions. Intended for worker
// process shutdown.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	if e.detector != nil {
		if err := e.detector.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.reader != nil {
		if err := e.reader.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Recognize decodes imageBytes, resizes it per spec §4.3, runs line
// detection followed by per-line recognition, and joins detected lines
// with "\n". An empty recognition result yields "".
func (e *Engine) Recognize(imageBytes []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return "", parseerr.NewImageDecode(err, "ocrengine: failed to decode image")
	}

	img = resize(img)

	e.mu.Lock()
	defer e.mu.Unlock()

	lines, err := e.detectLines(img)
	if err != nil {
		return "", parseerr.NewOCREngine(err, "ocrengine: line detection failed")
	}

	var texts []string
	for _, line := range lines {
		text, err := e.recognizeLine(line)
		if err != nil {
			return "", parseerr.NewOCREngine(err, "ocrengine: recognition failed")
		}
		if text != "" {
			texts = append(texts, text)
		}
	}

	return strings.Join(texts, "\n"), nil
}

// resize scales img down if its longest edge exceeds maxDimension,
// preserving aspect ratio with Lanczos resampling. Images with both
// dimensions below minDimension are left untouched — the engine never
// upscales.
func resize(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if w < minDimension && h < minDimension {
		return img
	}

	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxDimension {
		return img
	}

	scale := float64(maxDimension) / float64(longest)
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)

	return imaging.Resize(img, newW, newH, imaging.Lanczos)
}

// detectLines and recognizeLine dispatch to the real ONNX-backed
// implementations (detectLinesONNX/recognizeLineONNX in recognize.go)
// unless a test has installed a stand-in via NewForTest.
func (e *Engine) detectLines(img image.Image) ([]image.Image, error) {
	if e.lineDetector != nil {
		return e.lineDetector(img)
	}
	return detectLinesONNX(e.detector, img)
}

func (e *Engine) recognizeLine(line image.Image) (string, error) {
	if e.lineRecognizer != nil {
		return e.lineRecognizer(line)
	}
	return e.recognizeLineONNX(line)
}
