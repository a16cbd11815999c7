package ocrengine

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	onnxrt "github.com/yalue/onnxruntime_go"
)

const (
	// recognitionHeight is the fixed input height the recognizer model
	// expects; width varies per line and scales to preserve aspect ratio.
	recognitionHeight = 48
	// ctcBlankIndex is PaddleOCR's CTC blank convention: class 0.
	ctcBlankIndex = 0
)

// detectLinesONNX treats the already-cropped image as a single line. Every
// image submitted through internal/ocrpool is one document-extracted image
// (a figure, screenshot, or photo), not a full scanned page, so there is no
// multi-line layout for the detector session to segment — the detector
// session is loaded and kept for a future page-level OCR path but line
// segmentation of a single-image input is a no-op today.
func detectLinesONNX(_ *onnxrt.DynamicAdvancedSession, img image.Image) ([]image.Image, error) {
	return []image.Image{img}, nil
}

// recognizeLineONNX resizes line to the model's expected input height,
// normalizes it to an NCHW float32 tensor, runs the recognizer session, and
// greedily CTC-decodes the output logits into text via e.charset.
func (e *Engine) recognizeLineONNX(line image.Image) (string, error) {
	if e.charset == nil {
		return "", fmt.Errorf("ocrengine: no dictionary loaded, cannot decode recognizer output")
	}

	resized, w, h := resizeForRecognition(line, recognitionHeight)
	data := normalizeNCHW(resized, w, h)

	inputTensor, err := onnxrt.NewTensor(onnxrt.NewShape(1, 3, int64(h), int64(w)), data)
	if err != nil {
		return "", fmt.Errorf("create input tensor: %w", err)
	}
	defer func() { _ = inputTensor.Destroy() }()

	outputs := []onnxrt.Value{nil}
	if err := e.reader.Run([]onnxrt.Value{inputTensor}, outputs); err != nil {
		return "", fmt.Errorf("recognizer inference failed: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				_ = o.Destroy()
			}
		}
	}()

	floatTensor, ok := outputs[0].(*onnxrt.Tensor[float32])
	if !ok {
		return "", fmt.Errorf("recognizer produced unexpected output type %T", outputs[0])
	}

	classesFirst := recognitionClassesFirst(floatTensor.GetShape(), e.charset.size()+1)
	indices := decodeCTCGreedy(floatTensor.GetData(), floatTensor.GetShape(), ctcBlankIndex, classesFirst)

	runes := make([]rune, 0, len(indices))
	for _, idx := range indices {
		tok := e.charset.token(idx - 1) // shift past the reserved blank class
		if tok == "" {
			continue
		}
		runes = append(runes, []rune(tok)...)
	}
	return string(runes), nil
}

// resizeForRecognition scales img to targetHeight preserving aspect ratio;
// width is never padded since each call processes one image independently
// (no batching across calls means no common-width requirement).
func resizeForRecognition(img image.Image, targetHeight int) (image.Image, int, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return imaging.New(1, targetHeight, color.Black), 1, targetHeight
	}

	scale := float64(targetHeight) / float64(h)
	newW := int(float64(w) * scale)
	if newW < 1 {
		newW = 1
	}
	return imaging.Resize(img, newW, targetHeight, imaging.Lanczos), newW, targetHeight
}

// normalizeNCHW converts img to a [0,1]-scaled float32 NCHW (channel,
// row, col) buffer, the plain per-pixel normalization the teacher's own
// recognizer preprocessing uses (no per-channel mean/std subtraction).
func normalizeNCHW(img image.Image, w, h int) []float32 {
	data := make([]float32, 3*w*h)
	b := img.Bounds()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bch, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			idx := y*w + x
			data[idx] = float32(r>>8) / 255.0
			data[w*h+idx] = float32(g>>8) / 255.0
			data[2*w*h+idx] = float32(bch>>8) / 255.0
		}
	}
	return data
}
