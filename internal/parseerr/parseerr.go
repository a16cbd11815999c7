// Package parseerr defines the error taxonomy shared by every layer of
// the parsing pipeline, mirroring the discriminated-error style of
// internal/pipeline.ResourceError in the teacher codebase: a small
// struct with a Kind tag rather than a sprawl of sentinel values.
package parseerr

import "fmt"

// Kind discriminates the error taxonomy of the parsing pipeline.
type Kind string

const (
	// KindValidation covers missing content, missing name, or an
	// unrecognized extension. Maps to INVALID_ARGUMENT at the facade.
	KindValidation Kind = "validation"
	// KindImageDecode covers image bytes the OCR adapter could not decode.
	KindImageDecode Kind = "image_decode"
	// KindOCREngine covers a recognition failure inside the OCR engine.
	KindOCREngine Kind = "ocr_engine"
	// KindExtractor covers a format-specific failure confined to one page.
	KindExtractor Kind = "extractor"
	// KindPoolTimeout covers a per-page or per-image deadline expiring.
	KindPoolTimeout Kind = "pool_timeout"
	// KindFatal covers a catastrophic orchestrator failure with no fallback left.
	KindFatal Kind = "fatal"
)

// Error is the concrete type used across the pipeline. Construct with the
// New* helpers rather than this struct literal directly.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind, so
// errors.Is(err, &Error{Kind: KindX}) matches by kind alone; KindOf
// extracts the kind directly.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// NewValidation builds a KindValidation error.
func NewValidation(format string, args ...any) *Error {
	return newf(KindValidation, nil, format, args...)
}

// NewImageDecode builds a KindImageDecode error.
func NewImageDecode(cause error, format string, args ...any) *Error {
	return newf(KindImageDecode, cause, format, args...)
}

// NewOCREngine builds a KindOCREngine error.
func NewOCREngine(cause error, format string, args ...any) *Error {
	return newf(KindOCREngine, cause, format, args...)
}

// NewExtractor builds a KindExtractor error.
func NewExtractor(cause error, format string, args ...any) *Error {
	return newf(KindExtractor, cause, format, args...)
}

// NewPoolTimeout builds a KindPoolTimeout error.
func NewPoolTimeout(format string, args ...any) *Error {
	return newf(KindPoolTimeout, nil, format, args...)
}

// NewFatal builds a KindFatal error.
func NewFatal(cause error, format string, args ...any) *Error {
	return newf(KindFatal, cause, format, args...)
}

// KindOf reports the Kind of err if it is (or wraps) a *Error, and false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if ok := asError(err, &e); ok {
		return e.Kind, true
	}
	return "", false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
