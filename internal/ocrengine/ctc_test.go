package ocrengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCtcCollapse(t *testing.T) {
	indices := []int{1, 1, 0, 2, 2, 2, 3, 0, 3}
	assert.Equal(t, []int{1, 2, 3, 3}, ctcCollapse(indices, 0))
}

func TestDecodeCTCGreedy_TimeMajor(t *testing.T) {
	// [N, T, C] = [1, 4, 4], blank = 0.
	shape := []int64{1, 4, 4}
	logits := []float32{
		0.1, 0.9, 0.0, 0.0, // t0: class 1
		0.2, 0.8, 0.0, 0.0, // t1: class 1 (repeat)
		0.9, 0.05, 0.03, 0.02, // t2: class 0 (blank)
		0.1, 0.2, 0.7, 0.0, // t3: class 2
	}
	got := decodeCTCGreedy(logits, shape, 0, false)
	assert.Equal(t, []int{1, 2}, got)
}

func TestDecodeCTCGreedy_ClassesMajor(t *testing.T) {
	// Same logical sequence laid out [N, C, T] = [1, 4, 4].
	shape := []int64{1, 4, 4}
	logits := []float32{
		0.1, 0.2, 0.9, 0.1, // class 0 over T
		0.9, 0.8, 0.05, 0.2, // class 1 over T
		0.0, 0.0, 0.03, 0.7, // class 2 over T
		0.0, 0.0, 0.02, 0.0, // class 3 over T
	}
	got := decodeCTCGreedy(logits, shape, 0, true)
	assert.Equal(t, []int{1, 2}, got)
}

func TestRecognitionClassesFirst(t *testing.T) {
	assert.False(t, recognitionClassesFirst([]int64{1, 4, 5}, 5)) // [N,T,C]
	assert.True(t, recognitionClassesFirst([]int64{1, 5, 4}, 5))  // [N,C,T]
}
