package pdfbuild

import (
	"fmt"
	"io"
	"time"
)

const percentScale = 100.0

// ProgressEvent describes how far the renderer got within one folder.
type ProgressEvent struct {
	Folder    string
	Index     int // 1-based count of images processed so far
	Total     int
	Elapsed   time.Duration
	Remaining time.Duration
}

// Fraction is the completed share of the folder in the range [0, 1].
func (event ProgressEvent) Fraction() float64 {
	if event.Total == 0 {
		return 1
	}

	return float64(event.Index) / float64(event.Total)
}

// ImageError records one image that could not be placed.
type ImageError struct {
	Path    string // basename
	Message string
}

// Observer receives rendering progress. Implementations must not block.
type Observer interface {
	ImageProgress(event ProgressEvent)
	ImageFailed(folder string, imageErr ImageError)
}

// LineObserver prints progress as indented text lines.
type LineObserver struct {
	out io.Writer
}

// NewLineObserver returns an observer writing to out.
func NewLineObserver(out io.Writer) *LineObserver {
	return &LineObserver{out: out}
}

// ImageProgress prints the processed count, percentage and time remaining.
func (observer *LineObserver) ImageProgress(event ProgressEvent) {
	_, _ = fmt.Fprintf(
		observer.out,
		"    progress: %d/%d (%.1f%%) remaining: %.1fs\n",
		event.Index,
		event.Total,
		event.Fraction()*percentScale,
		event.Remaining.Seconds(),
	)
}

// ImageFailed prints the image name and the reason it was skipped.
func (observer *LineObserver) ImageFailed(_ string, imageErr ImageError) {
	_, _ = fmt.Fprintf(observer.out, "    error - %s: %s\n", imageErr.Path, imageErr.Message)
}

// estimateRemaining extrapolates the average time per processed image over
// the images still to go.
func estimateRemaining(elapsed time.Duration, processed, total int) time.Duration {
	if processed <= 0 || processed >= total {
		return 0
	}

	average := elapsed / time.Duration(processed)

	return average * time.Duration(total-processed)
}

type discardObserver struct{}

func (discardObserver) ImageProgress(ProgressEvent)     {}
func (discardObserver) ImageFailed(string, ImageError) {}
