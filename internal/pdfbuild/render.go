package pdfbuild

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"
	"github.com/cheggaaa/pb/v3"
)

const defaultProgressEvery = 10

// RenderResult reports how one document was produced. OK is false only when
// the document itself could not be created or finalized; per-image failures
// are listed in ImageErrors and leave OK untouched.
type RenderResult struct {
	Err          error
	ImageErrors  []ImageError
	PagesWritten int
	OK           bool
}

// pageResult is the outcome of one image: drawn when err is nil.
type pageResult struct {
	err  error
	path string
}

// Renderer turns an ordered list of images into one PDF, one page each.
type Renderer struct {
	observer      Observer
	barOutput     io.Writer
	log           *logger.Logger
	decode        decodeFunc
	progressEvery int
}

// NewRenderer creates a Renderer. A nil observer discards progress and a nil
// barOutput disables the progress bar.
func NewRenderer(log *logger.Logger, observer Observer, barOutput io.Writer) *Renderer {
	if observer == nil {
		observer = discardObserver{}
	}

	if barOutput == nil {
		barOutput = io.Discard
	}

	return &Renderer{
		observer:      observer,
		barOutput:     barOutput,
		log:           log,
		decode:        decodeFile,
		progressEvery: defaultProgressEvery,
	}
}

// Render writes images, in the given order, to outputPath on pages of the
// given size. folder only labels progress events and log lines.
func (renderer *Renderer) Render(
	folder string,
	images []string,
	outputPath string,
	page PageSize,
) RenderResult {
	file, createErr := os.Create(outputPath) // #nosec G304 -- derived from the output directory
	if createErr != nil {
		return RenderResult{
			Err:          fmt.Errorf("%w: %w", ErrDocumentWrite, createErr),
			ImageErrors:  nil,
			PagesWritten: 0,
			OK:           false,
		}
	}

	doc := newDocument(page)
	results := renderer.drawAll(doc, folder, images)

	writeErr := doc.pdf.Output(file)
	closeErr := file.Close()

	finalizeErr := errors.Join(writeErr, closeErr)
	if finalizeErr != nil {
		removeErr := os.Remove(outputPath)
		if removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			renderer.log.Warn("Could not remove partial file %s: %v", outputPath, removeErr)
		}

		return RenderResult{
			Err:          fmt.Errorf("%w: %w", ErrDocumentWrite, finalizeErr),
			ImageErrors:  collectImageErrors(results),
			PagesWritten: 0,
			OK:           false,
		}
	}

	return RenderResult{
		Err:          nil,
		ImageErrors:  collectImageErrors(results),
		PagesWritten: doc.drawn,
		OK:           true,
	}
}

// drawAll places every image and reports progress. Failures are returned
// as results, never as an early exit.
func (renderer *Renderer) drawAll(doc *document, folder string, images []string) []pageResult {
	progressBar := pb.New(len(images)).
		SetTemplateString(`    {{ bar . " " "▸" "▹" " " " "}} {{counters .}} {{rtime .}}`).
		SetWriter(renderer.barOutput).
		Start()
	defer progressBar.Finish()

	results := make([]pageResult, 0, len(images))
	start := time.Now()

	for index, imagePath := range images {
		result := renderer.drawOne(doc, index, imagePath)
		if result.err != nil {
			renderer.log.Warn("Skipping %s in %s: %v", filepath.Base(imagePath), folder, result.err)
			renderer.observer.ImageFailed(folder, toImageError(result))
		}

		results = append(results, result)
		progressBar.Increment()

		processed := index + 1
		if processed%renderer.progressEvery == 0 {
			elapsed := time.Since(start)
			renderer.observer.ImageProgress(ProgressEvent{
				Folder:    folder,
				Index:     processed,
				Total:     len(images),
				Elapsed:   elapsed,
				Remaining: estimateRemaining(elapsed, processed, len(images)),
			})
		}
	}

	return results
}

func (renderer *Renderer) drawOne(doc *document, index int, imagePath string) pageResult {
	prepared, prepareErr := prepareImage(renderer.decode, imagePath)
	if prepareErr != nil {
		return pageResult{err: prepareErr, path: imagePath}
	}

	return pageResult{err: doc.drawImage(index, imagePath, prepared), path: imagePath}
}

func toImageError(result pageResult) ImageError {
	return ImageError{Path: filepath.Base(result.path), Message: result.err.Error()}
}

func collectImageErrors(results []pageResult) []ImageError {
	var imageErrors []ImageError

	for _, result := range results {
		if result.err != nil {
			imageErrors = append(imageErrors, toImageError(result))
		}
	}

	return imageErrors
}
