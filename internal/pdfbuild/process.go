package pdfbuild

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"
)

var (
	// ErrInputPathRequired is returned when input path is not provided.
	ErrInputPathRequired = errors.New("input path is required")
	// ErrOutputPathRequired is returned when output path is not provided.
	ErrOutputPathRequired = errors.New("output path is required")
	// ErrOutputUnwritable is returned when the output directory cannot be
	// created. It is the only error that stops a batch.
	ErrOutputUnwritable = errors.New("output directory is not writable")
)

const bytesPerMiB = 1024 * 1024

// Notifier is told about every PDF a run creates.
type Notifier interface {
	PDFCreated(ctx context.Context, folderName, pdfPath string) error
}

// Options holds all configurable parameters for a Processor.
type Options struct {
	Output            io.Writer // console lines; defaults to stdout
	ProgressBarOutput io.Writer // per-folder bar; nil disables it
	Notifier          Notifier  // optional
	InputPath         string
	OutputPath        string
	Orientation       Orientation
	SkipExisting      bool
}

// Processor converts every subfolder of the input directory into a PDF.
type Processor struct {
	renderer *Renderer
	log      *logger.Logger
	config   Options
}

// NewProcessor creates and initializes a new Processor with the given options and logger.
func NewProcessor(opts *Options, log *logger.Logger) *Processor {
	applyDefaultOptions(opts)

	return &Processor{
		renderer: NewRenderer(log, NewLineObserver(opts.Output), opts.ProgressBarOutput),
		log:      log,
		config:   *opts,
	}
}

func applyDefaultOptions(opts *Options) {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
}

func (processor *Processor) validateConfig() error {
	if processor.config.InputPath == "" {
		return ErrInputPathRequired
	}

	if processor.config.OutputPath == "" {
		return ErrOutputPathRequired
	}

	return nil
}

// Process runs the whole batch. Folder failures are counted in the summary;
// an error is returned only when the run cannot start at all.
func (processor *Processor) Process(ctx context.Context) (Summary, error) {
	var summary Summary

	err := processor.validateConfig()
	if err != nil {
		return summary, err
	}

	summary.OutputDir = absolute(processor.config.OutputPath)

	err = ensureDirectory(processor.config.OutputPath)
	if err != nil {
		return summary, fmt.Errorf("%w: %w", ErrOutputUnwritable, err)
	}

	created, err := processor.ensureInputDirectory()
	if err != nil {
		return summary, err
	}

	if created {
		summary.InputCreated = true

		return summary, nil
	}

	folders, err := DiscoverFolders(processor.config.InputPath)
	if err != nil {
		return summary, fmt.Errorf("failed to discover folders: %w", err)
	}

	if len(folders) == 0 {
		processor.printf("No subdirectories found in %s.\n", processor.config.InputPath)
		processor.log.Warn("No subdirectories found in %s", processor.config.InputPath)

		return summary, nil
	}

	processor.log.Info("Found %d folder(s) to process.", len(folders))
	processor.printHeader(len(folders))

	start := time.Now()

	for index, folder := range folders {
		processor.printf("[%d/%d] %s\n", index+1, len(folders), filepath.Base(folder))

		outcome := processor.runFolder(folder)
		processor.notify(ctx, outcome)
		processor.printOutcome(outcome)
		summary.Add(outcome)
	}

	summary.Elapsed = time.Since(start)
	processor.printSummary(&summary)

	return summary, nil
}

// ensureInputDirectory creates a missing input directory and reports
// whether it had to, so the caller can stop and let the user fill it.
func (processor *Processor) ensureInputDirectory() (bool, error) {
	inputPath := processor.config.InputPath

	_, statErr := os.Stat(inputPath)
	if statErr == nil {
		return false, nil
	}

	if !errors.Is(statErr, os.ErrNotExist) {
		return false, fmt.Errorf("could not inspect input directory: %w", statErr)
	}

	processor.printf("Input directory does not exist, creating it: %s\n", inputPath)

	mkdirErr := ensureDirectory(inputPath)
	if mkdirErr != nil {
		return false, mkdirErr
	}

	processor.printf("Put one folder of images per volume into %s and run again.\n", inputPath)
	processor.printf("Example: %s\n", filepath.Join(inputPath, "volume_01"))
	processor.log.Info("Created input directory %s", inputPath)

	return true, nil
}

// runFolder converts one folder. Checks happen in order: existing output,
// image discovery, rendering.
func (processor *Processor) runFolder(folder string) Outcome {
	start := time.Now()
	name := filepath.Base(folder)
	outputPath := outputPathFor(processor.config.OutputPath, folder)

	outcome := Outcome{
		Folder:     name,
		OutputPath: outputPath,
		Reason:     "",
		Status:     StatusFailed,
		Elapsed:    0,
		OutputSize: 0,
		Attempted:  0,
		Errored:    0,
	}

	if processor.config.SkipExisting && fileExists(outputPath) {
		processor.log.Info("Skipping %s: %s already exists", name, filepath.Base(outputPath))
		outcome.Status = StatusSkipped
		outcome.Reason = "PDF already exists"

		return outcome
	}

	images, listErr := ListImages(folder)
	if listErr == nil && len(images) == 0 {
		listErr = ErrNoImages
	}

	if listErr != nil {
		processor.log.Error("No images for %s: %v", name, listErr)
		outcome.Reason = listErr.Error()
		outcome.Elapsed = time.Since(start)

		return outcome
	}

	processor.printf("  processing %d images...\n", len(images))
	processor.log.Info("Rendering %d images from %s into %s", len(images), name, outputPath)

	result := processor.renderer.Render(name, images, outputPath, processor.config.Orientation.PageSize())
	outcome.Attempted = len(images)
	outcome.Errored = len(result.ImageErrors)
	outcome.Elapsed = time.Since(start)

	return processor.classify(outcome, result)
}

func (processor *Processor) classify(outcome Outcome, result RenderResult) Outcome {
	if !result.OK {
		processor.log.Error("Failed to write %s: %v", outcome.OutputPath, result.Err)
		outcome.Reason = result.Err.Error()

		return outcome
	}

	if result.PagesWritten == 0 {
		processor.log.Error("Every image of %s failed, removing %s", outcome.Folder, outcome.OutputPath)

		removeErr := os.Remove(outcome.OutputPath)
		if removeErr != nil {
			processor.log.Warn("Could not remove %s: %v", outcome.OutputPath, removeErr)
		}

		outcome.Reason = ErrNoPagesDrawn.Error()

		return outcome
	}

	info, statErr := os.Stat(outcome.OutputPath)
	if statErr == nil {
		outcome.OutputSize = info.Size()
	}

	processor.printf(
		"    finished: %d images, %.1fs\n",
		outcome.Attempted,
		outcome.Elapsed.Seconds(),
	)
	processor.log.Success(
		"Wrote %s: %d page(s), %d image error(s)",
		outcome.OutputPath,
		result.PagesWritten,
		outcome.Errored,
	)

	outcome.Status = StatusSuccess

	return outcome
}

// notify hands a new PDF to the notifier. Its failure never changes the
// folder's outcome.
func (processor *Processor) notify(ctx context.Context, outcome Outcome) {
	if processor.config.Notifier == nil || outcome.Status != StatusSuccess {
		return
	}

	notifyErr := processor.config.Notifier.PDFCreated(ctx, outcome.Folder, outcome.OutputPath)
	if notifyErr != nil {
		processor.log.Warn("Could not publish %s: %v", outcome.OutputPath, notifyErr)
		processor.printf("  warning: publish failed: %v\n", notifyErr)
	}
}

func (processor *Processor) printHeader(folderCount int) {
	processor.printf("Page orientation: %s\n", processor.config.Orientation)
	processor.printf("=== Batch started ===\n")
	processor.printf("Processing %d folder(s).\n", folderCount)
	processor.printf("Input: %s\n", absolute(processor.config.InputPath))
	processor.printf("Output: %s\n", absolute(processor.config.OutputPath))

	if processor.config.SkipExisting {
		processor.printf("Existing PDF files are skipped.\n")
	} else {
		processor.printf("Existing PDF files are overwritten.\n")
	}

	processor.printf("\n")
}

func (processor *Processor) printOutcome(outcome Outcome) {
	pdfName := filepath.Base(outcome.OutputPath)

	switch outcome.Status {
	case StatusSkipped:
		processor.printf("  skipped: %s\n", outcome.Reason)

		return
	case StatusSuccess:
		processor.printf(
			"  done: %s (%.1fMB)\n",
			pdfName,
			float64(outcome.OutputSize)/bytesPerMiB,
		)
	case StatusFailed:
		processor.printf("  failed: %s: %s\n", pdfName, outcome.Reason)
	}

	processor.printf("\n")
}

func (processor *Processor) printSummary(summary *Summary) {
	processor.printf("=== Batch finished ===\n")
	processor.printf("Succeeded: %d\n", summary.Succeeded)
	processor.printf("Skipped: %d\n", summary.Skipped)
	processor.printf("Failed: %d\n", summary.Failed)
	processor.printf("Total time: %.1f min\n", summary.Elapsed.Minutes())
	processor.printf("PDF location: %s\n", summary.OutputDir)

	processor.log.Info(
		"Batch finished: %d succeeded, %d skipped, %d failed in %s",
		summary.Succeeded,
		summary.Skipped,
		summary.Failed,
		summary.Elapsed.Round(time.Second),
	)
}

func (processor *Processor) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(processor.config.Output, format, args...)
}

func absolute(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return abs
}
