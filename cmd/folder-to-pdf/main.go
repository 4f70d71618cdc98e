// Command folder-to-pdf converts every image folder under an input directory
// into one PDF per folder.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/book-expert/logger"
	flag "github.com/spf13/pflag"

	"github.com/book-expert/folder-to-pdf/internal/pdfbuild"
	"github.com/book-expert/folder-to-pdf/internal/publish"
)

const (
	// Rough cost of one volume, used only for the pre-run estimate.
	estimatePerFolder   = 2 * time.Minute
	estimateMinFolders  = 10
	confirmationPrompt  = "Start processing? (y/N): "
	logFileTimestampFmt = "20060102_150405"
)

func main() {
	// The `run` function contains the core application logic.
	// We call it and then os.Exit to ensure deferred functions are run correctly.
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is the main logic function, separated from main to allow for easier testing and
// clean exit handling. It returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flgs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}

		return fail(stderr, fmt.Errorf("%w: %w", errUsage, err))
	}

	cfg, err := loadConfiguration(&flgs)
	if err != nil {
		return fail(stderr, err)
	}

	resolved, err := mergeConfigAndFlags(&cfg, &flgs)
	if err != nil {
		return fail(stderr, err)
	}

	printPreRunSummary(stdout, &resolved)

	if !resolved.auto && !confirm(stdin, stdout) {
		_, _ = fmt.Fprintln(stdout, "Cancelled.")

		return ExitCancelled
	}

	err = processWithLogger(ctx, &resolved, stdout)
	if err != nil {
		return fail(stderr, err)
	}

	return ExitSuccess
}

func fail(stderr io.Writer, err error) int {
	_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)

	return exitCodeFor(err)
}

// processWithLogger sets up the logger and the optional publisher, then runs
// the batch.
func processWithLogger(ctx context.Context, resolved *settings, stdout io.Writer) error {
	log, err := setupLogger(resolved.logDir)
	if err != nil {
		return fmt.Errorf("could not set up logger: %w", err)
	}

	defer func() {
		cerr := log.Close()
		if cerr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to close logger: %v\n", cerr)
		}
	}()

	options := pdfbuild.Options{
		Output:            stdout,
		ProgressBarOutput: nil,
		Notifier:          nil,
		InputPath:         resolved.inputPath,
		OutputPath:        resolved.outputPath,
		Orientation:       resolved.orientation,
		SkipExisting:      !resolved.force,
	}

	if resolved.progressBar {
		options.ProgressBarOutput = stdout
	}

	if resolved.nats.Enabled() {
		publisher, pubErr := publish.New(ctx, resolved.nats, log)
		if pubErr != nil {
			return fmt.Errorf("could not set up publisher: %w", pubErr)
		}

		defer func() {
			closeErr := publisher.Close()
			if closeErr != nil {
				log.Warn("Failed to close publisher: %v", closeErr)
			}
		}()

		options.Notifier = publisher
	}

	processor := pdfbuild.NewProcessor(&options, log)

	_, procErr := processor.Process(ctx)
	if procErr != nil {
		return fmt.Errorf("PDF conversion failed: %w", procErr)
	}

	return nil
}

// setupLogger initializes the logger, creating the log directory if needed.
func setupLogger(logDir string) (*logger.Logger, error) {
	logFileName := fmt.Sprintf("log_%s.log", time.Now().Format(logFileTimestampFmt))

	log, err := logger.New(logDir, logFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

// printPreRunSummary shows what a run would do. It only reads the
// filesystem.
func printPreRunSummary(w io.Writer, resolved *settings) {
	overwrite := "no"
	if resolved.force {
		overwrite = "yes"
	}

	_, _ = fmt.Fprintln(w, "=== Image folder to PDF converter ===")
	_, _ = fmt.Fprintf(w, "Input directory: %s\n", resolved.inputPath)
	_, _ = fmt.Fprintf(w, "Output directory: %s\n", resolved.outputPath)
	_, _ = fmt.Fprintf(w, "Page orientation: %s\n", resolved.orientation)
	_, _ = fmt.Fprintf(w, "Overwrite: %s\n", overwrite)
	_, _ = fmt.Fprintln(w)

	folders, err := pdfbuild.DiscoverFolders(resolved.inputPath)
	if err != nil {
		_, _ = fmt.Fprintf(w, "Warning: input directory does not exist: %s\n", resolved.inputPath)
	} else {
		_, _ = fmt.Fprintf(w, "Folders to process: %d\n", len(folders))

		if len(folders) > estimateMinFolders {
			_, _ = fmt.Fprintf(w, "Estimated time: about %s\n", formatEstimate(len(folders)))
		}
	}

	_, _ = fmt.Fprintln(w)
}

// formatEstimate renders folderCount*2 minutes as hours and minutes.
func formatEstimate(folderCount int) string {
	total := time.Duration(folderCount) * estimatePerFolder
	hours := int(total / time.Hour)
	minutes := int((total % time.Hour) / time.Minute)

	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// confirm asks before any work is done. Only "y" or "yes", in any case,
// proceeds; EOF counts as no.
func confirm(in io.Reader, out io.Writer) bool {
	_, _ = fmt.Fprint(out, confirmationPrompt)

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		_, _ = fmt.Fprintln(out)

		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		_, _ = fmt.Fprintln(out)

		return true
	default:
		return false
	}
}
