package main

import (
	"errors"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/book-expert/folder-to-pdf/internal/pdfbuild"
)

// Exit codes for folder-to-pdf.
const (
	ExitSuccess   = 0 // Batch ran, or the input directory was just created
	ExitGeneral   = 1 // General/unexpected error
	ExitUsage     = 2 // Invalid flags, config, or orientation
	ExitIO        = 3 // Output directory unwritable, permission denied
	ExitCancelled = 4 // Declined at the confirmation prompt, nothing was done
)

var errUsage = errors.New("invalid usage")

// exitCodeFor returns the appropriate exit code for an error.
func exitCodeFor(err error) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}

	if errors.Is(err, pdfbuild.ErrOutputUnwritable) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, os.ErrNotExist) {
		return ExitIO
	}

	if errors.Is(err, errUsage) ||
		errors.Is(err, ErrConfigParse) ||
		errors.Is(err, pdfbuild.ErrInvalidOrientation) ||
		errors.Is(err, pdfbuild.ErrInputPathRequired) ||
		errors.Is(err, pdfbuild.ErrOutputPathRequired) {
		return ExitUsage
	}

	return ExitGeneral
}
