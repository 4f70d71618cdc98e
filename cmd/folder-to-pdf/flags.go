package main

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// flags represents the command-line arguments. Empty strings mean "not
// given" so the config file can fill them in.
type flags struct {
	inputPath   string
	outputPath  string
	orientation string
	configPath  string
	configURL   string
	logDir      string
	auto        bool
	force       bool
	progressBar bool
}

// parseFlags defines and parses command-line flags.
func parseFlags(args []string, stderr io.Writer) (flags, error) {
	var flagsVar flags

	fs := flag.NewFlagSet("folder-to-pdf", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr, fs) }

	fs.StringVarP(&flagsVar.inputPath, "input", "i", "",
		"directory holding one image folder per volume (default "+defaultInputDir+")")
	fs.StringVarP(&flagsVar.outputPath, "output", "o", "",
		"directory receiving the PDF files (default "+defaultOutputDir+")")
	fs.StringVar(&flagsVar.orientation, "orientation", "",
		"page orientation: portrait or landscape (default "+defaultOrientation+")")
	fs.BoolVar(&flagsVar.auto, "auto", false, "start without asking for confirmation")
	fs.BoolVar(&flagsVar.force, "force", false, "overwrite existing PDF files")
	fs.StringVarP(&flagsVar.configPath, "config", "c", "",
		"TOML config file (default "+defaultConfigFile+" if present)")
	fs.StringVar(&flagsVar.configURL, "config-url", "", "load the TOML config from a URL")
	fs.StringVar(&flagsVar.logDir, "log-dir", "", "log directory (default "+defaultLogsDir+")")
	fs.BoolVar(&flagsVar.progressBar, "bar", false, "show a progress bar for each folder")

	err := fs.Parse(args)
	if err != nil {
		return flags{}, err
	}

	if fs.NArg() > 0 {
		return flags{}, fmt.Errorf("%w: unexpected argument %q", errUsage, fs.Arg(0))
	}

	return flagsVar, nil
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	_, _ = fmt.Fprintf(w, `Convert folders of page images into one PDF per folder.

Usage:
  folder-to-pdf [flags]

Examples:
  folder-to-pdf
  folder-to-pdf --auto
  folder-to-pdf --orientation portrait
  folder-to-pdf -i ./my-images -o ./my-pdfs --auto

Flags:
%s`, fs.FlagUsages())
}
