package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/pelletier/go-toml/v2"

	"github.com/book-expert/folder-to-pdf/internal/pdfbuild"
	"github.com/book-expert/folder-to-pdf/internal/publish"
)

const (
	defaultConfigFile  = "folder-to-pdf.toml"
	defaultInputDir    = "./images-input"
	defaultOutputDir   = "./images-output"
	defaultLogsDir     = "logs/folder_to_pdf"
	defaultOrientation = "landscape"
)

// ErrConfigParse is returned when a config file exists but cannot be decoded.
var ErrConfigParse = errors.New("failed to parse config")

type configPaths struct {
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
	LogsDir   string `toml:"logs_dir"`
}

type configSettings struct {
	Orientation string `toml:"orientation"`
	Force       bool   `toml:"force"`
	Auto        bool   `toml:"auto"`
	ProgressBar bool   `toml:"progress_bar"`
}

// config represents the structure of the folder-to-pdf.toml file.
type config struct {
	Paths    configPaths    `toml:"paths"`
	Settings configSettings `toml:"settings"`
	NATS     publish.Config `toml:"nats"`
}

// settings is the fully resolved configuration of one run.
type settings struct {
	nats        publish.Config
	inputPath   string
	outputPath  string
	logDir      string
	orientation pdfbuild.Orientation
	force       bool
	auto        bool
	progressBar bool
}

// loadConfiguration reads the config from a URL when one is given,
// otherwise from the local file.
func loadConfiguration(flgs *flags) (config, error) {
	if flgs.configURL != "" {
		return loadConfigFromURL(flgs.configURL)
	}

	path := flgs.configPath
	explicit := path != ""

	if !explicit {
		path = defaultConfigFile
	}

	cfg, err := loadConfigFile(path)
	if err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		var emptyCfg config

		return emptyCfg, nil
	}

	return cfg, err
}

// loadConfigFile reads and parses a TOML config file.
func loadConfigFile(path string) (config, error) {
	var cfg config

	data, readErr := os.ReadFile(path) // #nosec G304 -- user-supplied config path
	if readErr != nil {
		return cfg, fmt.Errorf("could not read config file %s: %w", path, readErr)
	}

	decodeErr := toml.Unmarshal(data, &cfg)
	if decodeErr != nil {
		return config{}, fmt.Errorf("%w: %s: %w", ErrConfigParse, path, decodeErr)
	}

	return cfg, nil
}

// loadConfigFromURL fetches the TOML config through the configurator. The
// bootstrap logger lives in the temp dir because the real log directory is
// itself part of the config.
func loadConfigFromURL(url string) (config, error) {
	var cfg config

	bootstrapLogger, loggerErr := logger.New(os.TempDir(), "folder-to-pdf-bootstrap.log")
	if loggerErr != nil {
		return cfg, fmt.Errorf("failed to create bootstrap logger: %w", loggerErr)
	}

	defer func() { _ = bootstrapLogger.Close() }()

	loadErr := configurator.LoadFromURL(url, &cfg, bootstrapLogger)
	if loadErr != nil {
		return config{}, fmt.Errorf(
			"%w: failed to load configuration from URL %s: %w",
			ErrConfigParse,
			url,
			loadErr,
		)
	}

	return cfg, nil
}

// mergeConfigAndFlags combines settings from the config file and command-line flags.
// Flags take precedence over the config file settings, which take precedence
// over built-in defaults.
func mergeConfigAndFlags(cfg *config, flgs *flags) (settings, error) {
	resolved := settings{
		nats:        cfg.NATS,
		inputPath:   firstNonEmpty(flgs.inputPath, cfg.Paths.InputDir, defaultInputDir),
		outputPath:  firstNonEmpty(flgs.outputPath, cfg.Paths.OutputDir, defaultOutputDir),
		logDir:      firstNonEmpty(flgs.logDir, cfg.Paths.LogsDir, defaultLogsDir),
		orientation: pdfbuild.Landscape,
		force:       flgs.force || cfg.Settings.Force,
		auto:        flgs.auto || cfg.Settings.Auto,
		progressBar: flgs.progressBar || cfg.Settings.ProgressBar,
	}

	orientation, err := pdfbuild.ParseOrientation(
		firstNonEmpty(flgs.orientation, cfg.Settings.Orientation, defaultOrientation),
	)
	if err != nil {
		return settings{}, err
	}

	resolved.orientation = orientation

	return resolved, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}
