// Package pdfbuild converts folders of page images into one PDF per folder.
package pdfbuild

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// defaultDirMode is the default permissions for created directories.
	defaultDirMode = 0o750
	pdfExtension   = ".pdf"
)

// imageExtensions are matched exactly; mixed-case variants such as ".Jpg"
// are not picked up.
var imageExtensions = []string{".jpg", ".JPG", ".jpeg", ".JPEG"}

// ListImages returns the JPEG files directly inside folderPath, sorted by
// full path. It does not recurse into subdirectories. An empty result is
// not an error.
func ListImages(folderPath string) ([]string, error) {
	dirEntries, readErr := os.ReadDir(folderPath)
	if readErr != nil {
		return nil, fmt.Errorf(
			"could not read directory %s: %w",
			folderPath,
			readErr,
		)
	}

	var imagePaths []string

	for _, entry := range dirEntries {
		if entry.IsDir() || !hasImageExtension(entry.Name()) {
			continue
		}

		imagePaths = append(imagePaths, filepath.Join(folderPath, entry.Name()))
	}

	sort.Strings(imagePaths)

	return imagePaths, nil
}

func hasImageExtension(name string) bool {
	for _, ext := range imageExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}

	return false
}

// DiscoverFolders returns the immediate subdirectories of inputDir sorted by
// name.
func DiscoverFolders(inputDir string) ([]string, error) {
	dirEntries, readErr := os.ReadDir(inputDir)
	if readErr != nil {
		return nil, fmt.Errorf(
			"could not read directory %s: %w",
			inputDir,
			readErr,
		)
	}

	var folders []string

	for _, entry := range dirEntries {
		if entry.IsDir() {
			folders = append(folders, filepath.Join(inputDir, entry.Name()))
		}
	}

	sort.Strings(folders)

	return folders, nil
}

// outputPathFor maps an input folder to its flat output file,
// '<outputDir>/<folderName>.pdf'.
func outputPathFor(outputDir, folderPath string) string {
	return filepath.Join(outputDir, filepath.Base(folderPath)+pdfExtension)
}

// ensureDirectory creates dirPath and any missing parents.
func ensureDirectory(dirPath string) error {
	mkdirErr := os.MkdirAll(dirPath, defaultDirMode)
	if mkdirErr != nil {
		return fmt.Errorf(
			"failed to create directory %s: %w",
			dirPath,
			mkdirErr,
		)
	}

	return nil
}

// fileExists reports whether path names an existing non-directory entry.
func fileExists(path string) bool {
	info, statErr := os.Stat(path)

	return statErr == nil && !info.IsDir()
}
