package pdfbuild_test

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	return log
}

// writeJPEG writes a solid-color JPEG of the given size.
func writeJPEG(t *testing.T, path string, width, height int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 0xff})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func writeCorrupt(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte("definitely not a jpeg"), 0o600))
}

// makeFolder creates dir/name holding count valid JPEGs named p01.jpg, p02.jpg...
func makeFolder(t *testing.T, dir, name string, count int) string {
	t.Helper()

	folder := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(folder, 0o750))

	for i := 1; i <= count; i++ {
		writeJPEG(t, filepath.Join(folder, pageName(i)), 16, 8)
	}

	return folder
}

func pageName(i int) string {
	return fmt.Sprintf("p%02d.jpg", i)
}

// countPages counts page objects in an uncompressed gofpdf object table.
func countPages(t *testing.T, path string) int {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return bytes.Count(data, []byte("<</Type /Page\n"))
}
