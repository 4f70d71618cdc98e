package pdfbuild_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/folder-to-pdf/internal/pdfbuild"
)

type fakeNotifier struct {
	err     error
	created []string
}

func (f *fakeNotifier) PDFCreated(_ context.Context, folderName, _ string) error {
	f.created = append(f.created, folderName)

	return f.err
}

func newTestProcessor(t *testing.T, opts pdfbuild.Options) (*pdfbuild.Processor, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	opts.Output = &out

	return pdfbuild.NewProcessor(&opts, newTestLogger(t)), &out
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	proc, _ := newTestProcessor(t, pdfbuild.Options{})
	require.ErrorIs(t, proc.ValidateConfigForTest(), pdfbuild.ErrInputPathRequired)

	proc, _ = newTestProcessor(t, pdfbuild.Options{InputPath: "in"})
	require.ErrorIs(t, proc.ValidateConfigForTest(), pdfbuild.ErrOutputPathRequired)

	proc, _ = newTestProcessor(t, pdfbuild.Options{InputPath: "in", OutputPath: "out"})
	require.NoError(t, proc.ValidateConfigForTest())

	proc, _ = newTestProcessor(t, pdfbuild.Options{})
	_, err := proc.Process(context.Background())
	require.ErrorIs(t, err, pdfbuild.ErrInputPathRequired)
}

func TestNewProcessor_DefaultsOutputToStdout(t *testing.T) {
	t.Parallel()

	proc := pdfbuild.NewProcessor(&pdfbuild.Options{}, newTestLogger(t))
	assert.Equal(t, os.Stdout, proc.ConfigForTest().Output)
}

func TestProcess_ConvertsEveryFolder(t *testing.T) {
	t.Parallel()

	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "nested", "out")
	makeFolder(t, inDir, "vol_02", 2)
	makeFolder(t, inDir, "vol_01", 3)

	notifier := &fakeNotifier{}
	proc, out := newTestProcessor(t, pdfbuild.Options{
		InputPath:    inDir,
		OutputPath:   outDir,
		Orientation:  pdfbuild.Portrait,
		SkipExisting: true,
		Notifier:     notifier,
	})

	summary, err := proc.Process(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 2, summary.Total())
	assert.Equal(t, []string{"vol_01", "vol_02"}, notifier.created)
	assert.Equal(t, 3, countPages(t, filepath.Join(outDir, "vol_01.pdf")))
	assert.Equal(t, 2, countPages(t, filepath.Join(outDir, "vol_02.pdf")))

	first := summary.Outcomes[0]
	assert.Equal(t, "vol_01", first.Folder)
	assert.Equal(t, pdfbuild.StatusSuccess, first.Status)
	assert.Equal(t, 3, first.Attempted)
	assert.Zero(t, first.Errored)
	assert.Positive(t, first.OutputSize)

	console := out.String()
	assert.Contains(t, console, "[1/2] vol_01\n")
	assert.Contains(t, console, "[2/2] vol_02\n")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("vol_01")), bytes.Index(out.Bytes(), []byte("vol_02")))
	assert.Contains(t, console, "Succeeded: 2\n")
	assert.Contains(t, console, "PDF location: "+outDir)
}

func TestProcess_SkipExistingIsIdempotent(t *testing.T) {
	t.Parallel()

	inDir := t.TempDir()
	outDir := t.TempDir()
	makeFolder(t, inDir, "vol_01", 2)
	makeFolder(t, inDir, "vol_02", 1)

	opts := pdfbuild.Options{InputPath: inDir, OutputPath: outDir, SkipExisting: true}

	proc, _ := newTestProcessor(t, opts)
	first, err := proc.Process(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, first.Succeeded)

	before := snapshot(t, outDir)

	notifier := &fakeNotifier{}
	opts.Notifier = notifier
	proc, _ = newTestProcessor(t, opts)
	second, err := proc.Process(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, second.Skipped)
	assert.Zero(t, second.Succeeded)
	assert.Zero(t, second.Failed)
	assert.Empty(t, notifier.created)
	assert.Equal(t, before, snapshot(t, outDir))
}

func TestProcess_ForceOverwrites(t *testing.T) {
	t.Parallel()

	inDir := t.TempDir()
	outDir := t.TempDir()
	makeFolder(t, inDir, "vol_01", 1)
	stale := filepath.Join(outDir, "vol_01.pdf")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o600))

	proc, _ := newTestProcessor(t, pdfbuild.Options{InputPath: inDir, OutputPath: outDir})
	summary, err := proc.Process(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, countPages(t, stale))
}

func TestProcess_EmptyFolderFails(t *testing.T) {
	t.Parallel()

	inDir := t.TempDir()
	outDir := t.TempDir()
	empty := filepath.Join(inDir, "vol_00")
	require.NoError(t, os.Mkdir(empty, 0o750))
	touch(t, filepath.Join(empty, "cover.png"))
	makeFolder(t, inDir, "vol_01", 1)

	proc, out := newTestProcessor(t, pdfbuild.Options{InputPath: inDir, OutputPath: outDir, SkipExisting: true})
	summary, err := proc.Process(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, pdfbuild.StatusFailed, summary.Outcomes[0].Status)
	assert.Equal(t, pdfbuild.ErrNoImages.Error(), summary.Outcomes[0].Reason)
	assert.NoFileExists(t, filepath.Join(outDir, "vol_00.pdf"))
	assert.Contains(t, out.String(), "failed: vol_00.pdf")
}

func TestProcess_PartialFailureCountsAsSuccess(t *testing.T) {
	t.Parallel()

	inDir := t.TempDir()
	outDir := t.TempDir()
	folder := makeFolder(t, inDir, "vol_01", 3)
	writeCorrupt(t, filepath.Join(folder, pageName(2)))

	proc, out := newTestProcessor(t, pdfbuild.Options{InputPath: inDir, OutputPath: outDir})
	summary, err := proc.Process(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 3, summary.Outcomes[0].Attempted)
	assert.Equal(t, 1, summary.Outcomes[0].Errored)
	assert.Equal(t, 2, countPages(t, filepath.Join(outDir, "vol_01.pdf")))
	assert.Contains(t, out.String(), "error - p02.jpg")
}

func TestProcess_AllImagesCorruptFails(t *testing.T) {
	t.Parallel()

	inDir := t.TempDir()
	outDir := t.TempDir()
	folder := filepath.Join(inDir, "vol_01")
	require.NoError(t, os.Mkdir(folder, 0o750))
	writeCorrupt(t, filepath.Join(folder, "a.jpg"))
	writeCorrupt(t, filepath.Join(folder, "b.jpg"))

	notifier := &fakeNotifier{}
	proc, _ := newTestProcessor(t, pdfbuild.Options{InputPath: inDir, OutputPath: outDir, Notifier: notifier})
	summary, err := proc.Process(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, pdfbuild.ErrNoPagesDrawn.Error(), summary.Outcomes[0].Reason)
	assert.Equal(t, 2, summary.Outcomes[0].Errored)
	assert.NoFileExists(t, filepath.Join(outDir, "vol_01.pdf"))
	assert.Empty(t, notifier.created)
}

func TestProcess_NotifierErrorKeepsSuccess(t *testing.T) {
	t.Parallel()

	inDir := t.TempDir()
	makeFolder(t, inDir, "vol_01", 1)

	notifier := &fakeNotifier{err: errors.New("nats down")}
	proc, out := newTestProcessor(t, pdfbuild.Options{
		InputPath:  inDir,
		OutputPath: t.TempDir(),
		Notifier:   notifier,
	})
	summary, err := proc.Process(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Contains(t, out.String(), "publish failed: nats down")
}

func TestProcess_MissingInputIsCreated(t *testing.T) {
	t.Parallel()

	inDir := filepath.Join(t.TempDir(), "images-input")
	outDir := filepath.Join(t.TempDir(), "images-output")

	proc, out := newTestProcessor(t, pdfbuild.Options{InputPath: inDir, OutputPath: outDir})
	summary, err := proc.Process(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.InputCreated)
	assert.Zero(t, summary.Total())
	assert.DirExists(t, inDir)
	assert.DirExists(t, outDir)
	assert.Contains(t, out.String(), "creating it")
}

func TestProcess_NoSubdirectories(t *testing.T) {
	t.Parallel()

	inDir := t.TempDir()
	touch(t, filepath.Join(inDir, "loose.jpg"))

	proc, out := newTestProcessor(t, pdfbuild.Options{InputPath: inDir, OutputPath: t.TempDir()})
	summary, err := proc.Process(context.Background())
	require.NoError(t, err)

	assert.False(t, summary.InputCreated)
	assert.Zero(t, summary.Total())
	assert.Contains(t, out.String(), "No subdirectories")
}

func TestProcess_UnwritableOutputAborts(t *testing.T) {
	t.Parallel()

	inDir := t.TempDir()
	makeFolder(t, inDir, "vol_01", 1)

	blocker := filepath.Join(t.TempDir(), "file")
	touch(t, blocker)

	proc, _ := newTestProcessor(t, pdfbuild.Options{InputPath: inDir, OutputPath: filepath.Join(blocker, "out")})
	summary, err := proc.Process(context.Background())

	require.ErrorIs(t, err, pdfbuild.ErrOutputUnwritable)
	assert.Zero(t, summary.Total())
}

func TestProcess_SummaryTotalsMatchFolders(t *testing.T) {
	t.Parallel()

	inDir := t.TempDir()
	outDir := t.TempDir()
	makeFolder(t, inDir, "a_done", 1)
	makeFolder(t, inDir, "b_new", 2)
	require.NoError(t, os.Mkdir(filepath.Join(inDir, "c_empty"), 0o750))
	touch(t, filepath.Join(outDir, "a_done.pdf"))

	proc, _ := newTestProcessor(t, pdfbuild.Options{InputPath: inDir, OutputPath: outDir, SkipExisting: true})
	summary, err := proc.Process(context.Background())
	require.NoError(t, err)

	folders, err := pdfbuild.DiscoverFolders(inDir)
	require.NoError(t, err)

	assert.Equal(t, len(folders), summary.Succeeded+summary.Skipped+summary.Failed)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, summary.Outcomes, 3)
	assert.GreaterOrEqual(t, summary.Elapsed, time.Duration(0))
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "success", pdfbuild.StatusSuccess.String())
	assert.Equal(t, "skipped", pdfbuild.StatusSkipped.String())
	assert.Equal(t, "failed", pdfbuild.StatusFailed.String())
}

// snapshot maps each file in dir to its content and modification time.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	files := make(map[string]string, len(entries))

	for _, entry := range entries {
		info, infoErr := entry.Info()
		require.NoError(t, infoErr)

		data, readErr := os.ReadFile(filepath.Join(dir, entry.Name()))
		require.NoError(t, readErr)

		files[entry.Name()] = info.ModTime().String() + "|" + string(data)
	}

	return files
}
