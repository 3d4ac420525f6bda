package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tethys-harvester/internal/model"
	"tethys-harvester/internal/tethys"
	"tethys-harvester/pkg/logging"
)

func jobFor(dir string, suppress bool) model.HarvestJobSpec {
	return model.HarvestJobSpec{FolderPath: dir, SuppressDownload: suppress}
}

func TestEnsureLocalCopySuppressedEmptyFolderFails(t *testing.T) {
	src := &tethys.StubSource{}
	_, err := EnsureLocalCopy(context.Background(), src, jobFor(t.TempDir(), true), logging.NewNop())

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMissingData)

	list, fetch := src.Calls()
	assert.Zero(t, list)
	assert.Zero(t, fetch)
}

func TestEnsureLocalCopySuppressedMissingFolderFails(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	_, err := EnsureLocalCopy(context.Background(), &tethys.StubSource{}, jobFor(missing, true), logging.NewNop())

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMissingData)
}

func TestEnsureLocalCopySuppressedScansFolder(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeDataFile(t, dir, "stressor-noise", paperTSV(paperRow("B", "2018", "fish")), now)
	writeDataFile(t, dir, "receptor-fish", paperTSV(paperRow("A", "2018", "fish")), now)
	// The consolidated output must never be re-read as input.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tethys-merged.tsv"), []byte("x"), 0644))

	src := &tethys.StubSource{}
	res, err := EnsureLocalCopy(context.Background(), src, jobFor(dir, true), logging.NewNop())
	require.NoError(t, err)

	require.Len(t, res.Files, 2)
	assert.Equal(t, "receptor-fish", res.Files[0].SourceID, "files sorted by source identifier")
	assert.Equal(t, "stressor-noise", res.Files[1].SourceID)
	assert.Zero(t, res.NewFetches)

	list, fetch := src.Calls()
	assert.Zero(t, list, "suppressed run must not contact the source")
	assert.Zero(t, fetch)
}

func TestEnsureLocalCopyDownloadsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	src := &tethys.StubSource{Files: map[string]string{
		"receptor-fish":  paperTSV(paperRow("A", "2018", "fish")),
		"stressor-noise": paperTSV(paperRow("B", "2018", "fish")),
	}}

	res, err := EnsureLocalCopy(context.Background(), src, jobFor(dir, false), logging.NewNop())
	require.NoError(t, err)

	require.Len(t, res.Files, 2)
	assert.Equal(t, 2, res.NewFetches)
	assert.Empty(t, res.Errors)

	content, err := os.ReadFile(filepath.Join(dir, "receptor-fish.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "A\t")
}

func TestEnsureLocalCopyIdempotentRerun(t *testing.T) {
	dir := t.TempDir()
	src := &tethys.StubSource{Files: map[string]string{
		"receptor-fish": paperTSV(paperRow("A", "2018", "fish")),
	}}

	first, err := EnsureLocalCopy(context.Background(), src, jobFor(dir, false), logging.NewNop())
	require.NoError(t, err)
	require.Equal(t, 1, first.NewFetches)
	_, fetchesAfterFirst := src.Calls()

	second, err := EnsureLocalCopy(context.Background(), src, jobFor(dir, false), logging.NewNop())
	require.NoError(t, err)
	assert.Zero(t, second.NewFetches, "existing files must never be re-downloaded")
	assert.Len(t, second.Files, 1)

	_, fetchesAfterSecond := src.Calls()
	assert.Equal(t, fetchesAfterFirst, fetchesAfterSecond)
}

func TestEnsureLocalCopyPartialFailureTolerated(t *testing.T) {
	dir := t.TempDir()
	src := &tethys.StubSource{
		Files: map[string]string{
			"receptor-fish":  paperTSV(paperRow("A", "2018", "fish")),
			"stressor-noise": paperTSV(paperRow("B", "2018", "fish")),
		},
		FailIDs: map[string]bool{"receptor-bats": true},
	}

	res, err := EnsureLocalCopy(context.Background(), src, jobFor(dir, false), logging.NewNop())
	require.NoError(t, err, "one file's failure must not fail the fetch")

	assert.Len(t, res.Files, 2)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "receptor-bats", res.Errors[0].SourceID)
	assert.Equal(t, "fetch", res.Errors[0].Stage)
}

func TestEnsureLocalCopyAllFetchesFailFatal(t *testing.T) {
	dir := t.TempDir()
	src := &tethys.StubSource{FailIDs: map[string]bool{"receptor-fish": true}}

	_, err := EnsureLocalCopy(context.Background(), src, jobFor(dir, false), logging.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMissingData)
}

func TestEnsureLocalCopyFailedDownloadLeavesNoPartialFile(t *testing.T) {
	dir := t.TempDir()
	src := &tethys.StubSource{FailIDs: map[string]bool{"receptor-fish": true}}

	_, err := EnsureLocalCopy(context.Background(), src, jobFor(dir, false), logging.NewNop())
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".part"), "partial download left behind: %s", entry.Name())
		assert.False(t, strings.HasSuffix(entry.Name(), ".csv"), "failed download must not produce a data file")
	}
}

func TestEnsureLocalCopyListingFailureFatal(t *testing.T) {
	src := &tethys.StubSource{ListErr: model.ErrNetwork}

	_, err := EnsureLocalCopy(context.Background(), src, jobFor(t.TempDir(), false), logging.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNetwork)
}
