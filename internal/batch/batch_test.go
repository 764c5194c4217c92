package batch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/docscan/internal/pdf"
	"github.com/MeKo-Tech/docscan/internal/pipeline"
	"github.com/MeKo-Tech/docscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePages saves n synthetic page photos into dir and returns their paths.
func writePages(t *testing.T, dir string, n int) []string {
	t.Helper()
	paths := make([]string, n)
	for i := range n {
		cfg := testutil.DefaultDocumentConfig()
		cfg.Size = testutil.ImageSize{Width: 300, Height: 300}
		cfg.Corners = testutil.CenteredSquare(300, 300, 200)
		paths[i] = filepath.Join(dir, "page_"+string(rune('a'+i))+".png")
		testutil.SaveImage(t, testutil.GenerateDocumentImage(cfg), paths[i])
	}
	return paths
}

func quietConfig() *Config {
	cfg := DefaultConfig()
	cfg.Quiet = true
	cfg.Workers = 2
	return cfg
}

func TestProcessBatch_NoImageFiles(t *testing.T) {
	result, err := ProcessBatch(context.Background(), []string{t.TempDir()}, pipeline.DefaultConfig(), quietConfig())
	require.ErrorIs(t, err, ErrNoImages)
	assert.Nil(t, result)
}

func TestProcessBatch_InvalidPath(t *testing.T) {
	result, err := ProcessBatch(context.Background(), []string{"/nonexistent/file.png"}, pipeline.DefaultConfig(), quietConfig())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "cannot access")
}

func TestProcessBatch_InvalidConfig(t *testing.T) {
	cfg := quietConfig()
	cfg.Format = "xml"
	_, err := ProcessBatch(context.Background(), []string{t.TempDir()}, pipeline.DefaultConfig(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid batch config")
}

func TestProcessBatch_WritesPagesOverlaysAndPDF(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	inputs := writePages(t, in, 3)

	cfg := quietConfig()
	cfg.ChunkSize = 2
	cfg.OutputDir = filepath.Join(out, "pages")
	cfg.OverlayDir = filepath.Join(out, "overlays")
	cfg.PDFFile = filepath.Join(out, "scan.pdf")

	result, err := ProcessBatch(context.Background(), []string{in}, pipeline.DefaultConfig(), cfg)
	require.NoError(t, err)
	require.Len(t, result.Results, 3)
	assert.Equal(t, inputs, result.ImagePaths)
	assert.Empty(t, result.Failures)
	assert.Equal(t, cfg.PDFFile, result.PDFFile)

	for i, res := range result.Results {
		require.NotNil(t, res)
		assert.Equal(t, inputs[i], res.Source)
		assert.True(t, res.Detected)
		assert.Nil(t, res.Output, "page buffer is released once written")
		assert.Equal(t, OutputPath(inputs[i], cfg.OutputDir, "_scan", "jpg"), res.OutputPath)
		assert.FileExists(t, res.OutputPath)
		assert.FileExists(t, OverlayPath(inputs[i], cfg.OverlayDir))
		assert.InDelta(t, 200, res.OutputWidth, 8)
	}

	n, err := pdf.PageCount(cfg.PDFFile)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	stats := result.Stats()
	assert.Equal(t, 3, stats.TotalImages)
	assert.Equal(t, 3, stats.ProcessedImages)
	assert.Equal(t, 3, stats.DetectedPages)
	assert.Zero(t, stats.FailedImages)
}

func TestProcessBatch_ContinueOnError(t *testing.T) {
	in := t.TempDir()
	inputs := writePages(t, in, 1)
	bad := filepath.Join(in, "broken.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o600))

	cfg := quietConfig()
	cfg.OutputDir = t.TempDir()

	_, err := ProcessBatch(context.Background(), []string{in}, pipeline.DefaultConfig(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.png")

	cfg.ContinueOnError = true
	result, err := ProcessBatch(context.Background(), []string{in}, pipeline.DefaultConfig(), cfg)
	require.NoError(t, err)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, bad, result.Failures[0].File)
	// broken.png sorts before page_a.png
	assert.Nil(t, result.Results[0])
	require.NotNil(t, result.Results[1])
	assert.Equal(t, inputs[0], result.Results[1].Source)

	stats := result.Stats()
	assert.Equal(t, 2, stats.TotalImages)
	assert.Equal(t, 1, stats.ProcessedImages)
	assert.Equal(t, 1, stats.FailedImages)
}

func TestProcessBatch_SkipRectifyWritesNoPages(t *testing.T) {
	in := t.TempDir()
	writePages(t, in, 1)
	pcfg := pipeline.DefaultConfig()
	pcfg.SkipRectify = true

	cfg := quietConfig()
	cfg.OutputDir = t.TempDir()
	result, err := ProcessBatch(context.Background(), []string{in}, pcfg, cfg)
	require.NoError(t, err)
	require.NotNil(t, result.Results[0])
	assert.Empty(t, result.Results[0].OutputPath)

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	cfg.PDFFile = filepath.Join(t.TempDir(), "x.pdf")
	_, err = ProcessBatch(context.Background(), []string{in}, pcfg, cfg)
	require.Error(t, err)
}

func TestProcessBatch_Progress(t *testing.T) {
	in := t.TempDir()
	writePages(t, in, 2)

	var buf bytes.Buffer
	cfg := quietConfig()
	cfg.Quiet = false
	cfg.ChunkSize = 1
	cfg.OutputDir = t.TempDir()
	cfg.ProgressWriter = &buf

	_, err := ProcessBatch(context.Background(), []string{in}, pipeline.DefaultConfig(), cfg)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "0/2 pages")
	assert.Contains(t, buf.String(), "2/2 (100.0%)")
	assert.Contains(t, buf.String(), "Completed in")
}

func TestProcessBatch_Cancelled(t *testing.T) {
	in := t.TempDir()
	writePages(t, in, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ProcessBatch(ctx, []string{in}, pipeline.DefaultConfig(), quietConfig())
	require.ErrorIs(t, err, context.Canceled)
}
