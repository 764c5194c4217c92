// Package pdf assembles rectified pages into PDF documents.
package pdf

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// DefaultJPEGQuality is used for pages encoded by WritePages.
const DefaultJPEGQuality = 90

// ErrNoPages is returned when there is nothing to export.
var ErrNoPages = errors.New("no pages to export")

// ImportFiles creates outFile with one page per image file, in order.
// An existing outFile is replaced.
func ImportFiles(files []string, outFile string) error {
	if len(files) == 0 {
		return ErrNoPages
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("page image %s: %w", f, err)
		}
	}
	if dir := filepath.Dir(outFile); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	// pdfcpu appends to an existing file
	if err := os.Remove(outFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to replace %s: %w", outFile, err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ImportImagesFile(files, outFile, pdfcpu.DefaultImportConfig(), conf); err != nil {
		return fmt.Errorf("failed to build PDF: %w", err)
	}
	slog.Debug("PDF written", "file", outFile, "pages", len(files))
	return nil
}

// WritePages encodes pages as JPEG into a temporary directory and imports
// them into outFile.
func WritePages(pages []image.Image, outFile string, jpegQuality int) error {
	if len(pages) == 0 {
		return ErrNoPages
	}
	if jpegQuality <= 0 {
		jpegQuality = DefaultJPEGQuality
	}
	tmp, err := os.MkdirTemp("", "docscan-pdf-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	files := make([]string, len(pages))
	for i, p := range pages {
		files[i] = filepath.Join(tmp, fmt.Sprintf("page_%04d.jpg", i+1))
		if err := utils.SaveImage(files[i], p, jpegQuality); err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
	}
	return ImportFiles(files, outFile)
}

// PageCount returns the number of pages in a PDF file.
func PageCount(file string) (int, error) {
	n, err := api.PageCountFile(file)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return n, nil
}
