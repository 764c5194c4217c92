package batch

import (
	"github.com/MeKo-Tech/docscan/internal/pdf"
)

// ExportPDF assembles the rectified page images into a single PDF, one page
// per file in the given order.
func ExportPDF(imageFiles []string, outFile string) error {
	return pdf.ImportFiles(imageFiles, outFile)
}
