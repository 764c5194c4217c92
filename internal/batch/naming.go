package batch

import (
	"path/filepath"
	"strings"
)

// OutputPath derives the path of the rectified page for input in. The
// file lands in outDir (or next to the input when empty), carries suffix
// before the extension, and uses ext (or the input's extension when
// empty). The result never names the input file, even on case-insensitive
// file systems.
func OutputPath(in, outDir, suffix, ext string) string {
	base := filepath.Base(in)
	inExt := filepath.Ext(base)
	stem := strings.TrimSuffix(base, inExt)

	ext = normalizeExt(ext)
	if ext == "" {
		ext = normalizeExt(inExt)
	}
	if outDir == "" {
		outDir = filepath.Dir(in)
	}

	out := filepath.Join(outDir, stem+suffix+"."+ext)
	if strings.EqualFold(filepath.Clean(out), filepath.Clean(in)) {
		out = filepath.Join(outDir, stem+"_scan."+ext)
	}
	return out
}

// OverlayPath names the detection overlay written for input in.
func OverlayPath(in, overlayDir string) string {
	base := filepath.Base(in)
	return filepath.Join(overlayDir, strings.TrimSuffix(base, filepath.Ext(base))+"_overlay.png")
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
