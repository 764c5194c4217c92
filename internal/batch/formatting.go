package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// Result formats understood by FormatResults.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// IsValidFormat reports whether format is a known result format. The empty
// string selects text.
func IsValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case "", FormatText, FormatJSON, FormatYAML, "yml", FormatCSV:
		return true
	}
	return false
}

type resultDocument struct {
	Count  int                    `json:"count"  yaml:"count"`
	Images []*pipeline.ScanResult `json:"images" yaml:"images"`
}

// FormatResults renders scan results as text, json, yaml or csv. Nil
// entries (failed images) are skipped.
func FormatResults(results []*pipeline.ScanResult, format string) (string, error) {
	kept := make([]*pipeline.ScanResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			kept = append(kept, r)
		}
	}

	switch strings.ToLower(format) {
	case FormatJSON:
		bts, err := json.MarshalIndent(resultDocument{Count: len(kept), Images: kept}, "", "  ")
		return string(bts), err
	case FormatYAML, "yml":
		bts, err := yaml.Marshal(resultDocument{Count: len(kept), Images: kept})
		return string(bts), err
	case FormatCSV:
		return formatCSV(kept)
	case FormatText, "":
		return formatText(kept), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

var csvHeader = []string{
	"file", "detected", "confidence", "needs_review",
	"x1", "y1", "x2", "y2", "x3", "y3", "x4", "y4",
	"output_width", "output_height", "output_path",
}

func formatCSV(results []*pipeline.ScanResult) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	if err := writer.Write(csvHeader); err != nil {
		return "", err
	}
	for _, res := range results {
		row := []string{
			res.Source,
			strconv.FormatBool(res.Detected),
			fmt.Sprintf("%.3f", res.Confidence),
			strconv.FormatBool(res.NeedsReview),
		}
		for _, v := range res.Corners.Flatten() {
			row = append(row, strconv.FormatFloat(v, 'f', 1, 64))
		}
		row = append(row,
			strconv.Itoa(res.OutputWidth),
			strconv.Itoa(res.OutputHeight),
			res.OutputPath,
		)
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

func formatText(results []*pipeline.ScanResult) string {
	var sb strings.Builder
	for i, res := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		name := res.Source
		if name == "" {
			name = fmt.Sprintf("image %d", i+1)
		}
		fmt.Fprintf(&sb, "%s (%dx%d)\n", name, res.Width, res.Height)

		status := "detected"
		switch {
		case res.Manual:
			status = "manual corners"
		case !res.Detected:
			status = "not detected, default crop"
		}
		fmt.Fprintf(&sb, "  Status: %s\n", status)
		review := ""
		if res.NeedsReview {
			review = " (needs review)"
		}
		fmt.Fprintf(&sb, "  Confidence: %.2f%s\n", res.Confidence, review)

		labels := [4]string{"TL", "TR", "BR", "BL"}
		parts := make([]string, 4)
		for j, p := range res.Corners {
			parts[j] = fmt.Sprintf("%s(%.1f, %.1f)", labels[j], p.X, p.Y)
		}
		fmt.Fprintf(&sb, "  Corners: %s\n", strings.Join(parts, " "))

		if res.OutputWidth > 0 {
			fmt.Fprintf(&sb, "  Page: %dx%d", res.OutputWidth, res.OutputHeight)
			if res.OutputPath != "" {
				fmt.Fprintf(&sb, " -> %s", res.OutputPath)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
