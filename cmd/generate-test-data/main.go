package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/docscan/internal/testutil"
	"github.com/MeKo-Tech/docscan/internal/utils"
)

// Fixture records what the detector is expected to find in a generated
// photo.
type Fixture struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	InputFile   string        `json:"input_file"`
	Detected    bool          `json:"detected"`
	Corners     [4][2]float64 `json:"corners,omitempty"`
}

type photo struct {
	name        string
	description string
	cfg         testutil.DocumentConfig
	detected    bool
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var (
		outDir           = flag.String("out", "testdata", "Output directory, relative to the project root")
		generateFixtures = flag.Bool("fixtures", true, "Write expected-corner fixtures next to the images")
		verbose          = flag.Bool("v", false, "Verbose output")
		help             = flag.Bool("h", false, "Show help")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generate synthetic document photos for docscan testing.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	root, err := testutil.GetProjectRoot()
	if err != nil {
		slog.Error("Failed to find project root", "error", err)
		os.Exit(1)
	}
	if err := os.Chdir(root); err != nil {
		slog.Error("Failed to change to project root", "error", err)
		os.Exit(1)
	}

	photos := buildPhotos()
	for _, p := range photos {
		if err := writePhoto(*outDir, p, *generateFixtures); err != nil {
			slog.Error("Failed to generate test data", "name", p.name, "error", err)
			os.Exit(1)
		}
		if *verbose {
			slog.Info("Generated", "name", p.name)
		}
	}

	slog.Info("Test data generation completed", "images", len(photos), "dir", *outDir)
}

func buildPhotos() []photo {
	straight := testutil.DefaultDocumentConfig()
	straight.TextLines = 12

	small := testutil.DefaultDocumentConfig()
	small.Size = testutil.MediumSize
	small.Corners = testutil.CenteredSquare(640, 480, 360)
	small.TextLines = 6

	tilted := testutil.DefaultDocumentConfig()
	tilted.Corners = utils.Quad{{X: 220, Y: 160}, {X: 790, Y: 230}, {X: 740, Y: 860}, {X: 170, Y: 780}}
	tilted.TextLines = 12

	perspective := testutil.DefaultDocumentConfig()
	perspective.Background = color.NRGBA{R: 60, G: 45, B: 35, A: 255}
	perspective.Page = color.NRGBA{R: 240, G: 236, B: 225, A: 255}
	perspective.Corners = utils.Quad{{X: 300, Y: 180}, {X: 700, Y: 180}, {X: 880, Y: 840}, {X: 120, Y: 840}}
	perspective.TextLines = 10

	blank := testutil.DefaultDocumentConfig()
	blank.Size = testutil.SmallSize
	blank.Background = color.Gray{Y: 128}
	blank.Page = color.Gray{Y: 128}

	return []photo{
		{"straight", "Page squarely in frame on a dark table", straight, true},
		{"small_page", "Smaller page in a 640x480 frame", small, true},
		{"tilted", "Page rotated a few degrees", tilted, true},
		{"perspective", "Page photographed at an angle on wood", perspective, true},
		{"blank", "Uniform frame without a page", blank, false},
	}
}

func writePhoto(outDir string, p photo, fixtures bool) error {
	imagesDir := filepath.Join(outDir, "images")
	if err := testutil.EnsureDir(imagesDir); err != nil {
		return fmt.Errorf("failed to create images directory: %w", err)
	}
	imagePath := filepath.Join(imagesDir, p.name+".png")
	if err := utils.SaveImage(imagePath, testutil.GenerateDocumentImage(p.cfg), 95); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	if !fixtures {
		return nil
	}

	fixture := Fixture{
		Name:        p.name,
		Description: p.description,
		InputFile:   filepath.ToSlash(filepath.Join("images", p.name+".png")),
		Detected:    p.detected,
	}
	if p.detected {
		for i, c := range p.cfg.Corners {
			fixture.Corners[i] = [2]float64{c.X, c.Y}
		}
	}

	fixturesDir := filepath.Join(outDir, "fixtures")
	if err := testutil.EnsureDir(fixturesDir); err != nil {
		return fmt.Errorf("failed to create fixtures directory: %w", err)
	}
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(fixturesDir, p.name+".json"), data, 0o600)
}
