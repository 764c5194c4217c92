package support

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/testutil"
	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/cucumber/godog"
)

// PageSize is the side of the synthetic photos; the page covers the
// centred PageSide x PageSide square.
const (
	PageSize = 300
	PageSide = 200
)

// pagePhoto renders a white page on black.
func pagePhoto() *image.NRGBA {
	cfg := testutil.DefaultDocumentConfig()
	cfg.Size = testutil.ImageSize{Width: PageSize, Height: PageSize}
	cfg.Corners = testutil.CenteredSquare(PageSize, PageSize, PageSide)
	return testutil.GenerateDocumentImage(cfg)
}

func (testCtx *TestContext) saveImage(name string, img image.Image) error {
	path := testCtx.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return utils.SaveImage(path, img, 95)
}

func (testCtx *TestContext) aPhotoOfADocumentPage(name string) error {
	return testCtx.saveImage(name, pagePhoto())
}

func (testCtx *TestContext) aPhotoWithoutADocument(name string) error {
	return testCtx.saveImage(name, testutil.SolidImage(PageSize, PageSize, color.Gray{Y: 128}))
}

func (testCtx *TestContext) aDirectoryWithDocumentPhotos(dir string, n int) error {
	for i := range n {
		name := filepath.Join(dir, "page_"+strconv.Itoa(i+1)+".png")
		if err := testCtx.saveImage(name, pagePhoto()); err != nil {
			return err
		}
	}
	return nil
}

// aFileContaining writes content with "\n" escapes expanded.
func (testCtx *TestContext) aFileContaining(name, content string) error {
	content = strings.ReplaceAll(content, `\n`, "\n")
	path := testCtx.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

func (testCtx *TestContext) theImageShouldBePixels(name string, w, h int) error {
	img, _, err := utils.LoadImage(testCtx.Path(name))
	if err != nil {
		return err
	}
	b := img.Bounds()
	if b.Dx() != w || b.Dy() != h {
		return fmt.Errorf("image %s is %dx%d, expected %dx%d", name, b.Dx(), b.Dy(), w, h)
	}
	return nil
}

// SizeTolerance is the slack in pixels per side allowed for images whose
// size follows from detected corners.
const SizeTolerance = 2

func (testCtx *TestContext) theImageShouldBeAboutPixels(name string, w, h int) error {
	img, _, err := utils.LoadImage(testCtx.Path(name))
	if err != nil {
		return err
	}
	b := img.Bounds()
	if abs(b.Dx()-w) > SizeTolerance || abs(b.Dy()-h) > SizeTolerance {
		return fmt.Errorf("image %s is %dx%d, expected %dx%d within %d pixels",
			name, b.Dx(), b.Dy(), w, h, SizeTolerance)
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// RegisterImageSteps registers fixture and image assertion steps.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a photo "([^"]*)" of a document page$`, testCtx.aPhotoOfADocumentPage)
	sc.Step(`^a photo "([^"]*)" without a document$`, testCtx.aPhotoWithoutADocument)
	sc.Step(`^a directory "([^"]*)" with (\d+) document photos$`, testCtx.aDirectoryWithDocumentPhotos)
	sc.Step(`^a file "([^"]*)" containing "([^"]*)"$`, testCtx.aFileContaining)
	sc.Step(`^the image "([^"]*)" should be (\d+)x(\d+) pixels$`, testCtx.theImageShouldBePixels)
	sc.Step(`^the image "([^"]*)" should be about (\d+)x(\d+) pixels$`, testCtx.theImageShouldBeAboutPixels)
}
