package utils

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrEmptyImage is returned for nil images and images without pixels.
var ErrEmptyImage = errors.New("image has zero width or height")

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// ValidateImage rejects nil and zero-sized images.
func ValidateImage(op string, img image.Image) error {
	if img == nil {
		return &ImageProcessingError{Operation: op, Err: fmt.Errorf("%w: input image is nil", ErrEmptyImage)}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return &ImageProcessingError{Operation: op, Err: fmt.Errorf("%w: %dx%d", ErrEmptyImage, b.Dx(), b.Dy())}
	}
	return nil
}

// DownscaleFactor returns the factor that caps the larger image dimension
// at maxDim. Images already within the limit get 1.0.
func DownscaleFactor(width, height, maxDim int) float64 {
	largest := max(width, height)
	if maxDim <= 0 || largest <= maxDim {
		return 1.0
	}
	return float64(maxDim) / float64(largest)
}

// Downscale shrinks img by factor using area averaging. A factor of 1 or
// more returns an NRGBA copy at the original size.
func Downscale(img image.Image, factor float64) *image.NRGBA {
	if factor >= 1.0 {
		return imaging.Clone(img)
	}
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*factor))
	h := max(1, int(float64(b.Dy())*factor))
	return imaging.Resize(img, w, h, imaging.Box)
}

// ResizeToFit scales img down so that it fits into maxW x maxH while keeping
// the aspect ratio. Smaller images are returned unchanged.
func ResizeToFit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	if (maxW <= 0 || b.Dx() <= maxW) && (maxH <= 0 || b.Dy() <= maxH) {
		return img
	}
	return imaging.Fit(img, maxW, maxH, imaging.Lanczos)
}
