package detector

import "fmt"

// Mask is a binary edge mask.
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// NewMask allocates an empty mask.
func NewMask(w, h int) Mask {
	return Mask{Width: w, Height: h, Pix: make([]bool, w*h)}
}

// At reports whether (x, y) is set. Out of range coordinates are unset.
func (m Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Count returns the number of set pixels.
func (m Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// MorphologicalOp represents the type of morphological operation to perform.
type MorphologicalOp int

const (
	MorphNone MorphologicalOp = iota
	MorphDilate
	MorphErode
	MorphOpening // Erode then Dilate - removes small noise
	MorphClosing // Dilate then Erode - fills gaps
)

func (o MorphologicalOp) String() string {
	switch o {
	case MorphDilate:
		return "dilate"
	case MorphErode:
		return "erode"
	case MorphOpening:
		return "opening"
	case MorphClosing:
		return "closing"
	default:
		return "none"
	}
}

// MorphConfig holds configuration for morphological operations.
type MorphConfig struct {
	Operation  MorphologicalOp
	KernelSize int // odd kernel side, 5 for 5x5
	Iterations int
}

// DefaultMorphConfig returns the 5x5 single closing used on edge masks.
func DefaultMorphConfig() MorphConfig {
	return MorphConfig{
		Operation:  MorphClosing,
		KernelSize: 5,
		Iterations: 1,
	}
}

// Validate rejects even or non-positive kernels.
func (c MorphConfig) Validate() error {
	if c.Operation == MorphNone {
		return nil
	}
	if c.KernelSize < 1 || c.KernelSize%2 == 0 {
		return fmt.Errorf("morphology kernel size must be odd and positive, got %d", c.KernelSize)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("morphology iterations must be positive, got %d", c.Iterations)
	}
	return nil
}

// ParseMorphologicalOp maps a config string to an operation.
func ParseMorphologicalOp(s string) (MorphologicalOp, error) {
	switch s {
	case "", "none":
		return MorphNone, nil
	case "dilate":
		return MorphDilate, nil
	case "erode":
		return MorphErode, nil
	case "opening":
		return MorphOpening, nil
	case "closing":
		return MorphClosing, nil
	default:
		return MorphNone, fmt.Errorf("unknown morphological operation %q", s)
	}
}

// ApplyMorphologicalOperation applies the configured operation to a mask.
// The input is never modified.
func ApplyMorphologicalOperation(m Mask, config MorphConfig) Mask {
	if config.Operation == MorphNone || config.KernelSize <= 0 || config.Iterations <= 0 {
		return m
	}

	result := m
	for range config.Iterations {
		switch config.Operation {
		case MorphDilate:
			result = Dilate(result, config.KernelSize)
		case MorphErode:
			result = Erode(result, config.KernelSize)
		case MorphOpening:
			result = Dilate(Erode(result, config.KernelSize), config.KernelSize)
		case MorphClosing:
			result = Erode(Dilate(result, config.KernelSize), config.KernelSize)
		}
	}
	return result
}

// Dilate sets an interior pixel when any pixel of the k x k window is set.
// Pixels closer than k/2 to the border stay unset.
func Dilate(m Mask, k int) Mask {
	return windowFilter(m, k, false)
}

// Erode keeps an interior pixel only when every pixel of the k x k window is
// set. Pixels closer than k/2 to the border stay unset.
func Erode(m Mask, k int) Mask {
	return windowFilter(m, k, true)
}

func windowFilter(m Mask, k int, all bool) Mask {
	out := NewMask(m.Width, m.Height)
	r := k / 2
	for y := r; y < m.Height-r; y++ {
		for x := r; x < m.Width-r; x++ {
			out.Pix[y*m.Width+x] = windowHit(m, x, y, r, all)
		}
	}
	return out
}

func windowHit(m Mask, x, y, r int, all bool) bool {
	for ky := -r; ky <= r; ky++ {
		row := (y + ky) * m.Width
		for kx := -r; kx <= r; kx++ {
			set := m.Pix[row+x+kx]
			if all && !set {
				return false
			}
			if !all && set {
				return true
			}
		}
	}
	return all
}
