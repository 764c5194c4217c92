package enhance

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Filter names a colour filter applied after rotation.
type Filter string

const (
	FilterNone       Filter = "none"
	FilterGrayscale  Filter = "grayscale"
	FilterBlackWhite Filter = "bw"
	FilterSepia      Filter = "sepia"
	// FilterAuto stretches the brightness range to the full 0..255 scale.
	FilterAuto Filter = "auto"
)

// ErrUnknownFilter is returned by ParseFilter for unrecognised names.
var ErrUnknownFilter = errors.New("unknown filter")

// ErrUnknownPreset is returned by Preset for unrecognised names.
var ErrUnknownPreset = errors.New("unknown preset")

// ParseFilter parses a filter name. Empty selects FilterNone.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FilterNone, nil
	case "grayscale", "greyscale", "gray":
		return FilterGrayscale, nil
	case "bw", "black-and-white", "blackwhite":
		return FilterBlackWhite, nil
	case "sepia":
		return FilterSepia, nil
	case "auto", "auto-enhance":
		return FilterAuto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
	}
}

// Options controls post-processing of a rectified page. Brightness is an
// additive offset in [-255,255], Contrast lies in [-1,1], Saturation in
// [0,2] with 1 keeping colours, Rotation is in degrees clockwise and
// Sharpen in [0,1]. AutoEnhance only applies with FilterNone.
type Options struct {
	Filter      Filter  `mapstructure:"filter"       yaml:"filter"       json:"filter"`
	Brightness  float64 `mapstructure:"brightness"   yaml:"brightness"   json:"brightness"`
	Contrast    float64 `mapstructure:"contrast"     yaml:"contrast"     json:"contrast"`
	Saturation  float64 `mapstructure:"saturation"   yaml:"saturation"   json:"saturation"`
	Rotation    float64 `mapstructure:"rotation"     yaml:"rotation"     json:"rotation"`
	Sharpen     float64 `mapstructure:"sharpen"      yaml:"sharpen"      json:"sharpen"`
	AutoEnhance bool    `mapstructure:"auto_enhance" yaml:"auto_enhance" json:"auto_enhance"`
	FlipH       bool    `mapstructure:"flip_h"       yaml:"flip_h"       json:"flip_h"`
	FlipV       bool    `mapstructure:"flip_v"       yaml:"flip_v"       json:"flip_v"`
}

// DefaultOptions returns options that leave an image unchanged.
func DefaultOptions() Options {
	return Options{Filter: FilterNone, Saturation: 1}
}

// IsIdentity reports whether Apply would return an unchanged copy.
func (o Options) IsIdentity() bool {
	return (o.Filter == FilterNone || o.Filter == "") && o.Brightness == 0 && o.Contrast == 0 &&
		o.Saturation == 1 && o.Rotation == 0 && o.Sharpen == 0 && !o.AutoEnhance && !o.FlipH && !o.FlipV
}

// Validate checks value ranges.
func (o Options) Validate() error {
	if o.Filter != "" {
		if _, err := ParseFilter(string(o.Filter)); err != nil {
			return err
		}
	}
	if o.Brightness < -255 || o.Brightness > 255 {
		return fmt.Errorf("brightness must be within [-255,255], got %g", o.Brightness)
	}
	if o.Contrast < -1 || o.Contrast > 1 {
		return fmt.Errorf("contrast must be within [-1,1], got %g", o.Contrast)
	}
	if o.Saturation < 0 || o.Saturation > 2 {
		return fmt.Errorf("saturation must be within [0,2], got %g", o.Saturation)
	}
	if o.Sharpen < 0 || o.Sharpen > 1 {
		return fmt.Errorf("sharpen must be within [0,1], got %g", o.Sharpen)
	}
	return nil
}

var presets = map[string]Options{
	"document":       {Filter: FilterAuto, Saturation: 1, Sharpen: 0.3},
	"bw-document":    {Filter: FilterBlackWhite, Saturation: 1, Contrast: 0.2},
	"color-document": {Filter: FilterNone, Brightness: 10, Contrast: 0.1, Saturation: 1.1},
	"photo":          {Filter: FilterNone, Saturation: 1, AutoEnhance: true},
	"vintage":        {Filter: FilterSepia, Saturation: 1, Brightness: -20},
}

// Preset returns the named options preset.
func Preset(name string) (Options, error) {
	o, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Options{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownPreset, name, strings.Join(PresetNames(), ", "))
	}
	return o, nil
}

// PresetNames lists the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
