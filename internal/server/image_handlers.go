package server

import (
	"errors"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/enhance"
	"github.com/MeKo-Tech/docscan/internal/pipeline"
	"github.com/MeKo-Tech/docscan/internal/rectify"
	"github.com/MeKo-Tech/docscan/internal/utils"
)

// parseImageRequest reads and decodes the multipart "image" field.
func (s *Server) parseImageRequest(w http.ResponseWriter, r *http.Request) (image.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())
	if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, err
		}
		return nil, badRequest("failed to parse multipart form: " + err.Error())
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, badRequest("missing image file")
	}
	defer func() { _ = file.Close() }()

	if header.Size > s.maxUploadBytes() {
		return nil, &requestError{
			status: http.StatusRequestEntityTooLarge,
			msg:    fmt.Sprintf("image too large: %d bytes (max %d MB)", header.Size, s.maxUploadMB),
		}
	}
	uploadSizeBytes.Observe(float64(header.Size))

	decoded, _, err := utils.DecodeImage(file)
	if err != nil {
		return nil, badRequest("invalid image: " + err.Error())
	}
	return decoded, nil
}

// rectifyOptions are the per-request overrides accepted by /rectify.
type rectifyOptions struct {
	corners    *utils.Quad
	normalized bool
	mode       string
	filter     string
	preset     string
	format     string
}

func (o rectifyOptions) overridesPipeline() bool {
	return o.mode != "" || o.filter != "" || o.preset != ""
}

func parseRectifyOptions(r *http.Request) (rectifyOptions, error) {
	opts := rectifyOptions{
		mode:   strings.TrimSpace(r.FormValue("mode")),
		filter: strings.TrimSpace(r.FormValue("filter")),
		preset: strings.TrimSpace(r.FormValue("preset")),
		format: strings.ToLower(strings.TrimSpace(r.FormValue("format"))),
	}
	switch opts.format {
	case "":
		opts.format = "png"
	case "png", "jpeg":
	case "jpg":
		opts.format = "jpeg"
	default:
		return opts, badRequest("format must be png or jpeg")
	}

	if v := r.FormValue("normalized"); v != "" {
		n, err := strconv.ParseBool(v)
		if err != nil {
			return opts, badRequest("normalized must be a boolean")
		}
		opts.normalized = n
	}

	if raw := strings.TrimSpace(r.FormValue("corners")); raw != "" {
		q, err := utils.ParseCorners(raw)
		if err != nil {
			return opts, badRequest(err.Error())
		}
		if opts.normalized {
			for _, p := range q {
				if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
					return opts, badRequest("normalized corners must lie in [0,1]")
				}
			}
		}
		opts.corners = &q
	}
	return opts, nil
}

// pipelineFor returns the shared scan pipeline, or a request specific one
// when the request overrides mode, filter or preset.
func (s *Server) pipelineFor(opts rectifyOptions) (scanner, error) {
	if !opts.overridesPipeline() {
		return s.scanner, nil
	}
	cfg := s.pipelineConfig
	if opts.mode != "" {
		mode, err := rectify.ParseDimensionMode(opts.mode)
		if err != nil {
			return nil, badRequest(err.Error())
		}
		cfg.Rectification.Mode = mode
	}
	if opts.preset != "" {
		preset, err := enhance.Preset(opts.preset)
		if err != nil {
			return nil, badRequest(err.Error())
		}
		cfg.Enhance = preset
	}
	if opts.filter != "" {
		filter, err := enhance.ParseFilter(opts.filter)
		if err != nil {
			return nil, badRequest(err.Error())
		}
		cfg.Enhance.Filter = filter
	}
	p, err := pipeline.New(cfg)
	if err != nil {
		return nil, badRequest(err.Error())
	}
	return p, nil
}
