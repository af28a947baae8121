package exports

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Format is an output document format.
type Format string

const (
	PDF  Format = "pdf"
	DOCX Format = "docx"
	HTML Format = "html"
)

var contentType = map[Format]string{
	PDF:  "application/pdf",
	DOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	HTML: "text/html; charset=utf-8",
}

// Formats returns every supported format.
func Formats() []Format {
	return []Format{PDF, DOCX, HTML}
}

// ContentType is the media type served for downloads of f.
func (f Format) ContentType() string {
	return contentType[f]
}

func contentTypes() []string {
	out := make([]string, 0, len(contentType))
	for _, f := range Formats() {
		out = append(out, f.ContentType())
	}
	return out
}

// ParseFormat validates s as a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Formats(), f) {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

// UnmarshalText validates that the decoded value is a known format.
func (f *Format) UnmarshalText(text []byte) error {
	v, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Pipeline names the rendering path a format is produced by.
type Pipeline string

const (
	// Standard renders PDF natively.
	Standard Pipeline = "standard"
	// Conversion produces Word documents.
	Conversion Pipeline = "conversion"
	// Legacy renders the HTML report kept for older consumers.
	Legacy Pipeline = "legacy"
)

// Renderer produces one document format from a plan report.
type Renderer interface {
	Render(ctx context.Context, rep *Report) ([]byte, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, rep *Report) ([]byte, error)

// Render calls f(ctx, rep).
func (f RendererFunc) Render(ctx context.Context, rep *Report) ([]byte, error) {
	return f(ctx, rep)
}

// Job is a format resolved to the pipeline that will render it.
type Job struct {
	Format      Format
	Pipeline    Pipeline
	ContentType string
	Extension   string
	Renderer    Renderer
}

// Resolve maps each requested format to a rendering job under the current
// switches. Duplicate formats collapse to one job. Fails on the first format
// the configuration does not allow.
func (c Config) Resolve(formats []Format) ([]Job, error) {
	if len(formats) == 0 {
		return nil, ErrNoFormats
	}

	jobs := make([]Job, 0, len(formats))
	seen := make(map[Format]bool, len(formats))

	for _, f := range formats {
		if seen[f] {
			continue
		}
		seen[f] = true

		job, err := c.resolve(f)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

func (c Config) resolve(f Format) (Job, error) {
	switch f {
	case PDF:
		return Job{
			Format:      PDF,
			Pipeline:    Standard,
			ContentType: PDF.ContentType(),
			Extension:   "pdf",
			Renderer:    RendererFunc(renderPDF),
		}, nil
	case DOCX:
		if !c.DocxConversion {
			return Job{}, fmt.Errorf("%w: docx conversion is disabled", ErrFormatUnavailable)
		}
		return Job{
			Format:      DOCX,
			Pipeline:    Conversion,
			ContentType: DOCX.ContentType(),
			Extension:   "docx",
			Renderer:    RendererFunc(renderDOCX),
		}, nil
	case HTML:
		if c.Production && !c.AllowLegacyPipeline {
			return Job{}, fmt.Errorf("%w: legacy pipeline is disabled in production", ErrFormatUnavailable)
		}
		return Job{
			Format:      HTML,
			Pipeline:    Legacy,
			ContentType: HTML.ContentType(),
			Extension:   "html",
			Renderer:    RendererFunc(renderHTML),
		}, nil
	}
	return Job{}, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}
