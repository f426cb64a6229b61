// Package textpdf is the in-process fallback converter: it pulls the raw text out
// of a Word file and lays it out on plain pages. Images, tables and styling are
// dropped; the result is only meant to keep a document readable when the office
// suite is unavailable.
package textpdf

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/sanggar/core"
	"github.com/trezcool/sanggar/core/document"
	"github.com/trezcool/sanggar/storage/uploads"
)

var ErrNoText = errors.New("no text to render")

type Backend struct {
	layout Layout
	logger core.Logger
}

var _ document.Backend = (*Backend)(nil)

func NewBackend(layout Layout, logger core.Logger) *Backend {
	return &Backend{layout: layout, logger: logger}
}

func (b *Backend) Name() string { return "textpdf" }

func (b *Backend) Convert(ctx context.Context, job document.Job) document.Outcome {
	text, err := ExtractText(job.Source)
	if err != nil {
		if errors.Cause(err) == ErrUnsupportedFormat {
			return document.Failed(document.ReasonUnsupportedFormat, err)
		}
		return document.Failed(document.ReasonUnexpected, errors.Wrap(err, "extracting text"))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return document.Failed(document.ReasonExtractionEmpty, ErrNoText)
	}
	if err = ctx.Err(); err != nil {
		return document.Failed(document.ReasonUnexpected, err)
	}

	pages := b.layout.Paginate(b.layout.Wrap(text))
	err = uploads.WriteAtomic(job.Target, func(w io.Writer) error {
		return b.layout.Render(w, pages)
	})
	if err != nil {
		return document.Failed(document.ReasonRenderFailure, err)
	}

	if n, err := PageCount(job.Target); err != nil {
		b.logger.Warn("textpdf: rendered pdf could not be read back", err, map[string]interface{}{"pdf": job.Target})
	} else {
		b.logger.Debug(fmt.Sprintf("textpdf: rendered %d page(s)", n), map[string]interface{}{"pdf": job.Target})
	}
	return document.Succeeded(job.Target)
}
