package echoapi

import (
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sanggar/core"
	"github.com/trezcool/sanggar/core/document"
	"github.com/trezcool/sanggar/storage/uploads"
)

type documentApi struct {
	svc      document.ServiceInterface
	store    *uploads.Store
	validate *validator.Validate
}

func registerDocumentAPI(
	g *echo.Group,
	svc document.ServiceInterface,
	store *uploads.Store,
	validate *validator.Validate,
) {
	api := documentApi{
		svc:      svc,
		store:    store,
		validate: validate,
	}

	g.GET("/documents/preview", api.preview)
	g.GET("/files/*", api.file)
}

// Handlers

func (api *documentApi) preview(ctx echo.Context) error {
	var req document.PreviewRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to PreviewRequest")
	}
	req.Clean()
	if err := req.Validate(api.validate); err != nil {
		return err
	}

	src := req.Source()
	paths := api.svc.ResolvePreviewPaths(ctx.Request().Context(), src.RelPath, src.ContentType)
	return ctx.JSON(http.StatusOK, paths)
}

// file serves an upload or a converted PDF. PDFs open inline, everything else downloads.
// Hidden entries (scratch dirs, temp files of running conversions) are never served.
func (api *documentApi) file(ctx echo.Context) error {
	rel := ctx.Param("*")
	if ctx.Request().URL.RawPath != "" {
		// the router matched on the raw path, the param is still escaped
		var err error
		if rel, err = url.PathUnescape(rel); err != nil {
			return errors.Wrap(core.ErrNotFound, err.Error())
		}
	}
	abs, err := api.store.Resolve(rel)
	if err != nil || api.store.Hidden(abs) {
		return core.ErrNotFound
	}
	fi, err := api.store.Stat(abs)
	if err != nil || fi.IsDir() {
		return core.ErrNotFound
	}

	name := filepath.Base(abs)
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		return ctx.Inline(abs, name)
	}
	return ctx.Attachment(abs, name)
}
