package document

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/trezcool/sanggar/core"
)

type (
	// FS is the part of the upload store the converter touches.
	FS interface {
		Root() string
		Resolve(rel string) (string, error)
		ClientPath(abs string) (string, error)
		Stat(name string) (os.FileInfo, error)
		MkdirAll(dir string) error
	}

	Options struct {
		// InvalidateStale reconverts when the source was modified after its cached PDF.
		// Off by default: uploads are treated as immutable.
		InvalidateStale bool
	}

	// ServiceInterface is what the API and the admin CLI depend on.
	ServiceInterface interface {
		ResolvePreviewPaths(ctx context.Context, relPath, contentType string) PreviewPaths
		Convert(ctx context.Context, relPath string) (string, error)
	}

	Service struct {
		fs     FS
		chain  Chain
		logger core.Logger
		opts   Options

		inflight singleflight.Group // keyed by artifact path
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(fs FS, chain Chain, logger core.Logger, opts Options) *Service {
	return &Service{
		fs:     fs,
		chain:  chain,
		logger: logger,
		opts:   opts,
	}
}

// ResolvePreviewPaths maps an upload to what the client should display and download.
// Word documents are converted to PDF on demand; anything else, and any conversion
// failure, yields the original path for both. It never fails.
func (svc *Service) ResolvePreviewPaths(ctx context.Context, relPath, contentType string) (paths PreviewPaths) {
	paths = unconverted(relPath)
	if !LooksLikeWord(contentType) {
		return paths
	}

	defer func() {
		if r := recover(); r != nil {
			svc.logger.Error(
				"document: unexpected failure resolving preview",
				errors.Errorf("%v", r),
				map[string]interface{}{"path": relPath, "reason": ReasonUnexpected},
			)
			paths = unconverted(relPath)
		}
	}()

	pdf, err := svc.Convert(ctx, relPath)
	if err != nil {
		return paths
	}
	display, err := svc.fs.ClientPath(pdf)
	if err != nil {
		svc.logger.Error("document: converted file outside upload root", err, map[string]interface{}{"path": pdf})
		return paths
	}
	return PreviewPaths{
		DisplayPath:    display,
		DownloadPath:   relPath,
		IsPDFConverted: true,
	}
}

// Convert returns the absolute path of the PDF for the Word upload at `relPath`,
// producing it first unless already cached. Errors are logged before being returned.
func (svc *Service) Convert(ctx context.Context, relPath string) (string, error) {
	src, err := svc.fs.Resolve(relPath)
	if err != nil {
		f := Failure{Reason: ReasonSourceMissing, Err: err}
		svc.logger.Warn("document: cannot resolve source", f, map[string]interface{}{"path": relPath})
		return "", f
	}
	art := artifactFor(svc.fs.Root(), src)

	srcInfo, err := svc.fs.Stat(src)
	if err != nil {
		f := Failure{Reason: ReasonSourceMissing, Err: err}
		if !os.IsNotExist(err) {
			f.Reason = ReasonUnexpected
		}
		svc.logFailure(f, src)
		return "", f
	}

	if err = svc.fs.MkdirAll(art.Dir); err != nil {
		f := Failure{Reason: ReasonUnexpected, Err: errors.Wrap(err, "creating pdf dir")}
		svc.logFailure(f, src)
		return "", f
	}

	// concurrent requests for one artifact share a single conversion, which
	// outlives any one of them: a caller giving up must not fail the others
	shared := context.WithoutCancel(ctx)
	ch := svc.inflight.DoChan(art.Path, func() (v interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				f := Failure{Reason: ReasonUnexpected, Err: errors.Errorf("panic: %v", r)}
				svc.logFailure(f, src)
				v, err = "", f
			}
		}()
		return svc.produce(shared, art, srcInfo)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		svc.logger.Info("document: caller stopped waiting for conversion", map[string]interface{}{"source": src})
		return "", errors.Wrap(ctx.Err(), "waiting for conversion")
	}
}

func (svc *Service) produce(ctx context.Context, art Artifact, srcInfo os.FileInfo) (string, error) {
	if pdfInfo, err := svc.fs.Stat(art.Path); err == nil {
		if !svc.opts.InvalidateStale || !srcInfo.ModTime().After(pdfInfo.ModTime()) {
			svc.logger.Debug("document: cache hit", map[string]interface{}{"pdf": art.Path})
			return art.Path, nil
		}
		svc.logger.Info("document: cached pdf is stale, reconverting", map[string]interface{}{"pdf": art.Path})
	}

	path, failures := svc.chain.Convert(ctx, Job{Source: art.Source, OutDir: art.Dir, Target: art.Path})
	for _, f := range failures {
		svc.logFailure(f, art.Source)
	}
	if path == "" {
		err := &ChainError{Failures: failures}
		svc.logger.Error("document: no pdf could be produced", err, map[string]interface{}{"source": art.Source})
		return "", err
	}
	svc.logger.Info(fmt.Sprintf("document: converted %s", art.Source), map[string]interface{}{"pdf": path})
	return path, nil
}

func (svc *Service) logFailure(f Failure, src string) {
	extra := map[string]interface{}{"source": src, "reason": f.Reason}
	switch f.Reason {
	case ReasonRenderFailure, ReasonUnexpected:
		svc.logger.Error("document: conversion failed", f, extra)
	default:
		svc.logger.Warn("document: conversion failed", f, extra)
	}
}
