// Package soffice converts Word files with a headless LibreOffice.
package soffice

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/sanggar/core"
	"github.com/trezcool/sanggar/core/document"
	"github.com/trezcool/sanggar/storage/uploads"
)

const defaultTimeout = 90 * time.Second

var (
	knownLocations = []string{
		"/usr/bin/soffice",
		"/usr/bin/libreoffice",
		"/usr/local/bin/soffice",
		"/opt/homebrew/bin/soffice",
		"/Applications/LibreOffice.app/Contents/MacOS/soffice",
	}

	execCommandContext = exec.CommandContext // mockable
)

type Backend struct {
	bin     string
	timeout time.Duration
	logger  core.Logger
}

var _ document.Backend = (*Backend)(nil)

func NewBackend(conf core.ConverterConfig, logger core.Logger) *Backend {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Backend{
		bin:     findBinary(conf.SofficeBin),
		timeout: timeout,
		logger:  logger,
	}
}

// findBinary prefers the configured binary, then the usual install locations, then PATH.
func findBinary(configured string) string {
	if configured != "" {
		return configured
	}
	for _, p := range knownLocations {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return "soffice"
}

func (b *Backend) Name() string { return "soffice" }

// Convert runs the office suite into a scratch dir next to the target, then renames the
// produced file onto the target. A timeout is handled as any other process failure.
func (b *Backend) Convert(ctx context.Context, job document.Job) document.Outcome {
	scratch, err := uploads.TempDir(job.OutDir)
	if err != nil {
		return document.Failed(document.ReasonPrimaryTool, err)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	out, err := b.run(ctx, job.Source, scratch)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = errors.Wrapf(ctx.Err(), "soffice gave up after %s", b.timeout)
		}
		b.logger.Debug("soffice: output", map[string]interface{}{"output": out, "source": job.Source})
		return document.Failed(document.ReasonPrimaryTool, err)
	}

	// the only trusted success signal is the expected file
	produced := filepath.Join(scratch, strings.TrimSuffix(filepath.Base(job.Source), filepath.Ext(job.Source))+".pdf")
	if fi, err := os.Stat(produced); err != nil || fi.Size() == 0 {
		return document.Failed(document.ReasonPrimaryTool, errors.Errorf("soffice produced no pdf (output: %s)", out))
	}
	if err = uploads.Publish(produced, job.Target); err != nil {
		return document.Failed(document.ReasonPrimaryTool, err)
	}
	return document.Succeeded(job.Target)
}

func (b *Backend) run(ctx context.Context, source, outDir string) (string, error) {
	profile := filepath.Join(outDir, "profile")
	args := []string{
		// private profile: concurrent instances must not share the user installation lock
		"-env:UserInstallation=file://" + filepath.ToSlash(profile),
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outDir,
		source,
	}

	cmd := execCommandContext(ctx, b.bin, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	b.logger.Debug(fmt.Sprintf("soffice: executing %s %v", b.bin, args))

	if err := cmd.Run(); err != nil {
		return buf.String(), errors.Wrap(err, "running soffice")
	}
	return buf.String(), nil
}
