package main

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/trezcool/sanggar/core/document"
)

// warm converts every Word document below `dir` (the whole upload root if empty).
// Per document failures are reported in the summary, not returned.
func (cli *commandLine) warm(ctx context.Context, dir string, workers int) error {
	start := cli.store.Root()
	if strings.TrimSpace(dir) != "" {
		var err error
		if start, err = cli.store.Resolve(dir); err != nil {
			return fmt.Errorf("warm: %q: %w", dir, err)
		}
	}

	docs, err := cli.wordDocuments(start)
	if err != nil {
		return err
	}
	cli.logger.Info(fmt.Sprintf("warm: %d Word document(s) under %s", len(docs), start))

	var (
		mu      sync.Mutex
		summary = warmSummary{Total: len(docs), Failed: []string{}}
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, src := range docs {
		src := src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			paths := cli.svc.ResolvePreviewPaths(ctx, src.RelPath, src.ContentType)

			mu.Lock()
			defer mu.Unlock()
			if paths.IsPDFConverted {
				summary.Converted++
			} else {
				summary.Failed = append(summary.Failed, src.RelPath)
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return err
	}
	return cli.printSummary(summary)
}

// wordDocuments lists the Word files below `start`.
// Hidden entries (scratch dirs, temp files) are skipped.
func (cli *commandLine) wordDocuments(start string) ([]document.SourceFile, error) {
	var docs []document.SourceFile
	err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != start && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !document.IsWordDocument(path) {
			return nil
		}
		rel, err := cli.store.ClientPath(path)
		if err != nil {
			return err
		}
		docs = append(docs, document.SourceFile{RelPath: rel, ContentType: "application/msword"})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("warm: walking %s: %w", start, err)
	}
	return docs, nil
}
