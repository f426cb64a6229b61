package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"

	"golang.org/x/term"

	"github.com/trezcool/sanggar/core"
	"github.com/trezcool/sanggar/core/document"
	"github.com/trezcool/sanggar/storage/uploads"
)

const defaultWorkers = 2

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	svc    document.ServiceInterface
	store  *uploads.Store
	logger core.Logger
	out    io.Writer
	outFd  int
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  preview -path PATH [-type CONTENT_TYPE] - resolve the preview of an upload, converting it if needed")
	fmt.Fprintln(cli.out, "  warm [-dir DIR] [-workers N] - convert every Word document under the upload root ahead of time")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	previewCmd := flag.NewFlagSet("preview", flag.ContinueOnError)
	previewCmd.SetOutput(cli.out)
	previewPath := previewCmd.String("path", "", "The upload path, relative to the upload root.")
	previewType := previewCmd.String("type", "", "The declared content type. Guessed from the extension if empty.")

	warmCmd := flag.NewFlagSet("warm", flag.ContinueOnError)
	warmCmd.SetOutput(cli.out)
	warmDir := warmCmd.String("dir", "", "Only walk this directory, relative to the upload root.")
	warmWorkers := warmCmd.Int("workers", defaultWorkers, "How many documents are converted at once.")

	switch args[1] {
	case "preview":
		if err := previewCmd.Parse(args[2:]); err != nil {
			return flagErr(err)
		}
		if core.CleanString(*previewPath) == "" {
			previewCmd.Usage()
			return errHelp
		}
		return cli.preview(context.Background(), *previewPath, *previewType)
	case "warm":
		if err := warmCmd.Parse(args[2:]); err != nil {
			return flagErr(err)
		}
		if *warmWorkers < 1 {
			warmCmd.Usage()
			return errHelp
		}
		return cli.warm(context.Background(), *warmDir, *warmWorkers)
	default:
		cli.printUsage()
		return errHelp
	}
}

func flagErr(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return errHelp
	}
	return err
}

func (cli *commandLine) preview(ctx context.Context, path, contentType string) error {
	path = core.CleanString(path)
	if contentType == "" && document.IsWordDocument(path) {
		contentType = "application/msword"
	}

	paths := cli.svc.ResolvePreviewPaths(ctx, path, contentType)
	if cli.isTerminal() {
		fmt.Fprintf(cli.out, "display:   %s\n", paths.DisplayPath)
		fmt.Fprintf(cli.out, "download:  %s\n", paths.DownloadPath)
		fmt.Fprintf(cli.out, "converted: %t\n", paths.IsPDFConverted)
		return nil
	}
	return cli.writeJSON(paths)
}

func (cli *commandLine) isTerminal() bool {
	return isTerminalFunc(cli.outFd)
}

func (cli *commandLine) writeJSON(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type warmSummary struct {
	Total     int      `json:"total"`
	Converted int      `json:"converted"`
	Failed    []string `json:"failed"`
}

func (s *warmSummary) sort() {
	sort.Strings(s.Failed)
}

func (cli *commandLine) printSummary(s warmSummary) error {
	s.sort()
	if !cli.isTerminal() {
		return cli.writeJSON(s)
	}
	fmt.Fprintf(cli.out, "%d Word document(s), %d converted, %d failed\n", s.Total, s.Converted, len(s.Failed))
	for _, f := range s.Failed {
		fmt.Fprintf(cli.out, "  failed: %s\n", f)
	}
	return nil
}
