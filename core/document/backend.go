package document

import (
	"context"
	"fmt"
	"strings"
)

// Reason classifies why a conversion produced no artifact.
type Reason string

const (
	ReasonSourceMissing     Reason = "source_missing"
	ReasonPrimaryTool       Reason = "primary_tool_failure"
	ReasonExtractionEmpty   Reason = "fallback_extraction_empty"
	ReasonRenderFailure     Reason = "fallback_render_failure"
	ReasonUnexpected        Reason = "unexpected"
	ReasonUnsupportedFormat Reason = "unsupported_format"
)

type (
	// Job is one conversion request handed to a Backend.
	Job struct {
		Source string // absolute path of the Word file
		OutDir string // directory of Target, already created
		Target string // where the PDF must end up
	}

	// Backend is one way of turning a Word file into a PDF.
	Backend interface {
		Name() string
		Convert(ctx context.Context, job Job) Outcome
	}

	// Outcome is either success-with-path or failure-with-reason.
	Outcome struct {
		Path    string
		Failure *Failure
	}

	Failure struct {
		Backend string
		Reason  Reason
		Err     error
	}

	// Chain is the ordered list of backends tried until one succeeds.
	Chain []Backend

	// ChainError aggregates the failures of every backend of a Chain.
	ChainError struct {
		Failures []Failure
	}
)

func Succeeded(path string) Outcome {
	return Outcome{Path: path}
}

func Failed(reason Reason, err error) Outcome {
	return Outcome{Failure: &Failure{Reason: reason, Err: err}}
}

func (o Outcome) OK() bool { return o.Failure == nil && o.Path != "" }

func (f Failure) Error() string {
	var b strings.Builder
	if f.Backend != "" {
		b.WriteString(f.Backend)
		b.WriteString(": ")
	}
	b.WriteString(string(f.Reason))
	if f.Err != nil {
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

func (f Failure) Unwrap() error { return f.Err }

func (e *ChainError) Error() string {
	if len(e.Failures) == 0 {
		return "no conversion backend configured"
	}
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("all %d conversion backends failed: %s", len(e.Failures), strings.Join(msgs, "; "))
}

// Convert runs the backends in order and stops at the first success.
// Failures of the backends tried are always returned, also on success.
func (c Chain) Convert(ctx context.Context, job Job) (string, []Failure) {
	var failures []Failure
	for _, b := range c {
		if err := ctx.Err(); err != nil {
			failures = append(failures, Failure{Backend: b.Name(), Reason: ReasonUnexpected, Err: err})
			break
		}

		out := b.Convert(ctx, job)
		if out.OK() {
			return out.Path, failures
		}
		f := Failure{Backend: b.Name(), Reason: ReasonUnexpected}
		if out.Failure != nil {
			f.Reason = out.Failure.Reason
			f.Err = out.Failure.Err
		}
		failures = append(failures, f)
	}
	return "", failures
}
