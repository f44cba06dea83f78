// Package diag defines the failure taxonomy shared by the snippet pipeline.
//
// Per-unit failures (one hunk, one file) never abort a run. They are recorded
// as Diagnostics, logged, and the unit is left out of the result.
package diag

import (
	"context"
	"errors"
	"log/slog"
)

var (
	// ErrParse marks a malformed hunk header or a line range that does not
	// fit the file content it is applied to.
	ErrParse = errors.New("parse error")

	// ErrMissingContent marks a file whose before/after text or syntax tree
	// could not be obtained.
	ErrMissingContent = errors.New("missing content")

	// ErrNothingToLearn is returned when no processed file produced a pair.
	ErrNothingToLearn = errors.New("nothing to learn")
)

// Kind classifies a diagnostic.
type Kind string

const (
	KindParse          Kind = "parse"
	KindMissingContent Kind = "missing_content"
	KindEmpty          Kind = "empty"
	KindCanceled       Kind = "canceled"
)

// Diagnostic describes one skipped unit of work.
type Diagnostic struct {
	Path string
	Hunk int // index of the hunk within the file, -1 for whole-file diagnostics
	Kind Kind
	Err  error
}

// New builds a whole-file diagnostic, classifying err by its sentinel.
func New(path string, err error) Diagnostic {
	return Diagnostic{Path: path, Hunk: -1, Kind: KindOf(err), Err: err}
}

// ForHunk builds a diagnostic for a single hunk.
func ForHunk(path string, hunk int, err error) Diagnostic {
	return Diagnostic{Path: path, Hunk: hunk, Kind: KindOf(err), Err: err}
}

// KindOf maps an error to its diagnostic kind.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrMissingContent):
		return KindMissingContent
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindEmpty
	}
}

func (d Diagnostic) Error() string {
	if d.Err == nil {
		return d.Path + ": " + string(d.Kind)
	}
	return d.Path + ": " + d.Err.Error()
}

// Log writes each diagnostic to logger at warn level.
func Log(logger *slog.Logger, diags []Diagnostic) {
	for _, d := range diags {
		attrs := []any{"path", d.Path, "kind", string(d.Kind)}
		if d.Hunk >= 0 {
			attrs = append(attrs, "hunk", d.Hunk)
		}
		if d.Err != nil {
			attrs = append(attrs, "error", d.Err)
		}
		logger.Warn("skipped", attrs...)
	}
}
