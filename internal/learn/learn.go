// Package learn runs the diff-to-snippet pipeline over a set of files and
// collects the resulting pairs into a learning request.
package learn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"codelearn/internal/correlate"
	"codelearn/internal/diag"
	"codelearn/internal/hunk"
	"codelearn/internal/parse"
	"codelearn/internal/slicer"
	"codelearn/internal/snippet"
)

var (
	// ErrNoChange marks a file whose diff is empty.
	ErrNoChange = errors.New("no difference from the previous commit")
	// ErrCancelledOut marks a file whose candidate statements all cancelled.
	ErrCancelledOut = errors.New("every candidate statement is unchanged")
)

// Source supplies diff text and file contents. Implementations may block.
type Source interface {
	Diff(ctx context.Context, path string) (string, error)
	Before(ctx context.Context, path string) (string, error)
	After(ctx context.Context, path string) (string, error)
}

// Strategy selects how a file diff is reduced to pairs.
type Strategy string

const (
	// StrategyHunks emits one pair per hunk, sliced from the file contents.
	StrategyHunks Strategy = "hunks"
	// StrategyStatements emits one pair per file, built from the top-level
	// statements touched by the diff.
	StrategyStatements Strategy = "statements"
)

// ParseStrategy parses a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(s)) {
	case "", StrategyHunks:
		return StrategyHunks, nil
	case StrategyStatements:
		return StrategyStatements, nil
	default:
		return "", fmt.Errorf("unknown strategy %q", s)
	}
}

// Options configures an Extractor.
type Options struct {
	Strategy Strategy
	Mode     correlate.Mode
	// Workers bounds how many files are processed at once. Zero means
	// GOMAXPROCS.
	Workers int
	Parser  *parse.Parser
	Logger  *slog.Logger
}

// Extractor turns file diffs into snippet pairs.
type Extractor struct {
	source   Source
	strategy Strategy
	mode     correlate.Mode
	workers  int
	parser   *parse.Parser
	logger   *slog.Logger
}

// New creates an Extractor reading from source.
func New(source Source, opts Options) *Extractor {
	e := &Extractor{
		source:   source,
		strategy: opts.Strategy,
		mode:     opts.Mode,
		workers:  opts.Workers,
		parser:   opts.Parser,
		logger:   opts.Logger,
	}
	if e.strategy == "" {
		e.strategy = StrategyHunks
	}
	if e.workers <= 0 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	if e.parser == nil && e.strategy == StrategyStatements {
		e.parser = parse.NewParser()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Run processes paths concurrently and returns the aggregated request with
// files in the order of paths. Per-file failures are returned as
// diagnostics. If no file yields a pair, Run returns diag.ErrNothingToLearn,
// or the context error when the run was cut short. Files completed before a
// cancellation are kept.
func (e *Extractor) Run(ctx context.Context, paths []string) (*snippet.Request, []diag.Diagnostic, error) {
	agg := snippet.NewAggregator(len(paths))
	perFile := make([][]diag.Diagnostic, len(paths))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				perFile[i] = []diag.Diagnostic{diag.New(path, err)}
				return nil
			}
			pairs, diags := e.File(ctx, path)
			perFile[i] = diags
			if len(pairs) > 0 {
				agg.Set(i, path, pairs)
			}
			return nil
		})
	}
	_ = g.Wait()

	var diags []diag.Diagnostic
	for _, d := range perFile {
		diags = append(diags, d...)
	}

	req, err := agg.Request()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, diags, ctxErr
		}
		return nil, diags, err
	}

	e.logger.Debug("aggregated", "files", len(req.Files), "pairs", len(req.Pairs), "skipped", len(diags))
	return req, diags, nil
}

// File reduces the diff of one file to pairs.
func (e *Extractor) File(ctx context.Context, path string) ([]snippet.Pair, []diag.Diagnostic) {
	diffText, err := e.source.Diff(ctx, path)
	if err != nil {
		return nil, []diag.Diagnostic{diag.New(path, missing(err))}
	}
	if strings.TrimSpace(diffText) == "" {
		return nil, []diag.Diagnostic{diag.New(path, ErrNoChange)}
	}

	switch e.strategy {
	case StrategyStatements:
		return e.statements(ctx, path, diffText)
	default:
		return e.hunks(ctx, path, diffText)
	}
}

func (e *Extractor) hunks(ctx context.Context, path, diffText string) ([]snippet.Pair, []diag.Diagnostic) {
	var diags []diag.Diagnostic

	hunks, errs := hunk.Parse(diffText)
	for _, err := range errs {
		index := -1
		var he *hunk.HeaderError
		if errors.As(err, &he) {
			index = he.Index
		}
		diags = append(diags, diag.ForHunk(path, index, err))
	}
	if len(hunks) == 0 {
		if len(diags) == 0 {
			diags = append(diags, diag.New(path, ErrNoChange))
		}
		return nil, diags
	}

	before, after, err := e.contents(ctx, path)
	if err != nil {
		return nil, append(diags, diag.New(path, err))
	}

	pairs, sliceDiags := slicer.SliceAll(path, hunks, before, after)
	diags = append(diags, sliceDiags...)

	e.logger.Debug("sliced", "path", path, "hunks", len(hunks), "pairs", len(pairs))
	return pairs, diags
}

func (e *Extractor) statements(ctx context.Context, path, diffText string) ([]snippet.Pair, []diag.Diagnostic) {
	before, after, err := e.contents(ctx, path)
	if err != nil {
		return nil, []diag.Diagnostic{diag.New(path, err)}
	}

	beforeTree, err := e.parser.ParseFile(ctx, path, []byte(before))
	if err != nil {
		return nil, []diag.Diagnostic{diag.New(path, missing(fmt.Errorf("parsing before: %w", err)))}
	}
	afterTree, err := e.parser.ParseFile(ctx, path, []byte(after))
	if err != nil {
		return nil, []diag.Diagnostic{diag.New(path, missing(fmt.Errorf("parsing after: %w", err)))}
	}

	res, err := correlate.Correlate(diffText, beforeTree, afterTree, e.mode)
	if err != nil {
		return nil, []diag.Diagnostic{diag.New(path, err)}
	}

	e.logger.Debug("correlated", "path", path, "mode", e.mode.String(),
		"before", res.Before.Len(), "after", res.After.Len(), "cancelled", res.Cancelled)

	if res.Pair.Empty() {
		return nil, []diag.Diagnostic{diag.New(path, ErrCancelledOut)}
	}
	return []snippet.Pair{res.Pair}, nil
}

func (e *Extractor) contents(ctx context.Context, path string) (before, after string, err error) {
	before, err = e.source.Before(ctx, path)
	if err != nil {
		return "", "", missing(fmt.Errorf("before: %w", err))
	}
	after, err = e.source.After(ctx, path)
	if err != nil {
		return "", "", missing(fmt.Errorf("after: %w", err))
	}
	return before, after, nil
}

// missing classifies a collaborator failure as missing content, leaving
// context errors and already classified errors alone.
func missing(err error) error {
	if errors.Is(err, diag.ErrMissingContent) || errors.Is(err, diag.ErrParse) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", diag.ErrMissingContent, err)
}
