// Package slicer cuts the before and after line ranges of a hunk out of the
// full file contents.
package slicer

import (
	"errors"
	"fmt"
	"strings"

	"codelearn/internal/diag"
	"codelearn/internal/hunk"
	"codelearn/internal/snippet"
)

// ErrEmpty is returned for a hunk that yields no text on either side.
var ErrEmpty = errors.New("hunk has no lines on either side")

// RangeError reports a hunk range that does not fit the file content, which
// means the content and the diff disagree.
type RangeError struct {
	Side  string // "before" or "after"
	Start int
	Count int
	Lines int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s range %d,%d exceeds %d lines", e.Side, e.Start, e.Count, e.Lines)
}

func (e *RangeError) Unwrap() error {
	return diag.ErrParse
}

// Slice returns the before lines [OldStart, OldStart+OldCount-1] and the
// after lines [NewStart, NewStart+NewCount-1] of h. Line terminators inside
// a slice are kept as they are; the terminator of the last line is dropped.
func Slice(h hunk.Hunk, before, after string) (snippet.Pair, error) {
	b, err := cut("before", before, h.OldStart, h.OldCount)
	if err != nil {
		return snippet.Pair{}, err
	}
	a, err := cut("after", after, h.NewStart, h.NewCount)
	if err != nil {
		return snippet.Pair{}, err
	}
	p := snippet.Pair{Before: b, After: a}
	if p.Empty() {
		return p, ErrEmpty
	}
	return p, nil
}

// SliceAll slices every hunk of one file. Hunks that fail are reported as
// diagnostics and left out.
func SliceAll(path string, hunks []hunk.Hunk, before, after string) ([]snippet.Pair, []diag.Diagnostic) {
	var (
		pairs []snippet.Pair
		diags []diag.Diagnostic
	)
	beforeLines := lines(before)
	afterLines := lines(after)
	for _, h := range hunks {
		b, err := cutLines("before", beforeLines, h.OldStart, h.OldCount)
		if err == nil {
			var a string
			a, err = cutLines("after", afterLines, h.NewStart, h.NewCount)
			if err == nil {
				p := snippet.Pair{Before: b, After: a}
				if p.Empty() {
					err = ErrEmpty
				} else {
					pairs = append(pairs, p)
				}
			}
		}
		if err != nil {
			diags = append(diags, diag.ForHunk(path, h.Index, err))
		}
	}
	return pairs, diags
}

func cut(side, text string, start, count int) (string, error) {
	if count == 0 {
		return "", nil
	}
	return cutLines(side, lines(text), start, count)
}

func cutLines(side string, ls []string, start, count int) (string, error) {
	if count == 0 {
		return "", nil
	}
	if count < 0 || start < 1 || start > len(ls) || count > len(ls)-start+1 {
		return "", &RangeError{Side: side, Start: start, Count: count, Lines: len(ls)}
	}
	s := strings.Join(ls[start-1:start-1+count], "")
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s, nil
}

// lines splits text after each "\n", keeping terminators. A final line
// without a terminator is still a line; an empty text has none.
func lines(text string) []string {
	if text == "" {
		return nil
	}
	ls := strings.SplitAfter(text, "\n")
	if ls[len(ls)-1] == "" {
		ls = ls[:len(ls)-1]
	}
	return ls
}
