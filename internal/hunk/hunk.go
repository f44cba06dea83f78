// Package hunk parses unified diff text into hunks with their line ranges.
package hunk

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"codelearn/internal/diag"
)

// headerRe matches "@@ -oldStart[,oldCount] +newStart[,newCount] @@".
var headerRe = regexp.MustCompile(`^@@ -(\S+?)(?:,(\S+?))? \+(\S+?)(?:,(\S+?))? @@`)

// Hunk is one contiguous region of change in a unified diff.
type Hunk struct {
	// Index is the position of the header among all headers in the text,
	// counting malformed ones.
	Index    int    `json:"index"`
	Header   string `json:"header"`
	OldStart int    `json:"oldStart"`
	OldCount int    `json:"oldCount"`
	NewStart int    `json:"newStart"`
	NewCount int    `json:"newCount"`
	// Body is the raw text from the header up to the next header or end of text.
	Body string `json:"body"`
}

// HeaderError reports a hunk header that could not be parsed.
type HeaderError struct {
	Index  int // position of the header among all headers in the text
	Line   int // 1-based line number in the diff text
	Header string
	Err    error
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("hunk %d (line %d): malformed header %q: %v", e.Index, e.Line, e.Header, e.Err)
}

func (e *HeaderError) Unwrap() []error {
	return []error{diag.ErrParse, e.Err}
}

type scanState int

const (
	scanningForHeader scanState = iota
	inHunkBody
)

// span is the byte range of a line within the diff text. end excludes the
// line terminator.
type span struct {
	start, end int
}

func splitLines(text string) []span {
	var lines []span
	start := 0
	for start < len(text) {
		i := strings.IndexByte(text[start:], '\n')
		if i < 0 {
			lines = append(lines, span{start, len(text)})
			break
		}
		end := start + i
		if end > start && text[end-1] == '\r' {
			lines = append(lines, span{start, end - 1})
		} else {
			lines = append(lines, span{start, end})
		}
		start += i + 1
	}
	return lines
}

// Parse scans diff text for hunks. Hunks are returned in text order. A
// malformed header skips only its own hunk; the error is reported and
// scanning continues with the next header. Text without any header yields
// no hunks and no errors.
func Parse(text string) ([]Hunk, []error) {
	var (
		hunks []Hunk
		errs  []error
		cur   *Hunk
		start int
		index int
		state = scanningForHeader
	)

	flush := func(end int) {
		if cur != nil {
			cur.Body = text[start:end]
			hunks = append(hunks, *cur)
		}
		cur = nil
	}

	for n, ln := range splitLines(text) {
		line := text[ln.start:ln.end]
		switch {
		case strings.HasPrefix(line, "@@"):
			if state == inHunkBody {
				flush(ln.start)
			}
			state = inHunkBody
			h, err := parseHeader(line)
			if err != nil {
				errs = append(errs, &HeaderError{Index: index, Line: n + 1, Header: line, Err: err})
				index++
				continue
			}
			h.Index = index
			index++
			cur = &h
			start = ln.start
		case state == inHunkBody && strings.HasPrefix(line, "diff "):
			flush(ln.start)
			state = scanningForHeader
		}
	}
	if state == inHunkBody {
		flush(len(text))
	}

	return hunks, errs
}

func parseHeader(line string) (Hunk, error) {
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return Hunk{}, errors.New("does not match @@ -a,b +c,d @@")
	}

	h := Hunk{Header: line}
	var err error
	if h.OldStart, err = atoi(m[1], -1); err != nil {
		return Hunk{}, fmt.Errorf("old start: %w", err)
	}
	if h.OldCount, err = atoi(m[2], 1); err != nil {
		return Hunk{}, fmt.Errorf("old count: %w", err)
	}
	if h.NewStart, err = atoi(m[3], -1); err != nil {
		return Hunk{}, fmt.Errorf("new start: %w", err)
	}
	if h.NewCount, err = atoi(m[4], 1); err != nil {
		return Hunk{}, fmt.Errorf("new count: %w", err)
	}

	if h.OldCount > 0 && h.OldStart < 1 {
		return Hunk{}, fmt.Errorf("old start %d with %d lines", h.OldStart, h.OldCount)
	}
	if h.NewCount > 0 && h.NewStart < 1 {
		return Hunk{}, fmt.Errorf("new start %d with %d lines", h.NewStart, h.NewCount)
	}
	if h.OldStart > math.MaxInt-h.OldCount {
		return Hunk{}, fmt.Errorf("old range %d,%d overflows", h.OldStart, h.OldCount)
	}
	if h.NewStart > math.MaxInt-h.NewCount {
		return Hunk{}, fmt.Errorf("new range %d,%d overflows", h.NewStart, h.NewCount)
	}
	return h, nil
}

// atoi parses a non-negative header group. An empty group takes def; def < 0
// means the group is required.
func atoi(s string, def int) (int, error) {
	if s == "" {
		if def < 0 {
			return 0, errors.New("missing number")
		}
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}

// OldEnd returns the last line of the old range, or OldStart-1 when the
// range is empty.
func (h Hunk) OldEnd() int {
	return h.OldStart + h.OldCount - 1
}

// NewEnd returns the last line of the new range, or NewStart-1 when the
// range is empty.
func (h Hunk) NewEnd() int {
	return h.NewStart + h.NewCount - 1
}
