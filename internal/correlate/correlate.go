// Package correlate reduces a file diff to one before/after pair made of the
// top-level statements touched by the change.
//
// Changed diff lines are mapped to statements of the before tree (removed
// lines) and the after tree (added lines). A statement whose full text shows
// up on both sides did not change and is cancelled out.
package correlate

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"codelearn/internal/diag"
	"codelearn/internal/hunk"
	"codelearn/internal/parse"
	"codelearn/internal/snippet"
)

// Mode selects how a changed line is matched to statements.
type Mode int

const (
	// ModePosition maps a changed line to the statement whose line span
	// contains it.
	ModePosition Mode = iota
	// ModeSubstring matches every statement whose text contains the changed
	// line's content. It can pull in unrelated statements that happen to
	// contain a short fragment.
	ModeSubstring
)

func (m Mode) String() string {
	switch m {
	case ModePosition:
		return "position"
	case ModeSubstring:
		return "substring"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "position" or "substring".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "position":
		return ModePosition, nil
	case "substring":
		return ModeSubstring, nil
	default:
		return 0, fmt.Errorf("unknown match mode %q", s)
	}
}

// Result is the outcome of correlating one file.
type Result struct {
	Pair      snippet.Pair
	Before    *CandidateSet
	After     *CandidateSet
	Cancelled int
}

// Correlate builds the reduced pair for one file. before and after must both
// be available; otherwise the file fails with diag.ErrMissingContent and no
// pair is produced. A Result with an empty Pair means every candidate was
// cancelled.
func Correlate(diffText string, before, after *parse.ParsedFile, mode Mode) (*Result, error) {
	if before == nil || after == nil {
		return nil, fmt.Errorf("%w: syntax tree unavailable", diag.ErrMissingContent)
	}

	res := &Result{
		Before: NewCandidateSet(),
		After:  NewCandidateSet(),
	}

	switch mode {
	case ModeSubstring:
		for _, line := range strings.Split(diffText, "\n") {
			if strings.HasPrefix(line, "---") || strings.HasPrefix(line, "+++") {
				continue
			}
			if !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "+") {
				continue
			}
			content := strings.TrimSpace(line[1:])
			if !Meaningful(content) {
				continue
			}
			if line[0] == '-' {
				res.Before.addContaining(before.Statements, content)
			} else {
				res.After.addContaining(after.Statements, content)
			}
		}

	case ModePosition:
		hunks, errs := hunk.Parse(diffText)
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		for _, h := range hunks {
			for _, l := range h.Lines() {
				if !Meaningful(strings.TrimSpace(l.Text)) {
					continue
				}
				switch l.Kind {
				case hunk.Removed:
					res.Before.addAtLine(before.Statements, l.OldLine)
				case hunk.Added:
					res.After.addAtLine(after.Statements, l.NewLine)
				}
			}
		}

	default:
		return nil, fmt.Errorf("unknown match mode %v", mode)
	}

	res.Cancelled = Cancel(res.Before, res.After)
	res.Pair = snippet.Pair{
		Before: res.Before.Snippet(),
		After:  res.After.Snippet(),
	}
	return res, nil
}

// Meaningful reports whether s carries anything besides punctuation and
// whitespace. Lines that only open or close blocks are formatting noise.
func Meaningful(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) || strings.ContainsRune("{}()[]:;,/?'\"<>|=`!", r) {
			continue
		}
		return true
	}
	return false
}
