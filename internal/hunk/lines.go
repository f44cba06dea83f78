package hunk

import (
	"regexp"
	"strings"
)

// LineKind classifies a hunk body line.
type LineKind byte

const (
	Context LineKind = ' '
	Added   LineKind = '+'
	Removed LineKind = '-'
)

// Line is one body line of a hunk with its position on each side.
// OldLine is 0 for added lines and NewLine is 0 for removed lines.
type Line struct {
	Kind    LineKind
	Text    string
	OldLine int
	NewLine int
}

// Lines classifies the body lines of h and numbers them from the header
// starts. Reading stops once both ranges are exhausted, so trailing text
// after the hunk is ignored.
func (h Hunk) Lines() []Line {
	body := h.Body
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		return nil
	}

	var (
		out        []Line
		oldN, newN int
	)
	for _, raw := range strings.SplitAfter(body, "\n") {
		if oldN >= h.OldCount && newN >= h.NewCount {
			break
		}
		text := strings.TrimSuffix(strings.TrimSuffix(raw, "\n"), "\r")
		if raw == "" {
			break
		}
		if strings.HasPrefix(text, `\`) {
			continue
		}

		kind := Context
		if text != "" {
			kind = LineKind(text[0])
			text = text[1:]
		}

		switch kind {
		case Added:
			out = append(out, Line{Kind: Added, Text: text, NewLine: h.NewStart + newN})
			newN++
		case Removed:
			out = append(out, Line{Kind: Removed, Text: text, OldLine: h.OldStart + oldN})
			oldN++
		case Context:
			out = append(out, Line{Kind: Context, Text: text, OldLine: h.OldStart + oldN, NewLine: h.NewStart + newN})
			oldN++
			newN++
		default:
			return out
		}
	}
	return out
}

// FileSection is the part of a multi-file patch that belongs to one file.
type FileSection struct {
	Path string
	Text string
}

var diffGitRe = regexp.MustCompile(`^diff --git a/(.+) b/(.+)$`)

// SplitFiles splits a patch into per-file sections at "diff " lines. Text
// without any such line is returned as a single section. The path comes from
// the "+++ b/" line, or from "--- a/" when the file was deleted.
func SplitFiles(text string) []FileSection {
	var (
		sections []FileSection
		cur      *FileSection
		start    int
		inBody   bool
	)

	flush := func(end int) {
		if cur != nil {
			cur.Text = text[start:end]
			sections = append(sections, *cur)
		}
	}

	for _, ln := range splitLines(text) {
		line := text[ln.start:ln.end]
		switch {
		case strings.HasPrefix(line, "diff "):
			flush(ln.start)
			cur = &FileSection{}
			start = ln.start
			inBody = false
			if m := diffGitRe.FindStringSubmatch(line); m != nil {
				cur.Path = m[2]
			}
		case cur == nil:
			cur = &FileSection{}
			start = ln.start
		}

		if inBody {
			continue
		}
		switch {
		case strings.HasPrefix(line, "@@"):
			inBody = true
		case strings.HasPrefix(line, "+++ "):
			if p := headerPath(line[4:], "b/"); p != "" {
				cur.Path = p
			}
		case strings.HasPrefix(line, "--- "):
			if cur.Path == "" {
				cur.Path = headerPath(line[4:], "a/")
			}
		}
	}
	flush(len(text))

	return sections
}

func headerPath(s, prefix string) string {
	if i := strings.IndexByte(s, '\t'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if s == "/dev/null" {
		return ""
	}
	return strings.TrimPrefix(s, prefix)
}
