// Package udiff renders git-style unified diffs in pure Go.
package udiff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContext is the number of context lines git uses.
const DefaultContext = 3

type op struct {
	kind byte // ' ', '-', '+'
	line string
}

// Unified returns the unified diff of before and after for path, or "" when
// they are equal. Hunk headers follow git: a count of 1 is omitted and an
// empty range starts at the line preceding it.
func Unified(path, before, after string, context int) string {
	if before == after {
		return ""
	}
	if context < 0 {
		context = DefaultContext
	}

	ops := lineOps(before, after)

	oldAt := make([]int, len(ops)+1)
	newAt := make([]int, len(ops)+1)
	oldLine, newLine := 1, 1
	for i, o := range ops {
		oldAt[i], newAt[i] = oldLine, newLine
		if o.kind != '+' {
			oldLine++
		}
		if o.kind != '-' {
			newLine++
		}
	}
	oldAt[len(ops)], newAt[len(ops)] = oldLine, newLine

	var b strings.Builder
	fmt.Fprintf(&b, "diff --git a/%s b/%s\n", path, path)
	if before == "" {
		b.WriteString("--- /dev/null\n")
	} else {
		fmt.Fprintf(&b, "--- a/%s\n", path)
	}
	if after == "" {
		b.WriteString("+++ /dev/null\n")
	} else {
		fmt.Fprintf(&b, "+++ b/%s\n", path)
	}

	n := len(ops)
	idx := 0
	for idx < n {
		for idx < n && ops[idx].kind == ' ' {
			idx++
		}
		if idx == n {
			break
		}

		start := max(idx-context, 0)
		end := idx
		for {
			for end < n && ops[end].kind != ' ' {
				end++
			}
			next := end
			for next < n && ops[next].kind == ' ' {
				next++
			}
			if next < n && next-end <= 2*context {
				end = next
				continue
			}
			end = min(end+context, n)
			break
		}

		writeHunk(&b, ops[start:end], oldAt[start], newAt[start])
		idx = end
	}

	return b.String()
}

func writeHunk(b *strings.Builder, ops []op, oldStart, newStart int) {
	var oldCount, newCount int
	for _, o := range ops {
		if o.kind != '+' {
			oldCount++
		}
		if o.kind != '-' {
			newCount++
		}
	}
	if oldCount == 0 {
		oldStart--
	}
	if newCount == 0 {
		newStart--
	}

	fmt.Fprintf(b, "@@ -%s +%s @@\n", rangeSpec(oldStart, oldCount), rangeSpec(newStart, newCount))
	for _, o := range ops {
		b.WriteByte(o.kind)
		b.WriteString(o.line)
		if !strings.HasSuffix(o.line, "\n") {
			b.WriteString("\n\\ No newline at end of file\n")
		}
	}
}

func rangeSpec(start, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

// lineOps runs a line-mode diff and expands it to one op per line.
func lineOps(before, after string) []op {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var ops []op
	for _, d := range diffs {
		var kind byte
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			kind = ' '
		case diffmatchpatch.DiffDelete:
			kind = '-'
		case diffmatchpatch.DiffInsert:
			kind = '+'
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line != "" {
				ops = append(ops, op{kind: kind, line: line})
			}
		}
	}

	// Within a change run git lists removals before additions.
	for i := 0; i < len(ops); {
		if ops[i].kind == ' ' {
			i++
			continue
		}
		j := i
		for j < len(ops) && ops[j].kind != ' ' {
			j++
		}
		run := make([]op, 0, j-i)
		for _, o := range ops[i:j] {
			if o.kind == '-' {
				run = append(run, o)
			}
		}
		for _, o := range ops[i:j] {
			if o.kind == '+' {
				run = append(run, o)
			}
		}
		copy(ops[i:j], run)
		i = j
	}

	return ops
}
