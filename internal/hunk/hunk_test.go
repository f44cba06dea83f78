package hunk

import (
	"errors"
	"strings"
	"testing"

	"codelearn/internal/diag"
)

func TestParse_Header(t *testing.T) {
	tests := []struct {
		name                                   string
		header                                 string
		oldStart, oldCount, newStart, newCount int
	}{
		{"full", "@@ -10,2 +10,3 @@", 10, 2, 10, 3},
		{"counts omitted", "@@ -4 +7 @@", 4, 1, 7, 1},
		{"old count omitted", "@@ -4 +7,2 @@", 4, 1, 7, 2},
		{"pure insertion", "@@ -3,0 +4,2 @@", 3, 0, 4, 2},
		{"pure deletion", "@@ -5,2 +4,0 @@", 5, 2, 4, 0},
		{"new file", "@@ -0,0 +1,3 @@", 0, 0, 1, 3},
		{"section heading", "@@ -1,3 +1,4 @@ function foo() {", 1, 3, 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hunks, errs := Parse(tt.header + "\n")
			if len(errs) != 0 {
				t.Fatalf("unexpected errors: %v", errs)
			}
			if len(hunks) != 1 {
				t.Fatalf("expected 1 hunk, got %d", len(hunks))
			}
			h := hunks[0]
			if h.OldStart != tt.oldStart || h.OldCount != tt.oldCount || h.NewStart != tt.newStart || h.NewCount != tt.newCount {
				t.Errorf("got -%d,%d +%d,%d, want -%d,%d +%d,%d",
					h.OldStart, h.OldCount, h.NewStart, h.NewCount,
					tt.oldStart, tt.oldCount, tt.newStart, tt.newCount)
			}
			if h.Header != tt.header {
				t.Errorf("expected header %q, got %q", tt.header, h.Header)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	for _, text := range []string{"", "diff --git a/x b/x\n--- a/x\n+++ b/x\n"} {
		hunks, errs := Parse(text)
		if len(hunks) != 0 {
			t.Errorf("expected no hunks for %q, got %d", text, len(hunks))
		}
		if len(errs) != 0 {
			t.Errorf("expected no errors for %q, got %v", text, errs)
		}
	}
}

func TestParse_BodySpansToNextHeader(t *testing.T) {
	text := "--- a/f.js\n+++ b/f.js\n" +
		"@@ -1,2 +1,2 @@\n-a\n+b\n c\n" +
		"@@ -10 +10 @@\n-x\n+y\n"

	hunks, errs := Parse(text)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(hunks) != 2 {
		t.Fatalf("expected 2 hunks, got %d", len(hunks))
	}
	if hunks[0].Body != "@@ -1,2 +1,2 @@\n-a\n+b\n c\n" {
		t.Errorf("unexpected first body %q", hunks[0].Body)
	}
	if hunks[1].Body != "@@ -10 +10 @@\n-x\n+y\n" {
		t.Errorf("unexpected second body %q", hunks[1].Body)
	}
	if hunks[0].OldStart != 1 || hunks[1].OldStart != 10 {
		t.Error("hunks out of text order")
	}
}

func TestParse_MalformedHeaderSkipsOnlyThatHunk(t *testing.T) {
	text := "@@ -1 +1 @@\n-a\n+b\n" +
		"@@ -x,2 +3,y @@\n-junk\n+junk\n" +
		"@@ -0,2 +5 @@\n-bad start\n" +
		"@@ -20,1 +20,1 @@\n-c\n+d\n"

	hunks, errs := Parse(text)
	if len(hunks) != 2 {
		t.Fatalf("expected 2 valid hunks, got %d", len(hunks))
	}
	if hunks[0].OldStart != 1 || hunks[1].OldStart != 20 {
		t.Errorf("unexpected hunks: %+v", hunks)
	}
	if hunks[0].Index != 0 || hunks[1].Index != 3 {
		t.Errorf("indexes should count malformed headers, got %d and %d", hunks[0].Index, hunks[1].Index)
	}
	if strings.Contains(hunks[0].Body, "junk") {
		t.Error("malformed hunk body leaked into previous hunk")
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}

	var he *HeaderError
	if !errors.As(errs[0], &he) {
		t.Fatalf("expected *HeaderError, got %T", errs[0])
	}
	if he.Index != 1 || he.Line != 4 {
		t.Errorf("expected header index 1 at line 4, got index %d line %d", he.Index, he.Line)
	}
	if !errors.Is(errs[1], diag.ErrParse) {
		t.Error("header errors should match diag.ErrParse")
	}
}

func TestParse_RangeOverflow(t *testing.T) {
	tests := []string{
		"@@ -9223372036854775807,2 +1 @@\n-a\n-b\n+c\n",
		"@@ -1 +9223372036854775807,2 @@\n-a\n+b\n+c\n",
		"@@ -99999999999999999999 +1 @@\n-a\n+b\n",
	}
	for _, text := range tests {
		hunks, errs := Parse(text)
		if len(hunks) != 0 {
			t.Errorf("expected header to be rejected for %q, got %+v", text, hunks)
		}
		if len(errs) != 1 || !errors.Is(errs[0], diag.ErrParse) {
			t.Errorf("expected one parse error for %q, got %v", text, errs)
		}
	}

	hunks, errs := Parse("@@ -9223372036854775806,1 +1 @@\n-a\n+b\n")
	if len(errs) != 0 || len(hunks) != 1 {
		t.Errorf("largest representable range should parse, got %d hunks, %v", len(hunks), errs)
	}
}

func TestParse_StopsAtNextFile(t *testing.T) {
	text := "diff --git a/a.js b/a.js\n--- a/a.js\n+++ b/a.js\n@@ -1 +1 @@\n-a\n+b\n" +
		"diff --git a/b.js b/b.js\n--- a/b.js\n+++ b/b.js\n@@ -2 +2 @@\n-c\n+d\n"

	hunks, _ := Parse(text)
	if len(hunks) != 2 {
		t.Fatalf("expected 2 hunks, got %d", len(hunks))
	}
	if strings.Contains(hunks[0].Body, "diff --git") {
		t.Errorf("first body runs into the next file: %q", hunks[0].Body)
	}
}

func TestParse_RemovedLineLookingLikeFileHeader(t *testing.T) {
	// A removed line "-- comment" renders as "--- comment" inside a body.
	text := "@@ -1,2 +1 @@\n--- comment\n keep\n"

	hunks, errs := Parse(text)
	if len(errs) != 0 || len(hunks) != 1 {
		t.Fatalf("expected 1 hunk and no errors, got %d, %v", len(hunks), errs)
	}
	lines := hunks[0].Lines()
	if len(lines) != 2 || lines[0].Kind != Removed || lines[0].Text != "-- comment" {
		t.Errorf("unexpected lines: %+v", lines)
	}
}

func TestHunk_Lines(t *testing.T) {
	text := "@@ -10,3 +10,4 @@ section\n keep\n-old\n+new A\n+new B\n tail\n\\ No newline at end of file\n"

	hunks, _ := Parse(text)
	if len(hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(hunks))
	}

	want := []Line{
		{Kind: Context, Text: "keep", OldLine: 10, NewLine: 10},
		{Kind: Removed, Text: "old", OldLine: 11},
		{Kind: Added, Text: "new A", NewLine: 11},
		{Kind: Added, Text: "new B", NewLine: 12},
		{Kind: Context, Text: "tail", OldLine: 12, NewLine: 13},
	}
	got := hunks[0].Lines()
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestHunk_LinesStopAtCounts(t *testing.T) {
	h := Hunk{OldStart: 1, OldCount: 1, NewStart: 1, NewCount: 1, Body: "@@ -1 +1 @@\n-a\n+b\ntrailing garbage\n"}
	if got := h.Lines(); len(got) != 2 {
		t.Errorf("expected 2 lines, got %+v", got)
	}
}

func TestSplitFiles(t *testing.T) {
	text := "diff --git a/src/a.ts b/src/a.ts\nindex 1..2 100644\n--- a/src/a.ts\n+++ b/src/a.ts\n@@ -1 +1 @@\n-a\n+b\n" +
		"diff --git a/old.js b/old.js\ndeleted file mode 100644\n--- a/old.js\n+++ /dev/null\n@@ -1 +0,0 @@\n-gone\n"

	sections := SplitFiles(text)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Path != "src/a.ts" {
		t.Errorf("expected src/a.ts, got %q", sections[0].Path)
	}
	if sections[1].Path != "old.js" {
		t.Errorf("expected old.js, got %q", sections[1].Path)
	}
	if sections[0].Text+sections[1].Text != text {
		t.Error("sections do not cover the whole patch")
	}

	hunks, _ := Parse(sections[1].Text)
	if len(hunks) != 1 || hunks[0].NewCount != 0 {
		t.Errorf("unexpected hunks in deleted file section: %+v", hunks)
	}
}

func TestSplitFiles_SingleFileWithoutDiffLine(t *testing.T) {
	text := "--- a/x.py\t2024-01-01\n+++ b/x.py\t2024-01-02\n@@ -1 +1 @@\n-a\n+b\n"
	sections := SplitFiles(text)
	if len(sections) != 1 || sections[0].Path != "x.py" {
		t.Fatalf("unexpected sections: %+v", sections)
	}
}
