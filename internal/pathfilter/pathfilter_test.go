package pathfilter

import (
	"testing"
)

func TestCheck(t *testing.T) {
	f, err := New([]string{"src/**"}, []string{"*.test.ts", "src/vendor/**"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []struct {
		path string
		want Reason
	}{
		{"src/app.ts", Accepted},
		{"src/ui/view.tsx", Accepted},
		{"./src/util.js", Accepted},
		{"src/app.test.ts", Excluded},
		{"src/vendor/lib.js", Excluded},
		{"scripts/build.js", NotIncluded},
		{"src/README.md", Unsupported},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := f.Check(tt.path); got != tt.want {
				t.Errorf("Check(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestCheck_NoPatterns(t *testing.T) {
	f, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := f.Check("deep/nested/file.py"); got != Accepted {
		t.Errorf("expected Accepted, got %q", got)
	}
}

func TestApply(t *testing.T) {
	f, _ := New(nil, []string{"generated/**"})
	kept, rejected := f.Apply([]string{"b.js", "generated/x.js", "a.ts", "image.png"})

	if len(kept) != 2 || kept[0] != "b.js" || kept[1] != "a.ts" {
		t.Errorf("unexpected kept paths %v", kept)
	}
	if rejected["generated/x.js"] != Excluded || rejected["image.png"] != Unsupported {
		t.Errorf("unexpected rejected paths %v", rejected)
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	if _, err := New([]string{"src/[a-"}, nil); err == nil {
		t.Error("expected error for invalid pattern")
	}
}
