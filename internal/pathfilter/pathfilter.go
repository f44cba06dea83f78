// Package pathfilter selects which modified files a run learns from.
package pathfilter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"codelearn/internal/parse"
)

// Filter keeps paths that match at least one include pattern (or any path
// when there are none), match no exclude pattern, and are supported source
// files.
type Filter struct {
	include []string
	exclude []string
}

// New validates the glob patterns and returns a Filter. Patterns without a
// slash match the base name at any depth, as in .gitignore.
func New(include, exclude []string) (*Filter, error) {
	f := &Filter{}
	for _, p := range include {
		p = normalize(p)
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid include pattern %q", p)
		}
		f.include = append(f.include, p)
	}
	for _, p := range exclude {
		p = normalize(p)
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
		f.exclude = append(f.exclude, p)
	}
	return f, nil
}

func normalize(p string) string {
	p = strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(p)), "./")
	if !strings.Contains(p, "/") {
		p = "**/" + p
	}
	return p
}

// Reason explains why a path was rejected.
type Reason string

const (
	Accepted    Reason = ""
	Unsupported Reason = "unsupported file type"
	NotIncluded Reason = "not matched by include patterns"
	Excluded    Reason = "matched by exclude pattern"
)

// Check returns Accepted or the reason path is rejected.
func (f *Filter) Check(path string) Reason {
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")

	if parse.LangFromPath(path) == "" {
		return Unsupported
	}
	if len(f.include) > 0 && !matchAny(f.include, path) {
		return NotIncluded
	}
	if matchAny(f.exclude, path) {
		return Excluded
	}
	return Accepted
}

// Apply returns the accepted paths in their original order, and the rejected
// ones with their reasons.
func (f *Filter) Apply(paths []string) (kept []string, rejected map[string]Reason) {
	rejected = make(map[string]Reason)
	for _, p := range paths {
		if r := f.Check(p); r != Accepted {
			rejected[p] = r
			continue
		}
		kept = append(kept, p)
	}
	return kept, rejected
}

func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return true
		}
	}
	return false
}
