// Package snippet holds before/after snippet pairs and collects them into
// the request handed to the learning service.
package snippet

import (
	"sync"

	"codelearn/internal/diag"
)

// Pair is a minimal before/after example of one change. Either side may be
// empty, but not both.
type Pair struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

// Empty reports whether neither side carries any text.
func (p Pair) Empty() bool {
	return p.Before == "" && p.After == ""
}

// FileResult is the set of pairs produced for one file.
type FileResult struct {
	Path  string `json:"path"`
	Pairs []Pair `json:"pairs"`
}

// Request is the payload submitted to the learning service.
type Request struct {
	Files []FileResult `json:"-"`
	Pairs []Pair       `json:"pairs"`
}

// Aggregator accumulates per-file results. Add appends in call order; Set
// places a result at a fixed slot so that parallel workers produce the same
// ordering as a sequential run.
type Aggregator struct {
	mu    sync.Mutex
	files []FileResult
	set   []bool
}

// NewAggregator creates an aggregator with n pre-allocated slots. Slots that
// are never set are skipped.
func NewAggregator(n int) *Aggregator {
	return &Aggregator{
		files: make([]FileResult, n),
		set:   make([]bool, n),
	}
}

// Add appends the pairs of one file after all existing results.
func (a *Aggregator) Add(path string, pairs []Pair) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files = append(a.files, FileResult{Path: path, Pairs: pairs})
	a.set = append(a.set, true)
}

// Set stores the pairs of one file in slot i.
func (a *Aggregator) Set(i int, path string, pairs []Pair) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files[i] = FileResult{Path: path, Pairs: pairs}
	a.set[i] = true
}

// Request flattens the collected results, files in slot order and pairs in
// per-file order. Files without pairs are left out. If nothing remains it
// returns diag.ErrNothingToLearn.
func (a *Aggregator) Request() (*Request, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	req := &Request{}
	for i, f := range a.files {
		if !a.set[i] {
			continue
		}
		var pairs []Pair
		for _, p := range f.Pairs {
			if !p.Empty() {
				pairs = append(pairs, p)
			}
		}
		if len(pairs) == 0 {
			continue
		}
		req.Files = append(req.Files, FileResult{Path: f.Path, Pairs: pairs})
		req.Pairs = append(req.Pairs, pairs...)
	}

	if len(req.Pairs) == 0 {
		return nil, diag.ErrNothingToLearn
	}
	return req, nil
}
