package correlate

import (
	"sort"
	"strings"

	"lukechampine.com/blake3"

	"codelearn/internal/parse"
)

type key [32]byte

func keyOf(text string) key {
	return blake3.Sum256([]byte(text))
}

// CandidateSet is a set of statement texts keyed by content hash. Each text
// remembers the position of the first statement that contributed it, so the
// set can be rendered in document order.
type CandidateSet struct {
	index map[key]int
	texts map[key]string
}

// NewCandidateSet returns an empty set.
func NewCandidateSet() *CandidateSet {
	return &CandidateSet{
		index: make(map[key]int),
		texts: make(map[key]string),
	}
}

// Add inserts the text of statement i. It reports false if an identical text
// is already present.
func (s *CandidateSet) Add(i int, text string) bool {
	k := keyOf(text)
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = i
	s.texts[k] = text
	return true
}

// Has reports whether text is in the set.
func (s *CandidateSet) Has(text string) bool {
	_, ok := s.index[keyOf(text)]
	return ok
}

// Len returns the number of distinct texts.
func (s *CandidateSet) Len() int {
	return len(s.index)
}

// Cancel removes every text present in both sets and returns how many were
// removed from each.
func Cancel(before, after *CandidateSet) int {
	var shared []key
	for k := range before.index {
		if _, ok := after.index[k]; ok {
			shared = append(shared, k)
		}
	}
	for _, k := range shared {
		delete(before.index, k)
		delete(before.texts, k)
		delete(after.index, k)
		delete(after.texts, k)
	}
	return len(shared)
}

// Texts returns the texts in document order.
func (s *CandidateSet) Texts() []string {
	keys := make([]key, 0, len(s.index))
	for k := range s.index {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return s.index[keys[i]] < s.index[keys[j]]
	})

	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = s.texts[k]
	}
	return out
}

// Snippet joins the texts in document order with no separator and strips
// leading newlines.
func (s *CandidateSet) Snippet() string {
	return strings.TrimLeft(strings.Join(s.Texts(), ""), "\r\n")
}

// addContaining adds every statement whose text contains fragment.
func (s *CandidateSet) addContaining(stmts []parse.Statement, fragment string) {
	for i, st := range stmts {
		if strings.Contains(st.Text, fragment) {
			s.Add(i, st.Text)
		}
	}
}

// addAtLine adds the statement whose line span contains line.
func (s *CandidateSet) addAtLine(stmts []parse.Statement, line int) {
	i := sort.Search(len(stmts), func(i int) bool {
		return stmts[i].EndLine >= line
	})
	if i < len(stmts) && stmts[i].Contains(line) {
		s.Add(i, stmts[i].Text)
	}
}
