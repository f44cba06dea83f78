// Package gitio provides Git repository I/O operations using go-git.
package gitio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"codelearn/internal/diag"
	"codelearn/internal/udiff"
)

// Repository wraps a go-git repository and its working tree root.
type Repository struct {
	repo *git.Repository
	root string
}

// Open opens the Git repository containing path, searching parent
// directories for .git.
func Open(path string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("opening worktree: %w", err)
	}
	return &Repository{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Root returns the working tree root.
func (r *Repository) Root() string {
	return r.root
}

// ResolveRef resolves a git reference (HEAD, branch name, tag, or commit hash)
// to a commit.
func (r *Repository) ResolveRef(refName string) (*object.Commit, error) {
	if refName == "" || refName == "HEAD" {
		head, err := r.repo.Head()
		if err != nil {
			return nil, fmt.Errorf("resolving HEAD: %w", err)
		}
		return r.commit(head.Hash())
	}

	// Try as a branch first
	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(refName), true)
	if err == nil {
		return r.commit(ref.Hash())
	}

	// Try as a tag
	ref, err = r.repo.Reference(plumbing.NewTagReferenceName(refName), true)
	if err == nil {
		return r.commit(ref.Hash())
	}

	// Fall back to revision syntax (abbreviated hashes, HEAD~1, ...)
	hash, err := r.repo.ResolveRevision(plumbing.Revision(refName))
	if err != nil {
		return nil, fmt.Errorf("resolving ref %q: not a branch, tag, or commit hash", refName)
	}
	return r.commit(*hash)
}

func (r *Repository) commit(hash plumbing.Hash) (*object.Commit, error) {
	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("getting commit: %w", err)
	}
	return commit, nil
}

// ModifiedFiles returns the paths, relative to the root, of files that are
// modified or added in the staging area or the working tree. Untracked and
// deleted files are left out.
func (r *Repository) ModifiedFiles() ([]string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("opening worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("reading status: %w", err)
	}

	var paths []string
	for path, s := range status {
		if s.Worktree == git.Deleted || s.Staging == git.Deleted {
			continue
		}
		if s.Worktree == git.Modified || s.Staging == git.Modified || s.Staging == git.Added {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// FileAt returns the content of path in commit.
func (r *Repository) FileAt(commit *object.Commit, path string) ([]byte, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("getting tree: %w", err)
	}

	f, err := tree.File(filepath.ToSlash(path))
	if err != nil {
		return nil, fmt.Errorf("getting file %s: %w", path, err)
	}

	reader, err := f.Reader()
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return content, nil
}

// WorkingFile returns the current content of path in the working tree.
func (r *Repository) WorkingFile(path string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(path)))
	if err != nil {
		return nil, fmt.Errorf("reading working file %s: %w", path, err)
	}
	return content, nil
}

// Source serves file diffs between a commit and the working tree.
type Source struct {
	repo         *Repository
	commit       *object.Commit
	contextLines int
}

// NewSource resolves ref and returns a Source comparing it with the working
// tree. contextLines is the number of diff context lines.
func NewSource(repo *Repository, ref string, contextLines int) (*Source, error) {
	commit, err := repo.ResolveRef(ref)
	if err != nil {
		return nil, err
	}
	return &Source{repo: repo, commit: commit, contextLines: contextLines}, nil
}

// Commit returns the hash of the commit the working tree is compared with.
func (s *Source) Commit() string {
	return s.commit.Hash.String()
}

// Before returns the content of path at the commit.
func (s *Source) Before(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	content, err := s.repo.FileAt(s.commit, path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return "", fmt.Errorf("%w: %s not in commit %s", diag.ErrMissingContent, path, s.commit.Hash.String()[:7])
		}
		return "", fmt.Errorf("%w: %v", diag.ErrMissingContent, err)
	}
	return string(content), nil
}

// After returns the working tree content of path.
func (s *Source) After(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	content, err := s.repo.WorkingFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", diag.ErrMissingContent, err)
	}
	return string(content), nil
}

// Diff returns the unified diff of path between the commit and the working
// tree. It is empty when the file did not change.
func (s *Source) Diff(ctx context.Context, path string) (string, error) {
	before, err := s.Before(ctx, path)
	if err != nil {
		return "", err
	}
	after, err := s.After(ctx, path)
	if err != nil {
		return "", err
	}
	return udiff.Unified(path, before, after, s.contextLines), nil
}
