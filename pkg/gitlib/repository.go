package gitlib

import (
	"context"
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// Repository wraps a libgit2 repository.
type Repository struct {
	repo *git2go.Repository
	path string
}

// OpenRepository opens the repository containing path. Parent directories are
// searched the same way `git rev-parse --git-dir` does.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepositoryExtended(path, 0, "")
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo, path: path}, nil
}

// Path returns the path the repository was opened with.
func (r *Repository) Path() string {
	return r.path
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// Validator probes whether a path is a git working tree.
type Validator struct{}

// Validate returns ErrInvalidRepository when path is not inside a working tree.
// Bare repositories are rejected as they have no files to chart.
func (Validator) Validate(_ context.Context, path string) error {
	repo, err := OpenRepository(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRepository, path)
	}
	defer repo.Free()

	if repo.repo.IsBare() {
		return fmt.Errorf("%w: %s is a bare repository", ErrInvalidRepository, path)
	}

	return nil
}
