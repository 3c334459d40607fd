package gitlib

import (
	"context"
	"fmt"
	"time"

	git2go "github.com/libgit2/git2go/v34"
)

// NativeReader reads history through libgit2 without spawning git. It
// produces the same records as LogReader: merge commits contribute nothing,
// root commits are diffed against the empty tree and binary files are skipped.
type NativeReader struct{}

// timeWindow holds the parsed since/until bounds; zero values are open.
type timeWindow struct {
	since time.Time
	until time.Time
}

func (w timeWindow) contains(t time.Time) bool {
	if !w.since.IsZero() && t.Before(w.since) {
		return false
	}

	if !w.until.IsZero() && t.After(w.until) {
		return false
	}

	return true
}

// ReadHistory walks HEAD newest first and diffs every non-merge commit against its first parent.
func (NativeReader) ReadHistory(ctx context.Context, repoPath string, opts LogOptions) ([]ChangeRecord, error) {
	window, err := parseWindow(opts)
	if err != nil {
		return nil, err
	}

	repo, err := OpenRepository(repoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHistoryUnavailable, err)
	}
	defer repo.Free()

	walk, err := repo.repo.Walk()
	if err != nil {
		return nil, fmt.Errorf("%w: create revwalk: %w", ErrHistoryUnavailable, err)
	}
	defer walk.Free()

	err = walk.PushHead()
	if err != nil {
		return nil, fmt.Errorf("%w: push HEAD: %w", ErrHistoryUnavailable, err)
	}

	walk.Sorting(git2go.SortTime | git2go.SortTopological)

	var records []ChangeRecord

	oid := new(git2go.Oid)

	for {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrHistoryUnavailable, ctx.Err())
		}

		nextErr := walk.Next(oid)
		if git2go.IsErrorCode(nextErr, git2go.ErrorCodeIterOver) {
			break
		}

		if nextErr != nil {
			return nil, fmt.Errorf("%w: revwalk: %w", ErrHistoryUnavailable, nextErr)
		}

		commitRecords, commitErr := readCommit(repo.repo, oid, window)
		if commitErr != nil {
			return nil, fmt.Errorf("%w: commit %s: %w", ErrHistoryUnavailable, oid.String(), commitErr)
		}

		records = append(records, commitRecords...)
	}

	return records, nil
}

func parseWindow(opts LogOptions) (timeWindow, error) {
	var window timeWindow

	if opts.Since != "" {
		since, err := ParseTime(opts.Since)
		if err != nil {
			return timeWindow{}, fmt.Errorf("invalid since: %w", err)
		}

		window.since = since
	}

	if opts.Until != "" {
		until, err := ParseTime(opts.Until)
		if err != nil {
			return timeWindow{}, fmt.Errorf("invalid until: %w", err)
		}

		window.until = until
	}

	return window, nil
}

func readCommit(repo *git2go.Repository, oid *git2go.Oid, window timeWindow) ([]ChangeRecord, error) {
	commit, err := repo.LookupCommit(oid)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	defer commit.Free()

	if commit.ParentCount() > 1 || !window.contains(commit.Committer().When) {
		return nil, nil
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree: %w", err)
	}
	defer tree.Free()

	var parentTree *git2go.Tree

	if commit.ParentCount() == 1 {
		parent := commit.Parent(0)
		if parent == nil {
			return nil, ErrParentNotFound
		}

		parentTree, err = parent.Tree()
		parent.Free()

		if err != nil {
			return nil, fmt.Errorf("parent tree: %w", err)
		}
		defer parentTree.Free()
	}

	diffOpts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("diff options: %w", err)
	}

	diff, err := repo.DiffTreeToTree(parentTree, tree, &diffOpts)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	defer diff.Free() //nolint:errcheck // Free errors are not actionable.

	author := commit.Author()
	base := ChangeRecord{Commit: oid.String(), Author: author.Name, Timestamp: author.When}

	return countLines(diff, base)
}

// countLines turns each non-binary delta of diff into a record with its added and deleted line counts.
func countLines(diff *git2go.Diff, base ChangeRecord) ([]ChangeRecord, error) {
	var (
		records []ChangeRecord
		binary  []bool
	)

	err := diff.ForEach(func(delta git2go.DiffDelta, _ float64) (git2go.DiffForEachHunkCallback, error) {
		record := base

		record.Path = delta.NewFile.Path
		if record.Path == "" {
			record.Path = delta.OldFile.Path
		}

		records = append(records, record)
		binary = append(binary, delta.Flags&git2go.DiffFlagBinary != 0)
		current := &records[len(records)-1]

		return func(_ git2go.DiffHunk) (git2go.DiffForEachLineCallback, error) {
			return func(line git2go.DiffLine) error {
				switch line.Origin {
				case git2go.DiffLineAddition:
					current.Insertions++
				case git2go.DiffLineDeletion:
					current.Deletions++
				case git2go.DiffLineContext,
					git2go.DiffLineContextEOFNL,
					git2go.DiffLineAddEOFNL,
					git2go.DiffLineDelEOFNL,
					git2go.DiffLineFileHdr,
					git2go.DiffLineHunkHdr,
					git2go.DiffLineBinary:
				}

				return nil
			}, nil
		}, nil
	}, git2go.DiffDetailLines)
	if err != nil {
		return nil, fmt.Errorf("diff foreach: %w", err)
	}

	text := records[:0]

	for i, record := range records {
		if !binary[i] {
			text = append(text, record)
		}
	}

	return text, nil
}
