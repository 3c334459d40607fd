package gitlib_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/churnmap/pkg/gitlib"
)

func requireGit(t *testing.T) {
	t.Helper()

	_, err := exec.LookPath("git")
	if err != nil {
		t.Skip("git binary not available")
	}
}

func TestLogReader_ReadHistory(t *testing.T) {
	t.Parallel()
	requireGit(t)

	tr, commits := seedHistory(t)

	records, err := gitlib.NewLogReader(time.Minute).ReadHistory(context.Background(), tr.path, gitlib.LogOptions{})
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, commits[2], records[0].Commit)
	assert.Equal(t, "docs/readme.md", records[0].Path)
	assert.Equal(t, 1, records[0].Deletions)

	assert.Equal(t, "Bob", records[1].Author)
	assert.Equal(t, "docs/readme.md", records[1].Path)
	assert.Equal(t, "src/a.go", records[2].Path)
	assert.Equal(t, 2, records[2].Insertions)
	assert.Equal(t, 1, records[2].Deletions)

	assert.Equal(t, commits[0], records[3].Commit)
	assert.Equal(t, 3, records[3].Insertions)
	assert.True(t, records[3].Timestamp.Equal(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)))
}

func TestLogReader_SinceUntil(t *testing.T) {
	t.Parallel()
	requireGit(t)

	tr, commits := seedHistory(t)

	records, err := gitlib.NewLogReader(0).ReadHistory(context.Background(), tr.path,
		gitlib.LogOptions{Since: "2024-02-01", Until: "2024-02-28"})
	require.NoError(t, err)
	require.Len(t, records, 2)

	for _, record := range records {
		assert.Equal(t, commits[1], record.Commit)
	}
}

func TestLogReader_NotARepository_ReturnsUnavailable(t *testing.T) {
	t.Parallel()
	requireGit(t)

	_, err := gitlib.NewLogReader(0).ReadHistory(context.Background(), t.TempDir(), gitlib.LogOptions{})
	require.ErrorIs(t, err, gitlib.ErrHistoryUnavailable)
}

func TestLogReader_MissingBinary_ReturnsUnavailable(t *testing.T) {
	t.Parallel()

	reader := &gitlib.LogReader{Binary: "churnmap-no-such-git-binary"}

	_, err := reader.ReadHistory(context.Background(), t.TempDir(), gitlib.LogOptions{})
	require.ErrorIs(t, err, gitlib.ErrHistoryUnavailable)
}

func TestLogReader_Timeout_ReturnsTimeout(t *testing.T) {
	t.Parallel()

	_, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	script := filepath.Join(t.TempDir(), "slow-git")

	err = os.WriteFile(script, []byte("#!/bin/sh\nsleep 5\n"), 0o755)
	require.NoError(t, err)

	reader := &gitlib.LogReader{Binary: script, Timeout: 50 * time.Millisecond}

	_, err = reader.ReadHistory(context.Background(), t.TempDir(), gitlib.LogOptions{})
	require.ErrorIs(t, err, gitlib.ErrHistoryTimeout)
}
