package gitlib_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"
)

// testRepo is a throwaway working tree built with libgit2.
type testRepo struct {
	t      *testing.T
	path   string
	native *git2go.Repository
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()

	dir := t.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return &testRepo{t: t, path: dir, native: repo}
}

func (tr *testRepo) writeFile(name, content string) {
	tr.t.Helper()

	path := filepath.Join(tr.path, name)

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	require.NoError(tr.t, err)

	err = os.WriteFile(path, []byte(content), 0o644)
	require.NoError(tr.t, err)
}

func (tr *testRepo) removeFile(name string) {
	tr.t.Helper()

	err := os.Remove(filepath.Join(tr.path, name))
	require.NoError(tr.t, err)
}

// commitAt stages the whole working tree and commits it as author at when.
func (tr *testRepo) commitAt(author, message string, when time.Time) string {
	tr.t.Helper()

	index, err := tr.native.Index()
	require.NoError(tr.t, err)

	defer index.Free()

	err = index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil)
	require.NoError(tr.t, err)

	err = index.UpdateAll([]string{"*"}, nil)
	require.NoError(tr.t, err)

	err = index.Write()
	require.NoError(tr.t, err)

	treeID, err := index.WriteTree()
	require.NoError(tr.t, err)

	tree, err := tr.native.LookupTree(treeID)
	require.NoError(tr.t, err)

	defer tree.Free()

	sig := &git2go.Signature{Name: author, Email: "dev@example.com", When: when}

	var parents []*git2go.Commit

	head, err := tr.native.Head()
	if err == nil {
		headCommit, lookupErr := tr.native.LookupCommit(head.Target())
		require.NoError(tr.t, lookupErr)

		parents = append(parents, headCommit)

		head.Free()
	}

	oid, err := tr.native.CreateCommit("HEAD", sig, sig, message, tree, parents...)
	require.NoError(tr.t, err)

	for _, parent := range parents {
		parent.Free()
	}

	return oid.String()
}

func (tr *testRepo) commit(message string) string {
	tr.t.Helper()

	return tr.commitAt("Test User", message, time.Now())
}

// seedHistory builds three commits over two files and one binary blob:
//
//	c1 (2024-01-10): add src/a.go (3 lines), add logo.png
//	c2 (2024-02-10, Bob): edit src/a.go (+2 -1), add docs/readme.md (1 line)
//	c3 (2024-03-10): delete docs/readme.md
func seedHistory(t *testing.T) (*testRepo, []string) {
	t.Helper()

	tr := newTestRepo(t)

	tr.writeFile("src/a.go", "one\ntwo\nthree\n")
	tr.writeFile("logo.png", "\x89PNG\x00\x00\x01\x02binary")
	c1 := tr.commitAt("Alice", "initial", time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))

	tr.writeFile("src/a.go", "one\ntwo\nTHREE\nfour\n")
	tr.writeFile("docs/readme.md", "hello\n")
	c2 := tr.commitAt("Bob", "second", time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC))

	tr.removeFile("docs/readme.md")
	c3 := tr.commitAt("Alice", "third", time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))

	return tr, []string{c1, c2, c3}
}
