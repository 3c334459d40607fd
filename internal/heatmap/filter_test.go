package heatmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/churnmap/internal/heatmap"
)

func statsFor(paths ...string) []heatmap.FileStat {
	files := make([]heatmap.FileStat, 0, len(paths))
	for i, path := range paths {
		files = append(files, heatmap.FileStat{Path: path, Changes: len(paths) - i})
	}

	return files
}

func pathsOf(files []heatmap.FileStat) []string {
	paths := make([]string, 0, len(files))
	for _, file := range files {
		paths = append(paths, file.Path)
	}

	return paths
}

func TestFilter_NoPatterns_KeepsEverything(t *testing.T) {
	t.Parallel()

	files := statsFor("a.go", "vendor/x.go", "docs/readme.md")

	assert.Equal(t, files, heatmap.Filter(files, heatmap.FilterOptions{}))
	assert.True(t, heatmap.FilterOptions{}.IsZero())
}

func TestFilter_IncludeIsAnyOf(t *testing.T) {
	t.Parallel()

	files := statsFor("src/a.go", "docs/b.md", "test/c.go", "README")

	got := heatmap.Filter(files, heatmap.FilterOptions{Include: []string{"src/", "test/"}})

	assert.Equal(t, []string{"src/a.go", "test/c.go"}, pathsOf(got))
}

func TestFilter_ExcludeAfterInclude(t *testing.T) {
	t.Parallel()

	files := statsFor("src/a.go", "src/a_test.go", "docs/b.md")

	got := heatmap.Filter(files, heatmap.FilterOptions{
		Include: []string{"src/"},
		Exclude: []string{"_test"},
	})

	assert.Equal(t, []string{"src/a.go"}, pathsOf(got))
}

func TestFilter_CaseSensitiveLiteral(t *testing.T) {
	t.Parallel()

	files := statsFor("Src/a.go", "src/b.go", "x.go")

	assert.Equal(t, []string{"src/b.go"}, pathsOf(heatmap.Filter(files, heatmap.FilterOptions{Include: []string{"src"}})))
	// Patterns are not globs.
	assert.Empty(t, heatmap.Filter(files, heatmap.FilterOptions{Include: []string{"*.go"}}))
}

func TestFilter_SkipVendor(t *testing.T) {
	t.Parallel()

	files := statsFor("main.go", "vendor/github.com/x/y.go", "node_modules/lib/index.js")

	got := heatmap.Filter(files, heatmap.FilterOptions{SkipVendor: true})

	assert.Equal(t, []string{"main.go"}, pathsOf(got))
}

func TestFilter_SubsetAndIdempotent(t *testing.T) {
	t.Parallel()

	files := statsFor("a/x.go", "a/y.md", "b/x.go", "b/z_test.go", "c.txt")
	opts := heatmap.FilterOptions{Include: []string{"x", "z"}, Exclude: []string{"_test"}}

	once := heatmap.Filter(files, opts)
	twice := heatmap.Filter(once, opts)

	assert.Subset(t, files, once)
	assert.Equal(t, once, twice)
}
