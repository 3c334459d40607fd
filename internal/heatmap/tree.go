package heatmap

import (
	"fmt"
	"strings"
)

// NodeKind tags the two kinds of tree node.
type NodeKind string

// Node kinds.
const (
	KindDirectory NodeKind = "directory"
	KindFile      NodeKind = "file"
)

// Node is a child of a DirectoryNode.
type Node interface {
	Kind() NodeKind
	NodePath() string
	// Weight is the change count: a file's own, or the sum over a directory's files.
	Weight() int
}

// FileNode is a leaf of the tree.
type FileNode struct {
	Stat   FileStat
	parent *DirectoryNode
}

// Kind returns KindFile.
func (f *FileNode) Kind() NodeKind { return KindFile }

// NodePath returns the file path.
func (f *FileNode) NodePath() string { return f.Stat.Path }

// Weight returns the file's change count.
func (f *FileNode) Weight() int { return f.Stat.Changes }

// Parent returns the directory holding the file.
func (f *FileNode) Parent() *DirectoryNode { return f.parent }

// DirectoryNode is an inner node of the tree. TotalChanges and FileCount
// cover every file below the directory, at any depth.
type DirectoryNode struct {
	Path         string
	TotalChanges int
	FileCount    int

	parent   *DirectoryNode
	children []Node
	dirs     map[string]*DirectoryNode
}

func newDirectory(path string, parent *DirectoryNode) *DirectoryNode {
	return &DirectoryNode{
		Path:   path,
		parent: parent,
		dirs:   make(map[string]*DirectoryNode),
	}
}

// Kind returns KindDirectory.
func (d *DirectoryNode) Kind() NodeKind { return KindDirectory }

// NodePath returns the directory path.
func (d *DirectoryNode) NodePath() string { return d.Path }

// Weight returns the cumulative change count.
func (d *DirectoryNode) Weight() int { return d.TotalChanges }

// Parent returns the enclosing directory, or nil for the root.
func (d *DirectoryNode) Parent() *DirectoryNode { return d.parent }

// IsRoot reports whether d is the tree root.
func (d *DirectoryNode) IsRoot() bool { return d.parent == nil }

// Name returns the last path segment.
func (d *DirectoryNode) Name() string { return baseName(d.Path) }

// Children returns files and directories in insertion order.
func (d *DirectoryNode) Children() []Node { return d.children }

// Dirs returns the child directories in insertion order.
func (d *DirectoryNode) Dirs() []*DirectoryNode {
	dirs := make([]*DirectoryNode, 0, len(d.dirs))

	for _, child := range d.children {
		if dir, ok := child.(*DirectoryNode); ok {
			dirs = append(dirs, dir)
		}
	}

	return dirs
}

// Files returns the files directly inside d in insertion order.
func (d *DirectoryNode) Files() []*FileNode {
	files := make([]*FileNode, 0, len(d.children)-len(d.dirs))

	for _, child := range d.children {
		if file, ok := child.(*FileNode); ok {
			files = append(files, file)
		}
	}

	return files
}

// Walk calls fn for d and every directory below it, parents before children.
func (d *DirectoryNode) Walk(fn func(*DirectoryNode)) {
	fn(d)

	for _, child := range d.children {
		if dir, ok := child.(*DirectoryNode); ok {
			dir.Walk(fn)
		}
	}
}

// Tree is the directory hierarchy of a set of files.
type Tree struct {
	Root *DirectoryNode

	dirs  map[string]*DirectoryNode
	files map[string]*FileNode
}

// Dir returns the directory with the given path.
func (t *Tree) Dir(path string) (*DirectoryNode, bool) {
	dir, ok := t.dirs[path]

	return dir, ok
}

// File returns the file with the given path.
func (t *Tree) File(path string) (*FileNode, bool) {
	file, ok := t.files[path]

	return file, ok
}

// DirCount returns the number of directories including the root.
func (t *Tree) DirCount() int { return len(t.dirs) }

// BuildTree arranges files into a directory tree. Each file is counted once in
// its parent directory and in every ancestor up to the root. Directories are
// created on first use and children keep the order of files.
func BuildTree(files []FileStat) (*Tree, error) {
	root := newDirectory(RootPath, nil)
	tree := &Tree{
		Root:  root,
		dirs:  map[string]*DirectoryNode{RootPath: root},
		files: make(map[string]*FileNode, len(files)),
	}

	for _, stat := range files {
		err := tree.add(stat)
		if err != nil {
			return nil, err
		}
	}

	// The incremental root totals must agree with the file list; the list wins.
	root.TotalChanges = 0
	root.FileCount = len(files)

	for _, stat := range files {
		root.TotalChanges += stat.Changes
	}

	return tree, nil
}

func (t *Tree) add(stat FileStat) error {
	if _, isDir := t.dirs[stat.Path]; isDir {
		return fmt.Errorf("%w: %s", ErrPathCollision, stat.Path)
	}

	if _, dup := t.files[stat.Path]; dup {
		return fmt.Errorf("%w: %s listed twice", ErrPathCollision, stat.Path)
	}

	parent, err := t.ensureDir(ParentPath(stat.Path))
	if err != nil {
		return err
	}

	file := &FileNode{Stat: stat, parent: parent}
	parent.children = append(parent.children, file)
	t.files[stat.Path] = file

	for dir := parent; dir != nil; dir = dir.parent {
		dir.TotalChanges += stat.Changes
		dir.FileCount++
	}

	return nil
}

func (t *Tree) ensureDir(path string) (*DirectoryNode, error) {
	if dir, ok := t.dirs[path]; ok {
		return dir, nil
	}

	if _, isFile := t.files[path]; isFile {
		return nil, fmt.Errorf("%w: %s", ErrPathCollision, path)
	}

	parent, err := t.ensureDir(ParentPath(path))
	if err != nil {
		return nil, err
	}

	dir := newDirectory(path, parent)
	parent.children = append(parent.children, dir)
	parent.dirs[path] = dir
	t.dirs[path] = dir

	return dir, nil
}

// ParentPath returns the text before the last '/' of path, or RootPath when
// there is none.
func ParentPath(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return RootPath
	}

	return path[:idx]
}

func baseName(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}
