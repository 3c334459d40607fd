// Package graph projects a change tree onto the node and edge lists drawn by
// the force-directed view.
package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/churnmap/internal/heatmap"
)

// ErrInvalidMaxFiles is returned when fewer than one file node is requested.
var ErrInvalidMaxFiles = errors.New("max files must be at least 1")

// RootLabel is the label of the root directory node.
const RootLabel = "root"

// Node sizes: a base plus a span scaled by intensity.
const (
	dirBaseSize  = 20
	dirSizeSpan  = 50
	fileBaseSize = 10
	fileSizeSpan = 30
)

// Node is one drawn vertex. IDs are repository paths.
type Node struct {
	ID       string           `json:"id"                 yaml:"id"`
	Label    string           `json:"label"              yaml:"label"`
	Changes  int              `json:"changes"            yaml:"changes"`
	Kind     heatmap.NodeKind `json:"kind"               yaml:"kind"`
	Size     float64          `json:"size"               yaml:"size"`
	Color    string           `json:"color"              yaml:"color"`
	Language string           `json:"language,omitempty" yaml:"language,omitempty"`
}

// Edge links a directory to one of its children.
type Edge struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Graph is the projection handed to renderers. It carries no behavior.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// FileNodes returns the file-kind nodes in order.
func (g *Graph) FileNodes() []Node {
	var files []Node

	for _, node := range g.Nodes {
		if node.Kind == heatmap.KindFile {
			files = append(files, node)
		}
	}

	return files
}

// Project emits every directory of tree, parents first, and the first maxFiles
// entries of files. files is expected in ranking order and is not re-sorted.
// Directories are sized and colored against maxChanges like files are.
func Project(tree *heatmap.Tree, files []heatmap.FileStat, maxChanges, maxFiles int) (*Graph, error) {
	if maxFiles < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxFiles, maxFiles)
	}

	retained := files[:min(maxFiles, len(files))]

	g := &Graph{
		Nodes: make([]Node, 0, tree.DirCount()+len(retained)),
		Edges: make([]Edge, 0, tree.DirCount()-1+len(retained)),
	}

	tree.Root.Walk(func(dir *heatmap.DirectoryNode) {
		g.Nodes = append(g.Nodes, directoryNode(dir, maxChanges))

		for _, child := range dir.Dirs() {
			g.Edges = append(g.Edges, Edge{Source: dir.Path, Target: child.Path})
		}
	})

	for _, file := range retained {
		g.Nodes = append(g.Nodes, fileNode(file, maxChanges))
		g.Edges = append(g.Edges, Edge{Source: heatmap.ParentPath(file.Path), Target: file.Path})
	}

	return g, nil
}

func directoryNode(dir *heatmap.DirectoryNode, maxChanges int) Node {
	intensity := Intensity(dir.TotalChanges, maxChanges)

	label := dir.Name()
	if dir.IsRoot() {
		label = RootLabel
	}

	return Node{
		ID:      dir.Path,
		Label:   label,
		Changes: dir.TotalChanges,
		Kind:    heatmap.KindDirectory,
		Size:    dirBaseSize + intensity*dirSizeSpan,
		Color:   HeatColor(intensity),
	}
}

func fileNode(file heatmap.FileStat, maxChanges int) Node {
	intensity := Intensity(file.Changes, maxChanges)

	return Node{
		ID:       file.Path,
		Label:    baseName(file.Path),
		Changes:  file.Changes,
		Kind:     heatmap.KindFile,
		Size:     fileBaseSize + intensity*fileSizeSpan,
		Color:    HeatColor(intensity),
		Language: Language(file.Path),
	}
}

func baseName(p string) string {
	return p[strings.LastIndex(p, "/")+1:]
}
