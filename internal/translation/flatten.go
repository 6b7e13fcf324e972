package translation

import "strings"

const PathSeparator = "."

// FlatEntry is one leaf template addressed by its dotted path.
type FlatEntry struct {
	Path     string
	Template string
}

// Shape mirrors a Tree with every leaf replaced by the string type.
type Shape struct {
	Members []ShapeMember
}

// ShapeMember holds either a nested shape or, when Nested is nil, a string leaf.
type ShapeMember struct {
	Key    string
	Nested *Shape
}

func (member ShapeMember) IsLeaf() bool {
	return member.Nested == nil
}

// Flatten walks the tree once and returns its leaves in document order
// together with the mirrored shape.
func Flatten(tree Tree) ([]FlatEntry, Shape) {
	entries := make([]FlatEntry, 0, tree.LeafCount())
	shape := flatten(tree, nil, &entries)
	return entries, shape
}

func flatten(tree Tree, parents []string, entries *[]FlatEntry) Shape {
	shape := Shape{Members: make([]ShapeMember, 0, tree.Len())}

	for _, member := range tree.Members {
		path := append(parents[:len(parents):len(parents)], member.Key)

		switch member.Node.Kind() {
		case BranchKind:
			nested := flatten(member.Node.Subtree(), path, entries)
			shape.Members = append(shape.Members, ShapeMember{Key: member.Key, Nested: &nested})
		case LeafKind:
			*entries = append(*entries, FlatEntry{
				Path:     strings.Join(path, PathSeparator),
				Template: member.Node.Template(),
			})
			shape.Members = append(shape.Members, ShapeMember{Key: member.Key})
		}
	}

	return shape
}
