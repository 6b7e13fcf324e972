// Package translation models nested translation dictionaries and flattens
// them into dotted lookup paths.
package translation

type Kind int

const (
	LeafKind Kind = iota
	BranchKind
)

func (kind Kind) String() string {
	switch kind {
	case LeafKind:
		return "leaf"
	case BranchKind:
		return "branch"
	default:
		return "unknown"
	}
}

// Node is either a leaf template or a nested tree.
type Node struct {
	kind     Kind
	template string
	subtree  Tree
}

func Leaf(template string) Node {
	return Node{kind: LeafKind, template: template}
}

func Branch(tree Tree) Node {
	return Node{kind: BranchKind, subtree: tree}
}

func (node Node) Kind() Kind {
	return node.kind
}

// Template returns the leaf template. It is empty for branches.
func (node Node) Template() string {
	return node.template
}

// Subtree returns the nested tree. It is empty for leaves.
func (node Node) Subtree() Tree {
	return node.subtree
}

type Member struct {
	Key  string
	Node Node
}

// Tree keeps its members in document order.
type Tree struct {
	Members []Member
}

func NewTree(members ...Member) Tree {
	return Tree{Members: members}
}

func (tree Tree) Len() int {
	return len(tree.Members)
}

// LeafCount returns the number of leaf templates in the whole tree.
func (tree Tree) LeafCount() int {
	count := 0
	for _, member := range tree.Members {
		switch member.Node.Kind() {
		case LeafKind:
			count++
		case BranchKind:
			count += member.Node.Subtree().LeafCount()
		}
	}
	return count
}
