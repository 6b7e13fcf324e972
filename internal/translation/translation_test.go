package translation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKeepsDocumentOrder(t *testing.T) {
	tree, err := Parse([]byte(`{"zebra":"z","apple":"a","mango":{"b":"1","a":"2"}}`))
	assert.NoError(t, err)

	assert.Equal(t, 3, tree.Len())
	assert.Equal(t, "zebra", tree.Members[0].Key)
	assert.Equal(t, "apple", tree.Members[1].Key)
	assert.Equal(t, "mango", tree.Members[2].Key)
	assert.Equal(t, BranchKind, tree.Members[2].Node.Kind())

	nested := tree.Members[2].Node.Subtree()
	assert.Equal(t, "b", nested.Members[0].Key)
	assert.Equal(t, "a", nested.Members[1].Key)
}

func TestParseUnescapesKeysAndTemplates(t *testing.T) {
	tree, err := Parse([]byte(`{"#funky-\"name'":"with %{fun#\"y'arg}","é":"café"}`))
	assert.NoError(t, err)

	assert.Equal(t, `#funky-"name'`, tree.Members[0].Key)
	assert.Equal(t, `with %{fun#"y'arg}`, tree.Members[0].Node.Template())
	assert.Equal(t, "é", tree.Members[1].Key)
	assert.Equal(t, "café", tree.Members[1].Node.Template())
}

func TestParseDuplicateKeyKeepsFirstPositionAndLastValue(t *testing.T) {
	tree, err := Parse([]byte(`{"a":"first","b":"b","a":"last"}`))
	assert.NoError(t, err)

	assert.Equal(t, 2, tree.Len())
	assert.Equal(t, "a", tree.Members[0].Key)
	assert.Equal(t, "last", tree.Members[0].Node.Template())
}

func TestParseDuplicateKeyOverridesInvalidValue(t *testing.T) {
	tree, err := Parse([]byte(`{"a":1,"a":"fine"}`))
	assert.NoError(t, err)
	assert.Equal(t, "fine", tree.Members[0].Node.Template())
}

func TestParseRejectsNonObjectDocuments(t *testing.T) {
	tests := []struct {
		input string
		kind  string
	}{
		{input: `"hello"`, kind: "string"},
		{input: `[]`, kind: "array"},
		{input: `null`, kind: "null"},
		{input: `42`, kind: "number"},
		{input: `true`, kind: "boolean"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			var shapeErr *InputShapeError
			assert.True(t, errors.As(err, &shapeErr))
			assert.Equal(t, "", shapeErr.Path)
			assert.Equal(t, tt.kind, shapeErr.Kind)
			assert.Equal(t, "Unexpected translation file type: "+tt.kind, err.Error())
		})
	}
}

func TestParseRejectsNonStringLeavesWithPath(t *testing.T) {
	tests := []struct {
		input string
		path  string
		kind  string
	}{
		{input: `{"count":1}`, path: "count", kind: "number"},
		{input: `{"deep":{"flag":false}}`, path: "deep.flag", kind: "boolean"},
		{input: `{"deep":{"deeper":{"list":["a"]}}}`, path: "deep.deeper.list", kind: "array"},
		{input: `{"ok":"fine","missing":null}`, path: "missing", kind: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			assert.ErrorIs(t, err, &InputShapeError{Path: tt.path, Kind: tt.kind})
			assert.Equal(t, fmt.Sprintf("Unexpected type %s in translations at %s", tt.kind, tt.path), err.Error())
		})
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"hello":`))
	var syntaxErr *InputSyntaxError
	assert.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, 9, syntaxErr.Size)
}

func TestFlattenSimple(t *testing.T) {
	tree, err := Parse([]byte(`{"hello":"World"}`))
	assert.NoError(t, err)

	entries, shape := Flatten(tree)
	assert.Equal(t, []FlatEntry{{Path: "hello", Template: "World"}}, entries)
	assert.Equal(t, Shape{Members: []ShapeMember{{Key: "hello"}}}, shape)
	assert.True(t, shape.Members[0].IsLeaf())
}

func TestFlattenNested(t *testing.T) {
	tree, err := Parse([]byte(`{"hello":"world","deep":{"deep":{"prop":"yay %{with_arg}"},"and":"more"}}`))
	assert.NoError(t, err)

	entries, shape := Flatten(tree)
	assert.Equal(t, []FlatEntry{
		{Path: "hello", Template: "world"},
		{Path: "deep.deep.prop", Template: "yay %{with_arg}"},
		{Path: "deep.and", Template: "more"},
	}, entries)

	assert.Len(t, shape.Members, 2)
	deep := shape.Members[1]
	assert.False(t, deep.IsLeaf())
	assert.Equal(t, "deep", deep.Key)
	assert.Equal(t, "deep", deep.Nested.Members[0].Key)
	assert.Equal(t, "prop", deep.Nested.Members[0].Nested.Members[0].Key)
	assert.Equal(t, "and", deep.Nested.Members[1].Key)
}

func TestFlattenEmptyBranchKeepsShapeMember(t *testing.T) {
	tree, err := Parse([]byte(`{"empty":{}}`))
	assert.NoError(t, err)

	entries, shape := Flatten(tree)
	assert.Empty(t, entries)
	assert.Len(t, shape.Members, 1)
	assert.NotNil(t, shape.Members[0].Nested)
	assert.Empty(t, shape.Members[0].Nested.Members)
}

func TestFlattenPathCountMatchesLeafCount(t *testing.T) {
	tree := NewTree(
		Member{Key: "a", Node: Leaf("1")},
		Member{Key: "b", Node: Branch(NewTree(
			Member{Key: "c", Node: Leaf("2")},
			Member{Key: "d", Node: Branch(NewTree(
				Member{Key: "e", Node: Leaf("3")},
				Member{Key: "f", Node: Leaf("4")},
			))},
		))},
		Member{Key: "g", Node: Branch(NewTree())},
	)

	entries, _ := Flatten(tree)
	assert.Equal(t, tree.LeafCount(), len(entries))
	assert.Equal(t, 4, len(entries))

	seen := make(map[string]bool)
	for _, entry := range entries {
		assert.False(t, seen[entry.Path], "duplicate path %s", entry.Path)
		seen[entry.Path] = true
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "leaf", LeafKind.String())
	assert.Equal(t, "branch", BranchKind.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
