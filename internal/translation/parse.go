package translation

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Parse decodes a JSON document into a Tree, keeping key order. A repeated key
// keeps its first position and takes the last value, like a JSON object parse.
func Parse(data []byte) (Tree, error) {
	if !gjson.ValidBytes(data) {
		return Tree{}, &InputSyntaxError{Size: len(data)}
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Tree{}, &InputShapeError{Kind: kindOf(root)}
	}

	return parseObject(root, nil)
}

func parseObject(object gjson.Result, parents []string) (Tree, error) {
	var keys []string
	values := make(map[string]gjson.Result)
	object.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if _, seen := values[name]; !seen {
			keys = append(keys, name)
		}
		values[name] = value
		return true
	})

	tree := Tree{Members: make([]Member, 0, len(keys))}
	for _, name := range keys {
		value := values[name]
		path := append(parents[:len(parents):len(parents)], name)

		switch {
		case value.Type == gjson.String:
			tree.Members = append(tree.Members, Member{Key: name, Node: Leaf(value.String())})
		case value.IsObject():
			subtree, err := parseObject(value, path)
			if err != nil {
				return Tree{}, err
			}
			tree.Members = append(tree.Members, Member{Key: name, Node: Branch(subtree)})
		default:
			return Tree{}, &InputShapeError{Path: strings.Join(path, "."), Kind: kindOf(value)}
		}
	}

	return tree, nil
}

func kindOf(value gjson.Result) string {
	switch value.Type {
	case gjson.Null:
		return "null"
	case gjson.False, gjson.True:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	case gjson.JSON:
		if value.IsArray() {
			return "array"
		}
		return "object"
	default:
		return "undefined"
	}
}
