package polyglot

import "github.com/meza/i18n-typegen/internal/translation"

type Param struct {
	Name string
	// Numeric params only accept numbers; every other param uses the
	// method's interpolation type.
	Numeric bool
}

// Signature is the call shape of one lookup overload.
type Signature struct {
	Path   string
	Params []Param
}

// HasOptions reports whether the overload takes a second options argument.
// Templates without tokens take none at all, not an empty object.
func (signature Signature) HasOptions() bool {
	return len(signature.Params) > 0
}

func Synthesize(entry translation.FlatEntry, tokens Tokens) Signature {
	signature := Signature{Path: entry.Path}
	if len(tokens.Names) == 0 {
		return signature
	}

	signature.Params = make([]Param, 0, len(tokens.Names))
	for _, name := range tokens.Names {
		signature.Params = append(signature.Params, Param{
			Name:    name,
			Numeric: name == SmartCount,
		})
	}
	return signature
}
