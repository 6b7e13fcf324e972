package polyglot

import "github.com/meza/i18n-typegen/internal/translation"

// Overload is one lookup member of the generated interface.
type Overload struct {
	Method    TranslationMethod
	Signature Signature
}

// DeclarationSet holds everything the renderer prints for one file.
type DeclarationSet struct {
	Names             Names
	Paths             []string
	Shape             translation.Shape
	HeritageClauses   []HeritageClause
	AdditionalMembers []string
	Overloads         []Overload
}

// Assemble combines flattened entries and their signatures into declarations.
// signatures must be index aligned with entries. opts must be resolved.
func Assemble(entries []translation.FlatEntry, signatures []Signature, shape translation.Shape, opts Options) DeclarationSet {
	set := DeclarationSet{
		Names:             opts.Names,
		Paths:             make([]string, 0, len(entries)),
		Shape:             shape,
		HeritageClauses:   opts.HeritageClauses,
		AdditionalMembers: opts.AdditionalMembers,
		Overloads:         make([]Overload, 0, len(signatures)*len(opts.TranslationMethods)),
	}

	for _, entry := range entries {
		set.Paths = append(set.Paths, entry.Path)
	}

	for _, method := range opts.TranslationMethods {
		for _, signature := range signatures {
			set.Overloads = append(set.Overloads, Overload{Method: method, Signature: signature})
		}
	}

	return set
}
