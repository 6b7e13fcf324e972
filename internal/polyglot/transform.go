package polyglot

import (
	"github.com/meza/i18n-typegen/internal/translation"
	"github.com/meza/i18n-typegen/internal/tsliteral"
)

// Transformer turns translation JSON into a declaration file. It holds no
// mutable state and is safe for concurrent use.
type Transformer struct {
	opts      Options
	extractor *Extractor
}

// NewTransformer validates opts once; every error it returns is a
// *ConfigurationError.
func NewTransformer(opts Options) (*Transformer, error) {
	resolved := opts.Resolved()
	if err := validate(resolved); err != nil {
		return nil, err
	}

	extractor, err := NewExtractor(resolved.Prefix, resolved.Suffix)
	if err != nil {
		return nil, err
	}

	return &Transformer{
		opts:      resolved,
		extractor: extractor,
	}, nil
}

// Transform parses content and renders its declarations. Nothing is returned
// alongside an error.
func (transformer *Transformer) Transform(content []byte) ([]byte, error) {
	tree, err := translation.Parse(content)
	if err != nil {
		return nil, err
	}

	return Render(transformer.Generate(tree)), nil
}

// Generate builds the declaration set for an already parsed tree.
func (transformer *Transformer) Generate(tree translation.Tree) DeclarationSet {
	entries, shape := translation.Flatten(tree)

	signatures := make([]Signature, 0, len(entries))
	for _, entry := range entries {
		signatures = append(signatures, Synthesize(entry, transformer.extractor.Extract(entry.Template)))
	}

	return Assemble(entries, signatures, shape, transformer.opts)
}

// Generate is a one-shot helper around NewTransformer and Transformer.Generate.
func Generate(tree translation.Tree, opts Options) (DeclarationSet, error) {
	transformer, err := NewTransformer(opts)
	if err != nil {
		return DeclarationSet{}, err
	}
	return transformer.Generate(tree), nil
}

func validate(opts Options) error {
	if opts.Prefix == PluralSeparator {
		return reservedDelimiterError("prefix", opts.Prefix)
	}
	if opts.Suffix == PluralSeparator {
		return reservedDelimiterError("suffix", opts.Suffix)
	}

	names := map[string]string{
		"names.phrase":   opts.Names.Phrase,
		"names.phrases":  opts.Names.Phrases,
		"names.polyglot": opts.Names.Polyglot,
	}
	for _, field := range []string{"names.phrase", "names.phrases", "names.polyglot"} {
		if !tsliteral.IsIdentifier(names[field]) {
			return invalidNameError(field, names[field])
		}
	}

	for _, method := range opts.TranslationMethods {
		if !tsliteral.IsIdentifier(method.Name) {
			return invalidNameError("translation_methods.name", method.Name)
		}
	}

	return nil
}
