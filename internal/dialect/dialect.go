// Package dialect maps a translation library name to the transform that
// produces its declaration files.
package dialect

import (
	"github.com/meza/i18n-typegen/internal/polyglot"
)

type Name string

const (
	Polyglot Name = "polyglot"
)

const Default = Polyglot

// Transform turns the contents of one translation file into declarations.
type Transform func(content []byte) ([]byte, error)

// Options selects a dialect. Polyglot is only read when Name is Polyglot.
type Options struct {
	Name     Name
	Polyglot polyglot.Options
}

// Names lists the registered dialects.
func Names() []Name {
	return []Name{Polyglot}
}

// New builds the transform for opts. An empty name selects Default.
func New(opts Options) (Transform, error) {
	name := opts.Name
	if name == "" {
		name = Default
	}

	switch name {
	case Polyglot:
		transformer, err := polyglot.NewTransformer(opts.Polyglot)
		if err != nil {
			return nil, err
		}
		return transformer.Transform, nil
	default:
		return nil, &UnknownDialectError{Dialect: string(name)}
	}
}
