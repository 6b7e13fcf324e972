// Package polyglot generates TypeScript declarations for node-polyglot
// translation files.
package polyglot

const (
	DefaultPrefix = "%{"
	DefaultSuffix = "}"

	// PluralSeparator splits the singular and plural forms of a template.
	PluralSeparator = "||||"
	// SmartCount is the option polyglot reads to pick a plural form.
	SmartCount = "smart_count"
)

type Names struct {
	Phrase   string `toml:"phrase"`
	Phrases  string `toml:"phrases"`
	Polyglot string `toml:"polyglot"`
}

// HeritageClause renders as "<Token> <Types joined by comma>".
type HeritageClause struct {
	Token string   `toml:"token"`
	Types []string `toml:"types"`
}

// TranslationMethod describes one lookup operation on the generated interface.
// ReturnType and InterpolationParamType are printed verbatim.
type TranslationMethod struct {
	Name                   string `toml:"name"`
	ReturnType             string `toml:"return_type"`
	InterpolationParamType string `toml:"interpolation_param_type"`
}

// Options configures a Transformer. Empty strings fall back to the defaults.
// A nil HeritageClauses uses the default clause while an empty non-nil slice
// declares a standalone interface. A nil or empty TranslationMethods uses the
// default t method.
type Options struct {
	Names              Names
	Prefix             string
	Suffix             string
	HeritageClauses    []HeritageClause
	AdditionalMembers  []string
	TranslationMethods []TranslationMethod
}

func DefaultNames() Names {
	return Names{
		Phrase:   "Phrase",
		Phrases:  "Phrases",
		Polyglot: "Polyglot",
	}
}

func DefaultHeritageClauses() []HeritageClause {
	return []HeritageClause{
		{
			Token: "extends",
			Types: []string{"Omit<P, 'extend' | 't' | 'replace' | 'unset'>"},
		},
	}
}

func DefaultTranslationMethod() TranslationMethod {
	return TranslationMethod{
		Name:                   "t",
		ReturnType:             "string",
		InterpolationParamType: "string | number",
	}
}

func DefaultOptions() Options {
	return Options{
		Names:              DefaultNames(),
		Prefix:             DefaultPrefix,
		Suffix:             DefaultSuffix,
		HeritageClauses:    DefaultHeritageClauses(),
		AdditionalMembers:  []string{},
		TranslationMethods: []TranslationMethod{DefaultTranslationMethod()},
	}
}

// Resolved returns a copy with every unset field replaced by its default.
func (opts Options) Resolved() Options {
	defaults := DefaultOptions()
	resolved := opts

	if resolved.Names.Phrase == "" {
		resolved.Names.Phrase = defaults.Names.Phrase
	}
	if resolved.Names.Phrases == "" {
		resolved.Names.Phrases = defaults.Names.Phrases
	}
	if resolved.Names.Polyglot == "" {
		resolved.Names.Polyglot = defaults.Names.Polyglot
	}
	if resolved.Prefix == "" {
		resolved.Prefix = defaults.Prefix
	}
	if resolved.Suffix == "" {
		resolved.Suffix = defaults.Suffix
	}
	if resolved.HeritageClauses == nil {
		resolved.HeritageClauses = defaults.HeritageClauses
	}
	if resolved.AdditionalMembers == nil {
		resolved.AdditionalMembers = defaults.AdditionalMembers
	}

	methods := make([]TranslationMethod, 0, len(resolved.TranslationMethods))
	for _, method := range resolved.TranslationMethods {
		methods = append(methods, method.resolved())
	}
	if len(methods) == 0 {
		methods = defaults.TranslationMethods
	}
	resolved.TranslationMethods = methods

	return resolved
}

func (method TranslationMethod) resolved() TranslationMethod {
	defaults := DefaultTranslationMethod()
	if method.Name == "" {
		method.Name = defaults.Name
	}
	if method.ReturnType == "" {
		method.ReturnType = defaults.ReturnType
	}
	if method.InterpolationParamType == "" {
		method.InterpolationParamType = defaults.InterpolationParamType
	}
	return method
}
