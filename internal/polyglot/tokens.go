package polyglot

import (
	"regexp"
	"strings"
)

// Tokens are the interpolation names found in one template, in first seen
// order and without duplicates. When Plural is set SmartCount is appended
// unless the template already interpolates it.
type Tokens struct {
	Names  []string
	Plural bool
}

// Extractor finds interpolation tokens between a prefix and a suffix.
type Extractor struct {
	pattern *regexp.Regexp
}

// NewExtractor fails when either delimiter is the plural separator.
func NewExtractor(prefix string, suffix string) (*Extractor, error) {
	if prefix == PluralSeparator {
		return nil, reservedDelimiterError("prefix", prefix)
	}
	if suffix == PluralSeparator {
		return nil, reservedDelimiterError("suffix", suffix)
	}

	// A token never spans a line terminator.
	pattern := regexp.MustCompile(regexp.QuoteMeta(prefix) + `([^\n\r\x{2028}\x{2029}]*?)` + regexp.QuoteMeta(suffix))

	return &Extractor{pattern: pattern}, nil
}

func (extractor *Extractor) Extract(template string) Tokens {
	tokens := Tokens{}
	seen := make(map[string]struct{})

	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		tokens.Names = append(tokens.Names, name)
	}

	for _, match := range extractor.pattern.FindAllStringSubmatch(template, -1) {
		add(match[1])
	}

	if strings.Contains(template, PluralSeparator) {
		tokens.Plural = true
		add(SmartCount)
	}

	return tokens
}
