package polyglot

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"

	"github.com/meza/i18n-typegen/internal/translation"
)

const prelude = `import type P from 'node-polyglot';
type DeepPartial<T> = {
    [P in keyof T]?: DeepPartial<T[P]>;
};
`

const defaultAdmin = `export interface Polyglot extends Omit<P, 'extend' | 't' | 'replace' | 'unset'> {
    extend(phrases: DeepPartial<Phrases>): void;
    replace(phrases: Phrases): void;
    unset(phrases: Phrase | DeepPartial<Phrases>): void;
`

func transform(t *testing.T, opts Options, input string) string {
	t.Helper()
	transformer, err := NewTransformer(opts)
	assert.NoError(t, err)

	out, err := transformer.Transform([]byte(input))
	assert.NoError(t, err)
	return string(out)
}

func TestTransformSimplest(t *testing.T) {
	out := transform(t, Options{}, `{"hello":"World"}`)

	assert.Equal(t, prelude+`export type Phrase = 'hello';
export type Phrases = {
    hello: string;
};
`+defaultAdmin+`    t(phrase: 'hello'): string;
}
`, out)
}

func TestTransformNested(t *testing.T) {
	out := transform(t, Options{}, `{"hello":{"cruel":"World"}}`)

	assert.Equal(t, prelude+`export type Phrase = 'hello.cruel';
export type Phrases = {
    hello: {
        cruel: string;
    };
};
`+defaultAdmin+`    t(phrase: 'hello.cruel'): string;
}
`, out)
}

func TestTransformInterpolation(t *testing.T) {
	out := transform(t, Options{}, `{"hello":"Hello %{thing}"}`)

	assert.Equal(t, prelude+`export type Phrase = 'hello';
export type Phrases = {
    hello: string;
};
`+defaultAdmin+`    t(phrase: 'hello', options: {
        thing: string | number;
    }): string;
}
`, out)
}

func TestTransformSmartCountAndInterpolation(t *testing.T) {
	out := transform(t, Options{}, `{"hello":"Hello %{name} |||| Multi-hello %{name}"}`)

	assert.Equal(t, prelude+`export type Phrase = 'hello';
export type Phrases = {
    hello: string;
};
`+defaultAdmin+`    t(phrase: 'hello', options: {
        name: string | number;
        smart_count: number;
    }): string;
}
`, out)
}

func TestTransformAllTogetherNow(t *testing.T) {
	input := `{"hello":"world","#funky-\"name'":"with %{fun#\"y'arg}","deep":{"deep":{"prop":"yay %{with_arg}"},"and":"Hello %{name} |||| Multi-hello %{name}"}}`
	out := transform(t, Options{}, input)

	assert.Equal(t, prelude+`export type Phrase = 'hello' | '#funky-"name\'' | 'deep.deep.prop' | 'deep.and';
export type Phrases = {
    hello: string;
    ['#funky-"name\'']: string;
    deep: {
        deep: {
            prop: string;
        };
        and: string;
    };
};
`+defaultAdmin+`    t(phrase: 'hello'): string;
    t(phrase: '#funky-"name\'', options: {
        ['fun#"y\'arg']: string | number;
    }): string;
    t(phrase: 'deep.deep.prop', options: {
        with_arg: string | number;
    }): string;
    t(phrase: 'deep.and', options: {
        name: string | number;
        smart_count: number;
    }): string;
}
`, out)
}

func TestTransformCustomOptions(t *testing.T) {
	opts := Options{
		Names: Names{
			Phrase:   "MyPhrase",
			Phrases:  "MyPhrases",
			Polyglot: "MyPolyglot",
		},
		Prefix: "((",
		Suffix: "))",
		TranslationMethods: []TranslationMethod{
			{Name: "typs", ReturnType: `"ok"`, InterpolationParamType: `"yay"`},
		},
		HeritageClauses:   []HeritageClause{},
		AdditionalMembers: []string{"readonly _test: number;"},
	}
	out := transform(t, opts, `{"hello":"Hello ((name))"}`)

	assert.Equal(t, prelude+`export type MyPhrase = 'hello';
export type MyPhrases = {
    hello: string;
};
export interface MyPolyglot {
    readonly _test: number;
    extend(phrases: DeepPartial<MyPhrases>): void;
    replace(phrases: MyPhrases): void;
    unset(phrases: MyPhrase | DeepPartial<MyPhrases>): void;
    typs(phrase: 'hello', options: {
        name: "yay";
    }): "ok";
}
`, out)
}

func TestTransformDelimiterMismatchYieldsNoOptions(t *testing.T) {
	out := transform(t, Options{Prefix: "((", Suffix: "))"}, `{"a":"Hello %{name}","b":"Hello ((name))"}`)

	assert.Contains(t, out, "    t(phrase: 'a'): string;\n")
	assert.Contains(t, out, "    t(phrase: 'b', options: {\n        name: string | number;\n    }): string;\n")
}

func TestTransformMultipleMethodsGroupOverloadsByMethod(t *testing.T) {
	opts := Options{
		TranslationMethods: []TranslationMethod{
			{Name: "t"},
			{Name: "tHtml", ReturnType: "TrustedHTML"},
		},
	}
	out := transform(t, opts, `{"a":"x","b":"%{y}"}`)

	first := strings.Index(out, "t(phrase: 'a')")
	second := strings.Index(out, "t(phrase: 'b'")
	third := strings.Index(out, "tHtml(phrase: 'a'): TrustedHTML;")
	fourth := strings.Index(out, "tHtml(phrase: 'b', options: {")
	assert.True(t, first >= 0 && first < second && second < third && third < fourth, out)
	assert.Contains(t, out, "}): TrustedHTML;\n")
}

func TestTransformEmptyDocument(t *testing.T) {
	out := transform(t, Options{}, `{}`)

	assert.Equal(t, prelude+`export type Phrase = never;
export type Phrases = {};
`+defaultAdmin+`}
`, out)
}

func TestTransformEmptyNestedObject(t *testing.T) {
	out := transform(t, Options{}, `{"a":"x","b":{}}`)
	assert.Contains(t, out, "export type Phrases = {\n    a: string;\n    b: {};\n};\n")
}

func TestTransformIsByteStable(t *testing.T) {
	input := `{"z":"%{b} %{a}","a":{"c":"1","b":"2 ||||"}}`
	first := transform(t, Options{}, input)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, transform(t, Options{}, input))
	}
}

func TestTransformConcurrentUse(t *testing.T) {
	transformer, err := NewTransformer(Options{})
	assert.NoError(t, err)

	expected, err := transformer.Transform([]byte(`{"a":"%{x}"}`))
	assert.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]byte, 16)
	for i := range results {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], _ = transformer.Transform([]byte(`{"a":"%{x}"}`))
		}(i)
	}
	wg.Wait()

	for _, result := range results {
		assert.Equal(t, expected, result)
	}
}

func TestTransformRejectsInvalidInputWithoutOutput(t *testing.T) {
	transformer, err := NewTransformer(Options{})
	assert.NoError(t, err)

	out, err := transformer.Transform([]byte(`{"ok":"fine","deep":{"count":3}}`))
	assert.Nil(t, out)
	assert.ErrorIs(t, err, &translation.InputShapeError{Path: "deep.count", Kind: "number"})

	out, err = transformer.Transform([]byte(`["a"]`))
	assert.Nil(t, out)
	assert.ErrorIs(t, err, &translation.InputShapeError{Kind: "array"})
}

func TestNewTransformerRejectsReservedDelimiters(t *testing.T) {
	_, err := NewTransformer(Options{Prefix: PluralSeparator})
	assert.ErrorIs(t, err, &ConfigurationError{Field: "prefix", Value: PluralSeparator})

	_, err = NewTransformer(Options{Suffix: PluralSeparator})
	assert.ErrorIs(t, err, &ConfigurationError{Field: "suffix", Value: PluralSeparator})
}

func TestNewTransformerRejectsInvalidNames(t *testing.T) {
	_, err := NewTransformer(Options{Names: Names{Phrase: "my-phrase"}})
	var configErr *ConfigurationError
	assert.True(t, errors.As(err, &configErr))
	assert.Equal(t, "names.phrase", configErr.Field)

	_, err = NewTransformer(Options{TranslationMethods: []TranslationMethod{{Name: "1t"}}})
	assert.ErrorIs(t, err, &ConfigurationError{Field: "translation_methods.name", Value: "1t"})
}

func TestGenerateExposesDeclarationSet(t *testing.T) {
	tree, err := translation.Parse([]byte(`{"hello":"Hello %{name} ||||"}`))
	assert.NoError(t, err)

	set, err := Generate(tree, Options{})
	assert.NoError(t, err)

	assert.Equal(t, []string{"hello"}, set.Paths)
	assert.Len(t, set.Overloads, 1)
	assert.Equal(t, []Param{{Name: "name"}, {Name: SmartCount, Numeric: true}}, set.Overloads[0].Signature.Params)
	assert.Equal(t, DefaultTranslationMethod(), set.Overloads[0].Method)
	assert.Equal(t, DefaultHeritageClauses(), set.HeritageClauses)
}

func TestRenderLargeDocumentSnapshot(t *testing.T) {
	input := `{
		"app": {
			"title": "Phrase book",
			"greeting": "Welcome back, %{user}!",
			"items": "%{smart_count} item |||| %{smart_count} items",
			"9lives": "cat",
			"kebab-key": {"inner key": "value with %{weird key}"}
		},
		"errors": {"notFound": "Could not find %{path}", "generic": "Something went wrong"}
	}`
	snaps.MatchSnapshot(t, transform(t, Options{}, input))
}
