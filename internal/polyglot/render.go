package polyglot

import (
	"strings"

	"github.com/meza/i18n-typegen/internal/translation"
	"github.com/meza/i18n-typegen/internal/tsliteral"
)

const indentUnit = "    "

// ImportDeclaration brings the node-polyglot class in as P.
const ImportDeclaration = "import type P from 'node-polyglot';"

// DeepPartialDeclaration is the recursive partial used by extend and unset.
const DeepPartialDeclaration = "type DeepPartial<T> = {\n" +
	indentUnit + "[P in keyof T]?: DeepPartial<T[P]>;\n" +
	"};"

type declarationWriter struct {
	builder strings.Builder
	depth   int
}

func (writer *declarationWriter) line(text string) {
	for _, part := range strings.Split(text, "\n") {
		writer.builder.WriteString(strings.Repeat(indentUnit, writer.depth))
		writer.builder.WriteString(part)
		writer.builder.WriteByte('\n')
	}
}

func (writer *declarationWriter) indent() {
	writer.depth++
}

func (writer *declarationWriter) dedent() {
	writer.depth--
}

// Render prints the declaration set. The output is byte-stable for the same set.
func Render(set DeclarationSet) []byte {
	writer := &declarationWriter{}

	writer.line(ImportDeclaration)
	writer.line(DeepPartialDeclaration)
	writer.line("export type " + set.Names.Phrase + " = " + phraseUnion(set.Paths) + ";")
	writeShape(writer, "export type "+set.Names.Phrases+" = ", set.Shape, ";")
	writeInterface(writer, set)

	return []byte(writer.builder.String())
}

func phraseUnion(paths []string) string {
	if len(paths) == 0 {
		return "never"
	}
	literals := make([]string, 0, len(paths))
	for _, path := range paths {
		literals = append(literals, tsliteral.Quote(path))
	}
	return strings.Join(literals, " | ")
}

func writeShape(writer *declarationWriter, lead string, shape translation.Shape, trail string) {
	if len(shape.Members) == 0 {
		writer.line(lead + "{}" + trail)
		return
	}

	writer.line(lead + "{")
	writer.indent()
	for _, member := range shape.Members {
		name := tsliteral.PropertyName(member.Key)
		if member.IsLeaf() {
			writer.line(name + ": string;")
			continue
		}
		writeShape(writer, name+": ", *member.Nested, ";")
	}
	writer.dedent()
	writer.line("}" + trail)
}

func writeInterface(writer *declarationWriter, set DeclarationSet) {
	names := set.Names

	writer.line("export interface " + names.Polyglot + heritage(set.HeritageClauses) + " {")
	writer.indent()

	for _, member := range set.AdditionalMembers {
		writer.line(member)
	}

	writer.line("extend(phrases: DeepPartial<" + names.Phrases + ">): void;")
	writer.line("replace(phrases: " + names.Phrases + "): void;")
	writer.line("unset(phrases: " + names.Phrase + " | DeepPartial<" + names.Phrases + ">): void;")

	for _, overload := range set.Overloads {
		writeOverload(writer, overload)
	}

	writer.dedent()
	writer.line("}")
}

func heritage(clauses []HeritageClause) string {
	var builder strings.Builder
	for _, clause := range clauses {
		if len(clause.Types) == 0 {
			continue
		}
		builder.WriteString(" ")
		builder.WriteString(clause.Token)
		builder.WriteString(" ")
		builder.WriteString(strings.Join(clause.Types, ", "))
	}
	return builder.String()
}

func writeOverload(writer *declarationWriter, overload Overload) {
	method := overload.Method
	signature := overload.Signature
	phrase := method.Name + "(phrase: " + tsliteral.Quote(signature.Path)

	if !signature.HasOptions() {
		writer.line(phrase + "): " + method.ReturnType + ";")
		return
	}

	writer.line(phrase + ", options: {")
	writer.indent()
	for _, param := range signature.Params {
		paramType := method.InterpolationParamType
		if param.Numeric {
			paramType = "number"
		}
		writer.line(tsliteral.PropertyName(param.Name) + ": " + paramType + ";")
	}
	writer.dedent()
	writer.line("}): " + method.ReturnType + ";")
}
