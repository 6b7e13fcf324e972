// Package tsliteral renders TypeScript string literals and property names.
//
// Every place that prints a user supplied key (shape members, union members,
// overload phrase literals, interpolation option names) goes through this
// package so the escaping rules cannot drift between them.
package tsliteral

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
)

// IsIdentifier reports whether name can be printed as a bare property name.
// It matches ^(?![0-9])[A-Za-z0-9$_]+$.
func IsIdentifier(name string) bool {
	if name == "" {
		return false
	}
	if name[0] >= '0' && name[0] <= '9' {
		return false
	}
	for i := 0; i < len(name); i++ {
		char := name[i]
		switch {
		case char >= 'a' && char <= 'z':
		case char >= 'A' && char <= 'Z':
		case char >= '0' && char <= '9':
		case char == '$' || char == '_':
		default:
			return false
		}
	}
	return true
}

// Quote returns value as a single quoted TypeScript string literal.
func Quote(value string) string {
	var builder strings.Builder
	builder.Grow(len(value) + 2)
	builder.WriteByte('\'')
	writeEscaped(&builder, value)
	builder.WriteByte('\'')
	return builder.String()
}

// PropertyName returns name as a bare identifier when possible and as a
// computed property (['name']) otherwise.
func PropertyName(name string) string {
	if IsIdentifier(name) {
		return name
	}
	return "[" + Quote(name) + "]"
}

// Unquote reverses Quote. It only understands the escapes Quote produces.
func Unquote(literal string) (string, error) {
	if len(literal) < 2 || literal[0] != '\'' || literal[len(literal)-1] != '\'' {
		return "", fmt.Errorf("not a single quoted literal: %s", literal)
	}

	body := literal[1 : len(literal)-1]
	units := make([]uint16, 0, len(body))
	for i := 0; i < len(body); i++ {
		char := body[i]
		if char != '\\' {
			units = append(units, uint16(char))
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("dangling escape in %s", literal)
		}
		switch body[i] {
		case 't':
			units = append(units, '\t')
		case 'v':
			units = append(units, '\v')
		case 'f':
			units = append(units, '\f')
		case 'b':
			units = append(units, '\b')
		case 'r':
			units = append(units, '\r')
		case 'n':
			units = append(units, '\n')
		case '0':
			units = append(units, 0)
		case 'x':
			if i+2 >= len(body) {
				return "", fmt.Errorf("short hex escape in %s", literal)
			}
			unit, err := strconv.ParseUint(body[i+1:i+3], 16, 16)
			if err != nil {
				return "", fmt.Errorf("invalid hex escape in %s: %w", literal, err)
			}
			units = append(units, uint16(unit))
			i += 2
		case 'u':
			if i+4 >= len(body) {
				return "", fmt.Errorf("short unicode escape in %s", literal)
			}
			unit, err := strconv.ParseUint(body[i+1:i+5], 16, 16)
			if err != nil {
				return "", fmt.Errorf("invalid unicode escape in %s: %w", literal, err)
			}
			units = append(units, uint16(unit))
			i += 4
		default:
			units = append(units, uint16(body[i]))
		}
	}

	return string(utf16.Decode(units)), nil
}

// writeEscaped follows the TypeScript printer: backslash, quote and control
// characters are escaped, everything outside ASCII becomes \uXXXX per UTF-16
// code unit.
func writeEscaped(builder *strings.Builder, value string) {
	units := utf16.Encode([]rune(value))
	for i, unit := range units {
		switch unit {
		case '\t':
			builder.WriteString(`\t`)
		case '\v':
			builder.WriteString(`\v`)
		case '\f':
			builder.WriteString(`\f`)
		case '\b':
			builder.WriteString(`\b`)
		case '\r':
			builder.WriteString(`\r`)
		case '\n':
			builder.WriteString(`\n`)
		case '\\':
			builder.WriteString(`\\`)
		case '\'':
			builder.WriteString(`\'`)
		case 0:
			if i+1 < len(units) && units[i+1] >= '0' && units[i+1] <= '9' {
				builder.WriteString(`\x00`)
			} else {
				builder.WriteString(`\0`)
			}
		default:
			if unit < 0x20 || unit > 0x7F {
				fmt.Fprintf(builder, `\u%04X`, unit)
				continue
			}
			builder.WriteByte(byte(unit))
		}
	}
}
