//go:build ruleguard
// +build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// Team rules for golangci-lint's ruleguard checker.
// Stdlib packages are pre-loaded in ruleguard's import table.

func receiverNameMinLength(m dsl.Matcher) {
	isSingleChar := func(v dsl.Var) bool {
		return v.Text.Matches(`^[a-zA-Z]$`) && !v.Text.Matches(`^t$`)
	}

	m.Match(`func ($recv $recvType) $name($*args) $*results { $*_ }`).
		Where(isSingleChar(m["recv"])).
		Report(`receiver name must be a meaningful, domain-compliant name (min 2 characters); avoid single-letter receivers`)
}

func forbidIgnoringJSONDecodeError(m dsl.Matcher) {
	isBlankIdent := func(v dsl.Var) bool {
		return v.Text.Matches(`^_$`)
	}

	m.Import(`encoding/json`)
	m.Match(`$err = json.Unmarshal($data, $v)`, `$err = json.NewDecoder($r).Decode($v)`).
		Where(isBlankIdent(m["err"])).
		Report(`must check the JSON decode error; malformed translation files are user errors`)
}

func forbidIgnoringTOMLDecodeError(m dsl.Matcher) {
	isBlankIdent := func(v dsl.Var) bool {
		return v.Text.Matches(`^_$`)
	}

	m.Import(`github.com/pelletier/go-toml/v2`)
	m.Match(`$err = toml.Unmarshal($data, $v)`, `$err = toml.NewDecoder($r).Decode($v)`).
		Where(isBlankIdent(m["err"])).
		Report(`must check the TOML decode error; an unreadable config must not fall back to defaults`)
}

func forbidDiscardingWriteErrors(m dsl.Matcher) {
	m.Import(`github.com/spf13/afero`)
	m.Match(`_ = afero.WriteFile($fs, $path, $data, $perm)`).
		Report(`generated declarations must be written through fileutils.WriteFileAtomic and the error propagated`)
}
