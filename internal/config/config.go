// Package config reads the optional i18ntypes.toml project file.
package config

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"

	"github.com/meza/i18n-typegen/internal/constants"
	"github.com/meza/i18n-typegen/internal/dialect"
	"github.com/meza/i18n-typegen/internal/environment"
	"github.com/meza/i18n-typegen/internal/perf"
	"github.com/meza/i18n-typegen/internal/polyglot"
)

type Config struct {
	// Path is the file the values came from. Empty when no file was read.
	Path      string   `toml:"-"`
	Entry     string   `toml:"entry"`
	OutDir    string   `toml:"out_dir"`
	Recursive bool     `toml:"recursive"`
	Dialect   string   `toml:"dialect"`
	Polyglot  Polyglot `toml:"polyglot"`
}

// Polyglot is the [polyglot] table. NoHeritage wins over HeritageClauses and
// makes the generated interface stand alone, as does an empty
// heritage_clauses list. An absent list keeps the default clause.
type Polyglot struct {
	Names              polyglot.Names               `toml:"names"`
	Prefix             string                       `toml:"prefix"`
	Suffix             string                       `toml:"suffix"`
	NoHeritage         bool                         `toml:"no_heritage"`
	HeritageClauses    []polyglot.HeritageClause    `toml:"heritage_clauses"`
	AdditionalMembers  []string                     `toml:"additional_members"`
	TranslationMethods []polyglot.TranslationMethod `toml:"translation_methods"`
}

func (table Polyglot) Options() polyglot.Options {
	opts := polyglot.Options{
		Names:              table.Names,
		Prefix:             table.Prefix,
		Suffix:             table.Suffix,
		AdditionalMembers:  table.AdditionalMembers,
		TranslationMethods: table.TranslationMethods,
	}

	switch {
	case table.NoHeritage:
		opts.HeritageClauses = []polyglot.HeritageClause{}
	case table.HeritageClauses != nil:
		opts.HeritageClauses = table.HeritageClauses
	}

	return opts
}

func (cfg Config) DialectOptions() dialect.Options {
	return dialect.Options{
		Name:     dialect.Name(strings.TrimSpace(cfg.Dialect)),
		Polyglot: cfg.Polyglot.Options(),
	}
}

// Load reads the configuration for a run. explicitPath, or the
// I18NTYPES_CONFIG variable when it is empty, must name an existing file.
// Otherwise i18ntypes.toml in cwd is read if present and a zero Config is
// returned if not.
func Load(ctx context.Context, fs afero.Fs, explicitPath string, cwd string) (Config, error) {
	path := strings.TrimSpace(explicitPath)
	if path == "" {
		path, _ = environment.ConfigPath()
	}
	if path != "" {
		return Read(ctx, fs, NewMetadata(absolute(path, cwd)))
	}

	meta := NewMetadata(filepath.Join(cwd, constants.DefaultConfigFile))
	exists, err := afero.Exists(fs, meta.ConfigPath)
	if err != nil {
		return Config{}, errors.Wrapf(err, "cannot read configuration file %s", meta.ConfigPath)
	}
	if !exists {
		return Config{}, nil
	}
	return Read(ctx, fs, meta)
}

func absolute(path string, cwd string) string {
	if isAbsoluteOrRootedPath(path) || cwd == "" {
		return path
	}
	return filepath.Join(cwd, path)
}

// Read decodes and validates the file at meta.ConfigPath. Unknown keys are
// rejected. Entry and OutDir come back resolved against the file's directory.
func Read(ctx context.Context, fs afero.Fs, meta Metadata) (Config, error) {
	_, span := perf.StartSpan(ctx, "io.config.read", perf.WithAttributes(attribute.String("config_path", meta.ConfigPath)))
	defer span.End()

	exists, err := afero.Exists(fs, meta.ConfigPath)
	if err != nil {
		return Config{}, errors.Wrapf(err, "cannot read configuration file %s", meta.ConfigPath)
	}
	if !exists {
		return Config{}, &ConfigFileNotFoundError{Path: meta.ConfigPath}
	}

	data, err := afero.ReadFile(fs, meta.ConfigPath)
	if err != nil {
		return Config{}, errors.Wrapf(err, "cannot read configuration file %s", meta.ConfigPath)
	}

	var cfg Config
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, &ConfigFileInvalidError{Path: meta.ConfigPath, Err: err}
	}

	if _, err := dialect.New(cfg.DialectOptions()); err != nil {
		return Config{}, &ConfigFileInvalidError{Path: meta.ConfigPath, Err: err}
	}

	cfg.Path = meta.ConfigPath
	cfg.Entry = meta.ResolvePath(cfg.Entry)
	cfg.OutDir = meta.ResolvePath(cfg.OutDir)
	return cfg, nil
}
