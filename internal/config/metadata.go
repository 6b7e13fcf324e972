package config

import (
	"path/filepath"
	"strings"
)

// Metadata locates a configuration file. Relative paths inside the file are
// resolved against its directory.
type Metadata struct {
	ConfigPath string
}

func NewMetadata(configPath string) Metadata {
	return Metadata{ConfigPath: configPath}
}

func (meta Metadata) Dir() string {
	return filepath.Dir(filepath.FromSlash(meta.ConfigPath))
}

// ResolvePath leaves empty and absolute paths alone.
func (meta Metadata) ResolvePath(path string) string {
	if path == "" || isAbsoluteOrRootedPath(path) {
		return path
	}
	return filepath.Join(meta.Dir(), filepath.FromSlash(path))
}

func isAbsoluteOrRootedPath(path string) bool {
	if filepath.IsAbs(path) {
		return true
	}
	return strings.HasPrefix(path, "/") || strings.HasPrefix(path, "\\")
}
