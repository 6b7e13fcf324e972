// Package fileutils holds the small filesystem helpers shared by the
// compiler, the config loader and the perf exporter.
package fileutils

import (
	"github.com/spf13/afero"
)

func FileExists(path string, filesystem ...afero.Fs) bool {
	fs := InitFilesystem(filesystem...)

	exists, _ := afero.Exists(fs, path)
	return exists
}

// IsDir reports false for missing paths instead of failing.
func IsDir(path string, filesystem ...afero.Fs) bool {
	fs := InitFilesystem(filesystem...)

	isDir, err := afero.IsDir(fs, path)
	return err == nil && isDir
}

func InitFilesystem(filesystem ...afero.Fs) afero.Fs {
	if len(filesystem) > 0 && filesystem[0] != nil {
		return filesystem[0]
	}

	return afero.NewOsFs()
}
