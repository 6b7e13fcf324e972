package fileutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/afero"
)

const (
	DefaultFileMode os.FileMode = 0o644
	DefaultDirMode  os.FileMode = 0o755

	siblingMarker   = ".i18ntypes"
	maxSiblingTries = 100
)

// WriteFileAtomic writes data next to targetPath and renames it into place,
// so readers see either the previous declarations or the new ones. Missing
// parent directories are created.
func WriteFileAtomic(fs afero.Fs, targetPath string, data []byte, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultFileMode
	}

	if err := fs.MkdirAll(filepath.Dir(targetPath), DefaultDirMode); err != nil {
		return pkgerrors.Wrapf(err, "cannot create directory for %s", targetPath)
	}

	tempPath, err := nextSiblingPath(fs, targetPath, ".tmp")
	if err != nil {
		return err
	}
	backupPath, err := nextSiblingPath(fs, targetPath, ".bak")
	if err != nil {
		return err
	}

	if err := afero.WriteFile(fs, tempPath, data, perm); err != nil {
		return cleanupTempOnError(fs, tempPath, pkgerrors.Wrapf(err, "cannot write %s", tempPath))
	}

	exists, err := afero.Exists(fs, targetPath)
	if err != nil {
		return cleanupTempOnError(fs, tempPath, err)
	}
	if !exists {
		return renameTempIntoPlace(fs, tempPath, targetPath)
	}

	return replaceExistingFile(fs, tempPath, targetPath, backupPath)
}

func nextSiblingPath(fs afero.Fs, targetPath string, suffix string) (string, error) {
	base := targetPath + siblingMarker + suffix

	candidate := base
	for i := 0; i < maxSiblingTries; i++ {
		exists, err := afero.Exists(fs, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s.%d", base, i+1)
	}

	return "", pkgerrors.Errorf("cannot allocate a free %s path next to %s", suffix, targetPath)
}

func removeIfExists(fs afero.Fs, path string) error {
	removeErr := fs.Remove(path)
	if removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		return pkgerrors.Wrapf(removeErr, "failed to remove %s", path)
	}
	return nil
}

func cleanupTempOnError(fs afero.Fs, tempPath string, originalErr error) error {
	if cleanupErr := removeIfExists(fs, tempPath); cleanupErr != nil {
		return errors.Join(originalErr, cleanupErr)
	}
	return originalErr
}

func renameTempIntoPlace(fs afero.Fs, tempPath string, targetPath string) error {
	if err := fs.Rename(tempPath, targetPath); err != nil {
		return cleanupTempOnError(fs, tempPath, err)
	}
	return nil
}

func replaceExistingFile(fs afero.Fs, tempPath string, targetPath string, backupPath string) error {
	// Overwriting rename keeps the target present the whole time where the
	// filesystem allows it.
	if err := fs.Rename(tempPath, targetPath); err == nil {
		return nil
	}

	if err := fs.Rename(targetPath, backupPath); err != nil {
		return cleanupTempOnError(fs, tempPath, err)
	}

	if err := fs.Rename(tempPath, targetPath); err != nil {
		return restoreBackup(fs, tempPath, targetPath, backupPath, err)
	}

	return removeIfExists(fs, backupPath)
}

func restoreBackup(fs afero.Fs, tempPath string, targetPath string, backupPath string, renameErr error) error {
	result := renameErr
	if cleanupErr := removeIfExists(fs, tempPath); cleanupErr != nil {
		result = errors.Join(result, cleanupErr)
	}
	if rollbackErr := fs.Rename(backupPath, targetPath); rollbackErr != nil {
		result = errors.Join(result, pkgerrors.Wrapf(rollbackErr, "failed to restore backup %s", backupPath))
	}
	return result
}
