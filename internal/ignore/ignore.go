// Package ignore reads .i18ntypesignore files. Each non-empty line is a glob
// relative to the directory holding the file; "**" matches any number of
// path segments and lines starting with "#" are comments.
package ignore

import (
	"bufio"
	"bytes"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const FileName = ".i18ntypesignore"

// DefaultPatterns are always applied.
var DefaultPatterns = []string{"**/node_modules/**", "**/node_modules"}

// Filter answers include questions for everything below one root.
type Filter struct {
	rootDir  string
	patterns []string
}

// Load reads rootDir/.i18ntypesignore. A missing file leaves only the
// defaults.
func Load(fs afero.Fs, rootDir string) (*Filter, error) {
	filter := &Filter{rootDir: filepath.Clean(rootDir), patterns: append([]string(nil), DefaultPatterns...)}

	ignoreFile := filepath.Join(rootDir, FileName)
	data, err := afero.ReadFile(fs, ignoreFile)
	if errors.Is(err, afero.ErrFileNotFound) {
		return filter, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", ignoreFile)
	}

	lines := bufio.NewScanner(bytes.NewReader(data))
	for lines.Scan() {
		pattern := strings.TrimSpace(lines.Text())
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
		filter.patterns = append(filter.patterns, strings.TrimSuffix(pattern, "/"))
	}
	return filter, nil
}

func (filter *Filter) Patterns() []string {
	return filter.patterns
}

// Include has the shape of a compiler include hook.
func (filter *Filter) Include(name string, _ bool) bool {
	return !filter.Ignored(name)
}

// Ignored reports whether name, a path below the root, matches a pattern.
// The root itself and paths outside it are never ignored.
func (filter *Filter) Ignored(name string) bool {
	rel, err := filepath.Rel(filter.rootDir, filepath.Clean(name))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}

	segments := strings.Split(filepath.ToSlash(rel), "/")
	for _, pattern := range filter.patterns {
		if matchSegments(strings.Split(pattern, "/"), segments) {
			return true
		}
	}
	return false
}

// matchSegments matches one glob segment per path segment, letting "**"
// absorb zero or more of them.
func matchSegments(pattern []string, segments []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			for skip := 0; skip <= len(segments); skip++ {
				if matchSegments(pattern[1:], segments[skip:]) {
					return true
				}
			}
			return false
		}
		if len(segments) == 0 {
			return false
		}
		if ok, err := path.Match(pattern[0], segments[0]); err != nil || !ok {
			return false
		}
		pattern, segments = pattern[1:], segments[1:]
	}
	return len(segments) == 0
}
