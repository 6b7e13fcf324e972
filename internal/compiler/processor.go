// Package compiler finds translation files on a filesystem, runs them
// through a transform and writes the results, once or continuously.
package compiler

import (
	"strings"
)

const (
	InputExtension  = ".json"
	OutputExtension = ".d.ts"
)

// Transform turns the contents of one input file into output contents.
type Transform func(content []byte) ([]byte, error)

// IncludeFunc receives the full path of a candidate file or directory.
type IncludeFunc func(path string, isDir bool) bool

// Processor decides which files are compiled, where they go and how.
// A nil Include accepts every file and, when Recursive, every directory.
// A nil Rename uses RenameToDeclaration. An empty OutDir writes next to the
// entry.
type Processor struct {
	OutDir    string
	Recursive bool
	Include   IncludeFunc
	Rename    func(name string) string
	Transform Transform
}

type ProcessorOptions struct {
	OutDir    string
	Recursive bool
	Include   IncludeFunc
	Transform Transform
}

// NewProcessor builds a processor for *.json translation files. Directories
// are only entered when recursive, and both directories and files must pass
// opts.Include when it is set.
func NewProcessor(opts ProcessorOptions) Processor {
	include := opts.Include
	if include == nil {
		include = func(string, bool) bool { return true }
	}
	recursive := opts.Recursive

	return Processor{
		OutDir:    opts.OutDir,
		Recursive: recursive,
		Include: func(path string, isDir bool) bool {
			if isDir {
				return recursive && include(path, true)
			}
			return strings.HasSuffix(path, InputExtension) && include(path, false)
		},
		Rename:    RenameToDeclaration,
		Transform: opts.Transform,
	}
}

// RenameToDeclaration swaps a trailing .json for .d.ts and leaves any other
// name alone.
func RenameToDeclaration(name string) string {
	if !strings.HasSuffix(name, InputExtension) {
		return name
	}
	return strings.TrimSuffix(name, InputExtension) + OutputExtension
}

func (processor Processor) includes(path string, isDir bool) bool {
	if processor.Include != nil {
		return processor.Include(path, isDir)
	}
	if isDir {
		return processor.Recursive
	}
	return true
}

func (processor Processor) rename(name string) string {
	if processor.Rename != nil {
		return processor.Rename(name)
	}
	return RenameToDeclaration(name)
}
