package compiler

import "fmt"

// FileError wraps the failure of one input file. Other files are unaffected.
type FileError struct {
	Path string
	Err  error
}

func (fileError *FileError) Error() string {
	return fmt.Sprintf("%s: %v", fileError.Path, fileError.Err)
}

func (fileError *FileError) Unwrap() error {
	return fileError.Err
}

type MissingTransformError struct {
	Processor int
}

func (transformError *MissingTransformError) Error() string {
	return fmt.Sprintf("processor %d has no transform", transformError.Processor)
}
