package translation

import (
	"fmt"
)

// InputShapeError reports a value that cannot be part of a translation tree.
// Path is empty when the document itself is not an object.
type InputShapeError struct {
	Path string
	Kind string
}

func (shapeError *InputShapeError) Error() string {
	if shapeError.Path == "" {
		return fmt.Sprintf("Unexpected translation file type: %s", shapeError.Kind)
	}
	return fmt.Sprintf("Unexpected type %s in translations at %s", shapeError.Kind, shapeError.Path)
}

func (shapeError *InputShapeError) Is(target error) bool {
	other, ok := target.(*InputShapeError)
	if !ok {
		return false
	}
	return shapeError.Path == other.Path && shapeError.Kind == other.Kind
}

type InputSyntaxError struct {
	Size int
}

func (syntaxError *InputSyntaxError) Error() string {
	return fmt.Sprintf("Translation file is not valid JSON (%d bytes)", syntaxError.Size)
}
