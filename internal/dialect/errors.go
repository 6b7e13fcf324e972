package dialect

import "fmt"

type UnknownDialectError struct {
	Dialect string
}

func (dialectError *UnknownDialectError) Error() string {
	return fmt.Sprintf("Unknown dialect %s", dialectError.Dialect)
}

func (dialectError *UnknownDialectError) Is(target error) bool {
	other, ok := target.(*UnknownDialectError)
	if !ok {
		return false
	}
	return other.Dialect == dialectError.Dialect
}
