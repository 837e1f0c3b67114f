package layout

import (
	"fmt"
	"strings"

	"typeck/internal/types"
)

// LayoutErrorKind enumerates why a size could not be computed.
type LayoutErrorKind uint8

const (
	// LayoutErrRecursive indicates a type containing itself by value.
	LayoutErrRecursive LayoutErrorKind = iota + 1
	// LayoutErrUnsized indicates str, [T] or dyn Trait.
	LayoutErrUnsized
	// LayoutErrGeneric indicates a size that depends on a generic parameter
	// or an unresolved inference variable.
	LayoutErrGeneric
	LayoutErrOverflow
	LayoutErrUnknown
)

// LayoutError explains why LayoutOf failed.
type LayoutError struct {
	Kind  LayoutErrorKind
	Type  types.TypeID
	Cycle []types.TypeID // for LayoutErrRecursive
	Err   error          // for LayoutErrOverflow
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrRecursive:
		parts := make([]string, 0, len(e.Cycle))
		for _, id := range e.Cycle {
			parts = append(parts, fmt.Sprintf("type#%d", id))
		}
		return fmt.Sprintf("recursive type has infinite size (cycle: %s)", strings.Join(parts, " -> "))
	case LayoutErrUnsized:
		return fmt.Sprintf("type#%d does not have a size known at compile-time", e.Type)
	case LayoutErrGeneric:
		return fmt.Sprintf("type#%d does not have a fixed size", e.Type)
	case LayoutErrOverflow:
		return fmt.Sprintf("size of type#%d overflows: %v", e.Type, e.Err)
	default:
		return fmt.Sprintf("layout error kind=%d type#%d", e.Kind, e.Type)
	}
}
