package types

// IsIntegral reports signed/unsigned integers and integer variables.
func (in *Interner) IsIntegral(id TypeID) bool {
	tt, _ := in.Lookup(id)
	return tt.Kind == KindInt || tt.Kind == KindUint || (tt.Kind == KindInfer && tt.Infer == InferInt)
}

// IsFloat reports floats and float variables.
func (in *Interner) IsFloat(id TypeID) bool {
	tt, _ := in.Lookup(id)
	return tt.Kind == KindFloat || (tt.Kind == KindInfer && tt.Infer == InferFloat)
}

func (in *Interner) IsNumeric(id TypeID) bool {
	return in.IsIntegral(id) || in.IsFloat(id)
}

// IsScalar reports types castable with a primitive `as`.
func (in *Interner) IsScalar(id TypeID) bool {
	switch in.KindOf(id) {
	case KindBool, KindChar, KindInt, KindUint, KindFloat, KindPtr, KindFn:
		return true
	case KindInfer:
		return in.IsNumeric(id)
	}
	return false
}

// IsUnsizedTail reports str, [T] and dyn Trait.
func (in *Interner) IsUnsizedTail(id TypeID) bool {
	switch in.KindOf(id) {
	case KindStr, KindSlice, KindDyn:
		return true
	}
	return false
}

// IsVar reports whether id is an inference variable.
func (in *Interner) IsVar(id TypeID) bool {
	return in.KindOf(id) == KindInfer
}

// IsError reports the error type.
func (in *Interner) IsError(id TypeID) bool {
	return id == in.builtins.Error
}

// Elem returns the element of array/slice/ref/ptr types.
func (in *Interner) Elem(id TypeID) TypeID {
	tt, _ := in.Lookup(id)
	switch tt.Kind {
	case KindArray, KindSlice, KindRef, KindPtr:
		return tt.Elem
	}
	return NoTypeID
}
