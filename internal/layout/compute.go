package layout

import (
	"fortio.org/safecast"

	"typeck/internal/types"
)

var zeroLayout = TypeLayout{Size: 0, Align: 1}

func (e *LayoutEngine) computeLayout(id types.TypeID, state *layoutState) (TypeLayout, *LayoutError) {
	tt, ok := e.Types.Lookup(id)
	if !ok {
		return zeroLayout, &LayoutError{Kind: LayoutErrUnknown, Type: id}
	}

	switch tt.Kind {
	case types.KindNever, types.KindError:
		return zeroLayout, nil
	case types.KindBool:
		return scalarLayoutBytes(1), nil
	case types.KindChar:
		return scalarLayoutBytes(4), nil
	case types.KindInt, types.KindUint, types.KindFloat:
		if tt.Width == types.WidthSize {
			return e.ptrLayout(), nil
		}
		return scalarLayoutBytes(int(tt.Width) / 8), nil
	case types.KindStr, types.KindSlice, types.KindDyn:
		return zeroLayout, &LayoutError{Kind: LayoutErrUnsized, Type: id}
	case types.KindRef, types.KindPtr:
		if e.Types.IsUnsizedTail(tt.Elem) {
			// fat pointer: data + length or vtable
			p := e.ptrLayout()
			return TypeLayout{Size: 2 * p.Size, Align: p.Align}, nil
		}
		if k := e.Types.KindOf(tt.Elem); k == types.KindParam || k == types.KindProjection {
			return zeroLayout, &LayoutError{Kind: LayoutErrGeneric, Type: id}
		}
		return e.ptrLayout(), nil
	case types.KindFn:
		return e.ptrLayout(), nil
	case types.KindArray:
		return e.arrayLayout(id, tt.Elem, tt.Count, state)
	case types.KindTuple:
		return e.aggregateLayout(e.Types.TupleElems(id), state)
	case types.KindClosure:
		// captures are stored by reference
		return zeroLayout, nil
	case types.KindAdt:
		return e.adtLayout(id, state)
	case types.KindParam, types.KindProjection, types.KindInfer, types.KindCoroutine:
		return zeroLayout, &LayoutError{Kind: LayoutErrGeneric, Type: id}
	}
	return zeroLayout, &LayoutError{Kind: LayoutErrUnknown, Type: id}
}

func (e *LayoutEngine) ptrLayout() TypeLayout {
	ptrSize := e.Target.PtrSize
	if ptrSize <= 0 {
		ptrSize = 8
	}
	ptrAlign := e.Target.PtrAlign
	if ptrAlign <= 0 {
		ptrAlign = ptrSize
	}
	return TypeLayout{Size: ptrSize, Align: ptrAlign}
}

func scalarLayoutBytes(size int) TypeLayout {
	if size <= 0 {
		return zeroLayout
	}
	return TypeLayout{Size: size, Align: size}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	if r := n % align; r != 0 {
		return n + (align - r)
	}
	return n
}

func (e *LayoutEngine) arrayLayout(id, elem types.TypeID, length uint32, state *layoutState) (TypeLayout, *LayoutError) {
	if length == types.GenericLen {
		return zeroLayout, &LayoutError{Kind: LayoutErrGeneric, Type: id}
	}
	el, err := e.layoutOf(elem, state)
	if err != nil {
		return zeroLayout, err
	}
	n, convErr := safecast.Conv[int](length)
	if convErr != nil {
		return zeroLayout, &LayoutError{Kind: LayoutErrOverflow, Type: id, Err: convErr}
	}
	stride := roundUp(el.Size, max(el.Align, 1))
	return TypeLayout{Size: stride * n, Align: max(el.Align, 1)}, nil
}

// aggregateLayout lays fields out in declaration order with natural padding.
func (e *LayoutEngine) aggregateLayout(fields []types.TypeID, state *layoutState) (TypeLayout, *LayoutError) {
	if len(fields) == 0 {
		return zeroLayout, nil
	}
	offsets := make([]int, len(fields))
	size, align := 0, 1
	for i, f := range fields {
		fl, err := e.layoutOf(f, state)
		if err != nil {
			return zeroLayout, err
		}
		a := max(fl.Align, 1)
		size = roundUp(size, a)
		offsets[i] = size
		size += fl.Size
		align = max(align, a)
	}
	return TypeLayout{Size: roundUp(size, align), Align: align, FieldOffsets: offsets}, nil
}

func (e *LayoutEngine) adtLayout(id types.TypeID, state *layoutState) (TypeLayout, *LayoutError) {
	info, _ := e.Types.AdtInfo(id)
	if e.Adts == nil {
		return zeroLayout, &LayoutError{Kind: LayoutErrUnknown, Type: id}
	}
	shape, ok := e.Adts.AdtShape(info.Def, info.Args)
	if !ok {
		return zeroLayout, &LayoutError{Kind: LayoutErrUnknown, Type: id}
	}
	if !shape.IsEnum {
		var fields []types.TypeID
		if len(shape.Variants) > 0 {
			fields = shape.Variants[0]
		}
		return e.aggregateLayout(fields, state)
	}
	return e.enumLayout(shape.Variants, state)
}

// enumLayout: the smallest tag that counts the variants, then the largest
// payload aligned after it. Fieldless enums are just the tag.
func (e *LayoutEngine) enumLayout(variants [][]types.TypeID, state *layoutState) (TypeLayout, *LayoutError) {
	if len(variants) == 0 {
		return zeroLayout, nil
	}
	tagSize := 1
	switch n := len(variants); {
	case n > 1<<16:
		tagSize = 4
	case n > 1<<8:
		tagSize = 2
	}

	maxPayload, payloadAlign := 0, 1
	for _, fields := range variants {
		pl, err := e.aggregateLayout(fields, state)
		if err != nil {
			return zeroLayout, err
		}
		maxPayload = max(maxPayload, pl.Size)
		payloadAlign = max(payloadAlign, pl.Align)
	}
	payloadOffset := roundUp(tagSize, payloadAlign)
	align := max(tagSize, payloadAlign)
	return TypeLayout{
		Size:          roundUp(payloadOffset+maxPayload, align),
		Align:         align,
		TagSize:       tagSize,
		PayloadOffset: payloadOffset,
	}, nil
}
