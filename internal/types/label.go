package types

import (
	"fmt"
	"strings"
)

// Label returns a user-facing rendering of id, e.g. "&mut [u8; 4]".
func Label(in *Interner, id TypeID) string {
	return labelDepth(in, id, 0)
}

func labelDepth(in *Interner, id TypeID, depth int) string {
	if id == NoTypeID || in == nil {
		return "?"
	}
	if depth > 8 {
		return "..."
	}
	tt, ok := in.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindError:
		return "{type error}"
	case KindNever:
		return "!"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindStr:
		return "str"
	case KindInt:
		return intName("i", tt.Width)
	case KindUint:
		return intName("u", tt.Width)
	case KindFloat:
		return fmt.Sprintf("f%d", tt.Width)
	case KindArray:
		if tt.Count == GenericLen {
			return "[" + labelDepth(in, tt.Elem, depth+1) + "; N]"
		}
		return fmt.Sprintf("[%s; %d]", labelDepth(in, tt.Elem, depth+1), tt.Count)
	case KindSlice:
		return "[" + labelDepth(in, tt.Elem, depth+1) + "]"
	case KindRef:
		if tt.Mutable {
			return "&mut " + labelDepth(in, tt.Elem, depth+1)
		}
		return "&" + labelDepth(in, tt.Elem, depth+1)
	case KindPtr:
		if tt.Mutable {
			return "*mut " + labelDepth(in, tt.Elem, depth+1)
		}
		return "*const " + labelDepth(in, tt.Elem, depth+1)
	case KindTuple:
		elems := in.TupleElems(id)
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = labelDepth(in, e, depth+1)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindFn:
		info, _ := in.FnInfo(id)
		return fnLabel(in, info, depth)
	case KindAdt:
		info, _ := in.AdtInfo(id)
		return withArgs(in, info.Name, info.Args, depth)
	case KindParam:
		info, _ := in.ParamInfo(id)
		return info.Name
	case KindInfer:
		switch tt.Infer {
		case InferInt:
			return "{integer}"
		case InferFloat:
			return "{float}"
		}
		return "_"
	case KindProjection:
		info, _ := in.ProjectionInfo(id)
		return fmt.Sprintf("<%s as %s>::%s", labelDepth(in, info.Self, depth+1), info.TraitName, info.Name)
	case KindClosure:
		info, _ := in.ClosureInfo(id)
		return "{closure@" + info.Name + "}"
	case KindCoroutine:
		info, _ := in.CoroutineInfo(id)
		return "{coroutine@" + info.Name + "}"
	case KindDyn:
		return "dyn " + in.DynName(id)
	}
	return "?"
}

func intName(prefix string, w Width) string {
	if w == WidthSize {
		return prefix + "size"
	}
	return fmt.Sprintf("%s%d", prefix, w)
}

func withArgs(in *Interner, name string, args []TypeID, depth int) string {
	if len(args) == 0 {
		return name
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = labelDepth(in, a, depth+1)
	}
	return name + "<" + strings.Join(parts, ", ") + ">"
}

// PrimitiveByName maps a primitive type name to its builtin, e.g. "u8".
func (in *Interner) PrimitiveByName(name string) (TypeID, bool) {
	b := in.builtins
	switch name {
	case "bool":
		return b.Bool, true
	case "char":
		return b.Char, true
	case "str":
		return b.Str, true
	case "i8":
		return b.I8, true
	case "i16":
		return b.I16, true
	case "i32":
		return b.I32, true
	case "i64":
		return b.I64, true
	case "i128":
		return b.I128, true
	case "isize":
		return b.Isize, true
	case "u8":
		return b.U8, true
	case "u16":
		return b.U16, true
	case "u32":
		return b.U32, true
	case "u64":
		return b.U64, true
	case "u128":
		return b.U128, true
	case "usize":
		return b.Usize, true
	case "f32":
		return b.F32, true
	case "f64":
		return b.F64, true
	case "()":
		return b.Unit, true
	}
	return NoTypeID, false
}
