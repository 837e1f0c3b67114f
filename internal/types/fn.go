package types

import (
	"strconv"
	"strings"
)

// AbiRust is the default calling convention.
const AbiRust = "Rust"

// FnInfo stores the signature of a function pointer type.
type FnInfo struct {
	Params   []TypeID
	Result   TypeID
	Abi      string
	Variadic bool
}

// RegisterFn creates or finds a function pointer type.
func (in *Interner) RegisterFn(params []TypeID, result TypeID, abi string, variadic bool) TypeID {
	if abi == "" {
		abi = AbiRust
	}
	ops := encodeIDs(params) + ";" + strconv.FormatUint(uint64(result), 10) + ";" + abi + ";" + strconv.FormatBool(variadic)
	return in.intern(Type{Kind: KindFn}, ops, func() uint32 {
		in.fns = append(in.fns, FnInfo{
			Params:   cloneIDs(params),
			Result:   result,
			Abi:      abi,
			Variadic: variadic,
		})
		return slotOf(len(in.fns) - 1)
	})
}

// FnInfo retrieves function type metadata by TypeID.
func (in *Interner) FnInfo(id TypeID) (*FnInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindFn {
		return nil, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return &in.fns[tt.Payload], true
}

func fnLabel(in *Interner, info *FnInfo, depth int) string {
	params := make([]string, len(info.Params))
	for i, p := range info.Params {
		params[i] = labelDepth(in, p, depth+1)
	}
	if info.Variadic {
		params = append(params, "...")
	}
	var sb strings.Builder
	if info.Abi != AbiRust {
		sb.WriteString("extern " + strconv.Quote(info.Abi) + " ")
	}
	sb.WriteString("fn(" + strings.Join(params, ", ") + ")")
	if !in.IsUnit(info.Result) {
		sb.WriteString(" -> " + labelDepth(in, info.Result, depth+1))
	}
	return sb.String()
}
