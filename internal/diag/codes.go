package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Type checking of bodies
	TckInfo                   Code = 3000
	TckTypeMismatch           Code = 3001
	TckExpectedValue          Code = 3002
	TckExpectedTupleStruct    Code = 3003
	TckUnsupportedAbi         Code = 3004
	TckUnsatisfiedBound       Code = 3005
	TckUnsized                Code = 3006
	TckAnnotationsNeeded      Code = 3007
	TckAmbiguousImpl          Code = 3008
	TckTransmuteSize          Code = 3009
	TckAsmOperand             Code = 3010
	TckInvalidCast            Code = 3011
	TckNonPrimitiveCast       Code = 3012
	TckBreakWithValue         Code = 3013
	TckBreakOutsideLoop       Code = 3014
	TckYieldOutsideCoroutine  Code = 3015
	TckPlaceholderInSignature Code = 3016
	TckNoMethod               Code = 3017
	TckArgCount               Code = 3018
	TckNotCallable            Code = 3019
	TckReturnOutsideFn        Code = 3020
	TckInvalidAssignTarget    Code = 3021
	TckNotIndexable           Code = 3022
	TckAsmSymbol              Code = 3023
	TckGenericArgCount        Code = 3024
	TckUnresolvedProjection   Code = 3025
	TckCycle                  Code = 3026
	TckNoField                Code = 3027
	TckMissingField           Code = 3028
	TckBinOp                  Code = 3029
	TckUnaryOp                Code = 3030
	TckDeref                  Code = 3031
	TckPatternArity           Code = 3032
	TckDelayedBug             Code = 3099

	// IO
	IOLoadFileError Code = 4001
	IODecodeError   Code = 4002

	// Project configuration
	PrjConfigError Code = 5001

	// Observability
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:               "Unknown error",
	TckInfo:                   "Type checking information",
	TckTypeMismatch:           "Mismatched types",
	TckExpectedValue:          "Expected value, found other kind of item",
	TckExpectedTupleStruct:    "Expected tuple struct or tuple variant",
	TckUnsupportedAbi:         "ABI is not supported for the current target",
	TckUnsatisfiedBound:       "Trait bound is not satisfied",
	TckUnsized:                "Size cannot be known at compilation time",
	TckAnnotationsNeeded:      "Type annotations needed",
	TckAmbiguousImpl:          "Multiple applicable impls",
	TckTransmuteSize:          "Transmute between types of different sizes",
	TckAsmOperand:             "Invalid inline assembly operand",
	TckInvalidCast:            "Invalid cast",
	TckNonPrimitiveCast:       "Non-primitive cast",
	TckBreakWithValue:         "Break with value from a non-loop construct",
	TckBreakOutsideLoop:       "Break or continue outside of a loop",
	TckYieldOutsideCoroutine:  "Yield outside of a coroutine",
	TckPlaceholderInSignature: "Placeholder type not allowed in item signatures",
	TckNoMethod:               "No method found",
	TckArgCount:               "Wrong number of arguments",
	TckNotCallable:            "Expected function",
	TckReturnOutsideFn:        "Return outside of function body",
	TckInvalidAssignTarget:    "Invalid left-hand side of assignment",
	TckNotIndexable:           "Cannot index into a value",
	TckAsmSymbol:              "Invalid inline assembly symbol",
	TckGenericArgCount:        "Wrong number of generic arguments",
	TckUnresolvedProjection:   "Associated type cannot be normalized",
	TckCycle:                  "Cycle detected when computing a type",
	TckNoField:                "No such field",
	TckMissingField:           "Missing field in initializer",
	TckBinOp:                  "Binary operation cannot be applied",
	TckUnaryOp:                "Unary operator cannot be applied",
	TckDeref:                  "Type cannot be dereferenced",
	TckPatternArity:           "Pattern has the wrong number of fields",
	TckDelayedBug:             "Delayed bug",
	IOLoadFileError:           "Failed to load file",
	IODecodeError:             "Failed to decode program",
	PrjConfigError:            "Invalid configuration",
	ObsTimings:                "Timing report",
}

// ID returns the stable short identifier, e.g. "TCK3001".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("TCK%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

var errorIndex = map[Code]string{
	TckTypeMismatch:           "E0308",
	TckExpectedValue:          "E0423",
	TckExpectedTupleStruct:    "E0164",
	TckUnsupportedAbi:         "E0570",
	TckUnsatisfiedBound:       "E0277",
	TckUnsized:                "E0277",
	TckAnnotationsNeeded:      "E0282",
	TckAmbiguousImpl:          "E0283",
	TckTransmuteSize:          "E0512",
	TckInvalidCast:            "E0606",
	TckNonPrimitiveCast:       "E0605",
	TckBreakWithValue:         "E0571",
	TckBreakOutsideLoop:       "E0268",
	TckYieldOutsideCoroutine:  "E0627",
	TckPlaceholderInSignature: "E0121",
	TckNoMethod:               "E0599",
	TckArgCount:               "E0061",
	TckNotCallable:            "E0618",
	TckReturnOutsideFn:        "E0572",
	TckInvalidAssignTarget:    "E0070",
	TckNotIndexable:           "E0608",
	TckGenericArgCount:        "E0107",
	TckCycle:                  "E0391",
	TckNoField:                "E0609",
	TckMissingField:           "E0063",
	TckBinOp:                  "E0369",
	TckUnaryOp:                "E0600",
	TckDeref:                  "E0614",
	TckPatternArity:           "E0023",
}

// ErrorIndex returns the conventional error-index code ("E0308") for
// checker diagnostics that have one.
func (c Code) ErrorIndex() (string, bool) {
	e, ok := errorIndex[c]
	return e, ok
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
