package layout

import "fmt"

// Target describes the target triple and its pointer properties.
type Target struct {
	Triple   string // e.g. "x86_64-linux-gnu"
	PtrSize  int    // bytes
	PtrAlign int    // bytes
}

func X86_64LinuxGNU() Target {
	return Target{Triple: "x86_64-linux-gnu", PtrSize: 8, PtrAlign: 8}
}

// TargetFor builds a target from a triple and pointer width in bits.
func TargetFor(triple string, pointerWidth int) (Target, error) {
	switch pointerWidth {
	case 16, 32, 64:
	default:
		return Target{}, fmt.Errorf("unsupported pointer width %d (expected 16, 32 or 64)", pointerWidth)
	}
	bytes := pointerWidth / 8
	return Target{Triple: triple, PtrSize: bytes, PtrAlign: bytes}, nil
}
