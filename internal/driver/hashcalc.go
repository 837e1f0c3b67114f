package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"

	"typeck/internal/version"
)

// combineDigest: H(content || part1 || part2 ...). Parts are in a fixed order.
func combineDigest(content Digest, parts ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range parts {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// optionsDigest hashes every option that changes what a check reports.
func optionsDigest(opts Options) Digest {
	h := sha256.New()
	var buf [8]byte
	putInt := func(n int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(n)))
		_, _ = h.Write(buf[:])
	}
	putString := func(s string) {
		putInt(len(s))
		_, _ = h.Write([]byte(s))
	}
	putInt(int(diskCacheSchemaVersion))
	putString(version.Plain())
	putInt(opts.MaxDiagnostics)
	putString(opts.Target.Triple)
	putInt(opts.Target.PtrSize)
	putInt(opts.Target.PtrAlign)
	putString(strings.Join(opts.Abis, ","))
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// cacheKey identifies the diagnostics of one input under opts.
func cacheKey(in *Input, opts Options) Digest {
	return combineDigest(in.Digest, optionsDigest(opts))
}
