package cast

import (
	"encoding/binary"
	"hash/crc32"
)

// varSentinel is the single byte that stands in for a VARIABLE token
// inside a serialized template skeleton (§4.E). The Block Assembler frames
// any chunk containing a 0x00 byte as OPAQUE, so 0x00 cannot occur as
// literal content in a structured block.
const varSentinel = 0x00

// colSep is the in-stream column-value separator used when a block's
// COLSEP_MODE flag selects the 0x1F discipline (§4.G).
const colSep = 0x1F

// crcTable is the IEEE 802.3 polynomial table §4.A calls for; it's
// exactly what crc32.ChecksumIEEE uses under the hood, computed once and
// kept explicit here so block and reverse-path code share one call site.
var crcTable = crc32.IEEETable

// checksum computes CRC32 (IEEE, initial 0xFFFFFFFF, final XOR
// 0xFFFFFFFF — crc32.ChecksumIEEE already applies both) over the exact
// bytes a block's reverse path emits.
func checksum(b []byte) uint32 {
	return crc32.Checksum(b, crcTable)
}

// putUvarint appends x to dst in LEB128 form and returns the grown
// slice. Block-level streams are unbounded, so this grows dst instead
// of writing into a fixed-size scratch array.
func putUvarint(dst []byte, x uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], x)
	return append(dst, tmp[:n]...)
}

// uvarint reads a LEB128 value from the head of b, returning the value,
// the number of bytes consumed, and ok=false if b doesn't hold a
// complete varint.
func uvarint(b []byte) (x uint64, n int, ok bool) {
	x, n = binary.Uvarint(b)
	if n <= 0 {
		return 0, 0, false
	}
	return x, n, true
}

// view is a bounded, non-owning slice of a shared input buffer. Tokens
// reference the input by (offset, length) pairs rather than copying, per
// §9's "Shared byte ownership" design note; the arena (the input buffer)
// must outlive every view derived from it.
type view struct {
	off, len int
}

func (v view) bytes(arena []byte) []byte {
	return arena[v.off : v.off+v.len]
}

func (v view) empty() bool { return v.len == 0 }
