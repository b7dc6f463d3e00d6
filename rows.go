package cast

import "bytes"

// rowEnd returns the index immediately after the first LF at or after
// start, or len(arena) if none remains — i.e. the end of the row
// beginning at start, terminator included (§3 "Input row").
func rowEnd(arena []byte, start int) int {
	idx := bytes.IndexByte(arena[start:], 0x0A)
	if idx < 0 {
		return len(arena)
	}
	return start + idx + 1
}

// sampleRowSpans returns up to limit complete row spans from the head of
// arena, used by both the Strategy Sampler (§4.C) and the row-size mode
// of the Block Assembler (§4.F).
func sampleRowSpans(arena []byte, limit int) []view {
	var rows []view
	pos := 0
	for pos < len(arena) && len(rows) < limit {
		e := rowEnd(arena, pos)
		rows = append(rows, view{pos, e - pos})
		pos = e
	}
	return rows
}
