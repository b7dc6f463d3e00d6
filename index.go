package cast

import (
	"encoding/binary"
	"sort"
)

const footerMagic = 0x494E4458 // "INDX"

// indexEntry is one footer record (§4.J): a block's location in the
// compressed stream and its row range within the logical document.
type indexEntry struct {
	CompressedOffset uint64
	CompressedLength uint64
	FirstRowIndex    uint64 // 1-based
	RowCount         uint64
}

// writeFooter renders the INDEXED footer: entry_count, the entries
// themselves, a fixed little-endian footer_length, and the trailing
// "INDX" magic (§4.J step 4).
func writeFooter(entries []indexEntry) []byte {
	var body []byte
	body = putUvarint(body, uint64(len(entries)))
	for _, e := range entries {
		body = putUvarintLE64(body, e.CompressedOffset)
		body = putUvarint(body, e.CompressedLength)
		body = putUvarint(body, e.FirstRowIndex)
		body = putUvarint(body, e.RowCount)
	}

	out := make([]byte, 0, len(body)+12)
	out = append(out, body...)

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(body)))
	out = append(out, lenBuf[:]...)
	out = appendU32LE(out, footerMagic)
	return out
}

// parseFooter reads the footer from the tail of a full container buffer,
// returning its entries. container must end with the footer
// (footer_length and the trailing magic are read from its last 12 bytes).
func parseFooter(container []byte) ([]indexEntry, error) {
	if len(container) < 12 {
		return nil, ErrContainerMalformed
	}
	magic := readU32LE(container[len(container)-4:])
	if magic != footerMagic {
		return nil, ErrContainerMalformed
	}
	footerLen := binary.LittleEndian.Uint64(container[len(container)-12 : len(container)-4])
	if footerLen > uint64(len(container)-12) {
		return nil, ErrContainerMalformed
	}
	body := container[uint64(len(container)-12)-footerLen : len(container)-12]

	count, n, ok := uvarint(body)
	if !ok {
		return nil, ErrContainerMalformed
	}
	body = body[n:]

	entries := make([]indexEntry, count)
	for i := range entries {
		if len(body) < 8 {
			return nil, ErrContainerMalformed
		}
		off := binary.LittleEndian.Uint64(body[:8])
		body = body[8:]

		clen, n, ok := uvarint(body)
		if !ok {
			return nil, ErrContainerMalformed
		}
		body = body[n:]

		first, n, ok := uvarint(body)
		if !ok {
			return nil, ErrContainerMalformed
		}
		body = body[n:]

		rows, n, ok := uvarint(body)
		if !ok {
			return nil, ErrContainerMalformed
		}
		body = body[n:]

		entries[i] = indexEntry{off, clen, first, rows}
	}
	return entries, nil
}

// findRange binary-searches entries for the (possibly multiple) blocks
// intersecting the 1-based inclusive row range [lo,hi] (§4.H "Random
// access").
func findRange(entries []indexEntry, lo, hi uint64) []indexEntry {
	start := sort.Search(len(entries), func(i int) bool {
		return entries[i].FirstRowIndex+entries[i].RowCount > lo
	})
	var out []indexEntry
	for _, e := range entries[start:] {
		if e.FirstRowIndex > hi {
			break
		}
		if e.RowCount == 0 {
			continue
		}
		out = append(out, e)
	}
	return out
}

func putUvarintLE64(dst []byte, x uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], x)
	return append(dst, b[:]...)
}

func appendU32LE(dst []byte, x uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], x)
	return append(dst, b[:]...)
}

func readU32LE(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}
