package cast

import "fmt"

// parsedBlock is a decoded block, materialized just enough to emit
// plaintext and serve row-range random access (§4.H).
type parsedBlock struct {
	opaque     bool
	rowCount   int
	plaintext  []byte
	rowOffsets []int // len rowCount+1; rowOffsets[i]..rowOffsets[i+1] is row i
}

// reconstructBlockBytes walks rowOrder and, for each row's template,
// emits literal bytes verbatim and substitutes one value per VARIABLE
// sentinel from that (template, column)'s next unconsumed value — the
// shared reverse-path logic of §4.H, also used on the compress side to
// compute the CRC32 a serialized block claims for itself. columns must be
// indexed [templateID][columnIndex], values in row-occurrence order.
// It returns the reconstructed bytes and the starting offset of every row
// (length rowCount+1, final entry the total length) for random access.
func reconstructBlockBytes(templates []template, rowOrder []templateID, columns [][]columnValues) ([]byte, []int) {
	cursor := make([]int, len(templates))
	offsets := make([]int, 0, len(rowOrder)+1)
	var out []byte

	for _, id := range rowOrder {
		offsets = append(offsets, len(out))
		t := templates[id]
		occ := cursor[id]
		cursor[id]++

		colIdx := 0
		for _, c := range t.skeleton {
			if c == varSentinel {
				out = append(out, columns[id][colIdx][occ]...)
				colIdx++
			} else {
				out = append(out, c)
			}
		}
	}
	offsets = append(offsets, len(out))
	return out, offsets
}

// reassemblePlaintext reconstructs a freshly assembled (not-yet-parsed)
// block's plaintext, used by the Serializer to compute the CRC32 it
// embeds in the block trailer (§4.G).
func reassemblePlaintext(b *blockData) []byte {
	if b.opaque {
		return b.opaquePayload
	}
	out, _ := reconstructBlockBytes(b.reg.templates(), b.rowOrder, b.columns)
	return out
}

// parseBlock decodes one serialized block (the logical form produced by
// serializeBlock, after the coder adapter has already decompressed it)
// and verifies its CRC32 (§4.H steps 2-4).
func parseBlock(data []byte) (*parsedBlock, error) {
	if len(data) < 4+1+1 {
		return nil, ErrContainerMalformed
	}
	magic := readU32LE(data)
	if magic != blockMagic {
		return nil, fmt.Errorf("%w: bad block magic", ErrContainerMalformed)
	}
	version := data[4]
	if version != blockVersion {
		return nil, fmt.Errorf("%w: unsupported block version %d", ErrContainerMalformed, version)
	}
	flags := data[5]
	pos := 6

	uncompLen, n, ok := uvarint(data[pos:])
	if !ok {
		return nil, ErrContainerMalformed
	}
	pos += n

	rowCount, n, ok := uvarint(data[pos:])
	if !ok {
		return nil, ErrContainerMalformed
	}
	pos += n

	templateCount, n, ok := uvarint(data[pos:])
	if !ok {
		return nil, ErrContainerMalformed
	}
	pos += n

	opaque := flags&flagOpaque != 0
	colSepMode := ColSepDelimited
	if flags&flagColSep != 0 {
		colSepMode = ColSepLengthPrefixed
	}

	var plaintext []byte
	var rowOffsets []int

	if opaque {
		want := int(uncompLen)
		if pos+want+4 > len(data) {
			return nil, ErrContainerMalformed
		}
		plaintext = data[pos : pos+want]
		pos += want
		rowOffsets = fullRowOffsets(plaintext)
	} else {
		templates := make([]template, templateCount)
		for i := range templates {
			L, n, ok := uvarint(data[pos:])
			if !ok || pos+n+int(L) > len(data) {
				return nil, ErrContainerMalformed
			}
			pos += n
			templates[i] = template{skeleton: data[pos : pos+int(L)], arity: countSentinels(data[pos : pos+int(L)])}
			pos += int(L)
		}

		rowOrder := make([]templateID, rowCount)
		for i := range rowOrder {
			id, n, ok := uvarint(data[pos:])
			if !ok {
				return nil, ErrContainerMalformed
			}
			pos += n
			rowOrder[i] = templateID(id)
		}

		columns := make([][]columnValues, len(templates))
		for id, t := range templates {
			columns[id] = make([]columnValues, t.arity)
			for col := 0; col < t.arity; col++ {
				L, n, ok := uvarint(data[pos:])
				if !ok || pos+n+int(L) > len(data) {
					return nil, ErrContainerMalformed
				}
				pos += n
				stream := data[pos : pos+int(L)]
				pos += int(L)
				columns[id][col] = parseColumnStream(stream, colSepMode)
			}
		}

		plaintext, rowOffsets = reconstructBlockBytes(templates, rowOrder, columns)
	}

	if pos+4 > len(data) {
		return nil, ErrContainerMalformed
	}
	wantCRC := readU32LE(data[pos:])
	gotCRC := checksum(plaintext)
	if wantCRC != gotCRC {
		return nil, &IntegrityError{Offset: int64(len(plaintext))}
	}

	return &parsedBlock{
		opaque:     opaque,
		rowCount:   int(rowCount),
		plaintext:  plaintext,
		rowOffsets: rowOffsets,
	}, nil
}

// parseColumnStream inverts serializeColumnStream for one column (§4.G).
func parseColumnStream(stream []byte, mode ColSepMode) columnValues {
	var vals columnValues
	if mode == ColSepLengthPrefixed {
		pos := 0
		for pos < len(stream) {
			L, n, ok := uvarint(stream[pos:])
			if !ok {
				break
			}
			pos += n
			vals = append(vals, stream[pos:pos+int(L)])
			pos += int(L)
		}
		return vals
	}

	start := 0
	for i, b := range stream {
		if b == colSep {
			vals = append(vals, stream[start:i])
			start = i + 1
		}
	}
	vals = append(vals, stream[start:])
	return vals
}

// fullRowOffsets scans every LF-terminated row boundary in b, used to
// support row-range random access inside an OPAQUE block.
func fullRowOffsets(b []byte) []int {
	offsets := make([]int, 0, 16)
	pos := 0
	for pos < len(b) {
		offsets = append(offsets, pos)
		pos = rowEnd(b, pos)
	}
	offsets = append(offsets, len(b))
	return offsets
}

func countSentinels(skeleton []byte) int {
	n := 0
	for _, b := range skeleton {
		if b == varSentinel {
			n++
		}
	}
	return n
}
