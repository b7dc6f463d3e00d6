package cast

// blockMagic is the 4-byte tag at the start of every serialized block,
// and also the container file's own magic (§4.G, §4.J). All fixed-size
// integers are little-endian per §6, including this one.
const blockMagic = 0x43415354

const blockVersion = 1

const (
	flagOpaque   = 1 << 0
	flagIndexed  = 1 << 1
	flagColSep   = 1 << 2 // 0 = 0x1F-sep, 1 = varint-lengths
	flagStrategy = 1 << 3 // 0 = Strict, 1 = Aggressive
)

// serializeBlock renders b into the on-disk logical form of §4.G: block
// header, template table, row-order stream, and column streams (or, for
// an OPAQUE block, the raw payload in their place), followed by a CRC32
// of the reconstructed plaintext. The result is what the coder adapter
// compresses — never compared against itself, only against what the
// reverse path reproduces from it.
func serializeBlock(b *blockData, colSep ColSepMode, indexed bool) []byte {
	out := make([]byte, 0, b.uncompressedLen+64)

	var flags byte
	if b.opaque {
		flags |= flagOpaque
	}
	if indexed {
		flags |= flagIndexed
	}
	if colSep == ColSepLengthPrefixed {
		flags |= flagColSep
	}
	if !b.opaque && b.strategy.kind == strategyAggressive {
		flags |= flagStrategy
	}

	out = appendU32LE(out, blockMagic)
	out = append(out, blockVersion, flags)
	out = putUvarint(out, uint64(b.uncompressedLen))
	out = putUvarint(out, uint64(b.rowCount))

	var plaintext []byte
	if b.opaque {
		out = putUvarint(out, 0)
		out = append(out, b.opaquePayload...)
		plaintext = b.opaquePayload
	} else {
		out = putUvarint(out, uint64(b.reg.len()))

		for _, t := range b.reg.templates() {
			out = putUvarint(out, uint64(len(t.skeleton)))
			out = append(out, t.skeleton...)
		}

		for _, id := range b.rowOrder {
			out = putUvarint(out, uint64(id))
		}

		for _, cols := range b.columns {
			for _, vals := range cols {
				stream := serializeColumnStream(vals, colSep)
				out = putUvarint(out, uint64(len(stream)))
				out = append(out, stream...)
			}
		}

		plaintext = reassemblePlaintext(b)
	}

	out = appendU32LE(out, checksum(plaintext))
	return out
}

// serializeColumnStream renders one column's values per COLSEP_MODE
// (§4.G, §9 Open Questions: both disciplines are kept; CAST's default is
// length-prefixed).
func serializeColumnStream(vals columnValues, mode ColSepMode) []byte {
	var out []byte
	if mode == ColSepLengthPrefixed {
		for _, v := range vals {
			out = putUvarint(out, uint64(len(v)))
			out = append(out, v...)
		}
		return out
	}
	for i, v := range vals {
		if i > 0 {
			out = append(out, colSep)
		}
		out = append(out, v...)
	}
	return out
}
