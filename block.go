package cast

import "bytes"

// columnValues holds one column's values for one template, in row order,
// each a private copy of the field's bytes (the chunk arena is not kept
// alive past block assembly).
type columnValues [][]byte

// blockData is the in-memory form of one block (§3 "Block B") before
// serialization: a frozen registry, the row-order stream, and the
// per-(template,column) value lists the Serializer will transpose into
// byte streams.
type blockData struct {
	opaque          bool
	opaquePayload   []byte
	strategy        strategy
	reg             *registry
	rowOrder        []templateID
	columns         [][]columnValues // [templateID][columnIndex]
	uncompressedLen int
	rowCount        int
}

// assembleOpaqueBlock frames data as a single OPAQUE block (§4.B, §4.F),
// used both for the Binary Guard's global short-circuit and for a
// structured block whose own Strategy Sampler failed stability or whose
// bytes contain a 0x00.
func assembleOpaqueBlock(data []byte) *blockData {
	return &blockData{
		opaque:          true,
		opaquePayload:   data,
		uncompressedLen: len(data),
		rowCount:        countRows(data),
	}
}

// assembleStructuredBlock runs the Strategy Sampler and Tokenizer over
// chunk and interns templates into a fresh, block-local registry (§4.E,
// §4.F). It returns the assembled block; block.uncompressedLen is the
// number of leading bytes of chunk actually consumed, which is less than
// len(chunk) only when the template registry overflowed mid-block
// (TEMPLATE_OVERFLOW, §7), sealing the block early so the caller can
// start a new one with the remainder. If the sample itself can't clear
// the stability threshold, the whole chunk is re-flagged OPAQUE instead
// (§4.C); so is any chunk containing a 0x00 byte, which would otherwise
// be indistinguishable from varSentinel inside a template skeleton.
func assembleStructuredBlock(chunk []byte, cfg *BlockConfig) *blockData {
	if bytes.IndexByte(chunk, varSentinel) >= 0 {
		return assembleOpaqueBlock(chunk)
	}
	st, ok := chooseStrategy(chunk, cfg.Sampler)
	if !ok {
		return assembleOpaqueBlock(chunk)
	}

	reg := newRegistry(cfg)
	b := &blockData{strategy: st, reg: reg}

	pos := 0
	for pos < len(chunk) {
		end := rowEnd(chunk, pos)
		toks := tokenizeRow(chunk, pos, end, st)
		skeleton := buildSkeleton(nil, toks, chunk)
		arity := arityOf(toks)

		id, overflow := reg.intern(skeleton, arity)
		if overflow {
			break
		}
		if int(id) == len(b.columns) {
			b.columns = append(b.columns, make([]columnValues, arity))
		}

		col := 0
		for _, t := range toks {
			if t.kind != tokVariable {
				continue
			}
			val := append([]byte(nil), t.span.bytes(chunk)...)
			b.columns[id][col] = append(b.columns[id][col], val)
			col++
		}

		b.rowOrder = append(b.rowOrder, id)
		b.rowCount++
		pos = end
	}

	b.uncompressedLen = pos
	return b
}
