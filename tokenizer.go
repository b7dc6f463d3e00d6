package cast

// strategyKind is the tag of the Strategy tagged variant (§9 "Polymorphism
// of strategies": Strategy = Strict{delim} | Aggressive).
type strategyKind byte

const (
	strategyStrict strategyKind = iota
	strategyAggressive
)

// strategy is CAST's Strategy = Strict{delim} | Aggressive tagged union.
// The tokenizer dispatches once per row on kind, not per byte, per §9.
type strategy struct {
	kind  strategyKind
	delim byte // meaningful only when kind == strategyStrict
}

// isValueByte classifies a byte as "value-like" for the Aggressive
// strategy (§4.C): digits, letters, and {., -, :, /, _, +}.
func isValueByte(b byte) bool {
	switch {
	case b >= '0' && b <= '9':
		return true
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b == '.' || b == '-' || b == ':' || b == '/' || b == '_' || b == '+':
		return true
	default:
		return false
	}
}

// tokenizeRow splits the row spanning arena[start:end) (terminator
// included) into an alternating LITERAL/VARIABLE sequence under st.
// Deterministic, single-pass, and allocation-free beyond the returned
// token slice — every token is a view into arena.
func tokenizeRow(arena []byte, start, end int, st strategy) []token {
	if st.kind == strategyStrict {
		return tokenizeStrict(arena, start, end, st.delim)
	}
	return tokenizeAggressive(arena, start, end)
}

// scanQuoted returns the index immediately after the closing quote of a
// quoted field beginning at arena[start] (which must be '"'), treating
// "" as an embedded literal quote. If no closing quote is found before
// end, the whole remainder is treated as the field (a best-effort
// recovery for malformed input; the Strategy Sampler's stability check
// is what keeps genuinely malformed data from reaching this path).
func scanQuoted(arena []byte, start, end int) int {
	i := start + 1
	for i < end {
		if arena[i] == '"' {
			if i+1 < end && arena[i+1] == '"' {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return end
}

// isRowTerminatorByte reports whether arena[i] begins the row terminator:
// either a bare LF, or a CR immediately followed by LF. A CR not followed
// by LF is an ordinary value byte, not a terminator.
func isRowTerminatorByte(arena []byte, i, end int) bool {
	if arena[i] == 0x0A {
		return true
	}
	return arena[i] == 0x0D && i+1 < end && arena[i+1] == 0x0A
}

// tokenizeStrict implements §4.D's Strict algorithm. The variable span
// of a quoted field includes its surrounding quotes (and any embedded ""
// pairs) verbatim, matching §8 scenario 3's literal worked example; the
// opening/closing quotes are therefore NOT split into the neighboring
// literals (see DESIGN.md for why this reading was chosen over the
// alternative phrasing in §4.D item 2).
func tokenizeStrict(arena []byte, start, end int, delim byte) []token {
	var toks []token
	litStart := start
	fieldStart := start

	for fieldStart < end && arena[fieldStart] != 0x0A {
		var fieldEnd int
		if arena[fieldStart] == '"' {
			fieldEnd = scanQuoted(arena, fieldStart, end)
		} else {
			fieldEnd = fieldStart
			for fieldEnd < end && arena[fieldEnd] != delim && !isRowTerminatorByte(arena, fieldEnd, end) {
				fieldEnd++
			}
		}

		toks = append(toks, token{tokLiteral, view{litStart, fieldStart - litStart}})
		toks = append(toks, token{tokVariable, view{fieldStart, fieldEnd - fieldStart}})
		litStart = fieldEnd

		if fieldEnd < end && arena[fieldEnd] == delim {
			fieldStart = fieldEnd + 1
		} else {
			fieldStart = fieldEnd
			break
		}
	}

	toks = append(toks, token{tokLiteral, view{litStart, end - litStart}})
	return toks
}

// tokenizeAggressive implements §4.D's Aggressive algorithm: maximal
// value-like runs become VARIABLE tokens, separated by LITERAL runs of
// the complementary class. A row with no value-like bytes yields a
// single LITERAL token and zero VARIABLEs.
func tokenizeAggressive(arena []byte, start, end int) []token {
	var toks []token
	litStart := start
	pos := start

	for pos < end {
		if !isValueByte(arena[pos]) {
			pos++
			continue
		}
		fieldStart := pos
		for pos < end && isValueByte(arena[pos]) {
			pos++
		}
		toks = append(toks, token{tokLiteral, view{litStart, fieldStart - litStart}})
		toks = append(toks, token{tokVariable, view{fieldStart, pos - fieldStart}})
		litStart = pos
	}

	toks = append(toks, token{tokLiteral, view{litStart, end - litStart}})
	return toks
}
