package cast

// tokenKind distinguishes a LITERAL span from a VARIABLE placeholder
// (§3 "Token").
type tokenKind byte

const (
	tokLiteral tokenKind = iota
	tokVariable
)

// token is one element of a tokenized row: either a literal byte span
// (view into the row's backing arena) or a variable placeholder (whose
// bytes live in the same arena but are never part of the template
// skeleton).
type token struct {
	kind tokenKind
	span view
}

// template is an ordered sequence of tokens beginning and ending with a
// (possibly empty) literal, with no two adjacent variables (§3). Its
// skeleton is the byte sequence used both as the registry's map key and
// as the on-disk template-table entry: literal bytes verbatim, with
// varSentinel standing in for each variable.
type template struct {
	skeleton []byte
	arity    int
}

// buildSkeleton renders toks into a template skeleton, appending to dst.
func buildSkeleton(dst []byte, toks []token, arena []byte) []byte {
	for _, t := range toks {
		switch t.kind {
		case tokLiteral:
			dst = append(dst, t.span.bytes(arena)...)
		case tokVariable:
			dst = append(dst, varSentinel)
		}
	}
	return dst
}

// arityOf returns the number of VARIABLE tokens in toks.
func arityOf(toks []token) int {
	n := 0
	for _, t := range toks {
		if t.kind == tokVariable {
			n++
		}
	}
	return n
}
