package cast

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("tokenizer", func() {
	It("splits a trivial CSV row under Strict", func() {
		arena := []byte("a,b,c\n")
		toks := tokenizeRow(arena, 0, len(arena), strategy{kind: strategyStrict, delim: ','})
		skel := buildSkeleton(nil, toks, arena)
		Expect(skel).To(Equal([]byte("\x00,\x00,\x00\n")))
		Expect(arityOf(toks)).To(Equal(3))
	})

	It("keeps quotes and embedded commas inside a quoted VARIABLE span", func() {
		arena := []byte("\"a,b\",c\n")
		toks := tokenizeRow(arena, 0, len(arena), strategy{kind: strategyStrict, delim: ','})
		var vals [][]byte
		for _, t := range toks {
			if t.kind == tokVariable {
				vals = append(vals, t.span.bytes(arena))
			}
		}
		Expect(vals).To(Equal([][]byte{[]byte(`"a,b"`), []byte("c")}))
	})

	It("reproduces embedded doubled quotes", func() {
		arena := []byte("\"d\"\"e\",f\n")
		toks := tokenizeRow(arena, 0, len(arena), strategy{kind: strategyStrict, delim: ','})
		Expect(toks[1].span.bytes(arena)).To(Equal([]byte(`"d""e"`)))
	})

	It("keeps a CRLF row terminator out of the trailing VARIABLE span", func() {
		arena := []byte("a,b,c\r\n")
		toks := tokenizeRow(arena, 0, len(arena), strategy{kind: strategyStrict, delim: ','})
		var vals [][]byte
		for _, t := range toks {
			if t.kind == tokVariable {
				vals = append(vals, t.span.bytes(arena))
			}
		}
		Expect(vals).To(Equal([][]byte{[]byte("a"), []byte("b"), []byte("c")}))
		skel := buildSkeleton(nil, toks, arena)
		Expect(skel).To(Equal([]byte("\x00,\x00,\x00\r\n")))
	})

	It("treats a lone trailing CR (no following LF) as an ordinary byte", func() {
		arena := []byte("a,b\r,c\n")
		toks := tokenizeRow(arena, 0, len(arena), strategy{kind: strategyStrict, delim: ','})
		var vals [][]byte
		for _, t := range toks {
			if t.kind == tokVariable {
				vals = append(vals, t.span.bytes(arena))
			}
		}
		Expect(vals).To(Equal([][]byte{[]byte("a"), []byte("b\r"), []byte("c")}))
	})

	It("splits maximal value-byte runs under Aggressive", func() {
		arena := []byte("x=1;y=2\n")
		toks := tokenizeRow(arena, 0, len(arena), strategy{kind: strategyAggressive})
		var vals [][]byte
		for _, t := range toks {
			if t.kind == tokVariable {
				vals = append(vals, t.span.bytes(arena))
			}
		}
		Expect(vals).To(Equal([][]byte{[]byte("x"), []byte("1"), []byte("y"), []byte("2")}))
	})
})

var _ = Describe("registry", func() {
	It("assigns dense, first-seen-order IDs", func() {
		cfg := (&BlockConfig{}).norm()
		r := newRegistry(cfg)

		id0, overflow := r.intern([]byte("\x00,\x00,\x00\n"), 3)
		Expect(overflow).To(BeFalse())
		Expect(id0).To(Equal(templateID(0)))

		id1, _ := r.intern([]byte("\x00;\x00\n"), 2)
		Expect(id1).To(Equal(templateID(1)))

		again, _ := r.intern([]byte("\x00,\x00,\x00\n"), 3)
		Expect(again).To(Equal(id0))

		Expect(r.len()).To(Equal(2))
		Expect(r.templates()).To(HaveLen(2))
	})

	It("seals on overflow instead of growing past capacity", func() {
		cfg := &BlockConfig{MaxTemplates: 1}
		cfg = cfg.norm()
		r := newRegistry(cfg)

		_, overflow := r.intern([]byte("\x00\n"), 1)
		Expect(overflow).To(BeFalse())

		_, overflow = r.intern([]byte("\x00\x00\n"), 2)
		Expect(overflow).To(BeTrue())
	})
})

var _ = Describe("guard", func() {
	It("accepts printable, row-bearing text as structurable", func() {
		Expect(runGuard([]byte("a,b,c\nd,e,f\n"), (&GuardConfig{}).norm())).To(Equal(structurable))
	})

	It("flags input with too many NUL bytes as opaque", func() {
		sample := []byte("a\x00b\x00c\x00d\n")
		Expect(runGuard(sample, (&GuardConfig{}).norm())).To(Equal(opaque))
	})

	It("flags input without enough rows as opaque", func() {
		Expect(runGuard([]byte("no newline here"), (&GuardConfig{}).norm())).To(Equal(opaque))
	})
})

var _ = Describe("block assembly", func() {
	It("reconstructs every row exactly from its template and columns (template invariant)", func() {
		chunk := []byte("a,b,c\nd,e,f\n")
		b := assembleStructuredBlock(chunk, (&BlockConfig{}).norm())
		Expect(b.opaque).To(BeFalse())
		Expect(b.reg.len()).To(Equal(1))
		Expect(b.rowCount).To(Equal(2))

		got := reassemblePlaintext(b)
		Expect(got).To(Equal(chunk))
	})

	It("serializes and reparses back to the same plaintext", func() {
		chunk := []byte("x=1;y=2\nx=10;y=20;z=30\n")
		b := assembleStructuredBlock(chunk, (&BlockConfig{}).norm())
		raw := serializeBlock(b, ColSepLengthPrefixed, false)

		pb, err := parseBlock(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(pb.plaintext).To(Equal(chunk))
	})

	It("round-trips CRLF-terminated rows with the terminator kept out of the template", func() {
		chunk := []byte("a,b,c\r\nd,e,f\r\n")
		b := assembleStructuredBlock(chunk, (&BlockConfig{}).norm())
		Expect(b.opaque).To(BeFalse())
		Expect(b.reg.len()).To(Equal(1))
		Expect(b.reg.templates()[0].skeleton).To(Equal([]byte("\x00,\x00,\x00\r\n")))

		got := reassemblePlaintext(b)
		Expect(got).To(Equal(chunk))
	})

	It("supports the 0x1F-delimited COLSEP_MODE too", func() {
		chunk := []byte("a,b,c\nd,e,f\n")
		b := assembleStructuredBlock(chunk, (&BlockConfig{}).norm())
		raw := serializeBlock(b, ColSepDelimited, false)

		pb, err := parseBlock(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(pb.plaintext).To(Equal(chunk))
	})
})
