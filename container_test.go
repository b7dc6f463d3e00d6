package cast_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"

	cast "github.com/AndreaLVR/CAST"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func roundTrip(input []byte, cfg *cast.ContainerConfig) ([]byte, error) {
	var container bytes.Buffer
	if err := cast.NewCompressor(&container, cfg).Compress(context.Background(), bytes.NewReader(input)); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := cast.NewDecompressor(cfg).Decompress(context.Background(), bytes.NewReader(container.Bytes()), &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

var _ = Describe("Compressor/Decompressor", func() {
	It("round-trips trivial CSV (scenario 1)", func() {
		input := []byte("a,b,c\nd,e,f\n")
		out, err := roundTrip(input, &cast.ContainerConfig{})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(input))
	})

	It("round-trips mixed-arity rows (scenario 2)", func() {
		input := []byte("x=1;y=2\nx=10;y=20;z=30\n")
		out, err := roundTrip(input, &cast.ContainerConfig{})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(input))
	})

	It("round-trips CRLF-terminated rows", func() {
		input := []byte("a,b,c\r\nd,e,f\r\n")
		out, err := roundTrip(input, &cast.ContainerConfig{})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(input))
	})

	It("round-trips quoted CSV fields (scenario 3)", func() {
		input := []byte("\"a,b\",c\n\"d\"\"e\",f\n")
		out, err := roundTrip(input, &cast.ContainerConfig{})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(input))
	})

	It("round-trips opaque random bytes (scenario 4)", func() {
		rnd := rand.New(rand.NewSource(1))
		input := make([]byte, 4<<10)
		_, err := rnd.Read(input)
		Expect(err).NotTo(HaveOccurred())
		input[10] = 0
		input[2000] = 0

		out, err := roundTrip(input, &cast.ContainerConfig{})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(input))
	})

	It("serves an indexed row range without decoding every block (scenario 5)", func() {
		var buf bytes.Buffer
		for i := 1; i <= 10000; i++ {
			fmt.Fprintf(&buf, "line %d\n", i)
		}
		input := buf.Bytes()

		cfg := &cast.ContainerConfig{
			Indexed: true,
			Block:   &cast.BlockConfig{TargetBlockBytes: int64(len(input) / 4)},
		}

		var container bytes.Buffer
		Expect(cast.NewCompressor(&container, cfg).Compress(context.Background(), bytes.NewReader(input))).To(Succeed())

		var out bytes.Buffer
		r := bytes.NewReader(container.Bytes())
		err := cast.NewDecompressor(cfg).DecompressRange(context.Background(), r, int64(r.Len()), &out, cast.RowRange{Lo: 5000, Hi: 5001})
		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(Equal("line 5000\nline 5001\n"))
	})

	It("fails full decompress with INTEGRITY_FAIL referencing block 0 after a bit flip (scenario 6)", func() {
		input := []byte("a,b,c\nd,e,f\ng,h,i\n")
		// A default-sized block swallows the whole input as a single block,
		// so any flip in the compressed payload lands in block 0.
		cfg := &cast.ContainerConfig{}

		var container bytes.Buffer
		Expect(cast.NewCompressor(&container, cfg).Compress(context.Background(), bytes.NewReader(input))).To(Succeed())

		corrupt := append([]byte(nil), container.Bytes()...)
		// Flip a bit in the middle of the compressed payload, not its last
		// byte: the last byte is liable to be the coder's own end-of-stream
		// marker, which turns this into a codec decode failure rather than
		// the INTEGRITY_FAIL this scenario is about. A mid-stream flip still
		// lets the coder produce a full-length (but wrong) plaintext, which
		// is what lets the block's CRC32 catch it.
		mid := len(corrupt) / 2
		corrupt[mid] ^= 0x01

		var out bytes.Buffer
		err := cast.NewDecompressor(cfg).Decompress(context.Background(), bytes.NewReader(corrupt), &out)
		Expect(err).To(HaveOccurred())

		var integrityErr *cast.IntegrityError
		Expect(errors.As(err, &integrityErr)).To(BeTrue())
		Expect(integrityErr.Block).To(Equal(0))
	})

	It("produces byte-identical containers for the same configuration (strategy stability)", func() {
		input := []byte("a,b,c\nd,e,f\ng,h,i\n")
		cfg := &cast.ContainerConfig{}

		var c1, c2 bytes.Buffer
		Expect(cast.NewCompressor(&c1, cfg).Compress(context.Background(), bytes.NewReader(input))).To(Succeed())
		Expect(cast.NewCompressor(&c2, cfg).Compress(context.Background(), bytes.NewReader(input))).To(Succeed())
		Expect(c1.Bytes()).To(Equal(c2.Bytes()))
	})

	It("round-trips arbitrary byte sequences (core law)", func() {
		samples := [][]byte{
			nil,
			[]byte("\n"),
			[]byte("a\n"),
			[]byte("k1=v1,k2=v2\nk1=v3,k2=v4\n"),
			bytes.Repeat([]byte("GET /x HTTP/1.1\r\n"), 50),
		}
		for _, input := range samples {
			out, err := roundTrip(input, &cast.ContainerConfig{})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(input))
		}
	})
})
