package cast

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/AndreaLVR/CAST/coder"
	"github.com/AndreaLVR/CAST/internal/runctl"
)

// codecFor resolves a CoderMode to a concrete coder.Codec (§4.I, §9
// "Polymorphism of coder back-ends" — selection is a configuration value,
// not a type hierarchy).
func codecFor(mode CoderMode) coder.Codec {
	switch mode {
	case CoderExternal:
		return coder.External{}
	case CoderNative, CoderAuto:
		return coder.Native{}
	default:
		return coder.Native{}
	}
}

// RowRange is an inclusive, 1-based row range for indexed random access
// (§4.H "Random access").
type RowRange struct {
	Lo, Hi int64
}

// Compressor drives the Container pipeline (§4.J): Binary Guard once over
// the whole input, chunking into blocks, Block Assembler + Serializer per
// block, bounded-parallel coder invocation, and in-order output.
type Compressor struct {
	w   io.Writer
	cfg *ContainerConfig
}

// NewCompressor wraps w and returns a Compressor.
func NewCompressor(w io.Writer, cfg *ContainerConfig) *Compressor {
	return &Compressor{w: w, cfg: cfg.norm()}
}

// Compress reads all of r, splits it into blocks, and writes a complete
// container to the Compressor's writer (§4.J compression pipeline).
func (c *Compressor) Compress(ctx context.Context, r io.Reader) error {
	input, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("cast: %w", err)
	}

	blocks, err := planBlocks(input, c.cfg)
	if err != nil {
		return err
	}

	codec := codecFor(c.cfg.Coder)
	compressed := make([][]byte, len(blocks))

	lanes := c.cfg.Threads
	if lanes < 1 {
		lanes = 1
	}
	sem := make(chan struct{}, lanes)
	runs := make([]func(context.Context) error, len(blocks))
	for i, b := range blocks {
		i, b := i, b
		runs[i] = func(ctx context.Context) error {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ErrCancelled
			}
			defer func() { <-sem }()

			serialized := serializeBlock(b, c.cfg.Block.ColSep, c.cfg.Indexed)
			out, err := codec.Encode(serialized, c.cfg.DictSize, c.cfg.Threads)
			if err != nil {
				return &BlockError{Block: i, Err: fmt.Errorf("%w: %v", ErrCodecEncode, err)}
			}
			compressed[i] = out
			return nil
		}
	}
	if err := runctl.RunAll(ctx, runs...); err != nil {
		return err
	}

	var flags byte
	if c.cfg.Indexed {
		flags |= flagIndexed
	}
	header := appendU32LE(nil, blockMagic)
	header = append(header, blockVersion, flags)
	header = putUvarint(header, uint64(len(input)))
	if _, err := c.w.Write(header); err != nil {
		return fmt.Errorf("cast: %w", err)
	}

	var entries []indexEntry
	var offset uint64 = uint64(len(header))
	var rowCursor uint64 = 1
	for i, comp := range compressed {
		framed := putUvarint(nil, uint64(len(comp)))
		if _, err := c.w.Write(framed); err != nil {
			return fmt.Errorf("cast: %w", err)
		}
		if _, err := c.w.Write(comp); err != nil {
			return fmt.Errorf("cast: %w", err)
		}

		if c.cfg.Indexed {
			rc := uint64(blocks[i].rowCount)
			entries = append(entries, indexEntry{
				CompressedOffset: offset + uint64(len(framed)),
				CompressedLength: uint64(len(comp)),
				FirstRowIndex:    rowCursor,
				RowCount:         rc,
			})
			rowCursor += rc
		}
		offset += uint64(len(framed)) + uint64(len(comp))
	}

	if c.cfg.Indexed {
		if _, err := c.w.Write(writeFooter(entries)); err != nil {
			return fmt.Errorf("cast: %w", err)
		}
	}

	if c.cfg.Verify {
		return verifyBlocks(blocks, compressed, c.cfg, codec)
	}
	return nil
}

// verifyBlocks re-runs the reverse path over every already-encoded block
// and confirms the bytes it reconstructs match what was serialized,
// mirroring the "Verify" CLI contract (§6) but done in-process right
// after compression, without rewriting the container.
func verifyBlocks(blocks []*blockData, compressed [][]byte, cfg *ContainerConfig, codec coder.Codec) error {
	for i, comp := range compressed {
		plain, err := codec.Decode(comp)
		if err != nil {
			return &BlockError{Block: i, Err: fmt.Errorf("%w: %v", ErrCodecDecode, err)}
		}
		pb, err := parseBlock(plain)
		if err != nil {
			if ie, ok := err.(*IntegrityError); ok {
				ie.Block = i
				return ie
			}
			return &BlockError{Block: i, Err: err}
		}
		want := reassemblePlaintext(blocks[i])
		if !bytesEqual(pb.plaintext, want) {
			return &BlockError{Block: i, Err: ErrIntegrityFail}
		}
	}
	return nil
}

// planBlocks applies the Binary Guard once (globally), then either
// returns the whole input as a single OPAQUE block or chunks it into
// Block Assembler calls (§4.B, §4.F, §4.J). Indexed containers use the
// row-size mode of §4.F; non-indexed containers chunk on a row-aligned
// byte target.
func planBlocks(input []byte, cfg *ContainerConfig) ([]*blockData, error) {
	if len(input) == 0 {
		return nil, nil
	}

	sample := input
	if len(sample) > cfg.Block.Guard.SampleSize {
		sample = sample[:cfg.Block.Guard.SampleSize]
	}
	if runGuard(sample, cfg.Block.Guard) == opaque {
		return []*blockData{assembleOpaqueBlock(input)}, nil
	}

	var rowsPerBlock int
	if cfg.Indexed {
		rowsPerBlock = estimateRowsPerBlock(input, cfg.Block.TargetBlockBytes)
	}

	var blocks []*blockData
	pos := 0
	for pos < len(input) {
		var end int
		if cfg.Indexed {
			end = advanceRows(input, pos, rowsPerBlock)
		} else {
			end = nextByteTargetEnd(input, pos, cfg.Block.TargetBlockBytes)
		}

		b := assembleStructuredBlock(input[pos:end], cfg.Block)
		blocks = append(blocks, b)
		pos += b.uncompressedLen
	}
	return blocks, nil
}

// estimateRowsPerBlock implements §4.F's row-size mode: sample the first
// 1000 rows, take their mean length, and derive a block's row count from
// TARGET_BLOCK_BYTES.
func estimateRowsPerBlock(input []byte, targetBytes int64) int {
	rows := sampleRowSpans(input, 1000)
	if len(rows) == 0 {
		return 1
	}
	var total int
	for _, r := range rows {
		total += r.len
	}
	mean := float64(total) / float64(len(rows))
	if mean <= 0 {
		return 1
	}
	n := int((float64(targetBytes) + mean - 1) / mean)
	if n < 1 {
		n = 1
	}
	return n
}

// advanceRows returns the end offset of the span starting at pos that
// contains exactly n complete rows (or runs to len(input) if fewer
// remain).
func advanceRows(input []byte, pos, n int) int {
	end := pos
	for i := 0; i < n && end < len(input); i++ {
		end = rowEnd(input, end)
	}
	if end <= pos {
		return len(input)
	}
	return end
}

// nextByteTargetEnd returns the end offset of the next row-aligned chunk
// of roughly target bytes starting at pos: it reads rows until the
// target is met or exceeded, never splitting a row across a chunk
// boundary.
func nextByteTargetEnd(input []byte, pos int, target int64) int {
	end := pos
	for int64(end-pos) < target && end < len(input) {
		end = rowEnd(input, end)
	}
	if end <= pos {
		return len(input)
	}
	return end
}

// Decompressor drives the reverse path of the Container pipeline (§4.H).
type Decompressor struct {
	cfg *ContainerConfig
}

// NewDecompressor returns a Decompressor for cfg.
func NewDecompressor(cfg *ContainerConfig) *Decompressor {
	return &Decompressor{cfg: cfg.norm()}
}

// Decompress streams the full reverse path from r to w.
func (d *Decompressor) Decompress(ctx context.Context, r io.Reader, w io.Writer) error {
	return d.decompress(ctx, r, w, nil)
}

// DecompressRange serves a row-range random access query (§4.H "Random
// access"); it requires a container that was written with Indexed=true.
// It reads all size bytes of the container from r into memory, parses the
// footer from the tail, and decodes only the blocks intersecting rows.
func (d *Decompressor) DecompressRange(ctx context.Context, r io.ReaderAt, size int64, w io.Writer, rows RowRange) error {
	buf := make([]byte, size)
	if _, err := r.ReadAt(buf, 0); err != nil && err != io.EOF {
		return fmt.Errorf("cast: %w", err)
	}

	if len(buf) < 6 {
		return ErrContainerMalformed
	}
	magic := readU32LE(buf)
	if magic != blockMagic {
		return fmt.Errorf("%w: bad container magic", ErrContainerMalformed)
	}
	flags := buf[5]
	if flags&flagIndexed == 0 {
		return fmt.Errorf("cast: rows query requires an INDEXED container")
	}

	entries, err := parseFooter(buf)
	if err != nil {
		return err
	}
	totalRows := int64(0)
	for _, e := range entries {
		totalRows += int64(e.RowCount)
	}
	if rows.Lo < 1 || rows.Hi < rows.Lo || rows.Hi > totalRows {
		return &RangeError{Lo: rows.Lo, Hi: rows.Hi, TotalRows: totalRows}
	}

	hits := findRange(entries, uint64(rows.Lo), uint64(rows.Hi))
	sort.Slice(hits, func(i, j int) bool { return hits[i].FirstRowIndex < hits[j].FirstRowIndex })

	codec := codecFor(d.cfg.Coder)
	for _, e := range hits {
		comp := buf[e.CompressedOffset : e.CompressedOffset+e.CompressedLength]
		plain, err := codec.Decode(comp)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCodecDecode, err)
		}
		pb, err := parseBlock(plain)
		if err != nil {
			return err
		}

		loInBlock := int64(0)
		if rows.Lo > int64(e.FirstRowIndex) {
			loInBlock = rows.Lo - int64(e.FirstRowIndex)
		}
		hiInBlock := int64(e.RowCount) - 1
		if rows.Hi < int64(e.FirstRowIndex)+int64(e.RowCount)-1 {
			hiInBlock = rows.Hi - int64(e.FirstRowIndex)
		}

		if loInBlock < 0 || hiInBlock >= int64(len(pb.rowOffsets))-1 || loInBlock > hiInBlock {
			continue
		}
		start := pb.rowOffsets[loInBlock]
		stop := pb.rowOffsets[hiInBlock+1]
		if _, err := w.Write(pb.plaintext[start:stop]); err != nil {
			return fmt.Errorf("cast: %w", err)
		}
	}
	return nil
}

// decompress reads the file header, then drains blocks through the
// reverse path, recycling the per-block compressed-read buffer through
// blockBufPool to keep peak resident memory bounded by block size
// rather than container size. An INDEXED container carries a footer
// after its last block that isn't part of the block stream, so that
// case reads the remainder fully first to find where the footer
// begins; a non-indexed container has nothing after its last
// block and is drained as a true byte stream.
func (d *Decompressor) decompress(ctx context.Context, r io.Reader, w io.Writer, _ *RowRange) error {
	var hdr [6]byte
	nRead, err := io.ReadFull(r, hdr[:])
	if err == io.EOF && nRead == 0 {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cast: %w", err)
	}
	magic := readU32LE(hdr[:])
	if magic != blockMagic {
		return fmt.Errorf("%w: bad container magic", ErrContainerMalformed)
	}
	flags := hdr[5]

	br := bufio.NewReader(r)
	if _, err := binary.ReadUvarint(br); err != nil {
		return fmt.Errorf("%w: %v", ErrContainerMalformed, err)
	}

	var bodyReader blockReader = br
	if flags&flagIndexed != 0 {
		rest, err := io.ReadAll(br)
		if err != nil {
			return fmt.Errorf("cast: %w", err)
		}
		if _, err := parseFooter(rest); err != nil {
			return err
		}
		footerLen := 12 + int(binary.LittleEndian.Uint64(rest[len(rest)-12:len(rest)-4]))
		if footerLen > len(rest) {
			return ErrContainerMalformed
		}
		bodyReader = bytes.NewReader(rest[:len(rest)-footerLen])
	}

	return drainBlocks(ctx, bodyReader, w, codecFor(d.cfg.Coder))
}

// blockReader is what drainBlocks needs from its source: both a
// bufio.Reader (streaming case) and a bytes.Reader (buffered INDEXED
// case, footer already trimmed) satisfy it.
type blockReader interface {
	io.Reader
	io.ByteReader
}

// drainBlocks reads framed blocks (varint length + compressed bytes) from
// r until EOF and writes each block's reconstructed plaintext to w.
func drainBlocks(ctx context.Context, r blockReader, w io.Writer, codec coder.Codec) error {
	blockIdx := 0
	for {
		select {
		case <-ctx.Done():
			return ErrCancelled
		default:
		}

		clen, err := binary.ReadUvarint(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrContainerMalformed, err)
		}

		comp := fetchBuffer(int(clen))
		if _, err := io.ReadFull(r, comp); err != nil {
			releaseBuffer(comp)
			return fmt.Errorf("%w: %v", ErrContainerMalformed, err)
		}

		plain, err := codec.Decode(comp)
		releaseBuffer(comp)
		if err != nil {
			return &BlockError{Block: blockIdx, Err: fmt.Errorf("%w: %v", ErrCodecDecode, err)}
		}
		pb, err := parseBlock(plain)
		if err != nil {
			if ie, ok := err.(*IntegrityError); ok {
				ie.Block = blockIdx
				return ie
			}
			return &BlockError{Block: blockIdx, Err: err}
		}
		if _, err := w.Write(pb.plaintext); err != nil {
			return fmt.Errorf("cast: %w", err)
		}
		blockIdx++
	}
}

// Verify streams the full reverse path, checking every CRC32, and
// discards the output (§6 "Verify" CLI contract).
func (d *Decompressor) Verify(ctx context.Context, r io.Reader) error {
	return d.Decompress(ctx, r, io.Discard)
}
