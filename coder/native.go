package coder

import (
	"bytes"
	"fmt"

	"github.com/ulikunitz/xz/lzma"
)

// Native is the default Codec: in-process LZMA2 via ulikunitz/xz/lzma,
// configured only with the requested dictionary size. The package has no
// preset levels, so no "level 9 extreme" setting is applied. The package has no internal multithreading, so the threads parameter is
// accepted for interface symmetry with §4.I but has no effect here — CAST
// gets its parallelism one level up, across blocks (see the container
// driver's worker pool), not inside a single Encode call.
type Native struct{}

func (Native) Encode(plaintext []byte, dictSize, threads int) ([]byte, error) {
	var buf bytes.Buffer
	cfg := lzma.Writer2Config{DictCap: dictSize}
	if err := cfg.Verify(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	w, err := cfg.NewWriter2(&buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

func (Native) Decode(compressed []byte) ([]byte, error) {
	cfg := lzma.Reader2Config{}
	r, err := cfg.NewReader2(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	out, err := drainAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return out, nil
}
