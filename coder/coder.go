// Package coder implements CAST's Coder adapter (§4.I): the only
// component aware of any specific entropy-coding back end. Every other
// part of CAST exchanges opaque byte buffers with it.
package coder

import (
	"bytes"
	"fmt"
	"io"
)

// Codec is the Coder adapter capability: encode(bytes, dict_size,
// threads) -> bytes and decode(bytes) -> bytes, per §4.I and §9's
// "Polymorphism of coder back-ends".
type Codec interface {
	Encode(plaintext []byte, dictSize, threads int) ([]byte, error)
	Decode(compressed []byte) ([]byte, error)
}

// ErrEncode and ErrDecode are the sentinel failure modes CODEC_ENCODE_FAIL
// and CODEC_DECODE_FAIL from §7.
var (
	ErrEncode = fmt.Errorf("coder: encode failed")
	ErrDecode = fmt.Errorf("coder: decode failed")
)

// drainAll reads r to completion and returns what it read; Native.Decode
// uses it to collect the decoder's output.
func drainAll(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
