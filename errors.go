package cast

import (
	"errors"
	"fmt"
)

// Sentinel errors for the taxonomy of §7. Callers should match with
// errors.Is; BlockError and IntegrityError additionally carry the block
// index (IntegrityError also a byte offset), and RangeError the requested
// range and total row count, which a caller can pull out with errors.As.
var (
	// ErrInputMalformed signals that neither tokenization strategy could
	// make sense of input the Binary Guard had already accepted as
	// structurable. Reaching this is a bug in the Guard, not in the input.
	ErrInputMalformed = errors.New("cast: input malformed")

	// ErrIntegrityFail is returned when a block's CRC32 does not match the
	// bytes produced by the reverse path.
	ErrIntegrityFail = errors.New("cast: integrity check failed")

	// ErrContainerMalformed covers bad magic, bad version, a truncated
	// block, or a malformed footer.
	ErrContainerMalformed = errors.New("cast: container malformed")

	// ErrRangeOutOfBounds is returned when a row range query exceeds the
	// container's total row count.
	ErrRangeOutOfBounds = errors.New("cast: row range out of bounds")

	// ErrCancelled is returned when a run is stopped cooperatively.
	ErrCancelled = errors.New("cast: cancelled")

	// ErrCodecEncode and ErrCodecDecode wrap failures from the coder
	// adapter (see the coder subpackage).
	ErrCodecEncode = errors.New("cast: codec encode failed")
	ErrCodecDecode = errors.New("cast: codec decode failed")
)

// BlockError annotates an error with the index of the block it occurred
// in, per §7's "user-visible behavior: a single line naming the error
// kind, block index (if any), and optional byte offset".
type BlockError struct {
	Block int
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("cast: block %d: %v", e.Block, e.Err)
}

func (e *BlockError) Unwrap() error { return e.Err }

// IntegrityError carries, like BlockError, a block index, and additionally the byte
// offset within the reconstructed plaintext at which the mismatch was
// detected (offset is the length of the reconstructed span; CRC32 has no
// finer localization than "the whole block differs").
type IntegrityError struct {
	Block  int
	Offset int64
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("cast: block %d: integrity check failed at offset %d", e.Block, e.Offset)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrityFail }

// RangeError reports a row range request outside the container's bounds.
type RangeError struct {
	Lo, Hi    int64
	TotalRows int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("cast: row range %d..%d out of bounds (total rows %d)", e.Lo, e.Hi, e.TotalRows)
}

func (e *RangeError) Unwrap() error { return ErrRangeOutOfBounds }
