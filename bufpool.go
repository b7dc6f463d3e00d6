package cast

import "sync"

// blockBufPool recycles byte slices across block decodes instead of
// allocating a fresh buffer per compressed block.
var blockBufPool sync.Pool

func fetchBuffer(sz int) []byte {
	if v := blockBufPool.Get(); v != nil {
		if p := v.([]byte); sz <= cap(p) {
			return p[:sz]
		}
	}
	return make([]byte, sz)
}

func releaseBuffer(p []byte) {
	if cap(p) != 0 {
		blockBufPool.Put(p)
	}
}
