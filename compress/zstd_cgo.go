//go:build nobuild

// Cgo-accelerated Zstandard backend for ZstdCompressor, an alternate to
// zstd_pure.go. It is compiled only when the nobuild build tag is set;
// every other build uses zstd_pure.go.
package compress

import (
	"github.com/valyala/gozstd"
)

// Compress compresses the input data using Zstandard compression.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return gozstd.CompressLevel(nil, data, 3), nil
}

func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.Decompress(nil, data)
}
