// Package compress detects and applies the gzip and zlib framings
// that vector tile buffers are shipped with.
package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Encoding identifies the framing of a byte buffer.
type Encoding int

const (
	// EncodingNone means the buffer carries raw tile bytes.
	EncodingNone Encoding = iota
	// EncodingGzip is RFC 1952 framing (magic 0x1f 0x8b).
	EncodingGzip
	// EncodingZlib is RFC 1950 framing (0x78 header family).
	EncodingZlib
)

// Strategy selects the deflate strategy. The names mirror zlib's
// Z_* strategies; Go's flate only distinguishes Huffman-only from the
// default matcher, so filtered/rle/fixed degrade to the nearest
// supported behavior.
type Strategy int

const (
	StrategyDefault Strategy = iota
	StrategyFiltered
	StrategyHuffmanOnly
	StrategyRLE
	StrategyFixed
)

// Detect sniffs the framing of data by its magic bytes.
func Detect(data []byte) Encoding {
	if len(data) > 2 && data[0] == 0x1f && data[1] == 0x8b {
		return EncodingGzip
	}
	// zlib: CMF 0x78 with a valid FCHECK. 0x01, 0x5e, 0x9c and 0xda
	// cover the four standard compression levels.
	if len(data) > 2 && data[0] == 0x78 &&
		(data[1] == 0x01 || data[1] == 0x5e || data[1] == 0x9c || data[1] == 0xda) {
		return EncodingZlib
	}
	return EncodingNone
}

// IsCompressed reports whether data carries gzip or zlib framing.
func IsCompressed(data []byte) bool {
	return Detect(data) != EncodingNone
}

// Inflate decompresses data according to its detected framing. Raw
// data is returned as-is without copying.
func Inflate(data []byte) ([]byte, error) {
	switch Detect(data) {
	case EncodingGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip header: %w", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("gzip inflate: %w", err)
		}
		return out, nil
	case EncodingZlib:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("zlib header: %w", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("zlib inflate: %w", err)
		}
		return out, nil
	default:
		return data, nil
	}
}

// Deflate compresses data with the requested framing, level and
// strategy. Level follows zlib semantics: 0 stores, 9 compresses
// hardest, -1 is the library default.
func Deflate(data []byte, enc Encoding, level int, strategy Strategy) ([]byte, error) {
	if level < flate.DefaultCompression || level > flate.BestCompression {
		return nil, fmt.Errorf("compression level %d out of range", level)
	}
	effective := level
	if strategy == StrategyHuffmanOnly || strategy == StrategyRLE {
		effective = flate.HuffmanOnly
	}

	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch enc {
	case EncodingGzip:
		w, err = gzip.NewWriterLevel(&buf, effective)
	case EncodingZlib:
		w, err = zlib.NewWriterLevel(&buf, effective)
	case EncodingNone:
		return data, nil
	default:
		return nil, fmt.Errorf("unknown encoding %d", enc)
	}
	if err != nil {
		return nil, fmt.Errorf("deflate init: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("deflate write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("deflate close: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseStrategy maps a zlib strategy name to a Strategy. Matching is
// exact on the upper-case names the original option surface used.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "DEFAULT":
		return StrategyDefault, nil
	case "FILTERED":
		return StrategyFiltered, nil
	case "HUFFMAN_ONLY":
		return StrategyHuffmanOnly, nil
	case "RLE":
		return StrategyRLE, nil
	case "FIXED":
		return StrategyFixed, nil
	default:
		return StrategyDefault, fmt.Errorf("unknown compression strategy %q", name)
	}
}
