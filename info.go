package vectortile

import (
	"github.com/MeKo-Tech/vectortile/internal/compress"
	"github.com/MeKo-Tech/vectortile/internal/validate"
)

// TileReport is the structured result of Info.
type TileReport = validate.TileReport

// LayerReport summarizes one layer inside a TileReport.
type LayerReport = validate.LayerReport

// Info inspects a tile buffer (raw, gzip, or zlib framed) and returns
// a structured report: per-layer feature counts by geometry type,
// layer versions, and any structural errors found. Info never fails;
// unreadable buffers produce a report flagging INVALID_PBF_BUFFER.
func Info(data []byte) TileReport {
	raw, err := compress.Inflate(data)
	if err != nil {
		return TileReport{
			Errors:     true,
			TileErrors: []string{validate.ErrInvalidBuffer},
		}
	}
	return validate.Tile(raw)
}
