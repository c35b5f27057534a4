package vectortile

import (
	"github.com/MeKo-Tech/vectortile/internal/compress"
	"github.com/MeKo-Tech/vectortile/internal/mvt"
	"github.com/MeKo-Tech/vectortile/internal/raster"
)

// FillType selects the polygon interior rule used when the encoder
// re-derives ring roles. Re-exported from the codec so callers only
// import this package.
type FillType = mvt.FillType

// Fill type values.
const (
	FillEvenOdd  = mvt.FillEvenOdd
	FillNonZero  = mvt.FillNonZero
	FillPositive = mvt.FillPositive
	FillNegative = mvt.FillNegative
)

// ImageFormat is a raster container format tag.
type ImageFormat = raster.Format

// ScalingMethod is a resampling kernel name. Options accept and check
// it; it is not stored with raster features.
type ScalingMethod = raster.ScalingMethod

// ThreadingMode controls how composite work is scheduled.
type ThreadingMode int

const (
	// ThreadingDeferred runs all work on the calling goroutine.
	ThreadingDeferred ThreadingMode = 1 << iota
	// ThreadingAsync decodes and encodes disjoint source layers on a
	// worker pool and joins before returning.
	ThreadingAsync
	// ThreadingAsyncDeferred lets the engine choose per task.
	ThreadingAsyncDeferred = ThreadingDeferred | ThreadingAsync
)

// ParseOptions configure SetData and AddData.
type ParseOptions struct {
	// Validate runs structural validation and rejects buffers with
	// findings.
	Validate bool
	// Upgrade rewrites v1 layer contents to satisfy the v2
	// invariants and rejects layers declaring a version above 2.
	// Without it every layer is kept as it is.
	Upgrade bool
}

// GetDataOptions configure GetData.
type GetDataOptions struct {
	// Compression is "none" (default) or "gzip".
	Compression string
	// Level is the deflate level 0..9; -1 picks the library default.
	Level int
	// Strategy is one of DEFAULT, FILTERED, HUFFMAN_ONLY, RLE, FIXED.
	Strategy string
	// Release empties the tile's buffer after returning it.
	Release bool
}

// DefaultGetDataOptions returns uncompressed output.
func DefaultGetDataOptions() GetDataOptions {
	return GetDataOptions{Compression: "none", Level: -1}
}

func (o GetDataOptions) encoding() (compress.Encoding, error) {
	switch o.Compression {
	case "", "none":
		return compress.EncodingNone, nil
	case "gzip":
		return compress.EncodingGzip, nil
	default:
		return compress.EncodingNone, invalidf("compression must be 'gzip' or 'none', got %q", o.Compression)
	}
}

// EncodeOptions steer the geometry pipeline for AddGeoJSON and the
// composite re-encode path.
type EncodeOptions struct {
	// AreaThreshold drops rings below this grid-space area.
	AreaThreshold float64
	// SimplifyDistance is the Douglas-Peucker tolerance in grid
	// units; 0 disables simplification.
	SimplifyDistance float64
	// StrictlySimple drops rings that self-intersect after
	// quantization.
	StrictlySimple bool
	// MultiPolygonUnion merges nested multi-polygon members before
	// encoding.
	MultiPolygonUnion bool
	// FillType picks the ring classification rule.
	FillType FillType
	// ProcessAllRings re-derives ring roles from signed area instead
	// of trusting source ring order.
	ProcessAllRings bool
}

// DefaultEncodeOptions mirrors the reference encoder defaults.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		AreaThreshold:  0.1,
		StrictlySimple: true,
		FillType:       FillPositive,
	}
}

func (o EncodeOptions) codec() mvt.EncodeOptions {
	return mvt.EncodeOptions{
		Extent:            mvt.DefaultExtent,
		Version:           mvt.DefaultVersion,
		SimplifyDistance:  o.SimplifyDistance,
		AreaThreshold:     o.AreaThreshold,
		StrictlySimple:    o.StrictlySimple,
		MultiPolygonUnion: o.MultiPolygonUnion,
		FillType:          o.FillType,
		ProcessAllRings:   o.ProcessAllRings,
	}
}

// CompositeOptions configure Composite.
type CompositeOptions struct {
	// ScaleFactor scales source geometry during re-encode.
	ScaleFactor float64
	// OffsetX and OffsetY shift source tiles in tile units.
	OffsetX int
	OffsetY int
	// AreaThreshold, StrictlySimple, MultiPolygonUnion, FillType,
	// SimplifyDistance and ProcessAllRings pass through to the
	// encoder on the re-encode path.
	AreaThreshold     float64
	StrictlySimple    bool
	MultiPolygonUnion bool
	FillType          FillType
	SimplifyDistance  float64
	ProcessAllRings   bool
	// ScaleDenominator is accepted for option compatibility; the
	// engine does not use it.
	ScaleDenominator float64
	// Reencode forces the re-encode path even when sources share the
	// target's coordinates.
	Reencode bool
	// MaxExtent, when non-zero, clips re-encoded output to this
	// mercator envelope instead of the target's buffered extent.
	MaxExtent [4]float64
	// ImageFormat and ScalingMethod are carried in the option record
	// only: re-encoded raster features keep their payload bytes as
	// they are, and no format or kernel is written with them.
	ImageFormat ImageFormat
	// ScalingMethod names a resampling kernel; the composite engine
	// does not use it.
	ScalingMethod ScalingMethod
	// ThreadingMode schedules per-source-tile decode and per-layer
	// encode work.
	ThreadingMode ThreadingMode
}

// DefaultCompositeOptions mirrors the reference defaults.
func DefaultCompositeOptions() CompositeOptions {
	return CompositeOptions{
		ScaleFactor:    1.0,
		AreaThreshold:  0.1,
		StrictlySimple: true,
		FillType:       FillPositive,
		ImageFormat:    raster.FormatWebP,
		ScalingMethod:  raster.ScalingBilinear,
		ThreadingMode:  ThreadingDeferred,
	}
}

func (o CompositeOptions) encodeOptions() mvt.EncodeOptions {
	return mvt.EncodeOptions{
		Extent:            mvt.DefaultExtent,
		Version:           mvt.DefaultVersion,
		SimplifyDistance:  o.SimplifyDistance,
		AreaThreshold:     o.AreaThreshold,
		StrictlySimple:    o.StrictlySimple,
		MultiPolygonUnion: o.MultiPolygonUnion,
		FillType:          o.FillType,
		ProcessAllRings:   o.ProcessAllRings,
	}
}

// ImageOptions configure AddImageBuffer.
type ImageOptions struct {
	// Format names the container format of the supplied bytes.
	Format ImageFormat
	// Scaling names a resampling kernel. It is checked against the
	// closed set of kernel names and not stored in the tile.
	Scaling ScalingMethod
}

// DefaultImageOptions matches the reference defaults.
func DefaultImageOptions() ImageOptions {
	return ImageOptions{Format: raster.FormatWebP, Scaling: raster.ScalingBilinear}
}

// QueryOptions configure Query.
type QueryOptions struct {
	// Tolerance admits features within this many mercator meters of
	// the query point. Ignored for polygons, which require
	// containment.
	Tolerance float64
	// Layer restricts the query to one layer; empty queries all.
	Layer string
}

// QueryManyOptions configure QueryMany.
type QueryManyOptions struct {
	// Tolerance admits features within this many mercator meters.
	Tolerance float64
	// Layer is the layer to query; required.
	Layer string
	// Fields projects feature attributes; empty requests all fields
	// declared by the layer.
	Fields []string
}

// JSONOptions configure ToJSON.
type JSONOptions struct {
	// DecodeGeometry replaces raw command streams with decoded
	// coordinate arrays.
	DecodeGeometry bool
}
