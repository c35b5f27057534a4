// Package raster handles the opaque image payloads carried by raster
// features. Pixels are never decoded; only the container format is
// sniffed and, where possible, the image dimensions read from the
// header.
package raster

import (
	"bytes"
	"fmt"
	"image"

	// Register config decoders for the supported formats. Pixel
	// decoding is never invoked.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Format is a supported raster container format.
type Format string

const (
	FormatWebP Format = "webp"
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatTIFF Format = "tiff"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "", "webp":
		return FormatWebP, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "tiff":
		return FormatTIFF, nil
	default:
		return "", fmt.Errorf("unknown image format %q", name)
	}
}

// ScalingMethod names a resampling kernel. The engine checks the name
// but neither stores it nor resamples itself.
type ScalingMethod string

// The closed set of scaling methods, matching mapnik's kernel names.
const (
	ScalingNear     ScalingMethod = "near"
	ScalingBilinear ScalingMethod = "bilinear"
	ScalingBicubic  ScalingMethod = "bicubic"
	ScalingSpline16 ScalingMethod = "spline16"
	ScalingSpline36 ScalingMethod = "spline36"
	ScalingHanning  ScalingMethod = "hanning"
	ScalingHamming  ScalingMethod = "hamming"
	ScalingHermite  ScalingMethod = "hermite"
	ScalingKaiser   ScalingMethod = "kaiser"
	ScalingQuadric  ScalingMethod = "quadric"
	ScalingCatrom   ScalingMethod = "catrom"
	ScalingGaussian ScalingMethod = "gaussian"
	ScalingBessel   ScalingMethod = "bessel"
	ScalingMitchell ScalingMethod = "mitchell"
	ScalingSinc     ScalingMethod = "sinc"
	ScalingLanczos  ScalingMethod = "lanczos"
	ScalingBlackman ScalingMethod = "blackman"
)

var scalingMethods = map[string]ScalingMethod{
	"near": ScalingNear, "bilinear": ScalingBilinear, "bicubic": ScalingBicubic,
	"spline16": ScalingSpline16, "spline36": ScalingSpline36,
	"hanning": ScalingHanning, "hamming": ScalingHamming, "hermite": ScalingHermite,
	"kaiser": ScalingKaiser, "quadric": ScalingQuadric, "catrom": ScalingCatrom,
	"gaussian": ScalingGaussian, "bessel": ScalingBessel, "mitchell": ScalingMitchell,
	"sinc": ScalingSinc, "lanczos": ScalingLanczos, "blackman": ScalingBlackman,
}

// ParseScalingMethod validates a scaling method name.
func ParseScalingMethod(name string) (ScalingMethod, error) {
	if name == "" {
		return ScalingBilinear, nil
	}
	if m, ok := scalingMethods[name]; ok {
		return m, nil
	}
	return "", fmt.Errorf("unknown scaling method %q", name)
}

// Sniff determines the container format of image bytes from their
// magic numbers.
func Sniff(data []byte) (Format, error) {
	switch {
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}):
		return FormatPNG, nil
	case len(data) >= 3 && data[0] == 0xff && data[1] == 0xd8 && data[2] == 0xff:
		return FormatJPEG, nil
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return FormatWebP, nil
	case len(data) >= 4 && (bytes.Equal(data[:4], []byte{'I', 'I', 0x2a, 0x00}) || bytes.Equal(data[:4], []byte{'M', 'M', 0x00, 0x2a})):
		return FormatTIFF, nil
	default:
		return "", fmt.Errorf("unrecognized image container")
	}
}

// Config reads the image dimensions from the header without decoding
// pixel data.
func Config(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
