package vectortile

import (
	"fmt"

	"github.com/MeKo-Tech/vectortile/internal/compress"
	"github.com/MeKo-Tech/vectortile/internal/mvt"
	"github.com/MeKo-Tech/vectortile/internal/validate"
)

// stagedLayers is the scratch state of a parse. Nothing touches the
// tile until commit, so a failed SetData or AddData leaves it
// unchanged.
type stagedLayers struct {
	names   []string
	encoded [][]byte
}

// parseBuffer inflates and scans data, upgrading or validating per
// opts, and returns the layers ready to append.
func (t *Tile) parseBuffer(data []byte, opts ParseOptions) (*stagedLayers, error) {
	raw, err := compress.Inflate(data)
	if err != nil {
		return nil, corruptf("%v", err)
	}

	ranges, _, err := mvt.ScanLayers(raw)
	if err != nil {
		return nil, corruptf("%v", err)
	}

	if opts.Validate {
		report := validate.Tile(raw)
		if report.Errors {
			return nil, corruptf("buffer failed validation: %v", validationSummary(report))
		}
	}

	staged := &stagedLayers{}
	for _, lr := range ranges {
		var encoded []byte
		if opts.Upgrade && lr.Version != mvt.DefaultVersion {
			if lr.Version > 2 {
				return nil, invalidVersionError(lr.Name, lr.Version)
			}
			layer, err := mvt.DecodeLayerRange(raw, lr)
			if err != nil {
				return nil, corruptf("layer %q: %v", lr.Name, err)
			}
			encoded, err = mvt.UpgradeLayer(layer)
			if err != nil {
				return nil, corruptf("layer %q: %v", lr.Name, err)
			}
		} else {
			encoded = make([]byte, lr.Length)
			copy(encoded, raw[lr.Offset:lr.Offset+lr.Length])
		}
		staged.names = append(staged.names, lr.Name)
		staged.encoded = append(staged.encoded, encoded)
	}
	return staged, nil
}

func invalidVersionError(layer string, version uint32) error {
	return fmt.Errorf("%w: layer %q declares version %d", ErrUnsupportedVersion, layer, version)
}

// SetData replaces the tile's buffer with data, clearing all indexes
// first. The buffer may be raw, gzip-framed, or zlib-framed.
func (t *Tile) SetData(data []byte, opts ParseOptions) error {
	staged, err := t.parseBuffer(data, opts)
	if err != nil {
		return err
	}
	t.Clear()
	t.commit(staged)
	return nil
}

// AddData appends the buffer's layers to the tile. Layer names
// already present are kept (first-writer-wins); the conflicting
// source layer is recorded as painted but not spliced.
func (t *Tile) AddData(data []byte, opts ParseOptions) error {
	staged, err := t.parseBuffer(data, opts)
	if err != nil {
		return err
	}
	t.commit(staged)
	return nil
}

func (t *Tile) commit(staged *stagedLayers) {
	for i, name := range staged.names {
		if t.HasLayer(name) {
			t.painted[name] = struct{}{}
			continue
		}
		t.appendLayer(name, staged.encoded[i])
	}
}

// GetData returns the encoded buffer, optionally gzip-framed. With
// Release set the tile's buffer is emptied after the bytes are taken.
func (t *Tile) GetData(opts GetDataOptions) ([]byte, error) {
	enc, err := opts.encoding()
	if err != nil {
		return nil, err
	}
	if opts.Level < -1 || opts.Level > 9 {
		return nil, invalidf("compression level %d out of range -1..9", opts.Level)
	}
	strategy, err := compress.ParseStrategy(opts.Strategy)
	if err != nil {
		return nil, invalidf("%v", err)
	}

	var out []byte
	if enc == compress.EncodingNone {
		out = make([]byte, len(t.buffer))
		copy(out, t.buffer)
	} else {
		out, err = compress.Deflate(t.buffer, enc, opts.Level, strategy)
		if err != nil {
			return nil, corruptf("%v", err)
		}
	}

	if opts.Release {
		t.Clear()
	}
	return out, nil
}

func validationSummary(report validate.TileReport) []string {
	msgs := append([]string{}, report.TileErrors...)
	for _, l := range report.Layers {
		msgs = append(msgs, l.Errors...)
	}
	return msgs
}
