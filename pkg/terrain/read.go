package terrain

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Parse decodes a TER file from raw bytes.
// Data without the 'TERR' magic is treated as headerless version 0.
func Parse(data []byte) (*Terrain, error) {
	if len(data) < len(terMagic) {
		return nil, fmt.Errorf("%w: reading magic", ErrTruncatedData)
	}

	d := &decoder{r: bytes.NewReader(data)}

	var (
		version Version
		bounds  Bounds
	)

	if string(data[:len(terMagic)]) == terMagic {
		d.skip(len(terMagic), "magic")
		version = Version(d.u32("version"))
		if d.err != nil {
			return nil, d.err
		}
		if version > MaxVersion {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, uint32(version))
		}
		if version > 0 {
			bounds = Bounds{
				MinX: d.i16("grid min x"),
				MinZ: d.i16("grid min z"),
				MaxX: d.i16("grid max x"),
				MaxZ: d.i16("grid max z"),
			}
			if d.err != nil {
				return nil, d.err
			}
		} else {
			var err error
			if bounds, err = inferLegacyBounds(d.r.Len()); err != nil {
				return nil, err
			}
		}
	} else {
		var err error
		if bounds, err = inferLegacyBounds(len(data)); err != nil {
			return nil, err
		}
	}

	if err := checkLayout(version, bounds); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBounds, err)
	}

	// Reject headers whose grid cannot fit in the remaining bytes before
	// allocating it.
	clusters := bounds.Width() / version.ClusterSize() * (bounds.Height() / version.ClusterSize())
	if need := clusters * minClusterBytes(version); need > d.r.Len() {
		return nil, fmt.Errorf("%w: %d clusters need at least %d bytes, %d left",
			ErrTruncatedData, clusters, need, d.r.Len())
	}

	t, err := New(version, bounds)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBounds, err)
	}
	t.resetMinMax()

	for cz := 0; cz < t.ClustersZ(); cz++ {
		for cx := 0; cx < t.ClustersX(); cx++ {
			if err := t.decodeCluster(d, cx, cz); err != nil {
				return nil, fmt.Errorf("decoding cluster (%d,%d): %w", cx, cz, err)
			}
		}
	}

	t.RegenerateDerivativeData()
	return t, nil
}

// ParseStrict decodes a TER file that must start with the 'TERR' header.
// Headerless version 0 data is rejected with ErrInvalidMagic.
func ParseStrict(data []byte) (*Terrain, error) {
	if len(data) < len(terMagic) {
		return nil, fmt.Errorf("%w: reading magic", ErrTruncatedData)
	}
	if magic := data[:len(terMagic)]; string(magic) != terMagic {
		return nil, fmt.Errorf("%w, got %q", ErrInvalidMagic, magic)
	}
	return Parse(data)
}

// Read decodes a TER file from a stream.
func Read(r io.Reader) (*Terrain, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading TER stream: %w", err)
	}
	return Parse(data)
}

// ReadFile decodes a TER file from disk.
func ReadFile(path string) (*Terrain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading TER file: %w", err)
	}
	return Parse(data)
}

// inferLegacyBounds guesses the extent of a headerless terrain from its size.
// The result is square and centered on the origin, spanning four cells per
// cluster so the decoded clusters fill it exactly.
func inferLegacyBounds(size int) (Bounds, error) {
	clusters := int(math.Sqrt(float64(size / legacyBytesPerCluster)))
	width := clusters * Version(0).ClusterSize()
	if clusters == 0 || width > math.MaxInt16 {
		return Bounds{}, fmt.Errorf("%w: cannot infer grid from %d bytes", ErrInvalidBounds, size)
	}

	half := int16(width / 2)
	return Bounds{MinX: -half, MinZ: -half, MaxX: half, MaxZ: half}, nil
}

// decodeCluster reads one cluster. Blocks come in a fixed order:
// mask, height, normal, color, alpha 1-3, cell, info, padding.
func (t *Terrain) decodeCluster(d *decoder, cx, cz int) error {
	v := t.version
	cs := t.ClusterSize()
	x0, z0 := cx*cs, cz*cs
	legacy := v.isLegacy()

	mask := haveAll
	if v.HasCompressionMask() {
		mask = compressionMask(d.u8("compression mask"))
	}

	switch h := t.heights.(type) {
	case *FixedHeights:
		readBlock(&h.Grid, x0, z0, cs, legacy, true, func() int16 { return d.i16("height") })
		for z := z0; z < z0+cs; z++ {
			for x := x0; x < x0+cs; x++ {
				t.trackFixed(h.At(x, z))
			}
		}
	case *FloatHeights:
		readBlock(&h.Grid, x0, z0, cs, false, mask.has(haveHeight), func() float32 { return d.f32("height") })
		for z := z0; z < z0+cs; z++ {
			for x := x0; x < x0+cs; x++ {
				t.trackFloat(h.At(x, z))
			}
		}
	}

	if t.normals != nil {
		readBlock(t.normals, x0, z0, cs, legacy, true, func() uint8 { return d.u8("normal") })
	}

	readBlock(t.colors, x0, z0, cs, legacy, mask.has(haveColor), d.rgb)
	readBlock(t.alpha1, x0, z0, cs, legacy, mask.has(haveAlpha1), func() uint8 { return d.u8("alpha 1") })
	readBlock(t.alpha2, x0, z0, cs, legacy, mask.has(haveAlpha2), func() uint8 { return d.u8("alpha 2") })
	readBlock(t.alpha3, x0, z0, cs, legacy, mask.has(haveAlpha3), func() uint8 { return d.u8("alpha 3") })
	readBlock(t.cells, x0, z0, cs, legacy, mask.has(haveCell), func() CellType { return CellType(d.u8("cell type")) })

	t.info.Set(cx, cz, InfoWord(d.u32("info")))

	if n := paddingFor(v); n > 0 {
		d.skip(n, "padding")
	}

	return d.err
}

// readBlock fills the cs x cs block at (x0, z0) of g.
//
// With have cleared a single value is broadcast. Legacy blocks carry an
// extra trailing sample per row and an extra trailing row, duplicated from
// the neighbouring cluster; those are consumed and dropped.
func readBlock[T any](g *Grid[T], x0, z0, cs int, legacy, have bool, next func() T) {
	if !have {
		g.fillRect(x0, z0, cs, next())
		return
	}

	for cz := 0; cz < cs; cz++ {
		for cx := 0; cx < cs; cx++ {
			g.Set(x0+cx, z0+cz, next())
		}
		if legacy {
			next()
		}
	}
	if legacy {
		for i := 0; i <= cs; i++ {
			next()
		}
	}
}

// decoder is a little-endian reader with a sticky error. After the first
// failure every read returns zero values and err names the field.
type decoder struct {
	r   *bytes.Reader
	buf [4]byte
	err error
}

func (d *decoder) read(n int, field string) []byte {
	b := d.buf[:n]
	if d.err != nil {
		clear(b)
		return b
	}
	if _, err := io.ReadFull(d.r, b); err != nil {
		d.err = fmt.Errorf("%w: reading %s", ErrTruncatedData, field)
		clear(b)
	}
	return b
}

func (d *decoder) skip(n int, field string) {
	if d.err != nil {
		return
	}
	if d.r.Len() < n {
		d.err = fmt.Errorf("%w: reading %s", ErrTruncatedData, field)
		return
	}
	_, _ = d.r.Seek(int64(n), io.SeekCurrent)
}

func (d *decoder) u8(field string) uint8 {
	return d.read(1, field)[0]
}

func (d *decoder) i16(field string) int16 {
	return int16(binary.LittleEndian.Uint16(d.read(2, field)))
}

func (d *decoder) u32(field string) uint32 {
	return binary.LittleEndian.Uint32(d.read(4, field))
}

func (d *decoder) f32(field string) float32 {
	return math.Float32frombits(d.u32(field))
}

func (d *decoder) rgb() RGB {
	b := d.read(3, "color")
	return RGB{R: b[0], G: b[1], B: b[2]}
}
