package terrain

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// WriteOption adjusts how a terrain is serialized.
type WriteOption func(*writeConfig)

type writeConfig struct {
	compatTag bool
}

// WithCompatVersionTag tags every version below 4 as version 3 in the
// header, as the original BZ2 editor did. Versions 1 and 2 keep their
// legacy block layout, so such files only read back correctly in tools
// that ignore the tag.
func WithCompatVersionTag() WriteOption {
	return func(c *writeConfig) { c.compatTag = true }
}

// Write serializes the terrain in its own format version. The header tag
// is that version too, unlike the original BZ2 editor, which always wrote
// 3 for versions below 4; pass WithCompatVersionTag for that behaviour.
// Version 0 terrains are written headerless.
func (t *Terrain) Write(w io.Writer, opts ...WriteOption) error {
	var cfg writeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	bw := bufio.NewWriter(w)
	e := &encoder{w: bw}

	if t.version > 0 {
		tag := uint32(t.version)
		if cfg.compatTag && t.version < 4 {
			tag = 3
		}
		e.raw([]byte(terMagic))
		e.u32(tag)
		e.i16(t.bounds.MinX)
		e.i16(t.bounds.MinZ)
		e.i16(t.bounds.MaxX)
		e.i16(t.bounds.MaxZ)
	}

	for cz := 0; cz < t.ClustersZ() && e.err == nil; cz++ {
		for cx := 0; cx < t.ClustersX() && e.err == nil; cx++ {
			t.encodeCluster(e, cx, cz)
		}
	}

	if e.err != nil {
		return fmt.Errorf("writing TER data: %w", e.err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing TER data: %w", err)
	}
	return nil
}

// Encode serializes the terrain into a new byte slice.
func (t *Terrain) Encode(opts ...WriteOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Write(&buf, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile serializes the terrain to disk.
func (t *Terrain) WriteFile(path string, opts ...WriteOption) error {
	data, err := t.Encode(opts...)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing TER file: %w", err)
	}
	return nil
}

// clusterMask flags every compressible attribute that is not uniform
// across the cluster at (x0, z0).
func (t *Terrain) clusterMask(x0, z0, cs int) compressionMask {
	var m compressionMask
	switch h := t.heights.(type) {
	case *FixedHeights:
		m |= haveHeight
	case *FloatHeights:
		if !uniform(&h.Grid, x0, z0, cs) {
			m |= haveHeight
		}
	}
	if !uniform(t.colors, x0, z0, cs) {
		m |= haveColor
	}
	if !uniform(t.alpha1, x0, z0, cs) {
		m |= haveAlpha1
	}
	if !uniform(t.alpha2, x0, z0, cs) {
		m |= haveAlpha2
	}
	if !uniform(t.alpha3, x0, z0, cs) {
		m |= haveAlpha3
	}
	if !uniform(t.cells, x0, z0, cs) {
		m |= haveCell
	}
	return m
}

func (t *Terrain) encodeCluster(e *encoder, cx, cz int) {
	v := t.version
	cs := t.ClusterSize()
	x0, z0 := cx*cs, cz*cs
	legacy := v.isLegacy()

	mask := haveAll
	if v.HasCompressionMask() {
		mask = t.clusterMask(x0, z0, cs)
		e.u8(uint8(mask))
	}

	switch h := t.heights.(type) {
	case *FixedHeights:
		writeBlock(&h.Grid, x0, z0, cs, legacy, true, e.i16)
	case *FloatHeights:
		writeBlock(&h.Grid, x0, z0, cs, false, mask.has(haveHeight), e.f32)
	}

	if t.normals != nil {
		writeBlock(t.normals, x0, z0, cs, legacy, true, e.u8)
	}

	writeBlock(t.colors, x0, z0, cs, legacy, mask.has(haveColor), e.rgb)
	writeBlock(t.alpha1, x0, z0, cs, legacy, mask.has(haveAlpha1), e.u8)
	writeBlock(t.alpha2, x0, z0, cs, legacy, mask.has(haveAlpha2), e.u8)
	writeBlock(t.alpha3, x0, z0, cs, legacy, mask.has(haveAlpha3), e.u8)
	writeBlock(t.cells, x0, z0, cs, legacy, mask.has(haveCell), func(c CellType) { e.u8(uint8(c)) })

	e.u32(uint32(t.info.At(cx, cz)))

	if n := paddingFor(v); n > 0 {
		e.raw(make([]byte, n))
	}
}

// writeBlock emits the cs x cs block at (x0, z0) of g, or its first cell
// when have is cleared.
//
// Legacy blocks are (cs+1)^2 and repeat the first row and column of the
// next cluster. On the last cluster of a row or column the trailing index
// equals the grid size; it steps back by one instead of advancing, so the
// edge sample is written twice.
func writeBlock[T any](g *Grid[T], x0, z0, cs int, legacy, have bool, put func(T)) {
	if !have {
		put(g.At(x0, z0))
		return
	}

	if !legacy {
		for z := z0; z < z0+cs; z++ {
			for x := x0; x < x0+cs; x++ {
				put(g.At(x, z))
			}
		}
		return
	}

	for cz := 0; cz <= cs; cz++ {
		z := z0 + cz
		if z == g.Height() {
			z--
		}
		for cx := 0; cx <= cs; cx++ {
			x := x0 + cx
			if x == g.Width() {
				x--
			}
			put(g.At(x, z))
		}
	}
}

// encoder is a little-endian writer with a sticky error.
type encoder struct {
	w   io.Writer
	buf [4]byte
	err error
}

func (e *encoder) raw(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *encoder) u8(v uint8) {
	e.buf[0] = v
	e.raw(e.buf[:1])
}

func (e *encoder) i16(v int16) {
	binary.LittleEndian.PutUint16(e.buf[:2], uint16(v))
	e.raw(e.buf[:2])
}

func (e *encoder) u32(v uint32) {
	binary.LittleEndian.PutUint32(e.buf[:4], v)
	e.raw(e.buf[:4])
}

func (e *encoder) f32(v float32) {
	e.u32(math.Float32bits(v))
}

func (e *encoder) rgb(c RGB) {
	e.buf[0], e.buf[1], e.buf[2] = c.R, c.G, c.B
	e.raw(e.buf[:3])
}
