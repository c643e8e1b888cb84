// Package preview renders terrain cluster data to images for inspection.
//
// Images put the terrain's maximum Z on the top row, matching the editor's
// top-down view.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/Nielk1/bz2terraineditor/pkg/flatzone"
	"github.com/Nielk1/bz2terraineditor/pkg/terrain"
)

// ErrUnknownFormat is returned by Save for extensions other than .png and .bmp.
var ErrUnknownFormat = errors.New("unknown image format")

// Renderer draws per-cluster maps, each cluster as a Scale x Scale block.
type Renderer struct {
	Scale int
}

// NewRenderer creates a renderer; scales below 1 are raised to 1.
func NewRenderer(scale int) *Renderer {
	return &Renderer{Scale: max(scale, 1)}
}

// RegionMap colours each cluster by its resolved region.
func (r *Renderer) RegionMap(t *terrain.Terrain, res *flatzone.Result) (*image.RGBA, error) {
	if res.ClustersX != t.ClustersX() || res.ClustersZ != t.ClustersZ() {
		return nil, fmt.Errorf("%w: result %dx%d, terrain %dx%d clusters",
			flatzone.ErrInputSize, res.ClustersX, res.ClustersZ, t.ClustersX(), t.ClustersZ())
	}
	flatness := t.TileFlatness()
	maxFlat := t.TileFlatnessMapMax()
	return r.render(res.ClustersX, res.ClustersZ, func(cx, cz int) color.RGBA {
		return res.Color(cx, cz, flatness.At(cx, cz), maxFlat)
	}), nil
}

// FlatnessMap shades clusters from white (flat) to black (roughest).
func (r *Renderer) FlatnessMap(t *terrain.Terrain) *image.RGBA {
	flatness := t.TileFlatness()
	return r.render(t.ClustersX(), t.ClustersZ(), func(cx, cz int) color.RGBA {
		return shade(1 - ratio(flatness.At(cx, cz), 0, t.TileFlatnessMapMax()))
	})
}

// HeightMap shades clusters by average height from black (lowest) to white.
func (r *Renderer) HeightMap(t *terrain.Terrain) *image.RGBA {
	avg := t.TileAverageHeight()
	lo, hi := t.HeightRange()
	return r.render(t.ClustersX(), t.ClustersZ(), func(cx, cz int) color.RGBA {
		return shade(ratio(avg.At(cx, cz), lo, hi))
	})
}

func (r *Renderer) render(w, h int, at func(cx, cz int) color.RGBA) *image.RGBA {
	s := r.Scale
	img := image.NewRGBA(image.Rect(0, 0, w*s, h*s))
	for cz := 0; cz < h; cz++ {
		y := (h - 1 - cz) * s // Flip Z
		for cx := 0; cx < w; cx++ {
			block := image.Rect(cx*s, y, (cx+1)*s, y+s)
			draw.Draw(img, block, image.NewUniform(at(cx, cz)), image.Point{}, draw.Src)
		}
	}
	return img
}

func ratio(v, lo, hi float32) float32 {
	if hi <= lo {
		return 0
	}
	return min(max((v-lo)/(hi-lo), 0), 1)
}

func shade(f float32) color.RGBA {
	g := uint8(f*255 + 0.5)
	return color.RGBA{R: g, G: g, B: g, A: 255}
}

// Save encodes img as PNG or BMP depending on the extension of path.
func Save(img image.Image, path string) error {
	var encode func(f *os.File) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		encode = func(f *os.File) error { return png.Encode(f, img) }
	case ".bmp":
		encode = func(f *os.File) error { return bmp.Encode(f, img) }
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := encode(file); err != nil {
		file.Close()
		return fmt.Errorf("encoding %s: %w", filepath.Ext(path), err)
	}
	return file.Close()
}
