package preview

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/Nielk1/bz2terraineditor/pkg/flatzone"
	"github.com/Nielk1/bz2terraineditor/pkg/terrain"
)

// stepTerrain is 2x2 clusters with the top-right cluster raised.
func stepTerrain(t *testing.T) *terrain.Terrain {
	t.Helper()

	ter, err := terrain.New(3, terrain.Bounds{MaxX: 8, MaxZ: 8})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for z := 4; z < 8; z++ {
		for x := 4; x < 8; x++ {
			ter.SetHeight(x, z, 100)
		}
	}
	ter.UpdateMinMax()
	ter.RegenerateDerivativeData()
	return ter
}

func TestNewRendererClampsScale(t *testing.T) {
	if s := NewRenderer(0).Scale; s != 1 {
		t.Errorf("expected scale 1, got %d", s)
	}
	if s := NewRenderer(4).Scale; s != 4 {
		t.Errorf("expected scale 4, got %d", s)
	}
}

func TestHeightMapFlipsZ(t *testing.T) {
	ter := stepTerrain(t)
	img := NewRenderer(2).HeightMap(ter)

	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
		t.Fatalf("expected 4x4 image, got %v", b)
	}

	// Cluster (1,1) averages 100, the maximum.
	if got := img.RGBAAt(3, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("expected raised cluster white at top right, got %v", got)
	}
	// Cluster (0,0) picks up one raised corner sample: 100/25 = 4.
	if got := img.RGBAAt(0, 3); got != (color.RGBA{10, 10, 10, 255}) {
		t.Errorf("expected dark grey at bottom left, got %v", got)
	}
}

func TestFlatnessMap(t *testing.T) {
	ter := stepTerrain(t)
	img := NewRenderer(1).FlatnessMap(ter)

	// Only cluster (1,1) is uniform over its clipped window.
	if got := img.RGBAAt(1, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("expected flat cluster white, got %v", got)
	}
	if got := img.RGBAAt(0, 0); got.R == 255 {
		t.Errorf("expected edge cluster darker than white, got %v", got)
	}
}

func TestRegionMap(t *testing.T) {
	ter := stepTerrain(t)
	res, err := flatzone.Resolve(flatzone.InputFromTerrain(ter), flatzone.Options{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	img, err := NewRenderer(1).RegionMap(ter, res)
	if err != nil {
		t.Fatalf("RegionMap failed: %v", err)
	}
	want := res.Color(1, 1, 0, ter.TileFlatnessMapMax())
	if got := img.RGBAAt(1, 0); got != want {
		t.Errorf("expected region colour %v, got %v", want, got)
	}
}

func TestRegionMapSizeMismatch(t *testing.T) {
	ter := stepTerrain(t)
	res, err := flatzone.Resolve(flatzone.Input{}, flatzone.Options{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if _, err := NewRenderer(1).RegionMap(ter, res); !errors.Is(err, flatzone.ErrInputSize) {
		t.Errorf("expected ErrInputSize, got %v", err)
	}
}

func TestSave(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	img.SetRGBA(2, 1, color.RGBA{10, 20, 30, 255})
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "out", "map.png")
	if err := Save(img, pngPath); err != nil {
		t.Fatalf("Save png failed: %v", err)
	}
	if _, err := os.Stat(pngPath); err != nil {
		t.Errorf("expected png file: %v", err)
	}

	bmpPath := filepath.Join(dir, "map.BMP")
	if err := Save(img, bmpPath); err != nil {
		t.Fatalf("Save bmp failed: %v", err)
	}
	f, err := os.Open(bmpPath)
	if err != nil {
		t.Fatalf("open bmp: %v", err)
	}
	defer f.Close()
	decoded, err := bmp.Decode(f)
	if err != nil {
		t.Fatalf("decode bmp: %v", err)
	}
	r, g, b, _ := decoded.At(2, 1).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Errorf("expected pixel (10,20,30), got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}

	if err := Save(img, filepath.Join(dir, "map.jpg")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}
