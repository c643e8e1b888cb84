package main

import (
	"flag"
	"fmt"
	gomath "math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/Nielk1/bz2terraineditor/internal/config"
	"github.com/Nielk1/bz2terraineditor/internal/preview"
	"github.com/Nielk1/bz2terraineditor/pkg/flatzone"
	"github.com/Nielk1/bz2terraineditor/pkg/terrain"
)

type app struct {
	cfg *config.Config
	log *zap.Logger
}

// outputPath returns out, or the input path with suffix inserted before
// its extension.
func outputPath(in, out, suffix string) string {
	if out != "" {
		return out
	}
	ext := filepath.Ext(in)
	return strings.TrimSuffix(in, ext) + suffix + ext
}

func (a *app) load(path string) (*terrain.Terrain, error) {
	return a.loadWith(path, terrain.Parse)
}

// loadWith reads path and decodes it with parse.
func (a *app) loadWith(path string, parse func([]byte) (*terrain.Terrain, error)) (*terrain.Terrain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading TER file: %w", err)
	}
	ter, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.log.Debug("terrain loaded",
		zap.String("file", path),
		zap.Stringer("version", ter.Version()),
		zap.Int("width", ter.Width()),
		zap.Int("height", ter.Height()))
	return ter, nil
}

func (a *app) save(ter *terrain.Terrain, in, out string) error {
	path := outputPath(in, out, a.cfg.Output.Suffix)

	var opts []terrain.WriteOption
	if a.cfg.Output.CompatVersionTag {
		opts = append(opts, terrain.WithCompatVersionTag())
	}
	if err := ter.WriteFile(path, opts...); err != nil {
		return err
	}
	a.log.Info("terrain written",
		zap.String("file", path),
		zap.Stringer("version", ter.Version()),
		zap.Bool("compat_tag", a.cfg.Output.CompatVersionTag))
	return nil
}

// flattenFlags registers the resolver flags with config values as defaults.
func (a *app) flattenFlags(fs *flag.FlagSet) func() flatzone.Options {
	maxRange := fs.Float64("max-range", float64(a.cfg.Flatten.MaxRange), "Largest flatness that can join a region")
	tolerance := fs.Float64("tolerance", float64(a.cfg.Flatten.MergeTolerance), "Largest height gap between merged regions")
	return func() flatzone.Options {
		return flatzone.Options{MaxRange: float32(*maxRange), MergeTolerance: float32(*tolerance)}
	}
}

func (a *app) resolve(ter *terrain.Terrain, opts flatzone.Options) (flatzone.Input, *flatzone.Result, error) {
	in := flatzone.InputFromTerrain(ter)
	res, err := flatzone.Resolve(in, opts)
	if err != nil {
		return in, nil, err
	}
	a.log.Debug("flat zones resolved",
		zap.Float32("max_range", opts.MaxRange),
		zap.Float32("tolerance", opts.MergeTolerance),
		zap.Int("regions", len(res.Regions)),
		zap.Int("conflicts", res.Count(flatzone.Conflict)))
	return in, res, nil
}

func (a *app) cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	strict := fs.Bool("strict", false, "Reject files without the 'TERR' header")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return usageError("info [-strict] <file.ter>")
	}

	parse := terrain.Parse
	if *strict {
		parse = terrain.ParseStrict
	}
	ter, err := a.loadWith(fs.Arg(0), parse)
	if err != nil {
		return err
	}

	b := ter.Bounds()
	lo, hi := ter.HeightRange()
	flatness := make([]float64, 0, ter.ClustersX()*ter.ClustersZ())
	for _, f := range ter.TileFlatness().Cells() {
		flatness = append(flatness, float64(f))
	}

	fmt.Printf("Terrain:   %s\n", fs.Arg(0))
	fmt.Printf("Version:   %s\n", ter.Version())
	fmt.Printf("Bounds:    (%d, %d) - (%d, %d)\n", b.MinX, b.MinZ, b.MaxX, b.MaxZ)
	fmt.Printf("Size:      %d x %d cells\n", ter.Width(), ter.Height())
	fmt.Printf("Clusters:  %d x %d (%d cells each side)\n", ter.ClustersX(), ter.ClustersZ(), ter.ClusterSize())
	fmt.Printf("Heights:   %.3f .. %.3f\n", lo, hi)
	fmt.Printf("Flatness:  max %.3f, mean %.3f\n", ter.TileFlatnessMapMax(), stat.Mean(flatness, nil))
	fmt.Printf("Normals:   %t\n", ter.NormalMap() != nil)
	return nil
}

func (a *app) cmdRegions(args []string) error {
	fs := flag.NewFlagSet("regions", flag.ExitOnError)
	options := a.flattenFlags(fs)
	mapPath := fs.String("map", "", "Write a region map image (.png or .bmp)")
	scale := fs.Int("scale", 4, "Pixels per cluster in the region map")
	limit := fs.Int("n", 50, "Limit listed regions (0 = all)")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return usageError("regions [-max-range f] [-tolerance f] [-map out.png] <file.ter>")
	}

	ter, err := a.load(fs.Arg(0))
	if err != nil {
		return err
	}
	in, res, err := a.resolve(ter, options())
	if err != nil {
		return err
	}
	s := flatzone.Summarize(in, res)

	fmt.Printf("Clusters:   %d (%d flat seeds)\n", s.Clusters, s.Seeds)
	fmt.Printf("Assigned:   %d\n", s.Assigned)
	fmt.Printf("Conflicts:  %d\n", s.Conflicts)
	fmt.Printf("Unassigned: %d\n", s.Unassigned)
	fmt.Printf("Flatness:   mean %.3f, median %.3f, stddev %.3f, max %.3f\n",
		s.FlatnessMean, s.FlatnessMedian, s.FlatnessStdDev, s.FlatnessMax)
	fmt.Printf("Regions:    %d (height spread %.3f)\n", s.Regions, s.RegionHeightSpread)
	fmt.Println()

	if len(res.Regions) > 0 {
		fmt.Printf("  %-8s %-8s %s\n", "ID", "SIZE", "HEIGHT")
		for i, reg := range res.Regions {
			if *limit > 0 && i >= *limit {
				fmt.Printf("  (%d more, use -n 0 for all)\n", len(res.Regions)-i)
				break
			}
			fmt.Printf("  %-8d %-8d %.3f\n", reg.ID, reg.Size, reg.Height)
		}
	}

	if *mapPath != "" {
		img, err := preview.NewRenderer(*scale).RegionMap(ter, res)
		if err != nil {
			return err
		}
		if err := preview.Save(img, *mapPath); err != nil {
			return err
		}
		a.log.Info("region map written", zap.String("file", *mapPath))
	}
	return nil
}

func (a *app) cmdFlatten(args []string) error {
	fs := flag.NewFlagSet("flatten", flag.ExitOnError)
	options := a.flattenFlags(fs)
	out := fs.String("o", "", "Output file")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return usageError("flatten [-max-range f] [-tolerance f] [-o out] <file.ter>")
	}

	ter, err := a.load(fs.Arg(0))
	if err != nil {
		return err
	}
	_, res, err := a.resolve(ter, options())
	if err != nil {
		return err
	}

	changed, err := flatzone.Apply(ter, res)
	if err != nil {
		return err
	}
	ter.RegenerateDerivativeData()
	a.log.Info("flattened",
		zap.Int("clusters", changed),
		zap.Int("regions", len(res.Regions)),
		zap.Int("conflicts", res.Count(flatzone.Conflict)))

	return a.save(ter, fs.Arg(0), *out)
}

func (a *app) cmdTranslate(args []string) error {
	fs := flag.NewFlagSet("translate", flag.ExitOnError)
	out := fs.String("o", "", "Output file")
	fs.Parse(args)
	if fs.NArg() < 2 {
		return usageError("translate [-o out] <file.ter> <delta>")
	}

	delta, err := strconv.ParseFloat(fs.Arg(1), 64)
	if err != nil {
		return fmt.Errorf("invalid delta %q: %w", fs.Arg(1), err)
	}

	ter, err := a.load(fs.Arg(0))
	if err != nil {
		return err
	}
	ter.Translate(delta)
	ter.RegenerateDerivativeData()

	lo, hi := ter.HeightRange()
	a.log.Info("translated", zap.Float64("delta", delta), zap.Float32("min", lo), zap.Float32("max", hi))
	return a.save(ter, fs.Arg(0), *out)
}

func (a *app) cmdRescale(args []string) error {
	fs := flag.NewFlagSet("rescale", flag.ExitOnError)
	out := fs.String("o", "", "Output file")
	fs.Parse(args)
	if fs.NArg() < 5 {
		return usageError("rescale [-o out] <file.ter> <min1> <max1> <min2> <max2>")
	}

	var r [4]float32
	for i := range r {
		v, err := strconv.ParseFloat(fs.Arg(i+1), 32)
		if err != nil {
			return fmt.Errorf("invalid range value %q: %w", fs.Arg(i+1), err)
		}
		r[i] = float32(v)
	}
	if r[0] == r[1] {
		return fmt.Errorf("source range %v..%v is empty", r[0], r[1])
	}

	ter, err := a.load(fs.Arg(0))
	if err != nil {
		return err
	}
	ter.RescaleHeight(r[0], r[1], r[2], r[3])
	ter.RegenerateDerivativeData()

	lo, hi := ter.HeightRange()
	a.log.Info("rescaled", zap.Float32s("ranges", r[:]), zap.Float32("min", lo), zap.Float32("max", hi))
	return a.save(ter, fs.Arg(0), *out)
}

func (a *app) cmdPan(args []string) error {
	fs := flag.NewFlagSet("pan", flag.ExitOnError)
	out := fs.String("o", "", "Output file")
	fs.Parse(args)
	if fs.NArg() < 3 {
		return usageError("pan [-o out] <file.ter> <minX> <minZ>")
	}

	var origin [2]int16
	for i := range origin {
		v, err := strconv.ParseInt(fs.Arg(i+1), 10, 16)
		if err != nil {
			return fmt.Errorf("invalid origin %q: %w", fs.Arg(i+1), err)
		}
		origin[i] = int16(v)
	}

	ter, err := a.load(fs.Arg(0))
	if err != nil {
		return err
	}
	if int(origin[0])+ter.Width() > gomath.MaxInt16 || int(origin[1])+ter.Height() > gomath.MaxInt16 {
		return fmt.Errorf("origin (%d, %d) pushes the grid past the int16 range", origin[0], origin[1])
	}
	ter.SetPan(origin[0], origin[1])

	b := ter.Bounds()
	a.log.Info("panned", zap.Int16("min_x", b.MinX), zap.Int16("min_z", b.MinZ))
	return a.save(ter, fs.Arg(0), *out)
}

func (a *app) cmdNormals(args []string) error {
	fs := flag.NewFlagSet("normals", flag.ExitOnError)
	out := fs.String("o", "", "Output file")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return usageError("normals [-o out] <file.ter>")
	}

	ter, err := a.load(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := ter.RebuildNormalMap(); err != nil {
		return fmt.Errorf("%s (%s): %w", fs.Arg(0), ter.Version(), err)
	}
	a.log.Info("normal map rebuilt", zap.Int("cells", ter.Width()*ter.Height()))
	return a.save(ter, fs.Arg(0), *out)
}

func (a *app) cmdSlopes(args []string) error {
	fs := flag.NewFlagSet("slopes", flag.ExitOnError)
	angle := fs.Float64("angle", float64(a.cfg.Slopes.MaxAngleDegrees), "Largest angle from vertical, in degrees, that is not sloped")
	out := fs.String("o", "", "Output file")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return usageError("slopes [-angle deg] [-o out] <file.ter>")
	}
	if *angle <= 0 || *angle > 90 {
		return fmt.Errorf("angle %v outside (0, 90]", *angle)
	}

	ter, err := a.load(fs.Arg(0))
	if err != nil {
		return err
	}
	sloped := ter.MarkSlopes(float32(*angle * gomath.Pi / 180))
	a.log.Info("slopes marked",
		zap.Float64("angle", *angle),
		zap.Int("sloped", sloped),
		zap.Int("cells", ter.Width()*ter.Height()))
	return a.save(ter, fs.Arg(0), *out)
}

func (a *app) cmdPreview(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	kind := fs.String("kind", "height", "Map to render: height or flatness")
	scale := fs.Int("scale", 4, "Pixels per cluster")
	fs.Parse(args)
	if fs.NArg() < 2 {
		return usageError("preview [-kind height|flatness] [-scale n] <file.ter> <out.png|out.bmp>")
	}

	ter, err := a.load(fs.Arg(0))
	if err != nil {
		return err
	}

	r := preview.NewRenderer(*scale)
	var saveErr error
	switch *kind {
	case "height":
		saveErr = preview.Save(r.HeightMap(ter), fs.Arg(1))
	case "flatness":
		saveErr = preview.Save(r.FlatnessMap(ter), fs.Arg(1))
	default:
		return usageError("preview [-kind height|flatness] [-scale n] <file.ter> <out.png|out.bmp>")
	}
	if saveErr != nil {
		return saveErr
	}
	a.log.Info("preview written", zap.String("kind", *kind), zap.String("file", fs.Arg(1)))
	return nil
}

func (a *app) cmdRewrite(args []string) error {
	fs := flag.NewFlagSet("rewrite", flag.ExitOnError)
	out := fs.String("o", "", "Output file")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return usageError("rewrite [-o out] <file.ter>")
	}

	ter, err := a.load(fs.Arg(0))
	if err != nil {
		return err
	}
	return a.save(ter, fs.Arg(0), *out)
}

func (a *app) cmdConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	save := fs.Bool("save", false, "Write the settings to the user config directory")
	path := fs.String("path", "", "Write the settings to this file instead")
	fs.Parse(args)
	if fs.NArg() > 0 {
		return usageError("config [-save] [-path file]")
	}

	data, err := a.cfg.Marshal()
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	fmt.Print(string(data))

	dest := *path
	switch {
	case dest != "":
		err = a.cfg.SaveTo(dest)
	case *save:
		dest = filepath.Join(config.ConfigDir(), config.FileName)
		err = a.cfg.Save()
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	a.log.Info("config saved", zap.String("file", dest))
	return nil
}
