// tertool is a CLI utility for inspecting and editing BattleZone II TER
// terrain files.
package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Nielk1/bz2terraineditor/internal/config"
	"github.com/Nielk1/bz2terraineditor/internal/logger"
)

// errUsage marks errors caused by bad command-line arguments.
var errUsage = errors.New("usage")

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	command, rest := args[0], args[1:]
	app := &app{cfg: cfg, log: logger.Named(command)}

	var runErr error
	switch command {
	case "info":
		runErr = app.cmdInfo(rest)
	case "regions":
		runErr = app.cmdRegions(rest)
	case "flatten":
		runErr = app.cmdFlatten(rest)
	case "translate":
		runErr = app.cmdTranslate(rest)
	case "rescale":
		runErr = app.cmdRescale(rest)
	case "pan":
		runErr = app.cmdPan(rest)
	case "normals":
		runErr = app.cmdNormals(rest)
	case "slopes":
		runErr = app.cmdSlopes(rest)
	case "preview":
		runErr = app.cmdPreview(rest)
	case "rewrite":
		runErr = app.cmdRewrite(rest)
	case "config":
		runErr = app.cmdConfig(rest)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if runErr != nil {
		if errors.Is(runErr, errUsage) {
			fmt.Fprintf(os.Stderr, "Usage: tertool %s\n", usageOf(runErr))
		} else {
			logger.Error("command failed", zap.String("command", command), zap.Error(runErr))
		}
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func printUsage() {
	fmt.Println(`tertool - BattleZone II terrain (.ter) utility

Usage:
  tertool [-config file] [-debug] [-log file] [-compat-tag] <command> [options]

Commands:
  info [-strict] <file.ter>                      Show version, bounds and height stats
  regions [-max-range f] [-tolerance f]
          [-map out.png] [-scale n] <file.ter>   Resolve flat zones and list regions
  flatten [-max-range f] [-tolerance f]
          [-o out] <file.ter>                    Level every resolved region
  translate [-o out] <file.ter> <delta>          Raise or lower every height
  rescale [-o out] <file.ter> <min1> <max1> <min2> <max2>
                                                 Map heights between ranges
  pan [-o out] <file.ter> <minX> <minZ>          Move the grid origin
  normals [-o out] <file.ter>                    Rebuild the normal map (v0-v3)
  slopes [-angle deg] [-o out] <file.ter>        Recompute sloped cell flags
  preview [-kind height|flatness] [-scale n]
          <file.ter> <out.png|out.bmp>           Render a cluster map
  rewrite [-o out] <file.ter>                    Read and write back
  config [-save] [-path file]                    Print the effective settings, optionally saving them

Edited terrains are written next to the input with the configured suffix
(default ".edited") unless -o is given.

Examples:
  tertool info mymap.ter
  tertool regions -tolerance 0.1 -map regions.png mymap.ter
  tertool flatten -o mymap.ter mymap.ter
  tertool -compat-tag rewrite old.ter
  tertool -debug config -save`)
}

// usageError builds an errUsage error carrying the usage line for a command.
func usageError(line string) error {
	return fmt.Errorf("%w: %s", errUsage, line)
}

func usageOf(err error) string {
	msg := err.Error()
	prefix := errUsage.Error() + ": "
	if len(msg) > len(prefix) {
		return msg[len(prefix):]
	}
	return msg
}
