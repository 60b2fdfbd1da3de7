// rfftool is a CLI utility for working with RFF resource archives and MAP
// level files.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grimfang/bloodline/internal/assets"
	"github.com/grimfang/bloodline/internal/config"
	"github.com/grimfang/bloodline/internal/logger"
	"github.com/grimfang/bloodline/pkg/mapfile"
	"github.com/grimfang/bloodline/pkg/rff"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "info":
		cmdInfo(cfg, args[1:])
	case "list", "ls":
		cmdList(cfg, args[1:])
	case "extract", "x":
		cmdExtract(cfg, args[1:])
	case "search", "find":
		cmdSearch(cfg, args[1:])
	case "map":
		cmdMap(cfg, args[1:])
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`rfftool - RFF resource archive utility

Usage:
  rfftool [flags] <command> [args]

Flags:
  -config <path>   Config file (default: ./rfftool.yaml)
  -rff <path>      Archive to mount, overriding configured archives
  -debug           Enable debug logging

Commands:
  info [file.rff]            Show archive information
  list [file.rff]            List entries
  search <pattern>           Search entries by name pattern
  extract <NAME.TYP> [dir]   Extract a resource to a directory
  map <NAME | file.map>      Decode a level and print a summary

Examples:
  rfftool -rff BLOOD.RFF list
  rfftool -rff BLOOD.RFF extract E1M1.MAP ./out
  rfftool -rff BLOOD.RFF map E1M1
  rfftool map CRUDUX.MAP`)
}

// loadManager mounts the configured archives.
func loadManager(cfg *config.Config) *assets.Manager {
	m := assets.NewManager(cfg.Data.CacheEntries)
	mounted := 0
	for _, path := range cfg.Data.RFFPaths {
		if err := m.AddArchive(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			continue
		}
		mounted++
	}
	if mounted == 0 {
		fmt.Fprintln(os.Stderr, "Error: no archives could be mounted")
		os.Exit(1)
	}
	return m
}

// openArchive loads a single archive, from the argument if given, else the
// first configured path.
func openArchive(cfg *config.Config, args []string) (*rff.Archive, string) {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else if len(cfg.Data.RFFPaths) > 0 {
		path = cfg.Data.RFFPaths[0]
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "Error: no archive given or configured")
		os.Exit(1)
	}

	archive, err := rff.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return archive, path
}

func cmdInfo(cfg *config.Config, args []string) {
	archive, path := openArchive(cfg, args)

	typeCount := make(map[string]int)
	var totalSize uint64
	for _, e := range archive.Entries() {
		typeCount[e.Type]++
		totalSize += uint64(e.Size)
	}

	fmt.Printf("Archive: %s\n", path)
	fmt.Printf("Version: 0x%04x\n", archive.Version)
	fmt.Printf("Entries: %d\n", archive.Len())
	fmt.Printf("Size:    %.2f MB\n", float64(totalSize)/(1024*1024))
	fmt.Println()
	fmt.Println("Entries by type:")

	types := make([]string, 0, len(typeCount))
	for t := range typeCount {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return typeCount[types[i]] > typeCount[types[j]]
	})
	for _, t := range types {
		fmt.Printf("  %-4s %d\n", t, typeCount[t])
	}
}

func cmdList(cfg *config.Config, args []string) {
	archive, _ := openArchive(cfg, args)
	for _, e := range archive.Entries() {
		flags := " "
		if e.Encrypted() {
			flags = "E"
		}
		fmt.Printf("%-12s %s %10d\n", e.FileName(), flags, e.Size)
	}
}

func cmdSearch(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rfftool search <pattern>")
		os.Exit(1)
	}
	pattern := strings.ToUpper(args[0])

	m := loadManager(cfg)
	defer m.Close()

	for _, name := range m.List() {
		if strings.Contains(strings.ToUpper(name), pattern) {
			fmt.Println(name)
		}
	}
}

func cmdExtract(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rfftool extract <NAME.TYP> [dir]")
		os.Exit(1)
	}

	name, typ, ok := strings.Cut(args[0], ".")
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: resource must be given as NAME.TYP")
		os.Exit(1)
	}

	outDir := "."
	if len(args) > 1 {
		outDir = args[1]
	}

	m := loadManager(cfg)
	defer m.Close()

	data, err := m.Load(name, typ)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	outPath := filepath.Join(outDir, strings.ToUpper(args[0]))
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Extracted %s (%d bytes)\n", outPath, len(data))
}

func cmdMap(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rfftool map <NAME | file.map>")
		os.Exit(1)
	}

	var world *mapfile.World
	var err error

	// A .map argument naming an existing file is decoded directly;
	// anything else is looked up in the mounted archives.
	if strings.EqualFold(filepath.Ext(args[0]), ".map") {
		if _, statErr := os.Stat(args[0]); statErr == nil {
			world, err = mapfile.LoadFile(args[0])
		}
	}
	if world == nil && err == nil {
		m := loadManager(cfg)
		defer m.Close()
		world, err = m.LoadWorld(strings.TrimSuffix(strings.ToUpper(args[0]), ".MAP"))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Level:    %s\n", strings.ToUpper(args[0]))
	fmt.Printf("Start:    (%d, %d, %d) angle %d sector %d\n",
		world.StartX, world.StartY, world.StartZ, world.StartAngle, world.StartSector)
	fmt.Printf("Sectors:  %d\n", world.NumSectors())
	fmt.Printf("Walls:    %d\n", world.NumWalls())
	fmt.Printf("Sprites:  %d\n", world.NumSprites())
	fmt.Printf("Revision: %d\n", world.Revision)
	fmt.Printf("Sky:      %d bits, %d offsets\n", world.SkyBits, len(world.SkyOffsets))
	if world.Encrypted {
		fmt.Println("Header:   encrypted")
	} else {
		fmt.Println("Header:   plaintext")
	}
}
