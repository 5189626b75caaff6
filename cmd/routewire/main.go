package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/toyz/routewire/internal/cache"
	"github.com/toyz/routewire/internal/metadata"
	"github.com/toyz/routewire/internal/scanner"
	"github.com/toyz/routewire/internal/utils"
	"github.com/toyz/routewire/pkg/routewire"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("routewire", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var (
		cacheFlag   = flags.String("cache", "", "Cache directory the controller snapshot is written to")
		configFlag  = flags.String("config", "", "TOML configuration file (paths, cache_directory)")
		dumpFlag    = flags.Bool("dump", false, "Print the controller snapshot as YAML to stdout")
		cleanFlag   = flags.Bool("clean", false, "Delete the controller snapshot from the cache directory")
		verboseFlag = flags.Bool("verbose", false, "Enable verbose output")
		quietFlag   = flags.Bool("quiet", false, "Only show errors")
		helpFlag    = flags.Bool("help", false, "Show help information")
	)

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: routewire [options] <directory-paths...>\n\n")
		fmt.Fprintf(stderr, "Routewire Controller Cache Tool\n")
		fmt.Fprintf(stderr, "Scans directories for controllers annotated with @Route and @DI and writes the metadata snapshot\n")
		fmt.Fprintf(stderr, "that routewire.Boot replays.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(stderr, "\nArguments:\n")
		fmt.Fprintf(stderr, "  directory-paths    Directories to scan recursively; './...' is accepted\n")
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  routewire -cache ./var/cache ./internal/controller   # Warm the snapshot\n")
		fmt.Fprintf(stderr, "  routewire -config routewire.toml                     # Paths and cache from a config file\n")
		fmt.Fprintf(stderr, "  routewire -dump ./...                                # Print discovered controllers\n")
		fmt.Fprintf(stderr, "  routewire -clean -cache ./var/cache                  # Delete the snapshot\n")
	}

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *helpFlag {
		flags.Usage()
		return 0
	}

	level := utils.DiagnosticInfo
	switch {
	case *quietFlag:
		level = utils.DiagnosticError
	case *verboseFlag:
		level = utils.DiagnosticVerbose
	}
	diag := utils.NewWriterDiagnostics(level, stderr)

	cfg := routewire.Config{}
	if *configFlag != "" {
		loaded, err := routewire.LoadConfig(*configFlag)
		if err != nil {
			diag.Error("%v", err)
			return 1
		}
		cfg = loaded
	}
	if paths := flags.Args(); len(paths) > 0 {
		cfg.Paths = paths
	}
	if *cacheFlag != "" {
		cfg.CacheDirectory = *cacheFlag
	}

	if *cleanFlag {
		if cfg.CacheDirectory == "" {
			diag.Error("-clean needs a cache directory (-cache or cache_directory in -config)")
			return 1
		}
		snapshots := cache.New(cfg.CacheDirectory)
		if err := snapshots.Clean(); err != nil {
			diag.Error("Clean failed: %v", err)
			return 1
		}
		diag.Success("Removed %s", snapshots.File())
		return 0
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: At least one directory path is required\n\n")
		flags.Usage()
		return 1
	}

	diag.Section("Routewire Controller Cache")
	if *verboseFlag {
		diag.Subsection("Configuration")
		diag.List("Target directories: %s", strings.Join(cfg.Paths, ", "))
		if cfg.CacheDirectory != "" {
			diag.List("Cache directory: %s", cfg.CacheDirectory)
		}
	}

	// Source is trusted here: without a type registry every annotated
	// struct counts as a controller.
	walker := metadata.NewWalker(scanner.New(diag), nil, nil, diag)
	classes, err := walker.Walk(context.Background(), cfg.Paths)
	if err != nil {
		diag.Error("Discovery failed: %v", err)
		return 1
	}

	snap := &cache.Snapshot{
		Version:   cache.Version,
		Generated: time.Now().UTC().Format(time.RFC3339),
		Classes:   classes,
	}
	if cfg.CacheDirectory != "" {
		snapshots := cache.New(cfg.CacheDirectory)
		if err := snapshots.Update(classes); err != nil {
			diag.Error("Writing snapshot failed: %v", err)
			return 1
		}
		if snap, err = snapshots.Load(); err != nil {
			diag.Error("Reading snapshot back failed: %v", err)
			return 1
		}
	}

	routes := 0
	for i := range snap.Classes {
		routes += snap.Classes[i].RouteCount()
	}
	stats := map[string]interface{}{
		"Controllers found": len(snap.Classes),
		"Routes found":      routes,
	}
	if cfg.CacheDirectory != "" {
		stats["Snapshot"] = cache.New(cfg.CacheDirectory).File()
	}
	diag.Summary("Discovery Complete!", stats)

	if *verboseFlag {
		diag.Subsection("Controllers")
		for i := range snap.Classes {
			diag.List("%s (%d routes)", snap.Classes[i].Name, snap.Classes[i].RouteCount())
		}
	}

	if *dumpFlag {
		out, err := yaml.Marshal(snap)
		if err != nil {
			diag.Error("Encoding snapshot failed: %v", err)
			return 1
		}
		if _, err := stdout.Write(out); err != nil {
			return 1
		}
	}
	return 0
}
