package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/lucasmartin/tumerge/internal/compiledb"
	"github.com/lucasmartin/tumerge/internal/config"
	"github.com/lucasmartin/tumerge/internal/frontend"
	"github.com/lucasmartin/tumerge/internal/matcher"
	"github.com/lucasmartin/tumerge/internal/pool"
	"github.com/lucasmartin/tumerge/internal/registry"
	"github.com/lucasmartin/tumerge/internal/serialize"
	"github.com/lucasmartin/tumerge/internal/telemetry"
	"github.com/lucasmartin/tumerge/internal/tu"
)

var version = "dev"

// Exit codes per the CLI contract.
const (
	exitOK      = 0
	exitEnvFail = 1
	exitUsage   = 2
)

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tumerge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: tumerge <build-folder> [thread-count]\n")
		fs.PrintDefaults()
	}

	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitUsage
		}
		return exitUsage
	}

	if *showVersion {
		fmt.Fprintf(stdout, "tumerge %s\n", version)
		return exitOK
	}

	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return exitUsage
	}

	buildFolder := fs.Arg(0)
	threadCount := 1
	if fs.NArg() == 2 {
		n, err := strconv.Atoi(fs.Arg(1))
		if err != nil || n < 1 {
			fmt.Fprintf(stderr, "error: thread-count must be a positive integer, got %q\n", fs.Arg(1))
			return exitUsage
		}
		threadCount = n
	}

	cfg, err := config.Load(filepath.Join(buildFolder, ".tumerge.toml"))
	if err != nil {
		fmt.Fprintf(stderr, "error: loading config: %v\n", err)
		return exitEnvFail
	}
	if fs.NArg() < 2 {
		threadCount = cfg.ThreadCount
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	info, err := os.Stat(buildFolder)
	if err != nil || !info.IsDir() {
		logger.Error("build folder is not a valid directory", "path", buildFolder)
		return exitEnvFail
	}

	entries, err := compiledb.LoadFromDirectory(buildFolder)
	if err != nil {
		logger.Error("failed to load compilation database", "error", err)
		return exitEnvFail
	}

	start := time.Now()
	reg := registry.New()
	fe := frontend.NewTreeSitterFrontend()
	p := pool.New(threadCount)

	var processed, failed atomic.Int64
	for _, entry := range entries {
		entry := entry
		p.Enqueue(func() {
			telemetry.QueueDepth.Set(float64(p.QueueDepth()))
			processOne(context.Background(), logger, reg, fe, entry, &processed, &failed)
		})
	}
	p.Wait()

	telemetry.RunDuration.Observe(time.Since(start).Seconds())
	fmt.Fprintf(stdout, "tumerge: %d translation unit(s) analysed, %d failed, in %s\n",
		processed.Load(), failed.Load(), time.Since(start).Round(time.Millisecond))
	return exitOK
}

func processOne(ctx context.Context, logger *slog.Logger, reg *registry.Registry, fe frontend.Frontend, entry compiledb.Entry, processed, failed *atomic.Int64) {
	unit := tu.New(fe, entry)

	result, err := unit.Run(ctx)
	if err != nil {
		logger.Warn("front-end failed on translation unit", "file", unit.File(), "error", err)
		telemetry.TUsFailedTotal.Inc()
		failed.Add(1)
		return
	}
	telemetry.TUsProcessedTotal.Inc()
	processed.Add(1)

	if err := writeTUOutputs(reg, unit.File(), result); err != nil {
		logger.Warn("failed writing one or more outputs", "file", unit.File(), "error", err)
	}
}

func writeTUOutputs(reg *registry.Registry, tuFile string, result *matcher.Result) error {
	var firstErr error
	note := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if replacements := result.Renames.Replacements(); len(replacements) > 0 {
		h, err := reg.Open(tuFile + "-badsymbols.txt")
		if err != nil {
			note(err)
		} else {
			note(serialize.WriteBadSymbols(h, tuFile, replacements))
			note(h.Close())
		}
	}

	if entries := result.Implements.Entries(); len(entries) > 0 {
		h, err := reg.Open(tuFile + "-implements.txt")
		if err != nil {
			note(err)
		} else {
			note(serialize.WriteImplements(h, tuFile, entries))
			note(h.Close())
		}
	}

	for _, file := range result.Symbols.Files() {
		defs := result.Symbols.Definitions(file)
		forwards := result.Symbols.ForwardDeclarations(file)
		if err := serialize.WriteSharedSymbolTable(reg, file, defs, forwards); err != nil {
			note(err)
			continue
		}
		if len(defs) > 0 {
			telemetry.SharedWritesTotal.WithLabelValues("definitions").Add(float64(len(defs)))
		}
		if len(forwards) > 0 {
			telemetry.SharedWritesTotal.WithLabelValues("forwarddeclarations").Add(float64(len(forwards)))
		}
	}

	return firstErr
}
