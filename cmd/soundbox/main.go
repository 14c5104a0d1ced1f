// Command soundbox analyzes a WAVE file's peaks, BPM, and warp-marker
// map, printing a human-readable report to standard output and
// diagnostics to standard error.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/misterdjules/soundbox/internal/clip"
	"github.com/misterdjules/soundbox/internal/clipcache"
	"github.com/misterdjules/soundbox/internal/markerseed"
	"github.com/misterdjules/soundbox/internal/peak"
	"github.com/misterdjules/soundbox/internal/report"
	"github.com/misterdjules/soundbox/internal/watch"
)

func main() {
	markerFlags := pflag.StringArrayP("marker", "m", nil, "add a warp marker, sampleTime:beatTime (repeatable)")
	markersFile := pflag.String("markers-file", "", "load warp markers from a YAML file")
	cachePath := pflag.String("cache", "", "enable the analysis cache at the given SQLite path")
	watchDir := pflag.String("watch", "", "watch a directory for new .wav files")
	table := pflag.Bool("table", false, "print a per-0.1s sample/beat time table")
	debug := pflag.Bool("debug", false, "verbose diagnostic logging")
	pflag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	rep := report.New(os.Stderr, *debug, report.IsTerminalStdout(os.Stdout.Fd()))

	var cache *clipcache.Cache
	if *cachePath != "" {
		c, err := clipcache.Open(*cachePath)
		if err != nil {
			rep.Warnf("cache unavailable, continuing without it: %v", err)
		} else {
			cache = c
			defer cache.Close()
		}
	}

	if *watchDir != "" {
		runWatch(rep, *watchDir, *markerFlags, *markersFile, *table, cache)
		return
	}

	args := pflag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: soundbox [flags] <path-to-wav>")
		os.Exit(2)
	}

	if err := analyze(rep, args[0], *markerFlags, *markersFile, *table, cache); err != nil {
		rep.Errorf("%v", err)
		os.Exit(1)
	}
}

func runWatch(rep *report.Reporter, dir string, markerFlags []string, markersFile string, table bool, cache *clipcache.Cache) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep.Infof("watching %s for .wav files", dir)
	w := watch.New(dir)
	w.Watch(ctx, 2*time.Second, func(path string) {
		if err := analyze(rep, path, markerFlags, markersFile, table, cache); err != nil {
			rep.Errorf("%v", err)
		}
	})
}

func analyze(rep *report.Reporter, path string, markerFlags []string, markersFile string, table bool, cache *clipcache.Cache) error {
	if cache != nil {
		if info, err := os.Stat(path); err == nil {
			if entry, ok := cache.Get(path, info.ModTime().Unix(), info.Size()); ok {
				rep.Infof("cache hit for %s", path)
				printCached(rep, path, entry)
				return nil
			}
		}
	}

	c := clip.New(peak.New())
	complete, err := c.Load(path)
	if err != nil {
		return fmt.Errorf("soundbox: load %s: %w", path, err)
	}
	if !complete {
		rep.Warnf("%s: short read, analysis may be incomplete", path)
	}

	if !c.AddDefaultMarkers() {
		rep.Warnf("%s: could not seed identity warp markers", path)
	}

	if markersFile != "" {
		f, err := markerseed.Load(markersFile)
		if err != nil {
			rep.Warnf("markers file unavailable: %v", err)
		} else {
			applied := markerseed.Apply(c, f, func(m markerseed.Marker) {
				rep.Warnf("rejected marker sampleTime=%.6f beatTime=%.6f", m.SampleTime, m.BeatTime)
			})
			rep.Infof("applied %d/%d markers from %s", applied, len(f.Markers), markersFile)
		}
	}

	for _, raw := range markerFlags {
		sampleTime, beatTime, err := parseMarkerFlag(raw)
		if err != nil {
			rep.Warnf("ignoring malformed --marker %q: %v", raw, err)
			continue
		}
		if !c.AddMarker(sampleTime, beatTime) {
			rep.Warnf("rejected --marker sampleTime=%.6f beatTime=%.6f", sampleTime, beatTime)
		}
	}

	now := time.Now()
	rep.PrintSummary(os.Stdout, path, c, now)
	if table {
		rep.PrintTable(os.Stdout, c, 0.1)
	}

	if cache != nil {
		if info, statErr := os.Stat(path); statErr == nil {
			bpm, bpmOK := c.BPM()
			putErr := cache.Put(clipcache.Entry{
				Path:       path,
				ModTime:    info.ModTime().Unix(),
				Size:       info.Size(),
				BPM:        bpm,
				BPMValid:   bpmOK,
				PeakCount:  len(c.Peaks),
				Duration:   c.Duration(),
				AnalyzedAt: now,
			})
			if putErr != nil {
				rep.Warnf("cache write failed: %v", putErr)
			}
		}
	}

	return nil
}

func printCached(rep *report.Reporter, path string, entry clipcache.Entry) {
	fmt.Fprintf(os.Stdout, "analysis: %s (cached)\n", path)
	fmt.Fprintf(os.Stdout, "  duration:    %.2fs\n", entry.Duration)
	fmt.Fprintf(os.Stdout, "  peaks found: %d\n", entry.PeakCount)
	if entry.BPMValid {
		fmt.Fprintf(os.Stdout, "  bpm:         %.2f\n", entry.BPM)
	} else {
		fmt.Fprintf(os.Stdout, "  bpm:         unavailable\n")
	}
	fmt.Fprintf(os.Stdout, "  analyzed at: %s\n", entry.AnalyzedAt.Format(time.RFC3339))
}

func parseMarkerFlag(raw string) (sampleTime, beatTime float64, err error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected sampleTime:beatTime")
	}
	sampleTime, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("sampleTime: %w", err)
	}
	beatTime, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("beatTime: %w", err)
	}
	return sampleTime, beatTime, nil
}
