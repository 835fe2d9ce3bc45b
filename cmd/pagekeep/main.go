package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/pagekeep/pagekeep/internal/capture"
	"github.com/pagekeep/pagekeep/internal/config"
	"github.com/pagekeep/pagekeep/internal/hardware"
	"github.com/pagekeep/pagekeep/internal/pagehint"
	"github.com/pagekeep/pagekeep/internal/raster"
	"github.com/pagekeep/pagekeep/internal/store"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and --help before flag parsing so they work
	// without the required arguments.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("pagekeep %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pagekeep: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("pagekeep - archive book page photos")
	fmt.Println()
	fmt.Println("Usage: pagekeep [options] image [image ...]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -book id         Book to file photos under (required)")
	fmt.Println("  -config path     YAML config file")
	fmt.Println("  -out dir         Archive directory (overrides config)")
	fmt.Println("  -rectify         Auto-detect page bounds and rectify")
	fmt.Println("  -jobs n          Images processed concurrently (default 4)")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
}

func run() error {
	var (
		configPath string
		bookID     string
		outDir     string
		rectify    bool
		jobs       int
	)
	flag.StringVar(&configPath, "config", "", "YAML config file")
	flag.StringVar(&bookID, "book", "", "book to file photos under")
	flag.StringVar(&outDir, "out", "", "archive directory (overrides config)")
	flag.BoolVar(&rectify, "rectify", false, "auto-detect page bounds and rectify")
	flag.IntVar(&jobs, "jobs", 4, "images processed concurrently")
	flag.Parse()

	if bookID == "" {
		return errors.New("-book is required")
	}
	files := flag.Args()
	if len(files) == 0 {
		return errors.New("no input images given")
	}
	if jobs < 1 {
		jobs = 1
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if outDir != "" {
		cfg.Archive.Dir = outDir
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel.Slog(),
	}))
	logger.Debug("starting",
		"version", Version,
		"build_time", BuildTime,
		"commit", GitCommit)

	archive, err := store.NewFSArchive(cfg.Archive.Dir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(jobs)

	for _, path := range files {
		path := path
		group.Go(func() error {
			return processFile(ctx, logger, cfg, archive, store.BookID(bookID), path, rectify)
		})
	}
	return group.Wait()
}

// processFile drives one capture session end to end for an image file.
func processFile(ctx context.Context, logger *slog.Logger, cfg config.Config, archive store.Archive, book store.BookID, path string, rectify bool) error {
	// File imports never contend with a live recognizer, so the arbiter
	// manages a session that is always silent.
	arbiter := hardware.NewArbiter(noopAudioSession{}, logger)

	session, err := capture.NewSession(capture.Config{
		Book:         book,
		Acquirer:     fileAcquirer{path: path},
		Archive:      archive,
		Arbiter:      arbiter,
		JPEGQuality:  cfg.Archive.JPEGQuality,
		SaveDebounce: cfg.Capture.SaveDebounce.Std(),
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if session.State() == capture.StateCancelled {
		return ctx.Err()
	}

	if rectify {
		if quad, ok := raster.SuggestQuad(session.CurrentImage()); ok {
			if err := session.BeginRectify(); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if err := session.FinishRectify(quad); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		} else {
			logger.Debug("no page bounds detected, keeping original", "path", path)
		}
	}

	img := session.CurrentImage()

	photoID, err := session.Save(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	logger.Info("photo archived", "path", path, "photo", photoID)

	reportPageHint(logger, path, img)
	return nil
}

// reportPageHint runs OCR-based page number detection when the build
// supports it. Failures only cost the hint.
func reportPageHint(logger *slog.Logger, path string, img image.Image) {
	candidate, err := pagehint.SuggestFromImage(img)
	switch {
	case errors.Is(err, pagehint.ErrOCRUnavailable):
		logger.Debug("page hints unavailable in this build")
	case errors.Is(err, pagehint.ErrNoPageNumber):
		logger.Debug("no page number found", "path", path)
	case err != nil:
		logger.Warn("page hint failed", "path", path, "error", err)
	default:
		logger.Info("page hint",
			"path", path,
			"page", candidate.Page,
			"confidence", fmt.Sprintf("%.2f", candidate.Confidence))
	}
}

// fileAcquirer satisfies capture.Acquirer by loading an image file,
// standing in for the camera during batch imports.
type fileAcquirer struct {
	path string
}

func (f fileAcquirer) Acquire(ctx context.Context) (*capture.RawCapture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := imaging.Open(f.path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", f.path, err)
	}
	return &capture.RawCapture{Image: img, Source: capture.SourceDocumentScanner}, nil
}

// noopAudioSession satisfies hardware.AudioSession for environments with no
// audio hardware to arbitrate.
type noopAudioSession struct{}

func (noopAudioSession) ConfigureForRecording() error { return nil }
func (noopAudioSession) Deactivate() error            { return nil }
