package main

import (
	"context"
	stdErrors "errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"line-truncator/internal/config"
	"line-truncator/internal/errors"
	"line-truncator/internal/filesystem"
	"line-truncator/internal/lock"
	"line-truncator/internal/truncate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// 1. Parse Config & 2. Validate Config
	cfg, err := config.ParseFlags("line-truncator", args, stderr)
	if err != nil {
		if stdErrors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return errors.CodeGeneric
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: configuration: %v\n", err)
		return errors.CodeGeneric
	}

	// 3. Initialize Logger
	logger := initializeLogger(cfg.Verbose, stderr)

	// 4. Log Effective Configuration
	logEffectiveConfig(logger, cfg)

	// 5. Initialize Dependencies
	opts := []truncate.Option{
		truncate.WithMaxLines(cfg.MaxLines),
		truncate.WithAtomicWrite(cfg.Atomic),
		truncate.WithLockTimeout(time.Duration(cfg.LockTimeoutSec) * time.Second),
		truncate.WithMaxFileSize(cfg.MaxFileSizeBytes()),
		truncate.WithOutput(stdout),
		truncate.WithLogger(logger),
	}
	if !cfg.Lock {
		opts = append(opts, truncate.WithoutLock())
	}
	tr, err := truncate.New(filesystem.NewDefaultFileSystemAdapter(), lock.NewLockManager(), opts...)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return errors.MapErrorToExitCode(err)
	}

	// 6. Run
	res, err := tr.Truncate(ctx, cfg.Path)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return errors.MapErrorToExitCode(err)
	}
	logger.Printf("Done: %s kept %d of %d lines", res.Path, res.RetainedLines, res.OriginalLines)
	return 0
}

func initializeLogger(verbose bool, stderr io.Writer) *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(stderr, "", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
}

func logEffectiveConfig(logger *log.Logger, cfg *config.Config) {
	logger.Println("Effective configuration:")
	if cfg.ConfigFile != "" {
		logger.Printf("  Config File: %s", cfg.ConfigFile)
	}
	logger.Printf("  Path: %s", cfg.Path)
	logger.Printf("  Max Lines: %d", cfg.MaxLines)
	logger.Printf("  Atomic Write: %t", cfg.Atomic)
	logger.Printf("  Lock: %t (timeout %ds)", cfg.Lock, cfg.LockTimeoutSec)
	if cfg.MaxFileSizeMB > 0 {
		logger.Printf("  Max File Size (MB): %d", cfg.MaxFileSizeMB)
	}
}
