package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flags "github.com/jessevdk/go-flags"

	"jmfinder/config"
	"jmfinder/node"
	"jmfinder/scan"
)

// Exit statuses.
const (
	exitSuccess  = 0
	exitFailure  = 1
	exitArgError = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args, stdout)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return exitSuccess
		}
		fmt.Fprintln(stderr, err)
		if errors.Is(err, config.ErrUsage) {
			return exitArgError
		}
		return exitFailure
	}

	log := newLoggers(stdout, cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()

	source, closeSource, err := newSource(cfg)
	if err != nil {
		log.ErrorS(ctx, "Unable to set up node source", err)
		return exitFailure
	}
	defer closeSource()

	log.DebugS(ctx, "Using node", slog.String("transport", cfg.Transport),
		slog.String("address", cfg.NodeAddress()))

	scanner := scan.New(scan.Config{
		Source:         source,
		Log:            log,
		CandidatesFile: cfg.CandidatesFile,
		ReportFile:     cfg.ReportFile,
	})

	_, err = scanner.Run(ctx, cfg.StartHeight, cfg.EndHeight)
	if err != nil {
		log.ErrorS(ctx, "Scan failed", err)
	}

	return exitStatus(err)
}

// newSource builds the transport selected by cfg, wrapped in the block cache
// when one is configured.
func newSource(cfg *config.Config) (node.Source, func(), error) {
	var source node.Source
	switch cfg.Transport {
	case config.TransportRPC:
		source = node.NewBTCDaemon(
			cfg.RPCURL, cfg.RPCUser, cfg.RPCPassword, cfg.Timeout,
		)
	default:
		source = node.NewRESTClient(cfg.Host, cfg.Port, cfg.Timeout)
	}

	if cfg.CacheDir == "" {
		return source, func() {}, nil
	}

	cached, err := node.OpenCachedSource(source, cfg.CacheDir)
	if err != nil {
		return nil, nil, err
	}
	return cached, func() { _ = cached.Close() }, nil
}

func exitStatus(err error) int {
	var rangeErr *scan.RangeError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &rangeErr):
		return exitArgError
	default:
		return exitFailure
	}
}
