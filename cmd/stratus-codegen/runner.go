package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/stratushq/stratus-go-sdk/pkg/api"
	"github.com/stratushq/stratus-go-sdk/pkg/codegen"
	"github.com/stratushq/stratus-go-sdk/pkg/connector"
)

// run parses flags, connects to the platform and generates model types.
func run(argv []string) error {
	opts, err := parseFlags(argv)
	if err != nil {
		return err
	}
	if opts == nil {
		return nil
	}

	logger, err := buildLogger(opts.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := api.NewConnection(ctx, cfg, api.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	genOpts := []codegen.GeneratorOption{
		codegen.WithPackageName(opts.Package),
		codegen.WithGeneratorLogger(logger),
	}
	if opts.FilterPath != "" {
		filterCfg, err := codegen.LoadFilterConfig(opts.FilterPath)
		if err != nil {
			return err
		}
		if filterCfg.Package != "" {
			genOpts = append(genOpts, codegen.WithPackageName(filterCfg.Package))
		}
		genOpts = append(genOpts,
			codegen.WithObjectFilter(filterCfg.ObjectFilter()),
			codegen.WithFieldFilter(filterCfg.FieldFilter()))
	}

	written, err := codegen.NewGenerator(conn, genOpts...).Generate(ctx, opts.OutDir)
	if err != nil {
		return err
	}
	logger.Info("generation complete", zap.Int("files", len(written)))
	return nil
}

// parseFlags returns (nil, nil) when help was requested.
func parseFlags(argv []string) (*Options, error) {
	opts := &Options{}
	_, err := flags.ParseArgs(opts, argv)
	if err != nil {
		var fe *flags.Error
		if errors.As(err, &fe) && fe.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, err
	}
	return opts, nil
}

func resolveConfig(opts *Options) (*connector.Config, error) {
	switch {
	case opts.URL != "":
		return connector.ParseURL(opts.URL)
	case opts.Connection != "":
		return connector.LookupNamed(opts.Connection)
	default:
		return nil, fmt.Errorf("either --url or --connection is required")
	}
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
