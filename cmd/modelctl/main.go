// Command modelctl loads a schema document, builds records of one model type from a data
// file and prints their serialized form.
package main

import (
	"fmt"
	"io"
	"os"

	"composer-core/domain/model"
	"composer-core/infrastructure/codec"
	"composer-core/infrastructure/config"
	"composer-core/infrastructure/di"
	pkgerrors "composer-core/pkg/errors"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Exit codes
const (
	exitOK      = 0
	exitFailed  = 1
	exitInvalid = 2
	exitUsage   = 64
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath string
	schemaPath string
	modelName  string
	dataPath   string
	format     string
	logLevel   string
	validate   bool
	quiet      bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("modelctl", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVarP(&opts.configPath, "config", "c", "", "configuration file (yaml or json)")
	fs.StringVarP(&opts.schemaPath, "schema", "s", "", "schema document, overrides schema_path")
	fs.StringVarP(&opts.modelName, "model", "m", "", "model type to build")
	fs.StringVarP(&opts.dataPath, "data", "d", "", "record document (yaml or json)")
	fs.StringVarP(&opts.format, "format", "f", "json", "output format: json or yaml")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level, overrides the configuration")
	fs.BoolVar(&opts.validate, "validate", false, "validate every record before printing")
	fs.BoolVarP(&opts.quiet, "quiet", "q", false, "disable logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.modelName == "" || opts.dataPath == "" {
		return nil, fmt.Errorf("--model and --data are required")
	}
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "modelctl: %v\n", err)
		return exitUsage
	}

	format, err := codec.ParseFormat(opts.format)
	if err != nil {
		fmt.Fprintf(stderr, "modelctl: %v\n", err)
		return exitUsage
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "modelctl: failed to load configuration: %v\n", err)
		return exitFailed
	}
	if opts.schemaPath != "" {
		cfg.SchemaPath = opts.schemaPath
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	cfg.Logging.Disabled = cfg.Logging.Disabled || opts.quiet

	container, err := di.InitializeContainer(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "modelctl: failed to initialize: %v\n", err)
		return exitFailed
	}
	logger := container.Logger
	defer func() { _ = logger.Sync() }()

	records, err := build(container.Registry, opts.modelName, opts.dataPath)
	if err != nil {
		logger.Error("Failed to build records", zap.Error(err))
		fmt.Fprintf(stderr, "modelctl: %v\n", err)
		return exitFailed
	}
	logger.Info("Records built",
		zap.String("model", opts.modelName),
		zap.Int("count", len(records)))

	if opts.validate {
		if invalid := report(records, stderr); invalid > 0 {
			logger.Warn("Validation failed", zap.Int("invalid", invalid))
			return exitInvalid
		}
	}

	if err := codec.Encode(stdout, format, records...); err != nil {
		fmt.Fprintf(stderr, "modelctl: %v\n", err)
		return exitFailed
	}
	return exitOK
}

func build(reg *model.Registry, modelName, dataPath string) ([]*model.Record, error) {
	typ, err := reg.Lookup(modelName)
	if err != nil {
		return nil, err
	}
	bags, err := codec.ReadFile(dataPath)
	if err != nil {
		return nil, err
	}

	records := make([]*model.Record, 0, len(bags))
	for i, bag := range bags {
		r, err := typ.Parse(bag)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "record %d", i)
		}
		records = append(records, r)
	}
	return records, nil
}

// report prints the failed rules of every invalid record and returns how many failed.
func report(records []*model.Record, w io.Writer) int {
	invalid := 0
	for i, r := range records {
		result := r.Validate()
		if result.Valid {
			continue
		}
		invalid++
		for _, e := range result.Errors {
			fmt.Fprintf(w, "record %d: %s\n", i, e.Error())
		}
	}
	return invalid
}
