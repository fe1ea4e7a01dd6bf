package observability

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerOptions controls how NewLogger builds a zap logger
type LoggerOptions struct {
	Environment string
	Level       string
	Format      string // "json" or "console"
	Disabled    bool
}

// NewLogger creates a zap logger for the given environment. Production uses the JSON
// encoder with sampling, everything else the development console encoder.
func NewLogger(opts LoggerOptions) (*zap.Logger, error) {
	if opts.Disabled {
		return zap.NewNop(), nil
	}

	var config zap.Config
	if opts.Environment == "production" {
		config = zap.NewProductionConfig()
		config.Sampling = &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		}
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	switch strings.ToLower(opts.Format) {
	case "json":
		config.Encoding = "json"
		config.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	case "console":
		config.Encoding = "console"
	}

	level, err := zapcore.ParseLevel(levelOrDefault(opts.Level))
	if err != nil {
		return nil, err
	}
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	return config.Build(zap.AddStacktrace(zap.ErrorLevel))
}

func levelOrDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}
