package di

import (
	"composer-core/domain/model"
	"composer-core/infrastructure/config"
	"composer-core/infrastructure/schema"
	"composer-core/pkg/extensions"
	"composer-core/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *observability.Collector
	Hooks    *extensions.HookManager
	Registry *model.Registry
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	return observability.NewLogger(observability.LoggerOptions{
		Environment: cfg.Environment,
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Disabled:    cfg.Logging.Disabled,
	})
}

// ProvideMetrics creates the metrics collector. Only the registry hookup depends on
// EnableMetrics.
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.MetricsNamespace)
}

// ProvideHooks creates the lifecycle hook manager
func ProvideHooks() *extensions.HookManager {
	return extensions.NewHookManager()
}

// ProvideFunctions creates the computed default table with the builtin functions
func ProvideFunctions() *schema.Functions {
	return schema.NewFunctions()
}

// ProvideSchemaLoader creates the schema document loader
func ProvideSchemaLoader(cfg *config.Config, logger *zap.Logger, fns *schema.Functions) *schema.Loader {
	return schema.NewLoader(logger, fns, schema.WithStrict(cfg.StrictSchema))
}

// ProvideRegistry creates the model registry, defines the models of the configured schema
// document and seals the registry.
func ProvideRegistry(
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Collector,
	hooks *extensions.HookManager,
	loader *schema.Loader,
) (*model.Registry, error) {
	opts := []model.Option{
		model.WithLogger(logger),
		model.WithHooks(hooks),
	}
	if cfg.EnableMetrics {
		opts = append(opts, model.WithMetrics(metrics))
	}
	reg := model.NewRegistry(opts...)

	if cfg.SchemaPath != "" {
		if _, err := loader.LoadFile(reg, cfg.SchemaPath); err != nil {
			return nil, err
		}
	}
	if err := reg.Init(); err != nil {
		return nil, err
	}

	logger.Info("Model registry ready",
		zap.Int("types", len(reg.Types())),
		zap.Bool("metrics", cfg.EnableMetrics))
	return reg, nil
}
