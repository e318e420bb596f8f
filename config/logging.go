package config

import "go.uber.org/zap"

// setLogger builds the zap logger for the given environment. Unknown or empty
// environments get the production logger.
func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "local":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		return cfg.Build()
	case "development":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		return cfg.Build()
	default:
		return zap.NewProduction()
	}
}
