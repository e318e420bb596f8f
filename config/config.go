package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	URL              string
	DatabaseName     string
	BaseURL          string
	Port             string
	Environment      string
	AnthropicAPIKey  string
	AnthropicModel   string
	SchedulerEnabled bool
	Scheduler        SchedulerSettings
}

// New sets up all config related services
func New() *Config {
	env := os.Getenv("ENVIRONMENT")

	//setup zap logger and replace default logger
	logger, err := setLogger(env)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	settings, err := LoadSchedulerSettings(os.Getenv("SCHEDULER_CONFIG"))
	if err != nil {
		zap.S().Warnw("failed to load scheduler config, using defaults", "error", err)
	}

	if model := os.Getenv("ANTHROPIC_MODEL"); model != "" {
		settings.Model = model
	}

	return &Config{
		URL:              os.Getenv("DB_URI"),
		DatabaseName:     os.Getenv("DB_NAME"),
		BaseURL:          os.Getenv("BASE_URL"),
		Port:             os.Getenv("PORT"),
		Environment:      env,
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:   settings.Model,
		SchedulerEnabled: envBool("SCHEDULER_ENABLED", true),
		Scheduler:        settings,
	}
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}
