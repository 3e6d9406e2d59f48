package observability

import (
	"strings"

	"github.com/rareminds/skillpassport-billing/internal/config"
)

// Config holds observability configuration derived from the app config.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	TracingEnabled   bool
	ExporterEndpoint string
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "skillpassport-billing"
	}
	return Config{
		ServiceName:      serviceName,
		Environment:      cfg.Environment,
		Version:          cfg.AppVersion,
		TracingEnabled:   cfg.TracingEnabled,
		ExporterEndpoint: cfg.OTLPEndpoint,
	}
}
