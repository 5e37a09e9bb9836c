package zap

import (
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const callerSkipFrames = 1

// ErrMissingLibraryName is returned by New when Config.OTelLibraryName is empty.
var ErrMissingLibraryName = errors.New("OTelLibraryName is required")

// Environment selects the baseline logger profile.
type Environment string

const (
	EnvironmentProduction  Environment = "production"
	EnvironmentStaging     Environment = "staging"
	EnvironmentUAT         Environment = "uat"
	EnvironmentDevelopment Environment = "development"
	EnvironmentLocal       Environment = "local"
)

// ParseEnvironment maps an ENV_NAME value to an Environment.
// Unknown or empty values map to EnvironmentProduction.
func ParseEnvironment(name string) Environment {
	switch env := Environment(strings.ToLower(strings.TrimSpace(name))); env {
	case EnvironmentStaging, EnvironmentUAT, EnvironmentDevelopment, EnvironmentLocal:
		return env
	default:
		return EnvironmentProduction
	}
}

// Config holds logger construction inputs.
type Config struct {
	Environment     Environment
	Level           string
	OTelLibraryName string
	// OutputPaths defaults to stderr.
	OutputPaths []string
}

func (c Config) validate() error {
	if c.OTelLibraryName == "" {
		return ErrMissingLibraryName
	}

	switch c.Environment {
	case EnvironmentProduction, EnvironmentStaging, EnvironmentUAT, EnvironmentDevelopment, EnvironmentLocal:
		return nil
	default:
		return fmt.Errorf("invalid environment %q", c.Environment)
	}
}

// New builds a JSON logger tee'd into the OpenTelemetry log bridge.
func New(cfg Config) (*Logger, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid zap config: %w", err)
	}

	level, err := resolveLevel(cfg)
	if err != nil {
		return nil, err
	}

	base := buildConfigByEnvironment(cfg.Environment)
	base.Level = level
	base.DisableStacktrace = true

	if len(cfg.OutputPaths) > 0 {
		base.OutputPaths = cfg.OutputPaths
	} else {
		base.OutputPaths = []string{"stderr"}
	}

	built, err := base.Build(
		zap.AddCallerSkip(callerSkipFrames),
		zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, otelzap.NewCore(cfg.OTelLibraryName))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Logger{logger: built, atomicLevel: level}, nil
}

func resolveLevel(cfg Config) (zap.AtomicLevel, error) {
	if strings.TrimSpace(cfg.Level) != "" {
		var parsed zapcore.Level
		if err := parsed.Set(strings.ToLower(strings.TrimSpace(cfg.Level))); err != nil {
			return zap.AtomicLevel{}, fmt.Errorf("invalid level %q: %w", cfg.Level, err)
		}

		return zap.NewAtomicLevelAt(parsed), nil
	}

	if cfg.Environment == EnvironmentDevelopment || cfg.Environment == EnvironmentLocal {
		return zap.NewAtomicLevelAt(zapcore.DebugLevel), nil
	}

	return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
}

func buildConfigByEnvironment(environment Environment) zap.Config {
	cfg := zap.NewProductionConfig()
	if environment == EnvironmentDevelopment || environment == EnvironmentLocal {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.Encoding = "json"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	return cfg
}
