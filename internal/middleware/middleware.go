package middleware

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/yourorg/rpckeyring/internal/config"
	"github.com/yourorg/rpckeyring/internal/keyring"
	"github.com/yourorg/rpckeyring/internal/logger"
	"go.uber.org/zap"
)

// ChainBeforeFuncs chains multiple BeforeFuncs together
func ChainBeforeFuncs(funcs ...cli.BeforeFunc) cli.BeforeFunc {
	return func(c *cli.Context) error {
		for _, fn := range funcs {
			if err := fn(c); err != nil {
				return err
			}
		}
		return nil
	}
}

// LoggerBeforeFunc initializes the logger
func LoggerBeforeFunc(c *cli.Context) error {
	verbose := c.Bool("verbose")
	logger.InitGlobalLoggerWithWriter(verbose, c.App.ErrWriter)
	l := logger.GetLogger()
	c.Context = context.WithValue(c.Context, config.LoggerKey, l)
	c.Context = logger.WithContext(c.Context, l)
	return nil
}

// ConfigBeforeFunc loads configuration and the current context. Commands run
// without a configured context and talk to the default endpoint.
func ConfigBeforeFunc(c *cli.Context) error {
	l := GetLogger(c)

	cfg, err := config.LoadConfig()
	if err != nil {
		l.Error("Failed to load config", zap.Error(err))
		cfg = &config.Config{
			Contexts: make(map[string]*config.Context),
		}
	}

	currentCtx, err := cfg.Current()
	if err != nil {
		l.Debug("No current context, using defaults",
			zap.String("endpoint", config.DefaultEndpoint),
			zap.Error(err))
		currentCtx = &config.Context{}
	}

	c.Context = context.WithValue(c.Context, config.ConfigKey, cfg)
	c.Context = context.WithValue(c.Context, config.ContextKey, currentCtx)
	return nil
}

// GetLogger retrieves the logger from context
func GetLogger(c *cli.Context) logger.Logger {
	if l, ok := c.Context.Value(config.LoggerKey).(logger.Logger); ok {
		return l
	}

	// Create a new logger if not found
	return logger.NewLoggerWithWriter(c.Bool("verbose"), c.App.ErrWriter)
}

// GetConfig retrieves the config from context
func GetConfig(c *cli.Context) (*config.Config, error) {
	cfg, ok := c.Context.Value(config.ConfigKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	return cfg, nil
}

// GetCurrentContext retrieves the current context from context
func GetCurrentContext(c *cli.Context) (*config.Context, error) {
	ctx, ok := c.Context.Value(config.ContextKey).(*config.Context)
	if !ok || ctx == nil {
		return nil, fmt.Errorf("context not initialized")
	}
	return ctx, nil
}

// Endpoint returns the node endpoint: the --endpoint flag, then the current
// context, then the default.
func Endpoint(c *cli.Context) string {
	if endpoint := c.String("endpoint"); endpoint != "" {
		return endpoint
	}
	currentCtx, err := GetCurrentContext(c)
	if err != nil {
		return config.DefaultEndpoint
	}
	return currentCtx.KeyringEndpoint()
}

// NewKeyring connects a keyring to the endpoint resolved by Endpoint
func NewKeyring(c *cli.Context) (*keyring.Adapter, error) {
	endpoint := Endpoint(c)
	kr, err := keyring.FromContext(c.Context, &config.Context{Endpoint: endpoint},
		keyring.WithLogger(GetLogger(c)))
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring at %s: %w", endpoint, err)
	}
	return kr, nil
}

// ExitErrHandler handles errors on exit
func ExitErrHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}

	var log logger.Logger
	if c != nil {
		log = GetLogger(c)
	} else {
		logger.InitGlobalLogger(false)
		log = logger.GetLogger()
	}

	if c != nil && c.Command != nil {
		log.Error("Command execution failed",
			zap.String("command", c.Command.Name),
			zap.Error(err))
	} else {
		log.Error("Command execution failed", zap.Error(err))
	}
}
