package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/sakura-subtrans/internal/config"
	"github.com/MimeLyc/sakura-subtrans/internal/service"
	"github.com/MimeLyc/sakura-subtrans/pkg/log"
)

type commandContext struct {
	configFlag   string
	envFileFlag  string
	logLevelFlag string

	// newCompleter builds the completion backend; tests swap in a stub
	newCompleter service.CompleterFactory
	closers      []func() error
}

func newCommandContext() *commandContext {
	return &commandContext{
		newCompleter: service.NewClientCompleter,
	}
}

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "subtrans",
		Short:         "Bilingual Japanese/Chinese subtitles from a local Sakura model",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path (TOML)")
	rootCmd.PersistentFlags().StringVar(&ctx.envFileFlag, "env-file", "", "Env file to load (default: ./.env when present)")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevelFlag, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(newTranslateCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newModelsCommand(ctx))

	return rootCmd
}

// loadConfig resolves the configuration and installs the logger it asks for.
func (c *commandContext) loadConfig(stderr io.Writer, opts ...config.Option) (*config.Config, error) {
	if err := config.LoadEnvFile(strings.TrimSpace(c.envFileFlag)); err != nil {
		return nil, service.WrapError(err, service.ErrConfig, "failed to load env file")
	}
	if c.logLevelFlag != "" {
		opts = append(opts, config.WithLogLevel(c.logLevelFlag))
	}

	cfg, err := config.Load(strings.TrimSpace(c.configFlag), opts...)
	if err != nil {
		return nil, service.WrapError(err, service.ErrConfig, "invalid configuration")
	}

	level := log.ParseLevel(cfg.LogLevel)
	if cfg.LogFile == "" {
		log.SetLogger(log.NewLoggerTo(stderr, level))
		return cfg, nil
	}
	fileLogger, err := log.NewFileLogger(cfg.LogFile, level)
	if err != nil {
		return nil, service.WrapError(err, service.ErrConfig, "failed to open log file")
	}
	log.SetLogger(fileLogger.Logger)
	c.closers = append(c.closers, fileLogger.Close)
	return cfg, nil
}

func (c *commandContext) newService(cfg *config.Config, progress io.Writer) (*service.Service, error) {
	return service.NewFromConfig(cfg, c.newCompleter, service.WithProgressWriter(progress))
}

func (c *commandContext) close() error {
	var first error
	for _, fn := range c.closers {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}
