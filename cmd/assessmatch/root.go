package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessmatch/internal/config"
	logpkg "github.com/kailas-cloud/assessmatch/internal/logger"
	assessmatch "github.com/kailas-cloud/assessmatch/pkg/sdk"
)

const app = "assessmatch"

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
	catalog    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   app,
		Short: "Recommend assessments for a hiring query or job description",
		Long: `assessmatch ranks a catalog of assessments against a natural-language hiring
query or a job description URL, and balances the shortlist across technical,
behavioral and cognitive categories when the query asks for several of them.

Configuration is read from --config, or config/<ENV>.yaml (ENV defaults to
"local"). Without a config file the built-in defaults run fully offline.`,
		SilenceUsage: true,
	}

	// cobra prints to stderr unless an output is set.
	cmd.SetOut(os.Stdout)

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default is config/$ENV.yaml)")
	cmd.PersistentFlags().StringVar(&opts.catalog, "catalog", "", "catalog snapshot, overrides catalog.path")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (default from config)")

	cmd.AddCommand(
		newServeCmd(opts),
		newRecommendCmd(opts),
		newAnalyzeCmd(opts),
		newEvaluateCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig resolves the config file. An explicit --config must exist;
// a missing environment file falls back to the defaults.
func (o *rootOptions) loadConfig() (cfg config.Config, path string, err error) {
	path = o.configFile
	explicit := path != ""
	if !explicit {
		path = config.Path(config.GetEnv())
	}

	cfg, err = config.LoadFile(path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, fs.ErrNotExist):
		cfg, path = config.Default(), ""
	default:
		return config.Config{}, "", err
	}

	if o.catalog != "" {
		cfg.Catalog.Path = o.catalog
	}
	return cfg, path, nil
}

// newLogger builds the process logger. CLI commands default to warnings only
// so that their stdout stays readable.
func (o *rootOptions) newLogger(cfg config.Config, defaultLevel string) (*zap.Logger, error) {
	level := o.logLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	if level == "" {
		level = defaultLevel
	}
	env := config.GetEnv()
	if env != "prod" && env != "dev" && env != "docker" {
		env = "local"
	}

	l, err := logpkg.NewLogger(env, level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logpkg.WithFile(l, logpkg.FileConfig{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}), nil
}

// sdkOptions translates the resolved config into client options.
func (o *rootOptions) sdkOptions(path string, cfg config.Config, logger *zap.Logger, extra ...assessmatch.Option) []assessmatch.Option {
	opts := []assessmatch.Option{
		assessmatch.WithCatalogFile(cfg.Catalog.Path),
		assessmatch.WithLogger(logger),
	}
	if path != "" {
		opts = append([]assessmatch.Option{assessmatch.WithConfigFile(path)}, opts...)
	}
	return append(opts, extra...)
}

func syncLogger(l *zap.Logger) {
	// stderr sync fails on some terminals; nothing to do about it.
	_ = l.Sync()
}
