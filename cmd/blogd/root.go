package main

import (
	"os"

	"github.com/spf13/cobra"

	"blogd/internal/config"
)

// options are the flag values shared by every subcommand.
type options struct {
	configPath string
	flags      config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "blogd",
		Short:         "Blog, tag and entry service with live detail streams",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", os.Getenv("BLOGD_CONFIG"), "Path to config file (.yaml|.json|.toml)")
	pf.StringVar(&opts.flags.DBPath, "db", "", "SQLite database path")
	pf.StringVar(&opts.flags.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	pf.StringVar(&opts.flags.LogFormat, "log-format", "", "Log format: auto|json|console")

	root.AddCommand(newServeCmd(opts), newMigrateCmd(opts))
	return root
}

// resolve builds the effective configuration: defaults, then the config
// file, then BLOGD_* environment variables, then flags.
func (o *options) resolve() (config.Config, error) {
	cfg := config.Defaults()
	if o.configPath != "" {
		fileCfg, err := config.Load(o.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = config.Merge(cfg, fileCfg)
	}
	envCfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		return cfg, err
	}
	cfg = config.Merge(cfg, envCfg)
	cfg = config.Merge(cfg, o.flags)
	return cfg, cfg.Validate()
}
