// Command githubauth runs the GitHub sign-in service and its operator tools.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/githubauth/internal/config"
	"github.com/dropDatabas3/githubauth/internal/observability/logger"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "githubauth",
		Short:         "GitHub OAuth sign-in service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to config.yaml (env CONFIG_PATH)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		logger.Init(logger.Config{
			Env:         cfg.App.Env,
			Level:       cfg.Log.Level,
			ServiceName: cfg.App.Name,
			Version:     cfg.App.Version,
		})
		return cfg, nil
	}

	root.AddCommand(
		newServeCmd(load),
		newCheckConfigCmd(load),
		newAuthorizeURLCmd(load),
		newEncryptSecretCmd(),
		newUserCmd(load),
	)
	return root
}
