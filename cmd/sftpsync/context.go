package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"sftpsync/internal/config"
	"sftpsync/internal/logging"
)

const defaultEnvFile = ".env"

type commandContext struct {
	configFlag  *string
	envFileFlag *string

	// overrides are applied after the config file and environment.
	overrides []func(*config.Config)

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag, envFileFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		envFileFlag: envFileFlag,
	}
}

func (c *commandContext) addOverride(fn func(*config.Config)) {
	c.overrides = append(c.overrides, fn)
}

// ensureConfig loads the env file, then the config file, once per process.
// A missing env file is only an error when --env-file was given explicitly.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		envFile := defaultEnvFile
		explicit := false
		if c.envFileFlag != nil {
			envFile = strings.TrimSpace(*c.envFileFlag)
			if flag := cmd.Flag("env-file"); flag != nil {
				explicit = flag.Changed
			}
		}
		if err := config.LoadEnvFile(envFile, !explicit); err != nil {
			c.configErr = err
			return
		}

		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path, c.overrides...)
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*slog.Logger, error) {
	if c.config == nil {
		return logging.NewNop(), nil
	}
	return logging.NewFromConfig(c.config)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
