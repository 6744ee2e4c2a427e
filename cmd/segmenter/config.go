package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yuanlichao666/llm-ops/internal/config"
	"github.com/yuanlichao666/llm-ops/internal/log"
)

// Flag names
const (
	flagEnvFile   = "env-file"
	flagDBPath    = "db"
	flagLogLevel  = "log-level"
	flagProvider  = "provider"
	flagModel     = "model"
	flagType      = "type"
	flagAmount    = "amount"
	flagChunks    = "chunks"
	flagBuffer    = "buffer"
	flagSeparator = "separator"
	flagWorkers   = "workers"
	flagInclude   = "include"
	flagForce     = "force"
)

// flagKeys maps flags to the configuration keys they override
var flagKeys = map[string]string{
	flagDBPath:    config.KeyDBPath,
	flagLogLevel:  config.KeyLogLevel,
	flagProvider:  config.KeyProvider,
	flagModel:     config.KeyModel,
	flagType:      config.KeyThresholdType,
	flagAmount:    config.KeyThresholdAmount,
	flagChunks:    config.KeyNumberOfChunks,
	flagBuffer:    config.KeyBufferSize,
	flagSeparator: config.KeySeparator,
	flagWorkers:   config.KeyIndexWorkers,
	flagInclude:   config.KeyInclude,
}

// loadConfig loads the configuration with every explicitly set flag applied
// on top of defaults and environment, then applies the log level
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := loadEnvFile(cmd); err != nil {
		return nil, err
	}

	overrides, err := flagOverrides(cmd.Flags())
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return nil, err
	}
	log.SetLevel(cfg.Log.Level)
	return cfg, nil
}

// flagOverrides collects the values of changed flags keyed by config path
func flagOverrides(flags *pflag.FlagSet) (map[string]any, error) {
	overrides := make(map[string]any)
	var err error

	flags.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}

		var value any
		switch f.Value.Type() {
		case "int":
			value, err = flags.GetInt(f.Name)
		case "float64":
			value, err = flags.GetFloat64(f.Name)
		case "stringSlice":
			value, err = flags.GetStringSlice(f.Name)
		default:
			value = f.Value.String()
		}
		if err != nil {
			err = fmt.Errorf("invalid --%s: %w", f.Name, err)
			return
		}
		overrides[key] = value
	})

	return overrides, err
}

// loadEnvFile loads variables from the --env-file path into the process
// environment. Variables already set win; a missing file is not an error.
func loadEnvFile(cmd *cobra.Command) error {
	envFile, err := cmd.Flags().GetString(flagEnvFile)
	if err != nil {
		return fmt.Errorf("failed to get %s flag: %w", flagEnvFile, err)
	}
	if envFile == "" {
		return nil
	}

	path, err := filepath.Abs(envFile)
	if err != nil {
		return fmt.Errorf("failed to resolve env file path: %w", err)
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("env file %s is not a regular file", path)
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	log.Debugf("loaded environment from %s", path)
	return nil
}
