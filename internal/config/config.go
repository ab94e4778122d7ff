package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/bookbuild/internal/logger"
	"github.com/loykin/bookbuild/internal/runner"
)

// FileConfig represents the top-level TOML structure.
type FileConfig struct {
	Build   *BuildConfig   `toml:"build" mapstructure:"build"`
	Log     *LogConfig     `toml:"log" mapstructure:"log"`
	History *HistoryConfig `toml:"history" mapstructure:"history"`
	Server  *ServerConfig  `toml:"server" mapstructure:"server"`
	Git     *GitConfig     `toml:"git" mapstructure:"git"`
}

type BuildConfig struct {
	Name    string        `toml:"name" mapstructure:"name"`
	Command string        `toml:"command" mapstructure:"command"`
	AllArg  string        `toml:"all_arg" mapstructure:"all_arg"`
	WorkDir string        `toml:"workdir" mapstructure:"workdir"`
	Env     []string      `toml:"env" mapstructure:"env"`
	Timeout time.Duration `toml:"timeout" mapstructure:"timeout"`
}

type LogConfig struct {
	Dir         string        `toml:"dir" mapstructure:"dir"`
	Diagnostics logger.Config `toml:"diagnostics" mapstructure:"diagnostics"`
}

type HistoryConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

type GitConfig struct {
	Remote  string `toml:"remote" mapstructure:"remote"`
	Branch  string `toml:"branch" mapstructure:"branch"`
	Message string `toml:"message" mapstructure:"message"`
}

// Defaults reproducing the source launcher's behavior when no config
// file is present.
const (
	DefaultCommand  = "jupyter book build --html"
	DefaultLogDir   = "logs"
	DefaultListen   = ":8080"
	DefaultBasePath = "/api"
	DefaultMessage  = "Update book"
)

// Config is the merged, defaulted view handed to commands.
type Config struct {
	Build   BuildConfig
	Log     LogConfig
	History HistoryConfig
	Server  ServerConfig
	Git     GitConfig
}

// Load reads the TOML file at path and applies defaults. An empty path
// returns pure defaults; a missing file at an explicit path is an
// error so typos do not silently fall back.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.Build != nil {
		if fc.Build.Name != "" {
			cfg.Build.Name = fc.Build.Name
		}
		if fc.Build.Command != "" {
			cfg.Build.Command = fc.Build.Command
		}
		if fc.Build.AllArg != "" {
			cfg.Build.AllArg = fc.Build.AllArg
		}
		if fc.Build.WorkDir != "" {
			cfg.Build.WorkDir = fc.Build.WorkDir
		}
		if len(fc.Build.Env) > 0 {
			cfg.Build.Env = fc.Build.Env
		}
		if fc.Build.Timeout > 0 {
			cfg.Build.Timeout = fc.Build.Timeout
		}
	}
	if fc.Log != nil {
		if fc.Log.Dir != "" {
			cfg.Log.Dir = fc.Log.Dir
		}
		cfg.Log.Diagnostics = fc.Log.Diagnostics
	}
	if fc.History != nil {
		cfg.History = *fc.History
	}
	if fc.Server != nil {
		if fc.Server.Listen != "" {
			cfg.Server.Listen = fc.Server.Listen
		}
		if fc.Server.BasePath != "" {
			cfg.Server.BasePath = fc.Server.BasePath
		}
	}
	if fc.Git != nil {
		if fc.Git.Remote != "" {
			cfg.Git.Remote = fc.Git.Remote
		}
		if fc.Git.Branch != "" {
			cfg.Git.Branch = fc.Git.Branch
		}
		if fc.Git.Message != "" {
			cfg.Git.Message = fc.Git.Message
		}
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Build: BuildConfig{
			Name:    runner.DefaultName,
			Command: DefaultCommand,
			AllArg:  runner.DefaultAllArg,
		},
		Log:    LogConfig{Dir: DefaultLogDir},
		Server: ServerConfig{Listen: DefaultListen, BasePath: DefaultBasePath},
		Git:    GitConfig{Remote: "origin", Message: DefaultMessage},
	}
}

// Spec converts the build section into a runner.Spec.
func (c *Config) Spec() runner.Spec {
	return runner.Spec{
		Name:    c.Build.Name,
		Command: c.Build.Command,
		AllArg:  c.Build.AllArg,
		WorkDir: c.Build.WorkDir,
		Env:     c.Build.Env,
		Timeout: c.Build.Timeout,
	}
}
