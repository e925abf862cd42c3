// Package config loads runtime settings from defaults, an optional yaml file
// and TTT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Zarux/tictactable/internal/logger"
	"github.com/Zarux/tictactable/pkg/game"
	"github.com/Zarux/tictactable/pkg/tictactoe"
)

const EnvPrefix = "TTT"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Board    Board    `mapstructure:"board" yaml:"board"`
	AI       AI       `mapstructure:"ai" yaml:"ai"`
	Compiler Compiler `mapstructure:"compiler" yaml:"compiler"`
	Log      Log      `mapstructure:"log" yaml:"log"`
	Server   Server   `mapstructure:"server" yaml:"server"`
}

type Board struct {
	Size int `mapstructure:"size" yaml:"size"`
}

type AI struct {
	// Team the computer plays, 1 (X) or 2 (O).
	Team int `mapstructure:"team" yaml:"team"`
}

type Compiler struct {
	// MaxNodes caps the node store. A 4x4 board needs about 9.7M nodes;
	// anything larger hits the cap.
	MaxNodes int `mapstructure:"max_nodes" yaml:"max_nodes"`
}

type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type Server struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	// FinishedTTL is how long a finished match stays readable.
	FinishedTTL time.Duration `mapstructure:"finished_ttl" yaml:"finished_ttl"`
}

const DefaultMaxNodes = 20_000_000

func setDefaults(v *viper.Viper) {
	v.SetDefault("board.size", tictactoe.DefaultBoardSize)
	v.SetDefault("ai.team", int(game.TeamB))
	v.SetDefault("compiler.max_nodes", DefaultMaxNodes)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("server.addr", "127.0.0.1:3000")
	v.SetDefault("server.finished_ttl", 10*time.Minute)
}

// Load reads path (if not empty) over the defaults, applies TTT_* env
// overrides and any flags in fs that were set, then validates the result.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if fs != nil {
		if f := fs.Lookup("size"); f != nil {
			if err := v.BindPFlag("board.size", f); err != nil {
				return nil, fmt.Errorf("bind size flag: %w", err)
			}
		}

		if f := fs.Lookup("addr"); f != nil {
			if err := v.BindPFlag("server.addr", f); err != nil {
				return nil, fmt.Errorf("bind addr flag: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Board.Size < 1 || c.Board.Size > tictactoe.MaxBoardSize {
		return fmt.Errorf("%w: board.size %d (want 1..%d)", ErrInvalidConfig, c.Board.Size, tictactoe.MaxBoardSize)
	}

	if !game.Team(c.AI.Team).Valid() {
		return fmt.Errorf("%w: ai.team %d (want 1 or 2)", ErrInvalidConfig, c.AI.Team)
	}

	if c.Compiler.MaxNodes <= 0 {
		return fmt.Errorf("%w: compiler.max_nodes %d", ErrInvalidConfig, c.Compiler.MaxNodes)
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("%w: log.format %q (want text or json)", ErrInvalidConfig, c.Log.Format)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("%w: empty server.addr", ErrInvalidConfig)
	}

	if c.Server.FinishedTTL <= 0 {
		return fmt.Errorf("%w: server.finished_ttl %s", ErrInvalidConfig, c.Server.FinishedTTL)
	}

	return nil
}

func (c *Config) AITeam() game.Team {
	return game.Team(c.AI.Team)
}

// Logger builds the process logger from the log section.
func (c *Config) Logger() *logger.Logger {
	level, _ := logger.ParseLevel(c.Log.Level)
	return logger.New(logger.WithLevel(level), logger.WithFormat(c.Log.Format))
}
