// Package config loads runtime settings for the binaries. Rules (catalogs,
// tuning) and scenarios have their own loaders; this covers everything an
// operator tunes per deployment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	LogLevel   string `mapstructure:"logLevel"`
	LogConsole bool   `mapstructure:"logConsole"`

	Server ServerConfig `mapstructure:"server"`
	Rules  RulesConfig  `mapstructure:"rules"`
	Data   DataConfig   `mapstructure:"data"`
	Turn   TurnConfig   `mapstructure:"turn"`
	Bot    BotConfig    `mapstructure:"bot"`
}

type ServerConfig struct {
	Addr    string   `mapstructure:"addr"`
	WSPath  string   `mapstructure:"wsPath"`
	GameID  string   `mapstructure:"gameID"`
	Players []string `mapstructure:"players"`
}

type RulesConfig struct {
	ConfigDir string `mapstructure:"configDir"`
	Tuning    string `mapstructure:"tuning"`
	Scenario  string `mapstructure:"scenario"`
}

type DataConfig struct {
	Dir                 string `mapstructure:"dir"`
	IndexDB             string `mapstructure:"indexDB"`
	SnapshotEveryRounds int    `mapstructure:"snapshotEveryRounds"`
	Resume              bool   `mapstructure:"resume"`
}

type TurnConfig struct {
	ConfirmBoostedRun bool   `mapstructure:"confirmBoostedRun"`
	ConfirmHazard     bool   `mapstructure:"confirmHazard"`
	ConfirmHighG      bool   `mapstructure:"confirmHighG"`
	AdvancedMovement  bool   `mapstructure:"advancedMovement"`
	SplitPolicy       string `mapstructure:"splitPolicy"`
	DragLogEvery      uint32 `mapstructure:"dragLogEvery"`
}

type BotConfig struct {
	URL    string `mapstructure:"url"`
	Player string `mapstructure:"player"`
	Token  string `mapstructure:"token"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("logConsole", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.wsPath", "/v1/move")
	v.SetDefault("server.gameID", "game_1")
	v.SetDefault("server.players", []string{})

	v.SetDefault("rules.configDir", "./configs")
	v.SetDefault("rules.tuning", "./configs/tuning.yaml")
	v.SetDefault("rules.scenario", "./configs/scenario.yaml")

	v.SetDefault("data.dir", "./data/game_1")
	v.SetDefault("data.indexDB", "./data/game_1/index.sqlite")
	v.SetDefault("data.snapshotEveryRounds", 1)
	v.SetDefault("data.resume", true)

	v.SetDefault("turn.confirmBoostedRun", true)
	v.SetDefault("turn.confirmHazard", true)
	v.SetDefault("turn.confirmHighG", true)
	v.SetDefault("turn.advancedMovement", false)
	v.SetDefault("turn.splitPolicy", "LIGHTER_LEFT")
	v.SetDefault("turn.dragLogEvery", 10)

	v.SetDefault("bot.url", "ws://localhost:8080/v1/move")
	v.SetDefault("bot.player", "red")
	v.SetDefault("bot.token", "")
}

// Load reads hexmove.yaml (or .json) from configDir when present, then
// applies HEXMOVE_* environment overrides, e.g. HEXMOVE_SERVER_ADDR.
// A missing file is not an error; a malformed one is.
func Load(configDir string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HEXMOVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configDir != "" {
		v.SetConfigName("hexmove")
		v.AddConfigPath(configDir)
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return Config{}, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if !strings.HasPrefix(c.Server.WSPath, "/") {
		return fmt.Errorf("server.wsPath must start with /")
	}
	if c.Data.SnapshotEveryRounds < 0 {
		return fmt.Errorf("data.snapshotEveryRounds must be >= 0")
	}
	switch strings.ToUpper(c.Turn.SplitPolicy) {
	case "", "LIGHTER_LEFT", "LEFT", "RIGHT":
	default:
		return fmt.Errorf("turn.splitPolicy %q unknown", c.Turn.SplitPolicy)
	}
	return nil
}
