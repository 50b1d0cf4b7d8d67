package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/ensiproject/ensi/internal/game/economy"
	"github.com/ensiproject/ensi/internal/game/mapgen"
)

// Config holds all configuration for the application.
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	Game        GameConfig        `mapstructure:"game"`
	Sandbox     SandboxConfig     `mapstructure:"sandbox"`
	Tournament  TournamentConfig  `mapstructure:"tournament"`
	Development DevelopmentConfig `mapstructure:"development"`
	Features    FeaturesConfig    `mapstructure:"features"`
}

// LoggingConfig holds zerolog output settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
}

// GameConfig holds game mechanics configuration.
type GameConfig struct {
	Board    BoardConfig    `mapstructure:"board"`
	MapGen   MapGenConfig   `mapstructure:"mapgen"`
	Economy  EconomyConfig  `mapstructure:"economy"`
	MaxTurns int            `mapstructure:"max_turns"`
}

// BoardConfig holds map dimensions.
type BoardConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// MapGenConfig mirrors mapgen.Config's tunables so they can be set from a
// config file/environment rather than only DefaultConfig's hardcoded values.
type MapGenConfig struct {
	CityRatio         int                `mapstructure:"city_ratio"`
	CityStartPop      int                `mapstructure:"city_start_pop"`
	CapitalStartArmy  int                `mapstructure:"capital_start_army"`
	CapitalStartPop   int                `mapstructure:"capital_start_pop"`
	MinCapitalSpacing int                `mapstructure:"min_capital_spacing"`
	MountainVeins     MountainVeinConfig `mapstructure:"mountain_veins"`
	MaxRegenerateAttempts int            `mapstructure:"max_regenerate_attempts"`
}

// MountainVeinConfig holds mountain vein generation settings. VeinDivisor
// controls vein count as width*height/VeinDivisor, mirroring the teacher's
// ratio-based MountainVeinConfig; MaxLengthRatio scales vein length against
// board width the same way.
type MountainVeinConfig struct {
	VeinDivisor    int     `mapstructure:"vein_divisor"`
	MinLength      int     `mapstructure:"min_length"`
	MaxLengthRatio float64 `mapstructure:"max_length_ratio"`
}

// EconomyConfig selects the implementation-chosen economy.Rules variant.
type EconomyConfig struct {
	CityAdjacencyBonus bool `mapstructure:"city_adjacency_bonus"`
}

// SandboxConfig controls which guest runtime backend plays for bots and
// their per-turn fuel budget.
type SandboxConfig struct {
	Backend     string `mapstructure:"backend"` // "riscv" or "microvm"
	FuelPerTurn uint64 `mapstructure:"fuel_per_turn"`
}

// TournamentConfig bounds the worker pool that runs games in parallel.
type TournamentConfig struct {
	Workers       int `mapstructure:"workers"`
	GamesPerMatch int `mapstructure:"games_per_match"`
}

// DevelopmentConfig holds development/debug settings.
type DevelopmentConfig struct {
	VerboseLogging bool `mapstructure:"verbose_logging"`
}

// FeaturesConfig holds feature flags.
type FeaturesConfig struct {
	EnableReplay bool `mapstructure:"enable_replay"`
}

var (
	// Global config instance
	cfg *Config
	v   *viper.Viper
)

// setViperDefaults sets all default values using Viper's SetDefault.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("game.board.width", 20)
	v.SetDefault("game.board.height", 20)
	v.SetDefault("game.max_turns", 1000)

	v.SetDefault("game.mapgen.city_ratio", 14)
	v.SetDefault("game.mapgen.city_start_pop", 10)
	v.SetDefault("game.mapgen.capital_start_army", 1)
	v.SetDefault("game.mapgen.capital_start_pop", 10)
	v.SetDefault("game.mapgen.min_capital_spacing", 5)
	v.SetDefault("game.mapgen.mountain_veins.vein_divisor", 40)
	v.SetDefault("game.mapgen.mountain_veins.min_length", 3)
	v.SetDefault("game.mapgen.mountain_veins.max_length_ratio", 0.25)
	v.SetDefault("game.mapgen.max_regenerate_attempts", 64)

	v.SetDefault("game.economy.city_adjacency_bonus", false)

	v.SetDefault("sandbox.backend", "riscv")
	v.SetDefault("sandbox.fuel_per_turn", uint64(1_000_000))

	v.SetDefault("tournament.workers", 4)
	v.SetDefault("tournament.games_per_match", 1)

	v.SetDefault("development.verbose_logging", false)

	v.SetDefault("features.enable_replay", true)
}

// Init initializes the configuration.
func Init(configPath string) error {
	v = viper.New()

	setViperDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/ensi")
	}

	v.SetEnvPrefix("ENSI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if configPath != "" {
			// Specific file requested but not found - use defaults.
		} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// Get returns the global config instance.
func Get() *Config {
	if cfg == nil {
		if err := Init(""); err != nil {
			panic("failed to initialize config with defaults: " + err.Error())
		}
	}
	return cfg
}

// GetViper returns the viper instance for advanced usage.
func GetViper() *viper.Viper {
	if v == nil {
		panic("config not initialized - call Init() first")
	}
	return v
}

// LoadEnvironmentConfig loads environment-specific config overlay.
func LoadEnvironmentConfig(env string) error {
	if env == "" {
		return nil
	}

	envFile := fmt.Sprintf("config.%s.yaml", env)

	v.SetConfigFile(envFile)
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error merging environment config %s: %w", envFile, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode merged config into struct: %w", err)
	}

	return nil
}

// Set allows runtime config updates.
func Set(key string, value interface{}) {
	v.Set(key, value)
	v.Unmarshal(cfg)
}

func GetString(key string) string   { return v.GetString(key) }
func GetInt(key string) int         { return v.GetInt(key) }
func GetBool(key string) bool       { return v.GetBool(key) }
func GetFloat64(key string) float64 { return v.GetFloat64(key) }

// ConfigFilePath returns the path of the loaded config file.
func ConfigFilePath() string {
	return v.ConfigFileUsed()
}

// WatchConfig enables hot-reloading of config file.
func WatchConfig(onChange func()) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		v.Unmarshal(cfg)
		if onChange != nil {
			onChange()
		}
	})
}

// ToMapGenConfig builds a mapgen.Config for numPlayers from c's tunables,
// the way DefaultConfig derives vein count/length from board size but with
// every rate sourced from config instead of hardcoded.
func (c *Config) ToMapGenConfig(numPlayers int) mapgen.Config {
	w, h := c.Game.Board.Width, c.Game.Board.Height
	veins := c.Game.MapGen.MountainVeins
	numVeins := (w * h) / maxInt(veins.VeinDivisor, 1)
	maxVeinLen := maxInt(int(float64(w)*veins.MaxLengthRatio), veins.MinLength)

	return mapgen.Config{
		Width:                 w,
		Height:                h,
		NumPlayers:            numPlayers,
		CityRatio:             c.Game.MapGen.CityRatio,
		CityStartPop:          uint32(c.Game.MapGen.CityStartPop),
		CapitalStartArmy:      uint16(c.Game.MapGen.CapitalStartArmy),
		CapitalStartPop:       uint32(c.Game.MapGen.CapitalStartPop),
		MinCapitalSpacing:     c.Game.MapGen.MinCapitalSpacing,
		NumMountainVeins:      numVeins,
		MinVeinLength:         veins.MinLength,
		MaxVeinLength:         maxVeinLen,
		MaxRegenerateAttempts: c.Game.MapGen.MaxRegenerateAttempts,
	}
}

// ToEconomyRules builds the economy.Rules variant this config selects.
func (c *Config) ToEconomyRules() economy.Rules {
	return economy.Rules{CityAdjacencyBonus: c.Game.Economy.CityAdjacencyBonus}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Validate validates the configuration values.
func Validate(c *Config) error {
	if c.Game.Board.Width <= 0 || c.Game.Board.Height <= 0 {
		return fmt.Errorf("game.board dimensions must be positive")
	}
	if c.Game.MaxTurns <= 0 {
		return fmt.Errorf("game.max_turns must be positive")
	}

	if c.Game.MapGen.CityRatio <= 0 {
		return fmt.Errorf("game.mapgen.city_ratio must be positive")
	}
	if c.Game.MapGen.MinCapitalSpacing < 1 {
		return fmt.Errorf("game.mapgen.min_capital_spacing must be at least 1")
	}
	if c.Game.MapGen.MountainVeins.VeinDivisor <= 0 {
		return fmt.Errorf("game.mapgen.mountain_veins.vein_divisor must be positive")
	}
	if c.Game.MapGen.MountainVeins.MaxLengthRatio < 0 || c.Game.MapGen.MountainVeins.MaxLengthRatio > 1 {
		return fmt.Errorf("game.mapgen.mountain_veins.max_length_ratio must be between 0 and 1")
	}
	if c.Game.MapGen.MaxRegenerateAttempts <= 0 {
		return fmt.Errorf("game.mapgen.max_regenerate_attempts must be positive")
	}

	switch c.Sandbox.Backend {
	case "riscv", "microvm":
	default:
		return fmt.Errorf("sandbox.backend must be \"riscv\" or \"microvm\", got %q", c.Sandbox.Backend)
	}
	if c.Sandbox.FuelPerTurn == 0 {
		return fmt.Errorf("sandbox.fuel_per_turn must be positive")
	}

	if c.Tournament.Workers <= 0 {
		return fmt.Errorf("tournament.workers must be positive")
	}
	if c.Tournament.GamesPerMatch <= 0 {
		return fmt.Errorf("tournament.games_per_match must be positive")
	}

	return nil
}
