// Package config loads runner configuration from YAML and IMPERIUM_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/imperiumfree/imperium-server-go/internal/game"
	"github.com/imperiumfree/imperium-server-go/internal/game/influence"
	"github.com/imperiumfree/imperium-server-go/internal/game/policy"
	"github.com/imperiumfree/imperium-server-go/internal/game/resources"
	"github.com/imperiumfree/imperium-server-go/internal/storage"
)

// EnvPrefix prefixes every environment override, e.g.
// IMPERIUM_STORAGE_DATABASE_URL.
const EnvPrefix = "IMPERIUM"

// Config is the complete runner configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Rules      RulesConfig      `mapstructure:"rules"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Simulation SimulationConfig `mapstructure:"simulation"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RulesConfig overrides the standard rule set. Zero values keep the
// defaults.
type RulesConfig struct {
	AgentsPerRound      int                   `mapstructure:"agents_per_round"`
	HandSize            int                   `mapstructure:"hand_size"`
	StartingGarrison    int                   `mapstructure:"starting_garrison"`
	ImperiumRowSize     int                   `mapstructure:"imperium_row_size"`
	VictoryThreshold    int                   `mapstructure:"victory_threshold"`
	MaxInfluence        int                   `mapstructure:"max_influence"`
	AllianceMinimum     int                   `mapstructure:"alliance_minimum"`
	UnitStrength        int                   `mapstructure:"unit_strength"`
	InfluenceThresholds []influence.Threshold `mapstructure:"influence_thresholds"`
	StartingResources   map[string]int        `mapstructure:"starting_resources"`
	LogSize             int                   `mapstructure:"log_size"`
}

// CatalogConfig points at a catalog file. An empty path uses the embedded
// default catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type StorageConfig struct {
	Backend     string `mapstructure:"backend"`
	Directory   string `mapstructure:"directory"`
	DatabaseURL string `mapstructure:"database_url"`
}

// SimulationConfig describes the AI games the runner plays.
type SimulationConfig struct {
	Games      int      `mapstructure:"games"`
	Players    int      `mapstructure:"players"`
	Leaders    []string `mapstructure:"leaders"`
	Policies   []string `mapstructure:"policies"`
	Seed       uint64   `mapstructure:"seed"`
	MaxActions int      `mapstructure:"max_actions"`
	ReplayDir  string   `mapstructure:"replay_dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	d := game.DefaultRules()
	v.SetDefault("rules.agents_per_round", d.AgentsPerRound)
	v.SetDefault("rules.hand_size", d.HandSize)
	v.SetDefault("rules.starting_garrison", d.StartingGarrison)
	v.SetDefault("rules.imperium_row_size", d.ImperiumRowSize)
	v.SetDefault("rules.victory_threshold", d.VictoryThreshold)
	v.SetDefault("rules.max_influence", d.MaxInfluence)
	v.SetDefault("rules.alliance_minimum", d.AllianceMinimum)
	v.SetDefault("rules.unit_strength", d.UnitStrength)
	v.SetDefault("rules.log_size", d.LogSize)

	v.SetDefault("catalog.path", "")

	v.SetDefault("storage.backend", string(storage.BackendMemory))
	v.SetDefault("storage.directory", "data/snapshots")
	v.SetDefault("storage.database_url", "")

	v.SetDefault("simulation.games", 1)
	v.SetDefault("simulation.players", 4)
	v.SetDefault("simulation.leaders", []string{})
	v.SetDefault("simulation.policies", []string{"greedy"})
	v.SetDefault("simulation.seed", 1)
	v.SetDefault("simulation.max_actions", policy.DefaultMaxActions)
	v.SetDefault("simulation.replay_dir", "")
}

// Load reads the file at path, applies defaults and environment overrides
// and validates the result. An empty path loads defaults and environment
// only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format: must be json or console, got %q", c.Logging.Format))
	}

	for name := range c.Rules.StartingResources {
		if !resources.Resource(name).Valid() {
			errs = append(errs, fmt.Errorf("rules.starting_resources: unknown resource %q", name))
		}
	}
	if c.Rules.VictoryThreshold < 0 {
		errs = append(errs, errors.New("rules.victory_threshold: must not be negative"))
	}

	switch storage.Backend(c.Storage.Backend) {
	case storage.BackendMemory:
	case storage.BackendFile:
		if c.Storage.Directory == "" {
			errs = append(errs, errors.New("storage.directory: required for the file backend"))
		}
	case storage.BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("storage.database_url: required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend))
	}

	sim := c.Simulation
	if sim.Games < 1 {
		errs = append(errs, errors.New("simulation.games: must be at least 1"))
	}
	if sim.Players < 1 || sim.Players > game.MaxPlayers {
		errs = append(errs, fmt.Errorf("simulation.players: must be between 1 and %d", game.MaxPlayers))
	}
	if len(sim.Leaders) > sim.Players {
		errs = append(errs, fmt.Errorf("simulation.leaders: %d leaders for %d players", len(sim.Leaders), sim.Players))
	}
	for _, name := range sim.Policies {
		if _, err := policy.ByName(name, 0); err != nil {
			errs = append(errs, fmt.Errorf("simulation.policies: %w", err))
		}
	}
	if sim.MaxActions < 1 {
		errs = append(errs, errors.New("simulation.max_actions: must be at least 1"))
	}

	return errors.Join(errs...)
}

// RuleSet converts the rules section to game rules. Unset fields fall back
// to the standard rules when the game starts.
func (c *Config) RuleSet() game.Rules {
	r := c.Rules
	out := game.Rules{
		AgentsPerRound:      r.AgentsPerRound,
		HandSize:            r.HandSize,
		StartingGarrison:    r.StartingGarrison,
		ImperiumRowSize:     r.ImperiumRowSize,
		VictoryThreshold:    r.VictoryThreshold,
		MaxInfluence:        r.MaxInfluence,
		AllianceMinimum:     r.AllianceMinimum,
		UnitStrength:        r.UnitStrength,
		InfluenceThresholds: append([]influence.Threshold(nil), r.InfluenceThresholds...),
		LogSize:             r.LogSize,
	}
	if len(r.StartingResources) > 0 {
		out.StartingResources = make(resources.Amounts, len(r.StartingResources))
		for name, n := range r.StartingResources {
			out.StartingResources[resources.Resource(name)] = n
		}
	}
	return out
}

// StorageOptions converts the storage section for storage.Open.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:     storage.Backend(c.Storage.Backend),
		Directory:   c.Storage.Directory,
		DatabaseURL: c.Storage.DatabaseURL,
	}
}

// Seats returns the leader and policy name of each simulated seat. Policies
// repeat when fewer are listed than there are players.
func (s SimulationConfig) Seats() []Seat {
	seats := make([]Seat, s.Players)
	for i := range seats {
		if i < len(s.Leaders) {
			seats[i].Leader = s.Leaders[i]
		}
		if len(s.Policies) > 0 {
			seats[i].Policy = s.Policies[i%len(s.Policies)]
		}
	}
	return seats
}

// Seat is one simulated player.
type Seat struct {
	Leader string
	Policy string
}
