// Package config loads the curated name lists and lookup tables used by the
// roster pipeline, and the environment-driven runtime settings.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// TrophyPattern maps an event-name pattern to a trophy key.
type TrophyPattern struct {
	Pattern string `yaml:"pattern"`
	Trophy  string `yaml:"trophy"`
}

// Curated holds every hand-maintained list the pipeline consults.
type Curated struct {
	Spinners       []string          `yaml:"spinners"`
	Wicketkeepers  []string          `yaml:"wicketkeepers"`
	Blacklist      []string          `yaml:"blacklist"`
	TrophyPatterns []TrophyPattern   `yaml:"trophy_patterns"`
	IPLTeams       map[string]string `yaml:"ipl_teams"`
	CountryCodes   map[string]string `yaml:"country_codes"`
	CountryFlags   map[string]string `yaml:"country_flags"`
	NameOverrides  map[string]string `yaml:"name_overrides"`
}

// Defaults returns the embedded curated data.
func Defaults() (*Curated, error) {
	var c Curated
	if err := yaml.Unmarshal(defaultsYAML, &c); err != nil {
		return nil, fmt.Errorf("decode embedded defaults: %w", err)
	}
	return &c, nil
}

// Load returns the defaults overlaid with the YAML file at path. An empty path
// returns the defaults unchanged.
func Load(path string) (*Curated, error) {
	c, err := Defaults()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return c, nil
}

// Env is the runtime configuration read from the environment. Flags, where
// given, take precedence over these values.
type Env struct {
	DataDir      string        `env:"CRICROSTER_DATA_DIR"`
	DBPath       string        `env:"CRICROSTER_DB"`
	MinPlayers   int           `env:"CRICROSTER_MIN_PLAYERS" envDefault:"500"`
	LogLevel     string        `env:"CRICROSTER_LOG_LEVEL" envDefault:"info"`
	LogFormat    string        `env:"CRICROSTER_LOG_FORMAT" envDefault:"console"`
	AnthropicKey string        `env:"ANTHROPIC_API_KEY"`
	EnrichModel  string        `env:"CRICROSTER_ENRICH_MODEL" envDefault:"claude-haiku-4-5-20251001"`
	EnrichDelay  time.Duration `env:"CRICROSTER_ENRICH_DELAY" envDefault:"2s"`
}

// ParseEnv loads Env from the process environment.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}
