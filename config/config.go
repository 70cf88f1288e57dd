// Package config loads the Driver configuration (spec §6 "Driver
// configuration") the same way the teacher's appconfig package loads its
// own settings: environment variables via cleanenv, optionally seeded from
// a .env file via godotenv at the process entrypoint.
package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config mirrors every recognized Driver option from spec §6. Range and
// board strings are left unparsed here — rangeparser and cards.ParseCard
// own that grammar — so this package's only job is pulling configuration
// values out of the environment with sane defaults.
type Config struct {
	Ranks int `env:"RANKS" env-default:"13"`
	Suits int `env:"SUITS" env-default:"4"`

	CompairerFile      string `env:"COMPAIRER_FILE"`
	CompairerFileLines string `env:"COMPAIRER_FILE_LINES"`
	CompairerFileBin   string `env:"COMPAIRER_FILE_BIN"`

	OopCommit      float64 `env:"OOP_COMMIT" env-default:"0"`
	IpCommit       float64 `env:"IP_COMMIT" env-default:"0"`
	CurrentRound   string  `env:"CURRENT_ROUND" env-default:"river"`
	RaiseLimit     int     `env:"RAISE_LIMIT" env-default:"3"`
	SmallBlind     int     `env:"SMALL_BLIND" env-default:"1"`
	BigBlind       int     `env:"BIG_BLIND" env-default:"2"`
	Stack          int     `env:"STACK" env-default:"100"`
	AllinThreshold float64 `env:"ALLIN_THRESHOLD" env-default:"0"`

	P1Range string `env:"P1_RANGE"`
	P2Range string `env:"P2_RANGE"`
	Boards  string `env:"BOARDS"`

	LogFile        string `env:"LOG_FILE"`
	IterationNumber int   `env:"ITERATION_NUMBER" env-default:"1000"`
	PrintInterval   int   `env:"PRINT_INTERVAL" env-default:"20"`
	Algorithm       string `env:"ALGORITHM" env-default:"discounted_cfr"`
	Warmup          int    `env:"WARMUP" env-default:"0"`
	Accuracy        float64 `env:"ACCURACY" env-default:"0.01"`
	UseIsomorphism  bool   `env:"USE_ISOMORPHISM" env-default:"true"`
	Threads         int    `env:"THREADS" env-default:"-1"`
	EnableEquity    bool   `env:"ENABLE_EQUITY" env-default:"false"`
	EnableRange     bool   `env:"ENABLE_RANGE" env-default:"false"`

	DumpFile   string `env:"DUMP_FILE"`
	DumpRounds string `env:"DUMP_ROUNDS"`
}

// Load reads Config from the process environment (spec §7's "unknown
// algorithm name ... fail fast at setup" is enforced by Validate, not here,
// since cleanenv has no notion of this package's enum constraints).
func Load() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate enforces the spec §7 input-shape checks this package owns:
// unsupported algorithm selection fails fast rather than falling through to
// a confusing runtime error deep inside the CFR engine.
func (c *Config) Validate() error {
	if c.Algorithm != "discounted_cfr" {
		return fmt.Errorf("config: algorithm %q not supported (only \"discounted_cfr\" is implemented)", c.Algorithm)
	}
	if c.Accuracy < 0 {
		return fmt.Errorf("config: accuracy must be >= 0, got %v", c.Accuracy)
	}
	switch c.CurrentRound {
	case "preflop", "flop", "turn", "river":
	default:
		return fmt.Errorf("config: unknown current_round %q", c.CurrentRound)
	}
	return nil
}
