// Package config loads the bot configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"github.com/keshon/deejay/internal/music/state"
	"github.com/keshon/deejay/internal/music/track"
)

type Config struct {
	DiscordToken   string         `env:"DISCORD_TOKEN,required,notEmpty"`
	GuildBlacklist []snowflake.ID `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`

	LavaHost   string `env:"LAVA_HOST,required,notEmpty"`
	LavaPort   int    `env:"LAVA_PORT" envDefault:"2233"`
	LavaPass   string `env:"LAVA_PASS,required"`
	LavaSecure bool   `env:"LAVA_SECURE"`

	DefaultProvider   string        `env:"DEFAULT_PROVIDER" envDefault:"spotify"`
	InactivityTimeout time.Duration `env:"INACTIVITY_TIMEOUT" envDefault:"5m"`
	StatusDeleteDelay time.Duration `env:"STATUS_DELETE_DELAY" envDefault:"10s"`
	HistoryCapacity   int           `env:"HISTORY_CAPACITY" envDefault:"20"`
	QueueCapacity     int           `env:"QUEUE_CAPACITY" envDefault:"500"`
	QueueDisplayLimit int           `env:"QUEUE_DISPLAY_LIMIT" envDefault:"20"`
	DefaultVolume     int           `env:"DEFAULT_VOLUME" envDefault:"100"`

	StrictVoiceCommands bool `env:"STRICT_VOICE_COMMANDS"`

	LyricsURL      string `env:"LYRICS_URL"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile        string `env:"LOG_FILE"`
	CommandHashDir string `env:"COMMAND_HASH_DIR" envDefault:"data/commands"`
}

// Load reads .env files when present, then parses the environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(snowflake.ID(0)): func(v string) (any, error) {
				return snowflake.Parse(v)
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values env tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.LavaPort <= 0 || c.LavaPort > 65535 {
		errs = append(errs, fmt.Errorf("LAVA_PORT out of range: %d", c.LavaPort))
	}
	if _, err := track.ParseProvider(c.DefaultProvider); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_PROVIDER: %w", err))
	}
	if c.DefaultVolume < state.MinVolume || c.DefaultVolume > state.MaxVolume {
		errs = append(errs, fmt.Errorf("DEFAULT_VOLUME must be within %d-%d", state.MinVolume, state.MaxVolume))
	}
	if c.HistoryCapacity < 0 || c.QueueCapacity < 0 || c.QueueDisplayLimit <= 0 {
		errs = append(errs, errors.New("capacities must not be negative and QUEUE_DISPLAY_LIMIT must be positive"))
	}
	if c.InactivityTimeout <= 0 {
		errs = append(errs, errors.New("INACTIVITY_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// Provider is the validated default search provider.
func (c *Config) Provider() track.Provider {
	p, err := track.ParseProvider(c.DefaultProvider)
	if err != nil {
		return track.DefaultProvider
	}
	return p
}

// Limits returns the playback state capacities.
func (c *Config) Limits() state.Limits {
	return state.Limits{QueueCapacity: c.QueueCapacity, HistoryCapacity: c.HistoryCapacity}
}

// Blacklisted reports whether the bot must ignore guildID.
func (c *Config) Blacklisted(guildID snowflake.ID) bool {
	return lo.Contains(c.GuildBlacklist, guildID)
}
