// Package config loads editor settings from defaults, a TOML file, a .env
// file and LYRA_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// ErrSchemaVersion is returned when the configured grammar version is not supported.
var ErrSchemaVersion = errors.New("config: unsupported vega version")

const (
	DefaultPath    = "~/.lyra.toml"
	DefaultEnvFile = ".env"

	// SupportedVersions is the range of grammar versions specs are compiled for.
	SupportedVersions = ">= 5.0.0, < 6.0.0"

	envPrefix = "LYRA_"
)

// Duration is a time.Duration written as "250ms" in files and variables.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	// Debounce is how long demonstration signals must settle before the
	// gesture is classified.
	Debounce Duration `toml:"debounce"`

	Scene struct {
		Width  int `toml:"width"`
		Height int `toml:"height"`
	} `toml:"scene"`

	Timeline struct {
		// Limit caps the snapshots kept after the baseline. 0 keeps all.
		Limit int `toml:"limit"`
	} `toml:"timeline"`

	Vega struct {
		Version string `toml:"version"`
	} `toml:"vega"`

	Log struct {
		Level slog.Level `toml:"level"`
	} `toml:"log"`

	Server struct {
		Addr string `toml:"addr"`
	} `toml:"server"`
}

func Default() *Config {
	c := &Config{Debounce: Duration{250 * time.Millisecond}}
	c.Scene.Width = 610
	c.Scene.Height = 610
	c.Vega.Version = "5.0.0"
	c.Log.Level = slog.LevelInfo
	c.Server.Addr = "localhost:8610"
	return c
}

// Load reads the configuration. An empty path reads DefaultPath, which may
// be missing; an explicit path must exist. envFile may be missing.
func Load(path, envFile string) (*Config, error) {
	c := Default()

	optional := path == ""
	if optional {
		path = DefaultPath
	}
	if err := c.readFile(path, optional); err != nil {
		return nil, err
	}

	dotenv := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", envFile, err)
		default:
			dotenv = m
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := c.applyEnv(lookup); err != nil {
		return nil, err
	}

	return c, c.Validate()
}

func (c *Config) readFile(path string, optional bool) error {
	full, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	f, err := os.Open(full)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(c); err != nil {
		return fmt.Errorf("config: %s: %w", full, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"SCENE_WIDTH":    &c.Scene.Width,
		"SCENE_HEIGHT":   &c.Scene.Height,
		"TIMELINE_LIMIT": &c.Timeline.Limit,
	}
	for key, dst := range ints {
		v, ok := lookup(envPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", envPrefix, key, err)
		}
		*dst = n
	}

	if v, ok := lookup(envPrefix + "DEBOUNCE"); ok {
		if err := c.Debounce.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("config: %sDEBOUNCE: %w", envPrefix, err)
		}
	}
	if v, ok := lookup(envPrefix + "LOG_LEVEL"); ok {
		if err := c.Log.Level.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("config: %sLOG_LEVEL: %w", envPrefix, err)
		}
	}
	if v, ok := lookup(envPrefix + "VEGA_VERSION"); ok {
		c.Vega.Version = v
	}
	if v, ok := lookup(envPrefix + "SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	return nil
}

// Validate checks the grammar version and the sizes.
func (c *Config) Validate() error {
	if _, err := c.VegaVersion(); err != nil {
		return err
	}
	if c.Scene.Width <= 0 || c.Scene.Height <= 0 {
		return fmt.Errorf("config: scene size %dx%d must be positive", c.Scene.Width, c.Scene.Height)
	}
	if c.Timeline.Limit < 0 {
		return fmt.Errorf("config: timeline limit %d is negative", c.Timeline.Limit)
	}
	if c.Debounce.Duration <= 0 {
		return fmt.Errorf("config: debounce %s must be positive", c.Debounce.Duration)
	}
	return nil
}

// VegaVersion parses the configured grammar version and checks it against
// SupportedVersions.
func (c *Config) VegaVersion() (*semver.Version, error) {
	v, err := semver.NewVersion(c.Vega.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrSchemaVersion, c.Vega.Version, err)
	}

	supported, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return nil, err
	}
	if !supported.Check(v) {
		return nil, fmt.Errorf("%w: %s is not %s", ErrSchemaVersion, v, SupportedVersions)
	}
	return v, nil
}
