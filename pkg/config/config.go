// Package config holds the configuration of a dynwalk run, read from an
// optional YAML file and overridden by command-line flags.
package config

import (
	"bytes"
	"fmt"
	"os"
	"unicode"

	"github.com/drone/envsubst/v2"
	"github.com/grafana/dynwalk/pkg/logging"
	"github.com/grafana/dynwalk/pkg/walker"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// DefaultConfig holds default settings for a run.
var DefaultConfig = Config{
	Symbol: walker.DefaultSymbol,
	Log:    logging.DefaultOptions,
}

// Config is the configuration of one traversal.
type Config struct {
	// PID is the target process. Zero means the running process.
	PID    int             `yaml:"pid,omitempty"`
	Symbol string          `yaml:"symbol,omitempty"`
	Log    logging.Options `yaml:"log,omitempty"`
	Enrich EnrichConfig    `yaml:"enrich,omitempty"`

	// Summary prints a table of the walked modules to stdout.
	Summary         bool   `yaml:"summary,omitempty"`
	MetricsTextfile string `yaml:"metrics_textfile,omitempty"`

	// Flag-only settings.
	File      string `yaml:"-"`
	ExpandEnv bool   `yaml:"-"`
}

// EnrichConfig selects the optional per-module lookups.
type EnrichConfig struct {
	Maps    bool `yaml:"maps,omitempty"`
	BuildID bool `yaml:"build_id,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*c = DefaultConfig

	type plain Config
	return unmarshal((*plain)(c))
}

// RegisterFlags registers the flags of c to fs with the values of c as
// defaults.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.File, "config.file", c.File, "YAML configuration file to load.")
	fs.BoolVar(&c.ExpandEnv, "config.expand-env", c.ExpandEnv, "Expand ${VAR} references in the configuration file with environment variables.")
	fs.IntVar(&c.PID, "pid", c.PID, "Process to inspect. 0 inspects dynwalk itself.")
	fs.StringVar(&c.Symbol, "symbol", c.Symbol, "Function to look up in the loaded modules.")
	fs.Var(&c.Log.Level, "log.level", "Log level: debug, info, warn or error.")
	fs.Var(&c.Log.Format, "log.format", "Log format: logfmt or json.")
	fs.BoolVar(&c.Enrich.Maps, "enrich.maps", c.Enrich.Maps, "Report the memory mapping holding each module's dynamic section.")
	fs.BoolVar(&c.Enrich.BuildID, "enrich.build-id", c.Enrich.BuildID, "Read the build ID of each module's file.")
	fs.BoolVar(&c.Summary, "summary", c.Summary, "Print a summary table of the walked modules to stdout.")
	fs.StringVar(&c.MetricsTextfile, "metrics.textfile", c.MetricsTextfile, "Write walk metrics in the Prometheus text format to this file.")
}

// Validate reports every problem with c.
func (c *Config) Validate() error {
	var errs *multierror.Error
	if c.PID < 0 {
		errs = multierror.Append(errs, fmt.Errorf("pid must not be negative, got %d", c.PID))
	}
	if c.Symbol == "" {
		errs = multierror.Append(errs, fmt.Errorf("symbol must not be empty"))
	}
	if err := c.Log.Level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := c.Log.Format.UnmarshalText([]byte(c.Log.Format)); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

// Load builds the configuration of a run. Values come from DefaultConfig,
// then from the file named by --config.file, then from flags that were set
// explicitly.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	flags := DefaultConfig
	flags.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return Apply(fs, &flags)
}

// Apply combines flags, already parsed from fs, with the file they name and
// validates the result. Flags set explicitly in fs take precedence over the
// file.
func Apply(fs *pflag.FlagSet, flags *Config) (*Config, error) {
	if flags.File == "" {
		return flags, flags.Validate()
	}

	cfg := DefaultConfig
	if err := LoadFile(flags.File, flags.ExpandEnv, &cfg); err != nil {
		return nil, err
	}
	cfg.File, cfg.ExpandEnv = flags.File, flags.ExpandEnv

	// Replay the explicitly set flags on top of the file.
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "config.file", "config.expand-env":
			return
		}
		err = overlay(&cfg, f)
	})
	if err != nil {
		return nil, err
	}
	return &cfg, cfg.Validate()
}

func overlay(cfg *Config, f *pflag.Flag) error {
	scratch := pflag.NewFlagSet("overlay", pflag.ContinueOnError)
	cfg.RegisterFlags(scratch)
	if scratch.Lookup(f.Name) == nil {
		return nil
	}
	return scratch.Set(f.Name, f.Value.String())
}

// LoadFile reads a file and passes the contents to LoadBytes.
func LoadFile(filename string, expandEnvVars bool, c *Config) error {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading config file %w", err)
	}
	return LoadBytes(buf, expandEnvVars, c)
}

// LoadBytes unmarshals a config from a buffer. Unknown fields are rejected.
func LoadBytes(buf []byte, expandEnvVars bool, c *Config) error {
	// (Optionally) expand with environment variables
	if expandEnvVars {
		s, err := envsubst.Eval(string(buf), getenv)
		if err != nil {
			return fmt.Errorf("unable to substitute config with environment variables: %w", err)
		}
		buf = []byte(s)
	}
	if len(bytes.TrimSpace(buf)) == 0 {
		*c = DefaultConfig
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	return dec.Decode(c)
}

// getenv is a wrapper around os.Getenv that ignores patterns that are numeric
// regex capture groups (ie "${1}").
func getenv(name string) string {
	numericName := true

	for _, r := range name {
		if !unicode.IsDigit(r) {
			numericName = false
			break
		}
	}

	if numericName {
		// We need to add ${} back in since envsubst removes it.
		return fmt.Sprintf("${%s}", name)
	}
	return os.Getenv(name)
}
