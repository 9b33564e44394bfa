package logging

import (
	"fmt"

	"github.com/go-kit/log/level"
	"golang.org/x/exp/slices"
)

// Options selects the verbosity and encoding of the diagnostic transcript.
type Options struct {
	Level  Level  `yaml:"level,omitempty"`
	Format Format `yaml:"format,omitempty"`
}

var DefaultOptions = Options{
	Level:  LevelDefault,
	Format: FormatDefault,
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *Options) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*o = DefaultOptions

	type options Options
	return unmarshal((*options)(o))
}

// Level is the lowest severity that is written.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"

	LevelDefault = LevelInfo
)

var levels = []Level{LevelDebug, LevelInfo, LevelWarn, LevelError}

func (l Level) MarshalText() ([]byte, error) { return []byte(l), nil }

func (l *Level) UnmarshalText(text []byte) error {
	return parseChoice(l, "log level", string(text), LevelDefault, levels)
}

// String, Set and Type make *Level a pflag.Value.
func (l Level) String() string      { return string(l) }
func (l *Level) Set(s string) error { return l.UnmarshalText([]byte(s)) }
func (l *Level) Type() string       { return "level" }

// Filter returns the go-kit filter letting through records at l or above.
func (l Level) Filter() level.Option {
	switch l {
	case LevelDebug:
		return level.AllowDebug()
	case LevelInfo:
		return level.AllowInfo()
	case LevelWarn:
		return level.AllowWarn()
	case LevelError:
		return level.AllowError()
	default:
		return level.AllowAll()
	}
}

// Format is the encoding of log records.
type Format string

const (
	FormatLogfmt Format = "logfmt"
	FormatJSON   Format = "json"

	FormatDefault = FormatLogfmt
)

var formats = []Format{FormatLogfmt, FormatJSON}

func (f Format) MarshalText() ([]byte, error) { return []byte(f), nil }

func (f *Format) UnmarshalText(text []byte) error {
	return parseChoice(f, "log format", string(text), FormatDefault, formats)
}

func (f Format) String() string      { return string(f) }
func (f *Format) Set(s string) error { return f.UnmarshalText([]byte(s)) }
func (f *Format) Type() string       { return "format" }

// parseChoice stores s in dst if it is one of choices. The empty string
// selects def.
func parseChoice[T ~string](dst *T, what, s string, def T, choices []T) error {
	switch v := T(s); {
	case s == "":
		*dst = def
	case slices.Contains(choices, v):
		*dst = v
	default:
		return fmt.Errorf("unrecognized %s %q", what, s)
	}
	return nil
}
