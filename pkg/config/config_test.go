package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grafana/dynwalk/pkg/logging"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadBytes(t *testing.T) {
	input := `
pid: 4242
log:
  format: json
enrich:
  build_id: true
summary: true
metrics_textfile: /tmp/dynwalk.prom
`
	var c Config
	require.NoError(t, LoadBytes([]byte(input), false, &c))

	require.Equal(t, Config{
		PID:             4242,
		Symbol:          "vfprintf",
		Log:             logging.Options{Level: logging.LevelInfo, Format: logging.FormatJSON},
		Enrich:          EnrichConfig{BuildID: true},
		Summary:         true,
		MetricsTextfile: "/tmp/dynwalk.prom",
	}, c)
	require.NoError(t, c.Validate())
}

func TestLoadBytes_Empty(t *testing.T) {
	var c Config
	require.NoError(t, LoadBytes([]byte("\n"), false, &c))
	require.Equal(t, DefaultConfig, c)
}

func TestLoadBytes_UnknownField(t *testing.T) {
	var c Config
	err := LoadBytes([]byte("pid: 1\nsymbols: [printf]\n"), false, &c)
	require.ErrorContains(t, err, "field symbols not found")
}

func TestLoadBytes_ExpandEnv(t *testing.T) {
	t.Setenv("DYNWALK_TEST_SYMBOL", "printf")
	input := "symbol: ${DYNWALK_TEST_SYMBOL}\n"

	var c Config
	require.NoError(t, LoadBytes([]byte(input), true, &c))
	require.Equal(t, "printf", c.Symbol)

	require.NoError(t, LoadBytes([]byte(input), false, &c))
	require.Equal(t, "${DYNWALK_TEST_SYMBOL}", c.Symbol)
}

func TestGetenv_NumericName(t *testing.T) {
	require.Equal(t, "${1}", getenv("1"))
}

func TestValidate(t *testing.T) {
	c := DefaultConfig
	c.PID = -1
	c.Symbol = ""
	c.Log.Format = "xml"

	err := c.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 3)
}

func TestLoad_FlagsOnly(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c, err := Load(fs, []string{"--pid=12", "--log.level=debug", "--enrich.maps"})
	require.NoError(t, err)

	require.Equal(t, 12, c.PID)
	require.Equal(t, "vfprintf", c.Symbol)
	require.Equal(t, logging.LevelDebug, c.Log.Level)
	require.True(t, c.Enrich.Maps)
	require.False(t, c.Enrich.BuildID)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynwalk.yml")
	err := os.WriteFile(path, []byte("pid: 7\nsymbol: puts\nsummary: true\nlog: {level: warn}\n"), 0o644)
	require.NoError(t, err)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c, err := Load(fs, []string{"--config.file", path, "--symbol=printf", "--log.format=json"})
	require.NoError(t, err)

	require.Equal(t, path, c.File)
	require.Equal(t, 7, c.PID)
	require.Equal(t, "printf", c.Symbol)
	require.True(t, c.Summary)
	require.Equal(t, logging.Options{Level: logging.LevelWarn, Format: logging.FormatJSON}, c.Log)
}

func TestLoad_MissingFile(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	_, err := Load(fs, []string{"--config.file", filepath.Join(t.TempDir(), "missing.yml")})
	require.ErrorContains(t, err, "error reading config file")
}
