package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-kit/log/level"
	"github.com/grafana/dynwalk/pkg/logging"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNew_Logfmt(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.Options{Level: logging.LevelInfo})
	require.NoError(t, err)

	level.Debug(logger).Log("msg", "hidden")
	level.Info(logger).Log("msg", "module", "path", "/lib/libc.so.6")

	out := strings.TrimSpace(buf.String())
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, `level=info msg=module path=/lib/libc.so.6`)
	require.True(t, strings.HasPrefix(out, "ts="))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.Options{Level: logging.LevelDebug, Format: logging.FormatJSON})
	require.NoError(t, err)

	level.Debug(logger).Log("msg", "dynamic entry", "tag", "DT_HASH")

	var line map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "debug", line["level"])
	require.Equal(t, "DT_HASH", line["tag"])
}

func TestNew_InvalidFormat(t *testing.T) {
	_, err := logging.New(&bytes.Buffer{}, logging.Options{Format: "xml"})
	require.Error(t, err)
}

func TestLevel_UnmarshalText(t *testing.T) {
	var l logging.Level
	require.NoError(t, l.UnmarshalText([]byte("")))
	require.Equal(t, logging.LevelInfo, l)
	require.NoError(t, l.Set("warn"))
	require.Equal(t, logging.LevelWarn, l)
	require.EqualError(t, l.Set("trace"), `unrecognized log level "trace"`)
}

func TestOptions_UnmarshalYAML(t *testing.T) {
	var o logging.Options
	require.NoError(t, yaml.Unmarshal([]byte("format: json\n"), &o))
	require.Equal(t, logging.Options{Level: logging.LevelInfo, Format: logging.FormatJSON}, o)

	err := yaml.Unmarshal([]byte("level: loud\n"), &o)
	require.ErrorContains(t, err, "unrecognized log level")
}
