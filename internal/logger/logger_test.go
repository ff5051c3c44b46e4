package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type testConfig struct{ level, output, file string }

func (c testConfig) GetLevel() string  { return c.level }
func (c testConfig) GetOutput() string { return c.output }
func (c testConfig) GetFile() string   { return c.file }

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLogLevel("DEBUG"))
	assert.Equal(t, WARN, ParseLogLevel("warning"))
	assert.Equal(t, FATAL, ParseLogLevel("fatal"))
	assert.Equal(t, INFO, ParseLogLevel("verbose"))

	assert.Equal(t, zapcore.ErrorLevel, zapLevelFromLogLevel(ERROR))
	assert.Equal(t, zapcore.InfoLevel, zapLevelFromLogLevel(LogLevel(42)))
}

func TestNewFromConfig(t *testing.T) {
	l, err := NewFromConfig(testConfig{level: "info", output: "stderr"})
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = NewFromConfig(testConfig{output: "file"})
	assert.Error(t, err)

	_, err = NewFromConfig(testConfig{output: "syslog"})
	assert.Error(t, err)

	l, err = NewFromConfig(testConfig{level: "debug", output: "file", file: filepath.Join(t.TempDir(), "ledger.log")})
	require.NoError(t, err)
	l.Info("written to %s", "file")
	l.Sync()
}
