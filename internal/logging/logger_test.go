// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/scholar-agent/pkg/types"
)

func reset() {
	once = sync.Once{}
	global.Store(nil)
}

func TestInstall_ConsoleColours(t *testing.T) {
	reset()
	var buf bytes.Buffer
	l := install(types.LogConfig{Level: "debug", Format: "console"}, zapcore.AddSync(&buf))

	l.Info("run started", zap.String("run_id", "abc"))
	require.NoError(t, l.Sync())

	out := buf.String()
	assert.Contains(t, out, colorGreen+"INFO"+colorReset)
	assert.Contains(t, out, "run started")
	assert.Contains(t, out, `"run_id": "abc"`)
}

func TestInstall_JSON(t *testing.T) {
	reset()
	var buf bytes.Buffer
	l := install(types.LogConfig{Level: "info", Format: "json", ServiceName: "scholar"}, zapcore.AddSync(&buf))

	l.Debug("hidden")
	l.Warn("layer expanded", zap.Int("depth", 1))
	require.NoError(t, l.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "scholar", entry["logger"])
	assert.Equal(t, "layer expanded", entry["msg"])
	assert.EqualValues(t, 1, entry["depth"])
}

func TestInstall_InvalidLevelDefaultsToInfo(t *testing.T) {
	reset()
	var buf bytes.Buffer
	l := install(types.LogConfig{Level: "loud", Format: "json"}, zapcore.AddSync(&buf))

	l.Debug("hidden")
	l.Info("shown")
	require.NoError(t, l.Sync())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestInstall_FileSink(t *testing.T) {
	reset()
	path := filepath.Join(t.TempDir(), "agent.log")
	var buf bytes.Buffer
	l := install(types.LogConfig{Level: "info", Format: "console", LogFile: path, MaxSize: 1}, zapcore.AddSync(&buf))

	l.Info("to both sinks")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to both sinks"`)
	assert.Contains(t, buf.String(), "to both sinks")
}

func TestL_FallbackAndGlobals(t *testing.T) {
	reset()
	assert.NotNil(t, L())

	var buf bytes.Buffer
	l := install(types.LogConfig{Format: "json"}, zapcore.AddSync(&buf))
	assert.Same(t, l, L())

	zap.L().Info("through globals")
	require.NoError(t, l.Sync())
	assert.Contains(t, buf.String(), "through globals")
}
