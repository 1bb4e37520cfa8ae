package terminal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.RawMode)
	assert.True(t, cfg.BlockSignals)
	assert.True(t, cfg.Keypad)
	assert.False(t, cfg.Mouse)
	assert.Equal(t, ColorModeAuto, cfg.ColorMode)
	assert.Equal(t, DefaultEscapeDelay, cfg.EscapeDelay)
	assert.Nil(t, cfg.Keymap)

	mc := cfg.ModeConfig()
	assert.False(t, mc.Signals)
	assert.False(t, mc.Echo)
}

func TestLoadConfig_TOML(t *testing.T) {
	path := writeConfig(t, "term.toml", `
[terminal]
raw_mode = false
mouse = true
color_mode = "256"
escape_delay = "25ms"
report_signals = ["interrupt", "resize"]
charset = "latin1"

[line]
ctrl_j = "accept"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.RawMode)
	assert.True(t, cfg.Mouse)
	assert.True(t, cfg.BlockSignals, "unset keys keep their defaults")
	assert.Equal(t, ColorMode256, cfg.ColorMode)
	assert.Equal(t, 25*time.Millisecond, cfg.EscapeDelay)
	assert.Equal(t, NewSignalSet(SignalInterrupt, SignalResize), cfg.ReportSignals)
	assert.Equal(t, "latin1", cfg.Charset)

	require.NotNil(t, cfg.Keymap)
	assert.Equal(t, ActionAccept, cfg.Keymap.Lookup(Event{Type: EventKey, Key: KeyCtrlJ}))
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeConfig(t, "term.yaml", `
terminal:
  bracketed_paste: true
  block_signals: false
  color_mode: truecolor
  term: xterm-256color
line:
  ctrl_t: none
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.BracketedPaste)
	assert.False(t, cfg.BlockSignals)
	assert.True(t, cfg.ModeConfig().Signals)
	assert.Equal(t, ColorModeTrueColor, cfg.ColorMode)
	assert.Equal(t, "xterm-256color", cfg.Term)

	require.NotNil(t, cfg.Keymap)
	assert.Equal(t, ActionNone, cfg.Keymap.Lookup(Event{Type: EventKey, Key: KeyCtrlT}))
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "term.toml", `
[terminal]
color_mode = "16"
mouse = true
`)
	t.Setenv("TERMKIT_COLOR_MODE", "mono")
	t.Setenv("TERMKIT_MOUSE", "false")
	t.Setenv("TERMKIT_ESCAPE_DELAY", "100ms")
	t.Setenv("TERMKIT_REPORT_SIGNALS", "interrupt,quit")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ColorModeMono, cfg.ColorMode)
	assert.False(t, cfg.Mouse)
	assert.Equal(t, 100*time.Millisecond, cfg.EscapeDelay)
	assert.Equal(t, NewSignalSet(SignalInterrupt, SignalQuit), cfg.ReportSignals)
}

func TestLoadConfig_IgnoresUnprefixedEnv(t *testing.T) {
	t.Setenv("DEVICE", "/dev/null")
	t.Setenv("ECHO", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Device)
	assert.False(t, cfg.Echo)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown extension", "term.ini", "raw_mode=1"},
		{"bad toml", "term.toml", "[terminal\n"},
		{"bad color mode", "term.toml", "[terminal]\ncolor_mode = \"sepia\"\n"},
		{"bad delay", "term.toml", "[terminal]\nescape_delay = \"soon\"\n"},
		{"bad signal", "term.yaml", "terminal:\n  report_signals: [hangup]\n"},
		{"bad binding", "term.toml", "[line]\nhyper_x = \"accept\"\n"},
		{"bad action", "term.toml", "[line]\nctrl_j = \"launch\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
