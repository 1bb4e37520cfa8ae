package terminal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

// EnvPrefix prefixes environment overrides, e.g. TERMKIT_COLOR_MODE=256
const EnvPrefix = "TERMKIT"

// Config controls how Open acquires and prepares the terminal
type Config struct {
	RawMode        bool          `split_words:"true"` // enter raw mode on open
	Echo           bool          `split_words:"true"` // keep device echo in raw mode
	BlockSignals   bool          `split_words:"true"` // Ctrl-C etc. read as keys
	ControlFlow    bool          `split_words:"true"` // Ctrl-S/Ctrl-Q flow control
	FlushOnWrite   bool          `split_words:"true"` // no output buffering
	Keypad         bool          `split_words:"true"` // application keypad mode (smkx)
	Mouse          bool          `split_words:"true"` // report mouse events
	TrackMotion    bool          `split_words:"true"` // report motion without buttons held
	BracketedPaste bool          `split_words:"true"` // deliver pastes as EventPaste
	ColorMode      ColorMode     `split_words:"true"`
	EscapeDelay    time.Duration `split_words:"true"` // grace period for partial sequences
	ReportSignals  SignalSet     `split_words:"true"` // signals delivered as EventSignal
	Term           string        `split_words:"true"` // terminal type; empty reads $TERM
	Charset        string        `split_words:"true"` // empty derives from the locale
	Device         string        `split_words:"true"` // device path; empty uses stdio or the controlling tty

	// Keymap for ReadLine; nil uses DefaultKeymap
	Keymap *Keymap `ignored:"true"`
	// Logger receives diagnostics; nil discards
	Logger *zap.Logger `ignored:"true"`
}

// DefaultConfig returns the configuration used by Open(nil)
func DefaultConfig() *Config {
	return &Config{
		RawMode:      true,
		BlockSignals: true,
		Keypad:       true,
		ColorMode:    ColorModeAuto,
		EscapeDelay:  DefaultEscapeDelay,
	}
}

// ModeConfig derives the raw mode settings
func (c *Config) ModeConfig() ModeConfig {
	return ModeConfig{
		Echo:         c.Echo,
		Signals:      !c.BlockSignals,
		ControlFlow:  c.ControlFlow,
		FlushOnWrite: c.FlushOnWrite,
	}
}

// configFile is the on-disk form. Pointer fields distinguish unset keys
// from zero values so a file overrides only what it names
type configFile struct {
	Terminal struct {
		RawMode        *bool    `toml:"raw_mode" yaml:"raw_mode"`
		Echo           *bool    `toml:"echo" yaml:"echo"`
		BlockSignals   *bool    `toml:"block_signals" yaml:"block_signals"`
		ControlFlow    *bool    `toml:"control_flow" yaml:"control_flow"`
		FlushOnWrite   *bool    `toml:"flush_on_write" yaml:"flush_on_write"`
		Keypad         *bool    `toml:"keypad" yaml:"keypad"`
		Mouse          *bool    `toml:"mouse" yaml:"mouse"`
		TrackMotion    *bool    `toml:"track_motion" yaml:"track_motion"`
		BracketedPaste *bool    `toml:"bracketed_paste" yaml:"bracketed_paste"`
		ColorMode      string   `toml:"color_mode" yaml:"color_mode"`
		EscapeDelay    string   `toml:"escape_delay" yaml:"escape_delay"`
		ReportSignals  []string `toml:"report_signals" yaml:"report_signals"`
		Term           string   `toml:"term" yaml:"term"`
		Charset        string   `toml:"charset" yaml:"charset"`
		Device         string   `toml:"device" yaml:"device"`
	} `toml:"terminal" yaml:"terminal"`
	Line map[string]string `toml:"line" yaml:"line"`
}

// LoadConfig reads a TOML or YAML file (by extension) over the defaults,
// then applies TERMKIT_* environment overrides. An empty path applies
// only the environment
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var f configFile
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			err = toml.Unmarshal(data, &f)
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, &f)
		default:
			return nil, fmt.Errorf("config %s: unsupported format %q", path, filepath.Ext(path))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if err := f.apply(cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}
	return cfg, nil
}

func (f *configFile) apply(cfg *Config) error {
	t := &f.Terminal
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setBool(&cfg.RawMode, t.RawMode)
	setBool(&cfg.Echo, t.Echo)
	setBool(&cfg.BlockSignals, t.BlockSignals)
	setBool(&cfg.ControlFlow, t.ControlFlow)
	setBool(&cfg.FlushOnWrite, t.FlushOnWrite)
	setBool(&cfg.Keypad, t.Keypad)
	setBool(&cfg.Mouse, t.Mouse)
	setBool(&cfg.TrackMotion, t.TrackMotion)
	setBool(&cfg.BracketedPaste, t.BracketedPaste)

	if t.ColorMode != "" {
		m, err := ParseColorMode(t.ColorMode)
		if err != nil {
			return fmt.Errorf("[terminal] color_mode: %w", err)
		}
		cfg.ColorMode = m
	}
	if t.EscapeDelay != "" {
		d, err := time.ParseDuration(t.EscapeDelay)
		if err != nil {
			return fmt.Errorf("[terminal] escape_delay: %w", err)
		}
		cfg.EscapeDelay = d
	}
	if t.ReportSignals != nil {
		var set SignalSet
		if err := set.UnmarshalText([]byte(strings.Join(t.ReportSignals, ","))); err != nil {
			return fmt.Errorf("[terminal] report_signals: %w", err)
		}
		cfg.ReportSignals = set
	}
	if t.Term != "" {
		cfg.Term = t.Term
	}
	if t.Charset != "" {
		cfg.Charset = t.Charset
	}
	if t.Device != "" {
		cfg.Device = t.Device
	}

	if len(f.Line) > 0 {
		km, err := keymapFromTable(f.Line)
		if err != nil {
			return err
		}
		cfg.Keymap = km
	}
	return nil
}
