// Package settings loads the tool settings of the midisynth CLI from
// defaults, an optional settings file, MIDISYNTH_* environment variables and
// command-line flags, in increasing order of precedence.
package settings

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// configName is the settings file name without extension.
const configName = ".midisynth"

// configType is the settings file format.
const configType = "toml"

// envPrefix is the environment variable prefix for midisynth settings.
const envPrefix = "MIDISYNTH"

// Defaults.
const (
	DefaultSampleRate = 44100
	DefaultPadding    = 1500 * time.Millisecond
	DefaultBitDepth   = 16
	DefaultLogLevel   = "warn"
)

// Sample rate limits accepted by the synthesizer.
const (
	minSampleRate = 16000
	maxSampleRate = 192000
)

// flagKeys maps setting keys to the command-line flags that override them.
var flagKeys = map[string]string{
	"sample_rate":        "sample-rate",
	"padding":            "padding",
	"bit_depth":          "bit-depth",
	"workers":            "workers",
	"log_level":          "log-level",
	"log_file":           "log-file",
	"note_off":           "note-off",
	"progress":           "progress",
	"relative_soundfont": "relative-soundfont",
}

// Settings are the resolved tool settings.
type Settings struct {
	SampleRate        int           `mapstructure:"sample_rate"`
	Padding           time.Duration `mapstructure:"padding"`
	BitDepth          int           `mapstructure:"bit_depth"`
	Workers           int           `mapstructure:"workers"`
	LogLevel          string        `mapstructure:"log_level"`
	LogFile           string        `mapstructure:"log_file"`
	NoteOff           bool          `mapstructure:"note_off"`
	Progress          bool          `mapstructure:"progress"`
	RelativeSoundFont bool          `mapstructure:"relative_soundfont"`
}

// RegisterFlags adds the setting flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int("sample-rate", DefaultSampleRate, "output sample rate in Hz")
	fs.Duration("padding", DefaultPadding, "silence rendered after each track so notes can decay")
	fs.Int("bit-depth", DefaultBitDepth, "PCM bit depth of the WAV output (16, 24 or 32)")
	fs.Int("workers", runtime.NumCPU(), "maximum number of tracks rendered concurrently")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.String("log-file", "", "write logs to this file instead of stderr")
	fs.Bool("note-off", true, "honour Note Off events")
	fs.Bool("progress", true, "show progress output")
	fs.Bool("relative-soundfont", false, "resolve the soundfont path against the config file directory")
}

// Load resolves the settings. If path is non-empty it is used as the explicit
// settings file; otherwise .midisynth.toml is searched in the working
// directory and $HOME. A missing settings file is not an error. fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	if fs != nil {
		for key, name := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("validate settings: %w", err)
	}

	return &s, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("sample_rate", DefaultSampleRate)
	v.SetDefault("padding", DefaultPadding)
	v.SetDefault("bit_depth", DefaultBitDepth)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", "")
	v.SetDefault("note_off", true)
	v.SetDefault("progress", true)
	v.SetDefault("relative_soundfont", false)
}

// Validate checks that the settings are usable.
func (s *Settings) Validate() error {
	if s.SampleRate < minSampleRate || s.SampleRate > maxSampleRate {
		return fmt.Errorf("sample_rate must be between %d and %d, got %d", minSampleRate, maxSampleRate, s.SampleRate)
	}
	switch s.BitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("bit_depth must be 16, 24 or 32, got %d", s.BitDepth)
	}
	if s.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", s.Workers)
	}
	if s.Padding < 0 {
		return fmt.Errorf("padding must not be negative, got %s", s.Padding)
	}
	if _, err := contracts.ParseLogLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the parsed log level.
func (s *Settings) Level() contracts.LogLevel {
	level, err := contracts.ParseLogLevel(s.LogLevel)
	if err != nil {
		return contracts.WarnLevel
	}
	return level
}

// RenderConfig converts the settings into SDK render parameters.
func (s *Settings) RenderConfig() contracts.RenderConfig {
	return contracts.RenderConfig{
		SampleRate:    s.SampleRate,
		Padding:       s.Padding,
		PaddingSet:    true,
		BitDepth:      s.BitDepth,
		Workers:       s.Workers,
		IgnoreNoteOff: !s.NoteOff,

		RelativeSoundFont: s.RelativeSoundFont,
	}
}
