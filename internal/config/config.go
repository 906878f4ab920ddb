// Package config parses the instrument configuration that maps MIDI track
// names to SoundFont instrument layers.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"

	"github.com/leandrodaf/midisynth/sdk/contracts"
)

var (
	// ErrNoSoundFont is returned when the configuration has no soundfont entry.
	ErrNoSoundFont = errors.New("Invalid configuration: No soundfont specified")
	// ErrNoInstruments is returned when the configuration has no instr table.
	ErrNoInstruments = errors.New("Invalid configuration: No instruments specified")
	// ErrMissingBank marks a layer without an integer bank.
	ErrMissingBank = errors.New("Missing bank value")
	// ErrMissingPreset marks a layer without an integer preset.
	ErrMissingPreset = errors.New("Missing preset value")
)

// LayerError reports an instrument layer that was skipped.
type LayerError struct {
	Index int   // position of the layer in the track's array
	Err   error // ErrMissingBank or ErrMissingPreset
}

func (e *LayerError) Error() string {
	return fmt.Sprintf("layer %d: %v", e.Index, e.Err)
}

func (e *LayerError) Unwrap() error {
	return e.Err
}

// Config is a parsed instrument configuration.
type Config struct {
	// SoundFont is the path of the .sf2 file as written in the configuration.
	SoundFont string

	md    toml.MetaData
	instr map[string]toml.Primitive
}

type document struct {
	SoundFont toml.Primitive `toml:"soundfont"`
	Instr     toml.Primitive `toml:"instr"`
}

type layer struct {
	Bank      *int64   `toml:"bank"`
	Preset    *int64   `toml:"preset"`
	Transpose *int64   `toml:"tsp"`
	Pan       *float64 `toml:"pan"`
	Gain      *float64 `toml:"gain"`
}

// Load parses a configuration from r.
func Load(r io.Reader) (*Config, error) {
	var doc document
	md, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, err
	}

	cfg := &Config{md: md}

	if !md.IsDefined("instr") {
		return nil, ErrNoInstruments
	}
	if err := md.PrimitiveDecode(doc.Instr, &cfg.instr); err != nil {
		return nil, ErrNoInstruments
	}

	if !md.IsDefined("soundfont") {
		return nil, ErrNoSoundFont
	}
	if err := md.PrimitiveDecode(doc.SoundFont, &cfg.SoundFont); err != nil || cfg.SoundFont == "" {
		return nil, ErrNoSoundFont
	}

	return cfg, nil
}

// LoadFile parses the configuration file at path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f)
}

// ResolveSoundFont returns the soundfont path. Relative paths are joined with
// base when base is non-empty.
func (c *Config) ResolveSoundFont(base string) string {
	if base == "" || filepath.IsAbs(c.SoundFont) {
		return c.SoundFont
	}
	return filepath.Join(base, c.SoundFont)
}

// Tracks returns the configured track names in sorted order.
func (c *Config) Tracks() []string {
	names := make([]string, 0, len(c.instr))
	for name := range c.instr {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Layers returns the valid instrument layers configured for track. The
// boolean is false when the track has no instrument array at all. Layers
// that could not be parsed are skipped and reported in the returned error,
// which may combine several errors (see multierr.Errors).
func (c *Config) Layers(track string) ([]contracts.Instrument, bool, error) {
	prim, ok := c.instr[track]
	if !ok {
		return nil, false, nil
	}

	var entries []toml.Primitive
	if err := c.md.PrimitiveDecode(prim, &entries); err != nil {
		return nil, false, nil
	}

	var (
		layers []contracts.Instrument
		errs   error
	)
	for i, entry := range entries {
		inst, err := c.decodeLayer(entry)
		if err != nil {
			errs = multierr.Append(errs, &LayerError{Index: i, Err: err})
			continue
		}
		layers = append(layers, inst)
	}
	return layers, true, errs
}

// Undecoded lists configuration keys that were not understood.
func (c *Config) Undecoded() []string {
	// Keys count as decoded only once their layers were read.
	for track := range c.instr {
		_, _, _ = c.Layers(track)
	}

	var keys []string
	for _, k := range c.md.Undecoded() {
		keys = append(keys, k.String())
	}
	return keys
}

func (c *Config) decodeLayer(entry toml.Primitive) (contracts.Instrument, error) {
	var (
		raw  layer
		inst contracts.Instrument
	)
	if err := c.md.PrimitiveDecode(entry, &raw); err != nil {
		// A field of the wrong type is treated as absent.
		raw = c.lenient(entry)
	}

	if raw.Bank == nil {
		return inst, ErrMissingBank
	}
	if raw.Preset == nil {
		return inst, ErrMissingPreset
	}

	inst.Bank = uint8(*raw.Bank)
	inst.Preset = uint8(*raw.Preset)
	if raw.Transpose != nil {
		inst.Transpose = int8(*raw.Transpose)
	}
	if raw.Pan != nil {
		inst.Pan = *raw.Pan
	}
	if raw.Gain != nil {
		inst.Gain = *raw.Gain
	}
	return inst, nil
}

// lenient reads a layer field by field, keeping only values of the expected type.
func (c *Config) lenient(entry toml.Primitive) layer {
	var m map[string]any
	if err := c.md.PrimitiveDecode(entry, &m); err != nil {
		return layer{}
	}

	var l layer
	l.Bank = asInt(m["bank"])
	l.Preset = asInt(m["preset"])
	l.Transpose = asInt(m["tsp"])
	l.Pan = asFloat(m["pan"])
	l.Gain = asFloat(m["gain"])
	return l
}

func asInt(v any) *int64 {
	if i, ok := v.(int64); ok {
		return &i
	}
	return nil
}

func asFloat(v any) *float64 {
	switch n := v.(type) {
	case int64:
		f := float64(n)
		return &f
	case float64:
		return &n
	}
	return nil
}
