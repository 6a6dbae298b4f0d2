package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"mu-dqskin/internal/bmd"
)

// Skinning methods.
const (
	MethodDualQuat = "dq"
	MethodLinear   = "linear"
)

// Config holds all configurable paths and render settings.
type Config struct {
	// Paths
	Model      string `json:"model" toml:"model"`
	TextureDir string `json:"texture_dir" toml:"texture_dir"`
	OutputDir  string `json:"output_dir" toml:"output_dir"`

	// Animation
	Action    int     `json:"action" toml:"action"`
	FrameStep float64 `json:"frame_step" toml:"frame_step"` // key frames advanced per output image
	Method    string  `json:"method" toml:"method"`
	Falloff   float64 `json:"falloff" toml:"falloff"`

	// Render settings
	RenderSize  int `json:"render_size" toml:"render_size"`
	Supersample int `json:"supersample" toml:"supersample"`
	Workers     int `json:"workers" toml:"workers"`

	// Key material for encrypted BMD files, hex encoded.
	XORKey string `json:"xor_key" toml:"xor_key"`
	LEAKey string `json:"lea_key" toml:"lea_key"`
}

// Load reads a JSON or TOML (by extension) config file.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
// Zero values (and Action < 0) mean "not given".
type Flags struct {
	Model      string
	TextureDir string
	OutputDir  string
	Action     int
	Method     string
	Falloff    float64
	Workers    int
}

// Resolve applies flag overrides and fills empty fields with defaults.
func (c *Config) Resolve(flags Flags) {
	if flags.Model != "" {
		c.Model = flags.Model
	}
	if flags.TextureDir != "" {
		c.TextureDir = flags.TextureDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Action >= 0 {
		c.Action = flags.Action
	}
	if flags.Method != "" {
		c.Method = flags.Method
	}
	if flags.Falloff > 0 {
		c.Falloff = flags.Falloff
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	// Textures usually sit next to the model.
	if c.TextureDir == "" && c.Model != "" {
		c.TextureDir = filepath.Dir(c.Model)
	}
	if c.OutputDir == "" && c.Model != "" {
		stem := strings.TrimSuffix(filepath.Base(c.Model), filepath.Ext(c.Model))
		c.OutputDir = filepath.Join(filepath.Dir(c.Model), stem+"-frames")
	}

	if c.Method == "" {
		c.Method = MethodDualQuat
	}
	if c.FrameStep <= 0 {
		c.FrameStep = 1
	}
	if c.RenderSize <= 0 {
		c.RenderSize = 256
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate reports settings Resolve cannot default.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("config: no model given")
	}
	if c.Method != MethodDualQuat && c.Method != MethodLinear {
		return fmt.Errorf("config: unknown method %q (want %q or %q)", c.Method, MethodDualQuat, MethodLinear)
	}
	if c.Action < 0 {
		return fmt.Errorf("config: negative action %d", c.Action)
	}
	if c.Falloff < 0 {
		return fmt.Errorf("config: negative falloff %g", c.Falloff)
	}
	_, err := c.Keys()
	return err
}

// Keys decodes the configured BMD key material over the defaults.
func (c *Config) Keys() (bmd.Keys, error) {
	keys := bmd.DefaultKeys()
	if c.XORKey != "" {
		k, err := hex.DecodeString(c.XORKey)
		if err != nil || len(k) != len(keys.XOR) {
			return bmd.Keys{}, fmt.Errorf("config: xor_key must be %d hex bytes", len(keys.XOR))
		}
		copy(keys.XOR[:], k)
	}
	if c.LEAKey != "" {
		k, err := bmd.ParseLEAKey(c.LEAKey)
		if err != nil {
			return bmd.Keys{}, fmt.Errorf("config: %w", err)
		}
		keys.LEA = k
	}
	return keys, nil
}
