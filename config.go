package guraffic

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the settings the viewer is started with. Every section has working defaults (see DefaultConfig), so
// a config file only needs the values it changes.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	View     ViewConfig     `toml:"view"`
	Controls ControlsConfig `toml:"controls"`
	Graph    GraphConfig    `toml:"graph"`
	Log      LogConfig      `toml:"log"`
}

// WindowConfig is the size and title of the viewer window.
type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

// ViewConfig sets up the perspective projection.
type ViewConfig struct {
	FieldOfView float64 `toml:"fov"` // Vertical, in degrees
	Near        float64 `toml:"near"`
	Far         float64 `toml:"far"`
}

// ControlsConfig holds the defaults camera controllers are created with.
type ControlsConfig struct {
	MoveSpeed      float64 `toml:"move_speed"`
	SensitivityX   float64 `toml:"sensitivity_x"`
	SensitivityY   float64 `toml:"sensitivity_y"`
	OrbitDistance  float64 `toml:"orbit_distance"`
	OrbitMinimum   float64 `toml:"orbit_min_distance"`
	StartCaptured  bool    `toml:"start_captured"`
	ReloadOnChange bool    `toml:"reload_on_change"`
}

// GraphConfig sets how the Graph treats scale values.
type GraphConfig struct {
	ScalePolicy string  `toml:"scale_policy"` // "reject" or "clamp"
	MinScale    float64 `toml:"min_scale"`
}

// LogConfig sets the log level when no verbosity flags are given.
type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn" or "error"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			Width:  960,
			Height: 720,
			Title:  "guraffic park",
		},
		View: ViewConfig{
			FieldOfView: 90,
			Near:        0.5,
			Far:         1700,
		},
		Controls: ControlsConfig{
			MoveSpeed:      10,
			SensitivityX:   3,
			SensitivityY:   3,
			OrbitDistance:  5,
			OrbitMinimum:   1,
			ReloadOnChange: true,
		},
		Graph: GraphConfig{
			ScalePolicy: "reject",
			MinScale:    DefaultMinScale,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// LoadConfig reads a TOML config file over the defaults. Unknown keys are an error, so typos don't silently fall
// back to defaults.
func LoadConfig(path string) (Config, error) {

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	return ParseConfig(data)

}

// ParseConfig decodes TOML config data over the defaults and validates the result.
func ParseConfig(data []byte) (Config, error) {

	cfg := DefaultConfig()

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("config: %s: %w", strict.String(), ErrMalformedFile)
		}
		return Config{}, fmt.Errorf("config: %v: %w", err, ErrMalformedFile)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil

}

// Validate checks that the config's values are usable.
func (cfg Config) Validate() error {

	switch {
	case cfg.Window.Width <= 0 || cfg.Window.Height <= 0:
		return fmt.Errorf("config: window size %dx%d: %w", cfg.Window.Width, cfg.Window.Height, ErrMalformedFile)
	case cfg.View.FieldOfView <= 0 || cfg.View.FieldOfView >= 180:
		return fmt.Errorf("config: fov %v must be between 0 and 180: %w", cfg.View.FieldOfView, ErrMalformedFile)
	case cfg.View.Near <= 0 || cfg.View.Far <= cfg.View.Near:
		return fmt.Errorf("config: near %v / far %v: %w", cfg.View.Near, cfg.View.Far, ErrMalformedFile)
	case cfg.Graph.MinScale <= 0:
		return fmt.Errorf("config: min_scale %v must be positive: %w", cfg.Graph.MinScale, ErrMalformedFile)
	}

	if _, err := cfg.scalePolicy(); err != nil {
		return err
	}

	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return err
	}

	return nil

}

func (cfg Config) scalePolicy() (ScalePolicy, error) {
	switch strings.ToLower(cfg.Graph.ScalePolicy) {
	case "", "reject":
		return ScaleReject, nil
	case "clamp":
		return ScaleClamp, nil
	}
	return ScaleReject, fmt.Errorf("config: scale_policy %q: %w", cfg.Graph.ScalePolicy, ErrMalformedFile)
}

// ApplyGraph sets the Graph's scale handling from the config.
func (cfg Config) ApplyGraph(g *Graph) error {
	policy, err := cfg.scalePolicy()
	if err != nil {
		return err
	}
	g.ScalePolicy = policy
	g.MinScale = cfg.Graph.MinScale
	return nil
}

// Viewport returns the viewport described by the window and view sections.
func (cfg Config) Viewport() Viewport {
	return Viewport{
		Width:       cfg.Window.Width,
		Height:      cfg.Window.Height,
		FieldOfView: cfg.View.FieldOfView,
		Near:        cfg.View.Near,
		Far:         cfg.View.Far,
	}
}

// FreeCamera returns a FreeCamera controller using the configured speed and sensitivity.
func (cfg Config) FreeCamera() *FreeCamera {
	fc := NewFreeCamera()
	fc.MoveSpeed = cfg.Controls.MoveSpeed
	fc.SensitivityX = cfg.Controls.SensitivityX
	fc.SensitivityY = cfg.Controls.SensitivityY
	return fc
}

// OrbitCamera returns an OrbitCamera controller using the configured distance and sensitivity.
func (cfg Config) OrbitCamera() *OrbitCamera {
	oc := NewOrbitCamera()
	oc.Distance = cfg.Controls.OrbitDistance
	oc.MinDistance = cfg.Controls.OrbitMinimum
	oc.SensitivityX = cfg.Controls.SensitivityX
	oc.SensitivityY = cfg.Controls.SensitivityY
	return oc
}

// LogLevel returns the configured log level.
func (cfg Config) LogLevel() slog.Level {
	level, err := ParseLevel(cfg.Log.Level)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}
