package guraffic

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel())

	vp := cfg.Viewport()
	assert.Equal(t, 960, vp.Width)
	assert.Equal(t, 90.0, vp.FieldOfView)
}

func TestParseConfig(t *testing.T) {

	cfg, err := ParseConfig([]byte(`
[controls]
move_speed = 4
orbit_distance = 20

[graph]
scale_policy = "Clamp"
min_scale = 0.01

[log]
level = "debug"
`))
	require.NoError(t, err)

	assert.Equal(t, 4.0, cfg.Controls.MoveSpeed)
	assert.Equal(t, 3.0, cfg.Controls.SensitivityX, "unset values keep their defaults")
	assert.Equal(t, 960, cfg.Window.Width)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())

	g := NewGraph()
	require.NoError(t, cfg.ApplyGraph(g))
	assert.Equal(t, ScaleClamp, g.ScalePolicy)
	assert.Equal(t, 0.01, g.MinScale)

	fc := cfg.FreeCamera()
	assert.Equal(t, 4.0, fc.MoveSpeed)

	oc := cfg.OrbitCamera()
	assert.Equal(t, 20.0, oc.Distance)
	assert.Equal(t, 1.0, oc.MinDistance)

}

func TestConfigErrors(t *testing.T) {

	cases := map[string]string{
		"unknown key":   "[window]\ncolour = \"red\"\n",
		"bad toml":      "[window\n",
		"wrong type":    "[window]\nwidth = \"wide\"\n",
		"zero width":    "[window]\nwidth = 0\n",
		"fov":           "[view]\nfov = 180\n",
		"far":           "[view]\nnear = 10\nfar = 5\n",
		"min scale":     "[graph]\nmin_scale = 0\n",
		"scale policy":  "[graph]\nscale_policy = \"wrap\"\n",
		"unknown level": "[log]\nlevel = \"chatty\"\n",
	}

	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(src))
			assert.ErrorIs(t, err, ErrMalformedFile)
		})
	}

}

func TestLoadConfig(t *testing.T) {

	cfg, err := LoadConfig(filepath.Join("assets", "guraffic.toml"))
	require.NoError(t, err)
	assert.Equal(t, "Guraffic Park", cfg.Window.Title)
	assert.Equal(t, 12.0, cfg.Controls.OrbitDistance)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

}
