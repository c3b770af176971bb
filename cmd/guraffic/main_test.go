package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTreeCommand(t *testing.T) {

	out, err := run(t, "tree", "-q", filepath.Join("..", "..", "assets", "park.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "[MODEL] Ground : [0.00, 0.00, 0.00]")
	assert.Contains(t, out, "[CAM] FreeCam : [0.00, 4.00, 18.00] (active)")
	assert.Contains(t, out, "    |- [MODEL] Wing : ")
	assert.Contains(t, out, "    |    |- [MODEL] HourHand : ")

}

func TestValidateCommand(t *testing.T) {

	config := filepath.Join("..", "..", "assets", "guraffic.toml")

	out, err := run(t, "validate", "--config", config, filepath.Join("..", "..", "assets", "park.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "park.yaml: ok (")
	assert.Contains(t, out, "viewing through FreeCam")

	_, err = run(t, "validate", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = run(t, "validate", "--config", filepath.Join(t.TempDir(), "missing.toml"), config)
	assert.Error(t, err)

}
