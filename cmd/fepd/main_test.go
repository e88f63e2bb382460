package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommandPrintsVersion(t *testing.T) {
	cmd := newVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "fepd")
}

func TestValidateConfigCommandAcceptsWellFormedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mqtt:
  host: "localhost"
  port: 1883
  listen_topic: "frigate/events"
  alert_topic: "fep/alerts"
alerts:
  - camera: front_door
    labels: ["person"]
`), 0o644))

	cmd := newValidateConfigCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", path})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "ok")
	assert.Contains(t, out.String(), "cameras=1")
}

func TestValidateConfigCommandRejectsMissingRequiredFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fep.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mqtt:\n  host: \"\"\n"), 0o644))

	cmd := newValidateConfigCmd()
	cmd.SetArgs([]string{"--config", path})
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.Execute()
	assert.Error(t, err)
}

func TestHashTokenCommandWithPositionalArg(t *testing.T) {
	cmd := newHashTokenCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"s3cret-token"})
	require.NoError(t, cmd.Execute())
	assert.NotEmpty(t, out.String())
	assert.Contains(t, out.String(), "$argon2id$")
}

func TestHashTokenCommandRejectsTooManyArgs(t *testing.T) {
	cmd := newHashTokenCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"one", "two"})
	assert.Error(t, cmd.Execute())
}
