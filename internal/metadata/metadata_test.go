package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(p, []byte(`title: Filament runout sensor
description: Drop-in sensor housing
printer_compatibility: [V2, Trident]
cad:
  - CAD/sensor.step
images:
  - Images/sensor.png
`), 0o644))
	f, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "Filament runout sensor", f.Title)
	assert.Equal(t, []string{"V2", "Trident"}, f.PrinterCompatibility)
	assert.Equal(t, []string{"CAD/sensor.step"}, f.CAD)
	assert.Equal(t, []string{"Images/sensor.png"}, f.Images)
}

func TestLoad_Invalid(t *testing.T) {
	p := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(p, []byte("title: [unterminated\n"), 0o644))
	_, err := Load(p)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
