package zap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_RegisteredMode(t *testing.T) {
	dir := t.TempDir()
	mask := filepath.Join(dir, "MeerKAT_20cm.psh")
	require.NoError(t, os.WriteFile(mask, []byte("zap chan 0-10\n"), 0644))

	r := NewRegistry()
	r.Register("MeerKAT_20cm", mask)

	path, err := r.Resolve("MeerKAT_20cm")
	require.NoError(t, err)
	assert.Equal(t, mask, path)
}

func TestResolve_UnknownMode(t *testing.T) {
	r := NewRegistry()

	_, err := r.Resolve("Parkes_UWL")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestResolve_MissingMaskFile(t *testing.T) {
	r := NewRegistry()
	r.Register("MeerKAT_20cm", filepath.Join(t.TempDir(), "absent.psh"))

	_, err := r.Resolve("MeerKAT_20cm")
	assert.ErrorIs(t, err, ErrMissingMaskFile)
}

func TestNewDefaultRegistry(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"none.psh", "Lovell_20cm.psh", "Lovell_80cm.psh", "MeerKAT_20cm.psh"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	r := NewDefaultRegistry(dir)
	assert.Equal(t, []string{"Lovell_20cm", "Lovell_80cm", "MeerKAT_20cm", ModeNone}, r.Modes())

	path, err := r.Resolve(ModeNone)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "none.psh"), path)
}

func TestRegister_AdditiveGrowth(t *testing.T) {
	dir := t.TempDir()
	mask := filepath.Join(dir, "Effelsberg_21cm.psh")
	require.NoError(t, os.WriteFile(mask, nil, 0644))

	r := NewDefaultRegistry(dir)
	r.Register("Effelsberg_21cm", mask)

	path, err := r.Resolve("Effelsberg_21cm")
	require.NoError(t, err)
	assert.Equal(t, mask, path)
}
