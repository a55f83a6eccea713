package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMajorVersionModern(t *testing.T) {
	assert.Equal(t, 21, majorVersion("21"))
	assert.Equal(t, 17, majorVersion("17.0.9"))
}

func TestMajorVersionLegacy(t *testing.T) {
	assert.Equal(t, 8, majorVersion("1.8.0_392"))
	assert.Equal(t, 8, majorVersion("1.8.0"))
}

func TestValidHomeModernModules(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "modules"), []byte{}, 0o644))

	assert.True(t, validHome(dir))
}

func TestValidHomeLegacyRT(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "jre", "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jre", "lib", "rt.jar"), []byte{}, 0o644))

	assert.True(t, validHome(dir))
}

func TestValidHomeEmpty(t *testing.T) {
	assert.False(t, validHome(t.TempDir()))
	assert.False(t, validHome(""))
}

func TestHomeMajorMatchesNoReleaseFile(t *testing.T) {
	assert.True(t, homeMajorMatches(t.TempDir(), 17))
}

func TestHomeMajorMatchesReleaseFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "release"), []byte("JAVA_VERSION=\"17.0.9\"\n"), 0o644))

	assert.True(t, homeMajorMatches(dir, 17))
	assert.False(t, homeMajorMatches(dir, 21))
}
