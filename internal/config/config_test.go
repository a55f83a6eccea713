package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	Reset()
	os.Unsetenv("JDBRIDGE_JDWP_PORT")
	os.Unsetenv("JDBRIDGE_PROXY_PORT")
	os.Unsetenv("JDBRIDGE_HOME")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultJDWPPort, cfg.JDWPPort)
	assert.Equal(t, DefaultProxyPort, cfg.ProxyPort)
	assert.Equal(t, DefaultProxyPort+1, cfg.ProxyHTTPPort())
}

func TestLoadEnvOverride(t *testing.T) {
	Reset()
	os.Setenv("JDBRIDGE_JDWP_PORT", "61959")
	os.Setenv("JDBRIDGE_PROXY_PORT", "7000")
	defer func() {
		os.Unsetenv("JDBRIDGE_JDWP_PORT")
		os.Unsetenv("JDBRIDGE_PROXY_PORT")
		Reset()
	}()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 61959, cfg.JDWPPort)
	assert.Equal(t, 7000, cfg.ProxyPort)
	assert.Equal(t, 7001, cfg.ProxyHTTPPort())
}
