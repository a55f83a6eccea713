// Package config loads the three process-environment values spec.md
// section 6 names, the way teranos-QNTX/am loads its configuration: a
// package-level Viper instance, explicit defaults, and env-var binding.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultJDWPPort is the target runtime's JDWP port.
	DefaultJDWPPort = 61959
	// DefaultProxyPort is the upstream multiplexing proxy's ingress port.
	// Its auxiliary HTTP API listens on DefaultProxyPort+1.
	DefaultProxyPort = 55005
	// DefaultHomeDirName is the directory name under the user's home
	// directory used to locate the collaborator proxy artifact.
	DefaultHomeDirName = ".jdbridge"
)

// Config holds the three startup values.
type Config struct {
	JDWPPort  int    `mapstructure:"jdwp_port"`
	ProxyPort int    `mapstructure:"proxy_port"`
	Home      string `mapstructure:"home"`
}

// ProxyHTTPPort is the upstream proxy's auxiliary HTTP port, always
// proxy-port + 1 per spec.md section 6.
func (c *Config) ProxyHTTPPort() int {
	return c.ProxyPort + 1
}

var viperInstance *viper.Viper

// Load reads configuration from defaults and environment variables.
func Load() (*Config, error) {
	v := initViper()

	cfg := &Config{
		JDWPPort:  v.GetInt("jdwp_port"),
		ProxyPort: v.GetInt("proxy_port"),
		Home:      v.GetString("home"),
	}
	return cfg, nil
}

// Reset clears the cached Viper instance. Useful for tests.
func Reset() {
	viperInstance = nil
}

func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()
	v.SetEnvPrefix("JDBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvVars(v)

	viperInstance = v
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("jdwp_port", DefaultJDWPPort)
	v.SetDefault("proxy_port", DefaultProxyPort)
	v.SetDefault("home", defaultHome())
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("jdwp_port", "JDBRIDGE_JDWP_PORT")
	v.BindEnv("proxy_port", "JDBRIDGE_PROXY_PORT")
	v.BindEnv("home", "JDBRIDGE_HOME")
}
