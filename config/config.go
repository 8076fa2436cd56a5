package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func setDefaults() {
	viper.SetDefault("serve.port", "3333")

	viper.SetDefault("astrato.url", "")
	viper.SetDefault("astrato.client.id", "")
	viper.SetDefault("astrato.client.secret", "")
	viper.SetDefault("astrato.embed.link", "")

	viper.SetDefault("session.name", "astratoui")
	viper.SetDefault("session.secret", "your-secret-key")

	viper.SetDefault("csrf.auth.key", "32-byte-long-auth-key-change-it!")

	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.debug", false)
}

// InitConfigurations loads the application configuration. Environment
// variables override file values, so ASTRATO_URL overrides astrato.url,
// ASTRATO_CLIENT_ID overrides astrato.client.id and so on.
func InitConfigurations(configFile string) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			panic(fmt.Errorf("Fatal error config file: %s \n", err))
		}
	}
}

func GetString(key string) string {
	return viper.GetString(key)
}

func GetBool(key string) bool {
	return viper.GetBool(key)
}
