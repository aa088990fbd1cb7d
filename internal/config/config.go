package config

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// LoadConfig reads config.yaml from /etc/proxytag/ or the working directory
// and applies the defaults. A missing file is not an error.
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/proxytag/")
	viper.AddConfigPath(".")
	SetDefaultConfig()
	BindEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Debug().Msg("Config file not found, using defaults")
			return nil
		}
		return err
	}
	log.Debug().Str("file", viper.ConfigFileUsed()).Msg("Config file loaded")
	return nil
}

// BindEnv lets PROXYTAG_MITM_PROXY and friends override the config file.
func BindEnv() {
	viper.SetEnvPrefix("proxytag")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func SetDefaultConfig() {
	// MITM proxy
	viper.SetDefault("mitm.header", "X-Security-Proxy")
	viper.SetDefault("mitm.proxy", "http://localhost:8080")

	// Browser
	viper.SetDefault("browser.headless", false)
	viper.SetDefault("browser.ignore_cert_errors", true)
	viper.SetDefault("browser.disable_gpu", false)
	viper.SetDefault("browser.disable_images", false)
	viper.SetDefault("browser.bin", "")
	viper.SetDefault("browser.user_agent", "")
	viper.SetDefault("browser.launch_timeout", 30)
}
