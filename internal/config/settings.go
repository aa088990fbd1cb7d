package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Settings is the part of the configuration the browse command depends on.
type Settings struct {
	Header        string `validate:"required,printascii,excludesall=:;()<>@"`
	Proxy         string `validate:"omitempty,url"`
	LaunchTimeout int    `validate:"gte=1"`
}

func Current() Settings {
	return Settings{
		Header:        viper.GetString("mitm.header"),
		Proxy:         viper.GetString("mitm.proxy"),
		LaunchTimeout: viper.GetInt("browser.launch_timeout"),
	}
}

// Validate checks the loaded configuration.
func Validate() error {
	settings := Current()
	if err := validator.New().Struct(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if strings.ContainsAny(settings.Header, " \t") {
		return fmt.Errorf("invalid configuration: header %q contains whitespace", settings.Header)
	}
	return nil
}
