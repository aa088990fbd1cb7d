package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// GetBrowserLauncher returns a launcher that sends all browser traffic through
// the configured MITM proxy, using a throwaway profile.
func GetBrowserLauncher() *launcher.Launcher {
	profile := filepath.Join(os.TempDir(), "proxytag-"+uuid.NewString())
	options := launcher.New().
		Headless(viper.GetBool("browser.headless")).
		UserDataDir(profile).
		Set("allow-running-insecure-content").
		Set("disable-infobars").
		Set("disable-extensions").
		Set("no-sandbox")

	if bin := viper.GetString("browser.bin"); bin != "" {
		options = options.Bin(bin)
	}
	if proxy := viper.GetString("mitm.proxy"); proxy != "" {
		options = options.Proxy(proxy)
		// Chrome bypasses proxies for loopback hosts unless told otherwise.
		options = options.Set("proxy-bypass-list", "<-loopback>")
	}
	if viper.GetBool("browser.ignore_cert_errors") {
		options = options.Set("ignore-certificate-errors")
	}
	if viper.GetBool("browser.disable_images") {
		options = options.Set("blink-settings", "imagesEnabled=false")
	}
	if viper.GetBool("browser.disable_gpu") {
		options = options.Set("disable-gpu")
	}
	log.Debug().Str("profile", profile).Str("proxy", viper.GetString("mitm.proxy")).Msg("Browser launcher configured")
	return options
}

// NewBrowserWithTimeout launches and connects a browser, giving up after
// timeoutDuration.
func NewBrowserWithTimeout(timeoutDuration time.Duration) (*rod.Browser, *launcher.Launcher, error) {
	type result struct {
		browser *rod.Browser
		err     error
	}

	l := GetBrowserLauncher()
	resultChan := make(chan result, 1)

	go func() {
		controlURL, err := l.Launch()
		if err != nil {
			resultChan <- result{nil, fmt.Errorf("failed to launch browser: %w", err)}
			return
		}
		b := rod.New().ControlURL(controlURL)
		if err := b.Connect(); err != nil {
			resultChan <- result{nil, fmt.Errorf("failed to connect to browser: %w", err)}
			return
		}
		resultChan <- result{browser: b}
	}()

	select {
	case res := <-resultChan:
		if res.err != nil {
			l.Kill()
		}
		return res.browser, l, res.err
	case <-time.After(timeoutDuration):
		l.Kill()
		return nil, nil, fmt.Errorf("timeout reached while trying to launch a browser")
	}
}
