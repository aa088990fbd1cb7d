package browser

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pyneda/proxytag/pkg/mitm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type TabManagerConfig struct {
	UserAgent     string
	LaunchTimeout time.Duration
}

// TabManager owns a browser and opens tabs that are watched by its TabSource.
type TabManager struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	source   *TabSource
	config   TabManagerConfig
}

func NewTabManager(config TabManagerConfig) (*TabManager, error) {
	if config.LaunchTimeout <= 0 {
		config.LaunchTimeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = viper.GetString("browser.user_agent")
	}
	b, l, err := NewBrowserWithTimeout(config.LaunchTimeout)
	if err != nil {
		return nil, err
	}
	source := NewTabSource(b)
	if err := source.Start(); err != nil {
		b.Close()
		l.Kill()
		return nil, err
	}
	return &TabManager{
		browser:  b,
		launcher: l,
		source:   source,
		config:   config,
	}, nil
}

func (m *TabManager) Source() *TabSource {
	return m.source
}

// NewTab creates a blank tab, starts watching it and makes it the active one.
func (m *TabManager) NewTab() (mitm.TabID, error) {
	page, err := m.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return "", fmt.Errorf("failed to create tab: %w", err)
	}
	if m.config.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: m.config.UserAgent}); err != nil {
			log.Warn().Err(err).Msg("Could not set user agent")
		}
	}
	if err := m.source.Watch(page); err != nil {
		_ = page.Close()
		return "", err
	}
	id := mitm.TabID(page.TargetID)
	m.source.Activate(id)
	return id, nil
}

// Navigate loads u in a tab.
func (m *TabManager) Navigate(id mitm.TabID, u string) error {
	page, ok := m.source.Page(id)
	if !ok {
		return fmt.Errorf("unknown tab %s", id)
	}
	if err := page.Navigate(u); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", u, err)
	}
	log.Info().Str("tab", string(id)).Str("url", u).Msg("Tab navigated")
	return nil
}

// Open creates a tab and navigates it to u.
func (m *TabManager) Open(u string) (mitm.TabID, error) {
	id, err := m.NewTab()
	if err != nil {
		return "", err
	}
	if u == "" {
		return id, nil
	}
	return id, m.Navigate(id, u)
}

// Activate brings a tab to the front and makes it the active one.
func (m *TabManager) Activate(id mitm.TabID) error {
	page, ok := m.source.Page(id)
	if !ok {
		return fmt.Errorf("unknown tab %s", id)
	}
	if _, err := page.Activate(); err != nil {
		return fmt.Errorf("failed to activate tab %s: %w", id, err)
	}
	m.source.Activate(id)
	return nil
}

// TabInfo describes an open tab.
type TabInfo struct {
	ID     mitm.TabID `json:"id" yaml:"id"`
	Key    string     `json:"key" yaml:"key"`
	URL    string     `json:"url" yaml:"url"`
	Title  string     `json:"title" yaml:"title"`
	Active bool       `json:"active" yaml:"active"`
}

func (t TabInfo) String() string {
	return fmt.Sprintf("%s %s", t.Key, t.URL)
}

func (t TabInfo) Pretty() string {
	marker := " "
	if t.Active {
		marker = "*"
	}
	return fmt.Sprintf("%s %s | %s | %s", marker, t.Key, t.Title, t.URL)
}

func (t TabInfo) TableHeaders() []string {
	return []string{"Key", "Title", "URL", "Active"}
}

func (t TabInfo) TableRow() []string {
	return []string{t.Key, t.Title, t.URL, fmt.Sprintf("%t", t.Active)}
}

// Tabs lists the watched tabs, labelled with the key resolver gave them. Tabs
// that never had a key assigned are labelled "-".
func (m *TabManager) Tabs(resolver *mitm.Resolver) []TabInfo {
	active, _ := m.source.ActiveWindow()
	var tabs []TabInfo
	for _, id := range m.source.Tabs() {
		page, ok := m.source.Page(id)
		if !ok {
			continue
		}
		info := TabInfo{ID: id, Key: "-", Active: mitm.WindowID(id) == active}
		if key, ok := resolver.Lookup(id); ok {
			info.Key = key.String()
		}
		if target, err := page.Info(); err == nil {
			info.URL = target.URL
			info.Title = target.Title
		}
		tabs = append(tabs, info)
	}
	sort.Slice(tabs, func(i, j int) bool { return tabs[i].ID < tabs[j].ID })
	return tabs
}

// Close shuts the browser down and waits for the event loops to finish.
func (m *TabManager) Close() {
	if err := m.browser.Close(); err != nil {
		log.Debug().Err(err).Msg("Error closing browser")
	}
	m.source.Close()
	m.launcher.Kill()
	m.launcher.Cleanup()
}
