package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pyneda/proxytag/internal/config"
	"github.com/pyneda/proxytag/lib"
	"github.com/pyneda/proxytag/pkg/browser"
	"github.com/pyneda/proxytag/pkg/command"
	"github.com/pyneda/proxytag/pkg/mitm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	browseRecordScope    string
	browseInterceptScope string
	browseShell          bool
)

var browseCmd = &cobra.Command{
	Use:   "browse [urls...]",
	Short: "Open a browser whose traffic is tagged for the MITM proxy",
	Long: `Launch a browser that sends its traffic through the MITM proxy, open the given
URLs as tabs and tag their requests with the signaling header.

Examples:
  # Record everything, break only on the first tab
  proxytag browse https://example.com --record global --intercept tab

  # Use a proxy on another port and drive it interactively
  proxytag browse --proxy http://127.0.0.1:8090 https://example.com

Shell commands:
  record [on|off] [tab|global]   break [on|off] [tab|global]
  open <url>   tabs   switch <key>   list   stats   help`,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().StringVar(&browseRecordScope, "record", "", "Record requests: tab (the opened tabs) or global")
	browseCmd.Flags().StringVar(&browseInterceptScope, "intercept", "", "Break on requests: tab (the opened tabs) or global")
	browseCmd.Flags().BoolVar(&browseShell, "shell", true, "Read commands from stdin")
	browseCmd.Flags().String("proxy", "", "MITM proxy URL (overrides mitm.proxy)")
	browseCmd.Flags().String("header", "", "Signaling header name (overrides mitm.header)")
	browseCmd.Flags().Bool("headless", false, "Run the browser headless (overrides browser.headless)")
	viper.BindPFlag("mitm.proxy", browseCmd.Flags().Lookup("proxy"))
	viper.BindPFlag("mitm.header", browseCmd.Flags().Lookup("header"))
	viper.BindPFlag("browser.headless", browseCmd.Flags().Lookup("headless"))
}

// validScope accepts the values of the scope flags.
func validScope(scope string) error {
	switch scope {
	case "", "tab", "global":
		return nil
	}
	return fmt.Errorf("invalid scope %q: must be tab or global", scope)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if err := validScope(browseRecordScope); err != nil {
		return err
	}
	if err := validScope(browseInterceptScope); err != nil {
		return err
	}
	if (browseRecordScope == "tab" || browseInterceptScope == "tab") && len(args) == 0 {
		return fmt.Errorf("tab scope needs at least one URL to open")
	}

	if err := config.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("proxy", viper.GetString("mitm.proxy")).Msg("Launching browser")
	manager, err := browser.NewTabManager(browser.TabManagerConfig{
		LaunchTimeout: time.Duration(viper.GetInt("browser.launch_timeout")) * time.Second,
	})
	if err != nil {
		return err
	}
	defer manager.Close()

	source := manager.Source()
	registry := mitm.NewRegistry()
	resolver := mitm.NewResolver(source)
	interceptor := mitm.NewInterceptor(source, registry, resolver)
	signals := mitm.NewSignals(viper.GetString("mitm.header"))

	initial := []struct {
		modifier *mitm.Modifier
		scope    string
	}{
		{signals.Record, browseRecordScope},
		{signals.Intercept, browseInterceptScope},
	}
	for _, reg := range initial {
		if reg.scope == "global" {
			registry.Add(reg.modifier, mitm.Global)
		}
	}
	for _, u := range args {
		id, err := manager.NewTab()
		if err != nil {
			return err
		}
		key := resolver.KeyFromTab(id)
		for _, reg := range initial {
			if reg.scope == "tab" {
				registry.Add(reg.modifier, key)
			}
		}
		if err := manager.Navigate(id, u); err != nil {
			log.Error().Err(err).Str("url", u).Msg("Could not open tab")
		}
	}

	if !browseShell {
		<-ctx.Done()
		return nil
	}

	shell := command.NewShell(registry, resolver, signals, source)
	registerBrowserCommands(shell, manager, resolver, interceptor)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(cmd.OutOrStdout(), "Type help for the list of commands, Ctrl-D to quit.")
	}
	return shell.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

func registerBrowserCommands(shell *command.Shell, manager *browser.TabManager, resolver *mitm.Resolver, interceptor *mitm.Interceptor) {
	shell.Handle("open", "open <url>", "open a tab and make it the active one", func(args []string) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("usage: open <url>")
		}
		id, err := manager.Open(args[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("opened %s", resolver.KeyFromTab(id)), nil
	})
	shell.Handle("tabs", "tabs [text|pretty|table|json|yaml]", "list open tabs", func(args []string) (string, error) {
		format := lib.Pretty
		if len(args) > 0 {
			parsed, err := lib.ParseFormatType(args[0])
			if err != nil {
				return "", err
			}
			format = parsed
		}
		return lib.FormatOutput(manager.Tabs(resolver), format)
	})
	shell.Handle("switch", "switch <key>", "make another tab the active one", func(args []string) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("usage: switch <key>")
		}
		want := strings.TrimPrefix(args[0], "tab:")
		for _, tab := range manager.Tabs(resolver) {
			if strings.TrimPrefix(tab.Key, "tab:") == want || string(tab.ID) == args[0] {
				if err := manager.Activate(tab.ID); err != nil {
					return "", err
				}
				return "ok", nil
			}
		}
		return "", fmt.Errorf("no tab %s", args[0])
	})
	shell.Handle("stats", "stats [text|pretty|table|json|yaml]", "show interception counters", func(args []string) (string, error) {
		format := lib.Pretty
		if len(args) > 0 {
			parsed, err := lib.ParseFormatType(args[0])
			if err != nil {
				return "", err
			}
			format = parsed
		}
		return lib.FormatSingleOutput(interceptor.Stats(), format)
	})
}
