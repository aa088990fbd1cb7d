package cmd

import (
	"fmt"
	"os"

	"github.com/pyneda/proxytag/internal/config"
	"github.com/pyneda/proxytag/lib"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string
var logFile string
var debugLogging bool
var prettyLogs bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "proxytag",
	Short: "Tag browser traffic so a MITM proxy can record or intercept it",
	Long: `proxytag drives a browser through a MITM proxy (OWASP ZAP, Burp, mitmproxy)
and adds a signaling header to the requests of selected tabs, or of every tab,
telling the proxy to record or to break on them.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.proxytag.yaml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also append JSON logs to this file")
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Use debug level logging")
	rootCmd.PersistentFlags().BoolVar(&prettyLogs, "pretty", true, "Use pretty logging instead JSON")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		lib.SetLogLevel(debugLogging)
		if logFile != "" {
			return lib.ZeroConsoleAndFileLog(logFile, prettyLogs)
		}
		lib.ZeroConsoleLog(prettyLogs)
		return nil
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Fatal error reading config file")
	}
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		cobra.CheckErr(err)
		if _, err := os.Stat(home + "/.proxytag.yaml"); err != nil {
			return
		}
		viper.SetConfigFile(home + "/.proxytag.yaml")
	}

	if err := viper.MergeInConfig(); err != nil {
		cobra.CheckErr(fmt.Errorf("could not read config file %s: %w", viper.ConfigFileUsed(), err))
	}
	fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
}
