package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dumpconfigOutput string

// dumpconfigCmd represents the dumpconfig command
var dumpconfigCmd = &cobra.Command{
	Use:   "dumpconfig",
	Short: "Dumps default configuration file",
	Long:  `Dumps the current configuration, defaults included, to a YAML file that is never overwritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.SafeWriteConfigAs(dumpconfigOutput); err != nil {
			return err
		}
		log.Info().Str("file", dumpconfigOutput).Msg("Config file written")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpconfigCmd)
	dumpconfigCmd.Flags().StringVarP(&dumpconfigOutput, "output", "o", "config.yaml", "File to write the configuration to")
}
