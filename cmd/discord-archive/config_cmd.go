package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chrisedwards/discord-archive/internal/config"
)

var saveConfig string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration after applying defaults, the config file and the
environment. The bot token is masked.

With --save the effective configuration, without the token, is written to the
given file so it can be edited and passed back with --config.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadEnvFiles(".", envFiles...); err != nil {
			return err
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if f := cfg.ConfigFile(); f != "" {
			fmt.Fprintf(out, "# loaded from %s\n", f)
		} else {
			fmt.Fprintln(out, "# no config file, defaults and environment only")
		}
		data, err := yaml.Marshal(cfg.Redacted())
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))

		if saveConfig != "" {
			clean := *cfg
			clean.Token = ""
			if err := clean.Save(saveConfig); err != nil {
				return err
			}
			fmt.Fprintf(out, "# saved to %s\n", saveConfig)
		}
		return nil
	},
}

func init() {
	configCmd.Flags().StringVar(&saveConfig, "save", "", "write the effective configuration (without token) to this file")
	rootCmd.AddCommand(configCmd)
}
