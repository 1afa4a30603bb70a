package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, injected at build time via ldflags.
var (
	Version   = "dev"
	Build     = "unknown"
	BuildTime = "unknown"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "discord-archive",
	Short: "Archive Discord channels, threads and DMs to PDF",
	Long: `discord-archive is an interactive console for a Discord bot operator.

Pick a channel by browsing a server or by searching for a member, export it with
DiscordChatExporter, convert it to PDF with weasyprint, and then upload it to an
archive channel, DM it to members, remove a member or delete the channel.

Configuration is read from a YAML file and the environment (.env, .env.txt and
secrets.txt in the working directory are loaded first).`,
	Version:       fmt.Sprintf("%s (build %s, %s)", Version, Build, BuildTime),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSession,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.config/discord-archive/discord-archive.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
