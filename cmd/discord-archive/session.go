package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/chrisedwards/discord-archive/internal/config"
	"github.com/chrisedwards/discord-archive/internal/discord"
	"github.com/chrisedwards/discord-archive/internal/export"
	"github.com/chrisedwards/discord-archive/internal/ui"
	"github.com/chrisedwards/discord-archive/internal/workflow"
)

// envFiles are read from the working directory, in order. Variables already
// set in the environment are not overwritten.
var envFiles = []string{".env", ".env.txt", "secrets.txt"}

// loadEnvFiles loads the files that exist under dir.
func loadEnvFiles(dir string, names ...string) error {
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the env files, then the configuration, and validates it.
func loadConfig() (*config.Config, error) {
	if err := loadEnvFiles(".", envFiles...); err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSession(cmd *cobra.Command, _ []string) error {
	lg := newLogger(cmd.ErrOrStderr(), verbose)
	slog.SetDefault(lg)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if f := cfg.ConfigFile(); f != "" {
		lg.Debug("configuration loaded", "file", f)
	}

	con := ui.NewConsole(cmd.OutOrStdout())
	ask := ui.HuhPrompter{}

	// missing tools fail each archive attempt; warn once up front
	if _, err := export.FindExporter(cfg.ExporterPath); err != nil {
		con.Warn("%v", err)
	}
	if _, err := export.FindConverter(cfg.ConverterPath); err != nil {
		con.Warn("%v", err)
	}

	if cfg.Token == "" {
		tok, err := ask.Secret("Enter your Discord bot token")
		if err != nil {
			return cancelled(con, err)
		}
		if tok == "" {
			return errors.New("no Discord bot token provided")
		}
		cfg.Token = tok
	}
	creds, err := discord.NewCredentials(cfg.Token)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	con.Info("Connecting to Discord...")
	client, err := discord.Open(ctx, creds, discord.Options{
		MaxRetries:   cfg.MaxRetries,
		InitialDelay: cfg.InitialDelay,
		Logger:       lg,
	})
	if err != nil {
		if errors.Is(err, discord.ErrAuth) {
			return fmt.Errorf("login failed, check DISCORD_TOKEN: %w", err)
		}
		return fmt.Errorf("connecting to Discord: %w", err)
	}
	defer client.Close()
	self := client.Self()
	con.Success("Logged in as %s (ID: %s)", self.DisplayName(), self.ID)

	arch := export.NewArchiver(export.Options{
		ExporterPath:  cfg.ExporterPath,
		ConverterPath: cfg.ConverterPath,
		Token:         creds.Token,
		OutputDir:     cfg.OutputDir,
		Logger:        lg,
	})
	w := workflow.New(client, arch, ask, con, workflow.Settings{
		UploadServerID:     cfg.UploadServerID,
		UploadChannelID:    cfg.UploadChannelID,
		ArchiveChannelName: cfg.ArchiveChannelName,
		SendRate:           cfg.SendRate,
	}, lg)

	if err := w.Run(ctx); err != nil {
		return cancelled(con, err)
	}
	con.Print("Goodbye.")
	return nil
}

// cancelled turns operator cancellation into a clean exit.
func cancelled(con *ui.Console, err error) error {
	if errors.Is(err, ui.ErrAborted) || errors.Is(err, context.Canceled) {
		con.Warn("Operation cancelled.")
		return nil
	}
	return err
}
