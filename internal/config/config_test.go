package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv isolates a test from the developer's environment and config file.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, name := range env {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.OutputDir != "." {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, ".")
	}
	if cfg.ConverterPath != "weasyprint" {
		t.Errorf("ConverterPath = %q, want weasyprint", cfg.ConverterPath)
	}
	if cfg.ArchiveChannelName != "channel-archive" {
		t.Errorf("ArchiveChannelName = %q, want channel-archive", cfg.ArchiveChannelName)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.InitialDelay != time.Second {
		t.Errorf("InitialDelay = %v, want 1s", cfg.InitialDelay)
	}
	if cfg.SendRate != 1 {
		t.Errorf("SendRate = %v, want 1", cfg.SendRate)
	}
	if cfg.Token != "" || cfg.ExporterPath != "" || cfg.UploadServerID != "" || cfg.UploadChannelID != "" {
		t.Errorf("optional values should be empty: %+v", cfg)
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "test-config.yaml")

	content := `output_dir: "/custom/path"
exporter_path: "/opt/dce/DiscordChatExporter.Cli"
upload_server_id: "111"
upload_channel_id: "222"
archive_channel_name: "old-stuff"
max_retries: 2
initial_delay: 250ms
send_rate: 0.5
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.OutputDir != "/custom/path" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "/custom/path")
	}
	if cfg.ExporterPath != "/opt/dce/DiscordChatExporter.Cli" {
		t.Errorf("ExporterPath = %q", cfg.ExporterPath)
	}
	if cfg.UploadServerID != "111" || cfg.UploadChannelID != "222" {
		t.Errorf("upload ids = %q/%q", cfg.UploadServerID, cfg.UploadChannelID)
	}
	if cfg.ArchiveChannelName != "old-stuff" {
		t.Errorf("ArchiveChannelName = %q", cfg.ArchiveChannelName)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", cfg.MaxRetries)
	}
	if cfg.InitialDelay != 250*time.Millisecond {
		t.Errorf("InitialDelay = %v, want 250ms", cfg.InitialDelay)
	}
	if cfg.SendRate != 0.5 {
		t.Errorf("SendRate = %v, want 0.5", cfg.SendRate)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "abc.def.ghi")
	t.Setenv("SAVE_DIRECTORY", "/env/override/path")
	t.Setenv("DCE_CLI_PATH", "/env/dce")
	t.Setenv("UPLOAD_CHANNEL_ID", "333")
	t.Setenv("MAX_RETRIES", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Token != "abc.def.ghi" {
		t.Errorf("Token = %q", cfg.Token)
	}
	if cfg.OutputDir != "/env/override/path" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "/env/override/path")
	}
	if cfg.ExporterPath != "/env/dce" {
		t.Errorf("ExporterPath = %q", cfg.ExporterPath)
	}
	if cfg.UploadChannelID != "333" {
		t.Errorf("UploadChannelID = %q", cfg.UploadChannelID)
	}
	if cfg.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d, want 7", cfg.MaxRetries)
	}
}

func TestLoad_InitialDelaySeconds(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"3", 3 * time.Second},
		{"1.5", 1500 * time.Millisecond},
		{"2m", 2 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("INITIAL_DELAY", tt.value)

			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.InitialDelay != tt.want {
				t.Errorf("InitialDelay = %v, want %v", cfg.InitialDelay, tt.want)
			}
		})
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "test-config.yaml")

	content := `output_dir: "/file/path"
archive_channel_name: "from-file"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	t.Setenv("SAVE_DIRECTORY", "/env/override/path")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.OutputDir != "/env/override/path" {
		t.Errorf("OutputDir = %q, want %q (env should override file)", cfg.OutputDir, "/env/override/path")
	}
	if cfg.ArchiveChannelName != "from-file" {
		t.Errorf("ArchiveChannelName = %q, want %q (file value should remain)", cfg.ArchiveChannelName, "from-file")
	}
}

func TestLoad_DefaultPathUsedWhenPresent(t *testing.T) {
	clearEnv(t)
	path := DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("output_dir: /from/default\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputDir != "/from/default" {
		t.Errorf("OutputDir = %q, want /from/default", cfg.OutputDir)
	}
	if cfg.ConfigFile() != path {
		t.Errorf("ConfigFile() = %q, want %q", cfg.ConfigFile(), path)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	if err := os.WriteFile(configPath, []byte(`output_dir: [invalid yaml`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_NonExistentExplicitPath(t *testing.T) {
	clearEnv(t)
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Load() expected error for non-existent explicit path, got nil")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "discord-archive.yaml")

	cfg := &Config{
		Token:              "tok",
		ConverterPath:      "/usr/bin/weasyprint",
		OutputDir:          "/custom/output",
		UploadChannelID:    "42",
		ArchiveChannelName: "channel-archive",
		MaxRetries:         3,
		InitialDelay:       2 * time.Second,
		SendRate:           2,
	}
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	loaded.configFile = ""
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *loaded, *cfg)
	}
}

func TestSave_CreatesParentDir(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "dir", "discord-archive.yaml")

	cfg := &Config{OutputDir: "."}
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(configPath); err != nil {
		t.Errorf("config file not created: %v", err)
	}
}

func TestSave_FilePermissions(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "discord-archive.yaml")

	cfg := &Config{Token: "secret"}
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("File permissions = %o, want 0600", perm)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	if path == "" {
		t.Fatal("DefaultConfigPath() returned empty string")
	}
	if !strings.HasSuffix(path, filepath.Join("discord-archive", "discord-archive.yaml")) {
		t.Errorf("DefaultConfigPath() = %q, should end with discord-archive/discord-archive.yaml", path)
	}
	if !filepath.IsAbs(path) {
		t.Errorf("DefaultConfigPath() = %q, should be absolute path", path)
	}
}

func validConfig(t *testing.T) *Config {
	return &Config{
		ConverterPath:      "weasyprint",
		OutputDir:          filepath.Join(t.TempDir(), "out"),
		ArchiveChannelName: "channel-archive",
		MaxRetries:         5,
		InitialDelay:       time.Second,
		SendRate:           1,
	}
}

func TestValidate_CreatesOutputDir(t *testing.T) {
	cfg := validConfig(t)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	info, err := os.Stat(cfg.OutputDir)
	if err != nil {
		t.Fatalf("output directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("output path is not a directory")
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty output dir", func(c *Config) { c.OutputDir = "" }, "OutputDir"},
		{"empty archive channel", func(c *Config) { c.ArchiveChannelName = "" }, "ArchiveChannelName"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "MaxRetries"},
		{"zero delay", func(c *Config) { c.InitialDelay = 0 }, "InitialDelay"},
		{"zero send rate", func(c *Config) { c.SendRate = 0 }, "SendRate"},
		{"empty converter", func(c *Config) { c.ConverterPath = "" }, "ConverterPath"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrConfigInvalid) {
				t.Fatalf("Validate() error = %v, want ErrConfigInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q should name field %s", err, tt.field)
			}
		})
	}
}

func TestValidate_OutputDirIsFile(t *testing.T) {
	cfg := validConfig(t)
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0600); err != nil {
		t.Fatal(err)
	}
	cfg.OutputDir = file

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error when output dir is a file")
	}
}

func TestConfigFile_ReturnsUsedPath(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(configPath, []byte("output_dir: ./out\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ConfigFile() != configPath {
		t.Errorf("ConfigFile() = %q, want %q", cfg.ConfigFile(), configPath)
	}
}

func TestConfigFile_EmptyWhenDefaultsUsed(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ConfigFile() != "" {
		t.Errorf("ConfigFile() = %q, want empty string when no config file found", cfg.ConfigFile())
	}
}

func TestRedacted(t *testing.T) {
	cfg := &Config{Token: "MTIzNDU2Nzg5.abcdef.XYZW", OutputDir: "."}
	r := cfg.Redacted()
	if r.Token != "********XYZW" {
		t.Errorf("Redacted().Token = %q", r.Token)
	}
	if cfg.Token != "MTIzNDU2Nzg5.abcdef.XYZW" {
		t.Error("Redacted() must not modify the original")
	}
	if MaskToken("short") != "*****" {
		t.Errorf("MaskToken(short) = %q", MaskToken("short"))
	}
	if MaskToken("") != "" {
		t.Error("MaskToken(\"\") should be empty")
	}
}
