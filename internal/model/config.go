package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverDiskv    = "diskv"
)

// StoreConfig selects and configures the document store backend.
type StoreConfig struct {
	// Driver is one of "sqlite", "postgres" or "diskv".
	Driver string `mapstructure:"driver" yaml:"driver"`

	// Path is the sqlite database file.
	Path string `mapstructure:"path" yaml:"path"`

	// DSN is the postgres connection string.
	DSN string `mapstructure:"dsn" yaml:"dsn"`

	// DiskvDir is the base directory for the file-per-document backend.
	DiskvDir string `mapstructure:"diskv_dir" yaml:"diskv_dir"`
}

// EditorConfig holds editor behaviour settings.
type EditorConfig struct {
	AutosaveIntervalSec int `mapstructure:"autosave_interval_sec" yaml:"autosave_interval_sec"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr" yaml:"addr"`
	JWTSecret   string   `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTTTLHours int      `mapstructure:"jwt_ttl_hours" yaml:"jwt_ttl_hours"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Mode  string `mapstructure:"mode" yaml:"mode"`
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// ShareConfig holds the IMAP account used to deliver manuscript drafts.
type ShareConfig struct {
	IMAPHost string `mapstructure:"imap_host" yaml:"imap_host"`
	IMAPPort int    `mapstructure:"imap_port" yaml:"imap_port"`
	Username string `mapstructure:"username" yaml:"username"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
	Mailbox  string `mapstructure:"mailbox" yaml:"mailbox"`
	From     string `mapstructure:"from" yaml:"from"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme     string `mapstructure:"theme" yaml:"theme"`
	WrapWidth int    `mapstructure:"wrap_width" yaml:"wrap_width"`
}

// UserConfig identifies the local author for the TUI and CLI.
type UserConfig struct {
	ID string `mapstructure:"id" yaml:"id"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Editor  EditorConfig  `mapstructure:"editor" yaml:"editor"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Share   ShareConfig   `mapstructure:"share" yaml:"share"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	User    UserConfig    `mapstructure:"user" yaml:"user"`
}

// ConfigDir returns ~/.config/novelstudio.
func ConfigDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "novelstudio")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/novelstudio/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

func setDefaults(v *viper.Viper) {
	dir := ConfigDir()
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.path", filepath.Join(dir, "studio.db"))
	v.SetDefault("store.diskv_dir", filepath.Join(dir, "documents"))
	v.SetDefault("editor.autosave_interval_sec", 10)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.jwt_ttl_hours", 72)
	v.SetDefault("log.mode", "prod")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(dir, "studio.log"))
	v.SetDefault("share.imap_port", 993)
	v.SetDefault("share.tls", true)
	v.SetDefault("share.mailbox", "Drafts")
	v.SetDefault("display.theme", "default")
	v.SetDefault("display.wrap_width", 80)
	v.SetDefault("user.id", "local")
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *AppConfig {
	v := viper.New()
	setDefaults(v)
	cfg := &AppConfig{}
	_ = v.Unmarshal(cfg)
	return cfg
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A .env file in the working directory is loaded first, and NOVELSTUDIO_*
// environment variables override file values. If the file does not exist,
// defaults are used.
func LoadConfig(path string) (*AppConfig, error) {
	_ = godotenv.Load()

	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expanding config path %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(expanded)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("NOVELSTUDIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", expanded, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", expanded, err)
	}

	if cfg.Editor.AutosaveIntervalSec <= 0 {
		cfg.Editor.AutosaveIntervalSec = 10
	}
	for _, p := range []*string{&cfg.Store.Path, &cfg.Store.DiskvDir, &cfg.Log.File} {
		if x, err := homedir.Expand(*p); err == nil {
			*p = x
		}
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("store", cfg.Store)
	v.Set("editor", cfg.Editor)
	v.Set("server", cfg.Server)
	v.Set("log", cfg.Log)
	v.Set("share", cfg.Share)
	v.Set("display", cfg.Display)
	v.Set("user", cfg.User)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
